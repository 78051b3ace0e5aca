package server

import (
	"context"
	"net/http"

	"modelpay/internal/alerts"
	"modelpay/internal/artifact"
	"modelpay/internal/auth"
	"modelpay/internal/config"
	"modelpay/internal/consumption"
	"modelpay/internal/ledger"
	"modelpay/internal/payment"
	"modelpay/internal/recharge"
	"modelpay/internal/webhook"

	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
	db     *sqlx.DB
	config *config.Config
	alerts *alerts.Service
}

func New(db *sqlx.DB, cfg *config.Config, alertService *alerts.Service) *Server {
	router := gin.Default()
	router.Use(corsMiddleware())
	router.Use(RequestLoggingMiddleware())
	router.Use(MetricsMiddleware())
	router.Use(RateLimitMiddleware(50, 100))

	ledgerRepo := ledger.NewRepository(db)
	consumptionRepo := consumption.NewRepository(db, ledgerRepo)
	artifactRepo := artifact.NewRepository(db, consumptionRepo)
	rechargeRepo := recharge.NewRepository(db, ledgerRepo)

	provider := payment.NewHTTPClient(cfg.ProviderBaseURL, cfg.ProviderAPIKey)
	rechargeService := recharge.NewService(rechargeRepo, provider)
	rechargeService.SetAlerter(alertService)

	ledgerHandler := ledger.NewHandler(db)
	consumptionHandler := consumption.NewHandler(consumptionRepo)
	artifactHandler := artifact.NewHandler(artifactRepo)
	rechargeHandler := recharge.NewHandler(rechargeService)
	webhookHandler := webhook.NewHandler(rechargeService, cfg.WebhookSecret, alertService)

	// Provider endpoint: authenticated by shared secret, not by user session.
	router.POST("/billing/webhook", webhookHandler.Handle)

	authMiddleware := auth.AuthMiddleware(cfg.JWTSecret)
	protected := router.Group("/")
	protected.Use(authMiddleware)
	{
		protected.GET("/balance", ledgerHandler.GetBalance)
		protected.POST("/consumption", consumptionHandler.Spend)
		protected.GET("/consumption", consumptionHandler.List)
		protected.POST("/recharge", rechargeHandler.Create)
		protected.GET("/recharge", rechargeHandler.List)
		protected.GET("/recharge/status", rechargeHandler.GetStatus)
		protected.GET("/artifacts", artifactHandler.List)
		protected.GET("/artifacts/:artifactID", artifactHandler.Get)
		protected.POST("/artifacts/:artifactID/purchase", artifactHandler.Purchase)
		protected.POST("/artifacts/:artifactID/download", artifactHandler.Download)
	}

	router.GET("/health", Health)
	router.GET("/metrics", Metrics())

	return &Server{
		router: router,
		db:     db,
		config: cfg,
		alerts: alertService,
	}
}

func (s *Server) Start(port string) error {
	s.http = &http.Server{
		Addr:    ":" + port,
		Handler: s.router,
	}
	return s.http.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.http == nil {
		return nil
	}
	return s.http.Shutdown(ctx)
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
