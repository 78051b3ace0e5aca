package consumption

import (
	"errors"
	"net/http"
	"strconv"

	"modelpay/internal/auth"
	"modelpay/internal/ledger"
	"modelpay/internal/metrics"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	repo Store
}

func NewHandler(repo Store) *Handler {
	return &Handler{repo: repo}
}

type SpendHTTPRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required"`
	ProductType string `json:"product_type" binding:"required"`
	ProductID   string `json:"product_id" binding:"required"`
	Description string `json:"description"`
}

func (h *Handler) Spend(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req SpendHTTPRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AmountCents <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents must be positive"})
		return
	}

	rec, newBalance, err := h.repo.Spend(c.Request.Context(), userID, SpendRequest{
		AmountCents: req.AmountCents,
		ProductType: req.ProductType,
		ProductID:   req.ProductID,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientFunds) {
			metrics.RecordInsufficientFunds()
			c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record consumption"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"consumption_id":    rec.ID,
		"new_balance_cents": newBalance,
	})
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = 50
	}
	productType := c.Query("product_type")

	recs, err := h.repo.ListByUser(c.Request.Context(), userID, productType, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load consumption records"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":    page,
		"limit":   limit,
		"records": recs,
	})
}
