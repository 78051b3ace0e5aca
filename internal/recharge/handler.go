package recharge

import (
	"errors"
	"net/http"
	"strconv"

	"modelpay/internal/auth"
	"modelpay/internal/payment"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type CreateRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

func (h *Handler) Create(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.AmountCents <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount_cents must be positive"})
		return
	}

	rec, checkoutURL, err := h.service.Create(c.Request.Context(), userID, req.AmountCents)
	if err != nil {
		if errors.Is(err, payment.ErrProviderUnavailable) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment provider unavailable, please retry"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create recharge"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"recharge_id":  rec.ID,
		"status":       rec.Status,
		"checkout_url": checkoutURL,
	})
}

func (h *Handler) GetStatus(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	rechargeID := c.Query("recharge_id")
	if rechargeID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "recharge_id is required"})
		return
	}

	status, err := h.service.Status(c.Request.Context(), userID, rechargeID)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"status": status})
	case errors.Is(err, ErrRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recharge not found"})
	case errors.Is(err, ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "recharge belongs to another user"})
	case errors.Is(err, payment.ErrProviderUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "payment provider unavailable, please retry"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to resolve recharge status"})
	}
}

func (h *Handler) List(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	recs, err := h.service.List(c.Request.Context(), userID, limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load recharges"})
		return
	}

	c.JSON(http.StatusOK, recs)
}
