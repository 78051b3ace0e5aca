package artifact

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

func (h *Handler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	artifacts, err := h.repo.ListPublished(c.Request.Context(), limit, offset)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load artifacts"})
		return
	}

	c.JSON(http.StatusOK, artifacts)
}

func (h *Handler) Get(c *gin.Context) {
	a, err := h.repo.GetByID(c.Request.Context(), c.Param("artifactID"))
	if err != nil {
		if errors.Is(err, ErrArtifactNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load artifact"})
		return
	}

	c.JSON(http.StatusOK, a)
}

func (h *Handler) Purchase(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	result, err := h.repo.Purchase(c.Request.Context(), userID, c.Param("artifactID"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, result)
	case errors.Is(err, ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
	case errors.Is(err, ErrArtifactUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "artifact is not available for purchase"})
	case errors.Is(err, ledger.ErrInsufficientFunds):
		metrics.RecordInsufficientFunds()
		c.JSON(http.StatusBadRequest, gin.H{"error": "insufficient balance"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to purchase artifact"})
	}
}

func (h *Handler) Download(c *gin.Context) {
	userID, ok := auth.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	err := h.repo.RegisterDownload(c.Request.Context(), userID, c.Param("artifactID"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"granted": true})
	case errors.Is(err, ErrArtifactNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "artifact not found"})
	case errors.Is(err, ErrArtifactUnavailable):
		c.JSON(http.StatusConflict, gin.H{"error": "artifact is not available"})
	case errors.Is(err, ErrPurchaseRequired):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": "artifact requires purchase"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register download"})
	}
}
