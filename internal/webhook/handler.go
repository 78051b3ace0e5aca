package webhook

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net/http"

	"modelpay/internal/alerts"
	"modelpay/internal/api"
	"modelpay/internal/logger"
	"modelpay/internal/metrics"
	"modelpay/internal/payment"
	"modelpay/internal/recharge"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// SecretHeader authenticates the provider; there is no user session on this
// endpoint.
const SecretHeader = "X-Webhook-Secret"

// Alerter feeds the ops inbox; nil disables alerting.
type Alerter interface {
	Raise(ctx context.Context, kind, subject, detail string) error
}

type Handler struct {
	service *recharge.Service
	secret  string
	alerter Alerter
}

func NewHandler(service *recharge.Service, secret string, alerter Alerter) *Handler {
	return &Handler{service: service, secret: secret, alerter: alerter}
}

// Handle ingests one provider notification. The contract with the provider:
// a 2xx acknowledges the event as durably applied (or recognized as already
// applied); any other status asks for redelivery. So internal failures must
// NOT be swallowed into a 200.
func (h *Handler) Handle(c *gin.Context) {
	if h.secret != "" {
		got := c.GetHeader(SecretHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			metrics.RecordWebhookEvent("unauthorized")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid webhook secret"})
			return
		}
	}

	var event Event
	if err := c.ShouldBindJSON(&event); err != nil {
		metrics.RecordWebhookEvent("malformed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed event payload"})
		return
	}

	if !event.Relevant() {
		// Safe to acknowledge: we will never want this event redelivered.
		metrics.RecordWebhookEvent("ignored")
		c.JSON(http.StatusOK, api.WebhookAck{Received: true})
		return
	}

	if event.Object.RequestID == "" {
		metrics.RecordWebhookEvent("malformed")
		c.JSON(http.StatusBadRequest, gin.H{"error": "event is missing request_id"})
		return
	}

	ctx := c.Request.Context()

	if _, err := h.service.Get(ctx, event.Object.RequestID); err != nil {
		if errors.Is(err, recharge.ErrRecordNotFound) {
			// Unknown purchase: a data problem, not a transient fault.
			// Redelivery cannot fix it, so it is logged and rejected once.
			logger.Errorf("webhook references unknown recharge %s", event.Object.RequestID)
			metrics.RecordWebhookEvent("unknown_record")
			h.raise(ctx, alerts.KindUnknownWebhookRecord, "webhook for unknown recharge",
				fmt.Sprintf("request_id=%s payment_id=%s", event.Object.RequestID, event.Object.ID))
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown recharge record"})
			return
		}
		h.internalError(c, err)
		return
	}

	if !payment.IsCompleted(event.Object.Status) {
		if payment.IsTerminalFailure(event.Object.Status) {
			if _, err := h.service.Fail(ctx, event.Object.RequestID, event.Object.ID); err != nil {
				h.internalError(c, err)
				return
			}
			metrics.RecordWebhookEvent("failed_checkout")
			c.JSON(http.StatusOK, api.WebhookAck{Received: true})
			return
		}
		metrics.RecordWebhookEvent("ignored")
		c.JSON(http.StatusOK, api.WebhookAck{Received: true})
		return
	}

	newly, err := h.service.Complete(ctx, event.Object.RequestID, event.Object.ID, recharge.SourceWebhook)
	if err != nil {
		// The status flip and the credit share one transaction, so nothing
		// was half-applied; asking the provider to redeliver is safe.
		h.internalError(c, err)
		return
	}

	if newly {
		metrics.RecordWebhookEvent("completed")
	} else {
		metrics.RecordWebhookEvent("duplicate")
	}
	c.JSON(http.StatusOK, api.WebhookAck{Received: true})
}

func (h *Handler) internalError(c *gin.Context, err error) {
	correlationID := uuid.New().String()
	logger.ErrorfWithID(correlationID, "webhook processing failed: %v", err)
	metrics.RecordWebhookEvent("error")
	h.raise(c.Request.Context(), alerts.KindCreditFailure, "webhook completion failed",
		fmt.Sprintf("correlation_id=%s", correlationID))
	c.JSON(http.StatusInternalServerError, gin.H{
		"error":          "event processing failed, please redeliver",
		"correlation_id": correlationID,
	})
}

func (h *Handler) raise(ctx context.Context, kind, subject, detail string) {
	if h.alerter == nil {
		return
	}
	if err := h.alerter.Raise(ctx, kind, subject, detail); err != nil {
		logger.Errorf("failed to raise %s alert: %v", kind, err)
	}
}
