package recharge

import (
	"context"
	"errors"
	"fmt"

	"modelpay/internal/alerts"
	"modelpay/internal/logger"
	"modelpay/internal/metrics"
	"modelpay/internal/payment"

	"github.com/google/uuid"
)

var (
	ErrInvalidAmount = errors.New("recharge amount must be positive")
	ErrForbidden     = errors.New("recharge record belongs to another user")
)

// Sources of a completion trigger, for metrics only.
const (
	SourceWebhook = "webhook"
	SourcePoll    = "poll"
)

// Alerter feeds the ops inbox; nil disables alerting.
type Alerter interface {
	Raise(ctx context.Context, kind, subject, detail string) error
}

type Service struct {
	repo     Store
	provider payment.Client
	alerter  Alerter
}

func NewService(repo Store, provider payment.Client) *Service {
	return &Service{repo: repo, provider: provider}
}

func (s *Service) SetAlerter(a Alerter) {
	s.alerter = a
}

func (s *Service) providerDown(ctx context.Context, operation string, err error) {
	if s.alerter == nil {
		return
	}
	if raiseErr := s.alerter.Raise(ctx, alerts.KindProviderDown, "payment provider unreachable",
		fmt.Sprintf("operation=%s error=%v", operation, err)); raiseErr != nil {
		logger.Errorf("failed to raise provider alert: %v", raiseErr)
	}
}

// Create persists a pending record, then opens a provider checkout session
// correlated by the record id. A provider failure leaves the record pending;
// the client can retry with a fresh recharge.
func (s *Service) Create(ctx context.Context, userID int, amountCents int64) (*Record, string, error) {
	if amountCents <= 0 {
		return nil, "", ErrInvalidAmount
	}

	id := uuid.New().String()
	rec, err := s.repo.Create(ctx, id, userID, amountCents)
	if err != nil {
		return nil, "", err
	}
	metrics.RecordRechargeCreated()

	checkout, err := s.provider.CreateCheckout(ctx, id, amountCents)
	if err != nil {
		logger.Errorf("checkout creation failed for recharge %s: %v", id, err)
		s.providerDown(ctx, "create_checkout", err)
		return rec, "", err
	}

	if err := s.repo.SetPaymentID(ctx, id, checkout.ID); err != nil {
		logger.Errorf("failed to store payment id for recharge %s: %v", id, err)
	}
	rec.PaymentID = checkout.ID

	return rec, checkout.URL, nil
}

// Complete drives the pending -> completed transition from either trigger.
// Returns newly=false without error when the record already left pending.
func (s *Service) Complete(ctx context.Context, recordID, paymentID, source string) (bool, error) {
	newly, err := s.repo.Complete(ctx, recordID, paymentID)
	if err != nil {
		return false, err
	}
	if newly {
		metrics.RecordRechargeCompleted(source)
		logger.Infof("recharge %s completed via %s", recordID, source)
	}
	return newly, nil
}

func (s *Service) Fail(ctx context.Context, recordID, paymentID string) (bool, error) {
	return s.repo.Fail(ctx, recordID, paymentID)
}

func (s *Service) Get(ctx context.Context, recordID string) (*Record, error) {
	return s.repo.GetByID(ctx, recordID)
}

// Status is the reconciliation fallback: when the webhook has not arrived
// yet, the client poll asks the provider directly and funnels the answer
// through the same Complete/Fail transitions the webhook uses.
func (s *Service) Status(ctx context.Context, userID int, recordID string) (Status, error) {
	rec, err := s.repo.GetByID(ctx, recordID)
	if err != nil {
		return "", err
	}

	if rec.UserID != userID {
		return "", ErrForbidden
	}

	if rec.Status.Terminal() {
		return rec.Status, nil
	}

	if rec.PaymentID == "" {
		// No checkout session was ever opened; nothing to reconcile against.
		return StatusPending, nil
	}

	checkout, err := s.provider.RetrieveCheckout(ctx, rec.PaymentID)
	if err != nil {
		// Record stays pending; the next poll or the webhook resolves it.
		s.providerDown(ctx, "retrieve_checkout", err)
		return "", err
	}

	switch {
	case payment.IsCompleted(checkout.Status):
		if _, err := s.Complete(ctx, recordID, checkout.ID, SourcePoll); err != nil {
			return "", err
		}
		return StatusCompleted, nil
	case payment.IsTerminalFailure(checkout.Status):
		if _, err := s.Fail(ctx, recordID, checkout.ID); err != nil {
			return "", err
		}
		return StatusFailed, nil
	default:
		return StatusPending, nil
	}
}

func (s *Service) List(ctx context.Context, userID int, limit, offset int) ([]Record, error) {
	return s.repo.ListByUser(ctx, userID, limit, offset)
}
