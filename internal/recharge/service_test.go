package recharge

import (
	"context"
	"errors"
	"testing"

	"modelpay/internal/payment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStore struct{ mock.Mock }

func (m *MockStore) Create(ctx context.Context, id string, userID int, amountCents int64) (*Record, error) {
	args := m.Called(ctx, id, userID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id string) (*Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockStore) SetPaymentID(ctx context.Context, id, paymentID string) error {
	return m.Called(ctx, id, paymentID).Error(0)
}

func (m *MockStore) Complete(ctx context.Context, id, paymentID string) (bool, error) {
	args := m.Called(ctx, id, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Fail(ctx context.Context, id, paymentID string) (bool, error) {
	args := m.Called(ctx, id, paymentID)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ListByUser(ctx context.Context, userID int, limit, offset int) ([]Record, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Record), args.Error(1)
}

type MockProvider struct{ mock.Mock }

func (m *MockProvider) CreateCheckout(ctx context.Context, requestID string, amountCents int64) (*payment.Checkout, error) {
	args := m.Called(ctx, requestID, amountCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Checkout), args.Error(1)
}

func (m *MockProvider) RetrieveCheckout(ctx context.Context, checkoutID string) (*payment.Checkout, error) {
	args := m.Called(ctx, checkoutID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Checkout), args.Error(1)
}

func TestServiceCreate_RejectsNonPositiveAmount(t *testing.T) {
	svc := NewService(&MockStore{}, &MockProvider{})

	_, _, err := svc.Create(context.Background(), 20, 0)
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestServiceCreate_OpensCheckoutCorrelatedByRecordID(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("Create", mock.Anything, mock.AnythingOfType("string"), 20, int64(10000)).
		Return(&Record{ID: "any", UserID: 20, AmountCents: 10000, Status: StatusPending}, nil)
	provider.On("CreateCheckout", mock.Anything, mock.AnythingOfType("string"), int64(10000)).
		Return(&payment.Checkout{ID: "chk_1", URL: "https://pay.example.com/chk_1"}, nil)
	store.On("SetPaymentID", mock.Anything, mock.AnythingOfType("string"), "chk_1").Return(nil)

	rec, url, err := svc.Create(context.Background(), 20, 10000)
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example.com/chk_1", url)
	assert.Equal(t, "chk_1", rec.PaymentID)

	// The request id handed to the provider is the record id itself.
	createArgs := store.Calls[0].Arguments
	checkoutArgs := provider.Calls[0].Arguments
	assert.Equal(t, createArgs.String(1), checkoutArgs.String(1))
}

func TestServiceCreate_ProviderDownLeavesRecordPending(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("Create", mock.Anything, mock.AnythingOfType("string"), 20, int64(10000)).
		Return(&Record{ID: "rec-1", UserID: 20, AmountCents: 10000, Status: StatusPending}, nil)
	provider.On("CreateCheckout", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, payment.ErrProviderUnavailable)

	rec, _, err := svc.Create(context.Background(), 20, 10000)
	assert.ErrorIs(t, err, payment.ErrProviderUnavailable)
	require.NotNil(t, rec)
	assert.Equal(t, StatusPending, rec.Status)
	store.AssertNotCalled(t, "SetPaymentID", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceStatus_OwnershipMismatchIsForbidden(t *testing.T) {
	store := &MockStore{}
	svc := NewService(store, &MockProvider{})

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 99, Status: StatusPending}, nil)

	_, err := svc.Status(context.Background(), 20, "rec-1")
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestServiceStatus_TerminalStateSkipsProvider(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 20, Status: StatusCompleted}, nil)

	status, err := svc.Status(context.Background(), 20, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	provider.AssertNotCalled(t, "RetrieveCheckout", mock.Anything, mock.Anything)
}

func TestServiceStatus_PollCompletesPendingRecord(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 20, Status: StatusPending, PaymentID: "chk_1"}, nil)
	provider.On("RetrieveCheckout", mock.Anything, "chk_1").
		Return(&payment.Checkout{ID: "chk_1", Status: payment.CheckoutStatusCompleted}, nil)
	store.On("Complete", mock.Anything, "rec-1", "chk_1").Return(true, nil)

	status, err := svc.Status(context.Background(), 20, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
	store.AssertCalled(t, "Complete", mock.Anything, "rec-1", "chk_1")
}

func TestServiceStatus_PollAfterWebhookIsNoOp(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 20, Status: StatusPending, PaymentID: "chk_1"}, nil)
	provider.On("RetrieveCheckout", mock.Anything, "chk_1").
		Return(&payment.Checkout{ID: "chk_1", Status: payment.CheckoutStatusPaid}, nil)
	// Webhook won the race between GetByID and Complete: zero rows flipped.
	store.On("Complete", mock.Anything, "rec-1", "chk_1").Return(false, nil)

	status, err := svc.Status(context.Background(), 20, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, status)
}

func TestServiceStatus_ProviderDownStaysPending(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 20, Status: StatusPending, PaymentID: "chk_1"}, nil)
	provider.On("RetrieveCheckout", mock.Anything, "chk_1").
		Return(nil, payment.ErrProviderUnavailable)

	_, err := svc.Status(context.Background(), 20, "rec-1")
	assert.ErrorIs(t, err, payment.ErrProviderUnavailable)
	store.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Fail", mock.Anything, mock.Anything, mock.Anything)
}

func TestServiceStatus_ExpiredCheckoutFailsRecord(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 20, Status: StatusPending, PaymentID: "chk_1"}, nil)
	provider.On("RetrieveCheckout", mock.Anything, "chk_1").
		Return(&payment.Checkout{ID: "chk_1", Status: payment.CheckoutStatusExpired}, nil)
	store.On("Fail", mock.Anything, "rec-1", "chk_1").Return(true, nil)

	status, err := svc.Status(context.Background(), 20, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, status)
}

func TestServiceStatus_NoPaymentIDStaysPending(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	svc := NewService(store, provider)

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 20, Status: StatusPending}, nil)

	status, err := svc.Status(context.Background(), 20, "rec-1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, status)
	provider.AssertNotCalled(t, "RetrieveCheckout", mock.Anything, mock.Anything)
}

func TestServiceStatus_NotFound(t *testing.T) {
	store := &MockStore{}
	svc := NewService(store, &MockProvider{})

	store.On("GetByID", mock.Anything, "missing").Return(nil, ErrRecordNotFound)

	_, err := svc.Status(context.Background(), 20, "missing")
	assert.ErrorIs(t, err, ErrRecordNotFound)
}

func TestServiceComplete_Duplicate(t *testing.T) {
	store := &MockStore{}
	svc := NewService(store, &MockProvider{})

	store.On("Complete", mock.Anything, "rec-1", "chk_1").Return(true, nil).Once()
	store.On("Complete", mock.Anything, "rec-1", "chk_1").Return(false, nil).Once()

	newly, err := svc.Complete(context.Background(), "rec-1", "chk_1", SourceWebhook)
	require.NoError(t, err)
	assert.True(t, newly)

	newly, err = svc.Complete(context.Background(), "rec-1", "chk_1", SourcePoll)
	require.NoError(t, err)
	assert.False(t, newly)
}

func TestServiceCompleteError(t *testing.T) {
	store := &MockStore{}
	svc := NewService(store, &MockProvider{})

	store.On("Complete", mock.Anything, "rec-1", "chk_1").Return(false, errors.New("db down"))

	_, err := svc.Complete(context.Background(), "rec-1", "chk_1", SourceWebhook)
	assert.Error(t, err)
}

type captureAlerter struct {
	kinds []string
}

func (a *captureAlerter) Raise(ctx context.Context, kind, subject, detail string) error {
	a.kinds = append(a.kinds, kind)
	return nil
}

func TestServiceStatus_ProviderDownRaisesAlert(t *testing.T) {
	store := &MockStore{}
	provider := &MockProvider{}
	alerter := &captureAlerter{}
	svc := NewService(store, provider)
	svc.SetAlerter(alerter)

	store.On("GetByID", mock.Anything, "rec-1").
		Return(&Record{ID: "rec-1", UserID: 20, Status: StatusPending, PaymentID: "chk_1"}, nil)
	provider.On("RetrieveCheckout", mock.Anything, "chk_1").
		Return(nil, payment.ErrProviderUnavailable)

	_, err := svc.Status(context.Background(), 20, "rec-1")
	assert.ErrorIs(t, err, payment.ErrProviderUnavailable)
	assert.Equal(t, []string{"provider_down"}, alerter.kinds)
}
