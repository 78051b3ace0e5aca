package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/checkouts", r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req createCheckoutRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "rec-1", req.RequestID)
		require.Equal(t, int64(10000), req.AmountCents)

		json.NewEncoder(w).Encode(Checkout{
			ID:        "chk_123",
			RequestID: req.RequestID,
			Status:    CheckoutStatusPending,
			URL:       "https://pay.example.com/chk_123",
		})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key")
	checkout, err := client.CreateCheckout(context.Background(), "rec-1", 10000)
	require.NoError(t, err)
	assert.Equal(t, "chk_123", checkout.ID)
	assert.Equal(t, CheckoutStatusPending, checkout.Status)
}

func TestRetrieveCheckout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/checkouts/chk_123", r.URL.Path)
		json.NewEncoder(w).Encode(Checkout{ID: "chk_123", Status: CheckoutStatusCompleted})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key")
	checkout, err := client.RetrieveCheckout(context.Background(), "chk_123")
	require.NoError(t, err)
	assert.True(t, IsCompleted(checkout.Status))
}

func TestRetrieveCheckoutNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key")
	_, err := client.RetrieveCheckout(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrCheckoutNotFound)
}

func TestRetrieveCheckoutServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, "test-key")
	_, err := client.RetrieveCheckout(context.Background(), "chk_123")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestProviderDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	client := NewHTTPClient(srv.URL, "test-key")
	_, err := client.CreateCheckout(context.Background(), "rec-1", 100)
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}

func TestStatusHelpers(t *testing.T) {
	assert.True(t, IsCompleted(CheckoutStatusPaid))
	assert.False(t, IsCompleted(CheckoutStatusPending))
	assert.True(t, IsTerminalFailure(CheckoutStatusExpired))
	assert.False(t, IsTerminalFailure(CheckoutStatusCompleted))
}
