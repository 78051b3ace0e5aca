package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"modelpay/internal/metrics"
)

// Checkout statuses reported by the provider.
const (
	CheckoutStatusPending   = "pending"
	CheckoutStatusCompleted = "completed"
	CheckoutStatusPaid      = "paid"
	CheckoutStatusFailed    = "failed"
	CheckoutStatusExpired   = "expired"
)

var (
	ErrProviderUnavailable = errors.New("payment provider unavailable")
	ErrCheckoutNotFound    = errors.New("checkout not found")
)

type Checkout struct {
	ID          string `json:"id"`
	RequestID   string `json:"request_id"`
	AmountCents int64  `json:"amount_cents"`
	Status      string `json:"status"`
	URL         string `json:"url"`
}

type Client interface {
	CreateCheckout(ctx context.Context, requestID string, amountCents int64) (*Checkout, error)
	RetrieveCheckout(ctx context.Context, checkoutID string) (*Checkout, error)
}

type HTTPClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewHTTPClient builds a provider client with a bounded request timeout so a
// hung provider call cannot pin an inbound request forever.
func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type createCheckoutRequest struct {
	RequestID   string `json:"request_id"`
	AmountCents int64  `json:"amount_cents"`
}

func (c *HTTPClient) CreateCheckout(ctx context.Context, requestID string, amountCents int64) (*Checkout, error) {
	body, err := json.Marshal(createCheckoutRequest{
		RequestID:   requestID,
		AmountCents: amountCents,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/checkouts", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderError("create_checkout")
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		metrics.RecordProviderError("create_checkout")
		return nil, fmt.Errorf("%w: provider returned %d", ErrProviderUnavailable, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("create checkout rejected: status %d", resp.StatusCode)
	}

	var checkout Checkout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("%w: bad response body: %v", ErrProviderUnavailable, err)
	}

	return &checkout, nil
}

func (c *HTTPClient) RetrieveCheckout(ctx context.Context, checkoutID string) (*Checkout, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/v1/checkouts/"+checkoutID, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordProviderError("retrieve_checkout")
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrCheckoutNotFound
	}
	if resp.StatusCode != http.StatusOK {
		metrics.RecordProviderError("retrieve_checkout")
		return nil, fmt.Errorf("%w: provider returned %d", ErrProviderUnavailable, resp.StatusCode)
	}

	var checkout Checkout
	if err := json.NewDecoder(resp.Body).Decode(&checkout); err != nil {
		return nil, fmt.Errorf("%w: bad response body: %v", ErrProviderUnavailable, err)
	}

	return &checkout, nil
}

// IsTerminalFailure reports whether a provider status means the checkout can
// no longer complete.
func IsTerminalFailure(status string) bool {
	return status == CheckoutStatusFailed || status == CheckoutStatusExpired
}

// IsCompleted reports whether a provider status means the money moved.
func IsCompleted(status string) bool {
	return status == CheckoutStatusCompleted || status == CheckoutStatusPaid
}
