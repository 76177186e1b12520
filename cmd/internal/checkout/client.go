// Package checkout is the card-processor rail: an outbound client that
// creates hosted checkout sessions, and the webhook reconciler that turns
// signed payment-completed events into fulfilled purchases.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	defaultAPIBaseURL = "https://api.stripe.com"
	defaultTimeout    = 15 * time.Second
)

// ClientConfig configures the card-processor API client.
type ClientConfig struct {
	// SecretKey authenticates API calls. Empty disables the card rail.
	SecretKey string

	// BaseURL overrides the processor API endpoint (tests, mocks).
	BaseURL string

	// SuccessURL and CancelURL are where the hosted page sends the payer.
	SuccessURL string
	CancelURL  string

	// Timeout bounds each API call.
	Timeout time.Duration
}

// Session is a created hosted-checkout session.
type Session struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// SessionInput describes one single-item checkout.
type SessionInput struct {
	Name        string
	Description string
	ImageURL    string
	AmountMinor int64
	Currency    string

	// Metadata is echoed back on webhook events for correlation.
	Metadata map[string]string
}

// Client creates checkout sessions against the card-processor API.
type Client struct {
	secretKey  string
	baseURL    string
	successURL string
	cancelURL  string
	httpc      *http.Client
}

// NewClient constructs a card-processor client.
// ErrNotConfigured when the secret key is absent.
func NewClient(cfg ClientConfig) (*Client, error) {
	secret := strings.TrimSpace(cfg.SecretKey)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = defaultAPIBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		secretKey:  secret,
		baseURL:    base,
		successURL: strings.TrimSpace(cfg.SuccessURL),
		cancelURL:  strings.TrimSpace(cfg.CancelURL),
		httpc:      &http.Client{Timeout: timeout},
	}, nil
}

// PublishableKey derives the publishable counterpart of the secret key when
// it follows the conventional sk_/pk_ prefix pair; "" otherwise.
func (c *Client) PublishableKey() string {
	if c == nil {
		return ""
	}
	if strings.HasPrefix(c.secretKey, "sk_") {
		return "pk_" + strings.TrimPrefix(c.secretKey, "sk_")
	}
	return ""
}

// CreateSession creates a single-item hosted checkout session.
func (c *Client) CreateSession(ctx context.Context, in SessionInput) (Session, error) {
	if c == nil || c.httpc == nil {
		return Session{}, ErrNotConfigured
	}
	name := strings.TrimSpace(in.Name)
	if name == "" || in.AmountMinor <= 0 || strings.TrimSpace(in.Currency) == "" {
		return Session{}, ErrInvalidInput
	}

	form := url.Values{}
	form.Set("mode", "payment")
	form.Set("payment_method_types[]", "card")
	form.Set("success_url", c.successURL)
	form.Set("cancel_url", c.cancelURL)
	form.Set("line_items[0][quantity]", "1")
	form.Set("line_items[0][price_data][currency]", strings.ToLower(strings.TrimSpace(in.Currency)))
	form.Set("line_items[0][price_data][unit_amount]", strconv.FormatInt(in.AmountMinor, 10))
	form.Set("line_items[0][price_data][product_data][name]", name)
	if d := strings.TrimSpace(in.Description); d != "" {
		form.Set("line_items[0][price_data][product_data][description]", d)
	}
	if img := strings.TrimSpace(in.ImageURL); img != "" {
		form.Set("line_items[0][price_data][product_data][images][]", img)
	}
	for k, v := range in.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/checkout/sessions", strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(c.secretKey, "")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("checkout session: %w", ErrUnavailable)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode >= 500:
		return Session{}, fmt.Errorf("processor status %d: %w", resp.StatusCode, ErrUnavailable)
	case resp.StatusCode >= 400:
		var apiErr struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return Session{}, fmt.Errorf("processor status %d (%s): %w", resp.StatusCode, apiErr.Error.Message, ErrRejected)
	}

	var sess Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return Session{}, fmt.Errorf("checkout session response: %w", ErrUnavailable)
	}
	if sess.ID == "" {
		return Session{}, fmt.Errorf("checkout session without id: %w", ErrUnavailable)
	}
	return sess, nil
}
