package checkout

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"stickershop/cmd/internal/metrics"
	"stickershop/cmd/internal/purchase"
)

// eventCheckoutCompleted is the one event type that mutates the ledger.
// Everything else is acknowledged and ignored, which keeps the endpoint
// forward-compatible with event types this service does not understand.
const eventCheckoutCompleted = "checkout.session.completed"

const defaultSignatureTolerance = 5 * time.Minute

// Event is the provider's webhook envelope, reduced to the fields this
// service consumes.
type Event struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object struct {
			ID string `json:"id"`
		} `json:"object"`
	} `json:"data"`
}

// VerifySignature checks the provider's signature header against the raw
// payload. The scheme is the processor's v1 signing: the header carries a
// unix timestamp and one or more HMAC-SHA256 hex digests computed over
// "<timestamp>.<payload>" with the shared secret.
//
// A non-positive tolerance disables the timestamp freshness check.
func VerifySignature(payload []byte, header, secret string, now time.Time, tolerance time.Duration) error {
	header = strings.TrimSpace(header)
	secret = strings.TrimSpace(secret)
	if header == "" || secret == "" {
		return ErrInvalidSignature
	}

	var ts string
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if ts == "" || len(candidates) == 0 {
		return ErrInvalidSignature
	}

	if tolerance > 0 {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return ErrInvalidSignature
		}
		at := time.Unix(sec, 0)
		if at.Before(now.Add(-tolerance)) || at.After(now.Add(tolerance)) {
			return ErrInvalidSignature
		}
	}

	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(ts))
	_, _ = mac.Write([]byte("."))
	_, _ = mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, sig := range candidates {
		if hmac.Equal([]byte(expected), []byte(strings.TrimSpace(sig))) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// Reconciler processes verified webhook deliveries against the purchase
// ledger.
type Reconciler struct {
	log       *slog.Logger
	purchases *purchase.Service
	secret    string
	tolerance time.Duration
}

// ReconcilerOption configures the Reconciler.
type ReconcilerOption func(*Reconciler)

// WithSignatureTolerance overrides the timestamp freshness window
// (default 5m; zero or negative disables the check).
func WithSignatureTolerance(d time.Duration) ReconcilerOption {
	return func(r *Reconciler) { r.tolerance = d }
}

// NewReconciler constructs a webhook Reconciler.
// ErrNotConfigured when the webhook secret is absent.
func NewReconciler(log *slog.Logger, purchases *purchase.Service, secret string, opts ...ReconcilerOption) (*Reconciler, error) {
	if purchases == nil {
		return nil, ErrInvalidInput
	}
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, ErrNotConfigured
	}
	if log == nil {
		log = slog.Default()
	}
	r := &Reconciler{
		log:       log,
		purchases: purchases,
		secret:    secret,
		tolerance: defaultSignatureTolerance,
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r, nil
}

// HandleEvent verifies and processes one webhook delivery.
//
// Signature verification comes first and a failure mutates nothing. On a
// verified payment-completed event the referenced purchase is fulfilled; a
// missing purchase is logged and ignored since the checkout-intent write and
// the webhook are independent external events that may race or be replayed.
func (r *Reconciler) HandleEvent(ctx context.Context, payload []byte, signatureHeader string, now time.Time) error {
	if r == nil || r.purchases == nil {
		return ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if err := VerifySignature(payload, signatureHeader, r.secret, now, r.tolerance); err != nil {
		metrics.WebhookEvents.WithLabelValues("invalid_signature").Inc()
		return err
	}

	var ev Event
	if err := json.Unmarshal(payload, &ev); err != nil {
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		return ErrMalformedEvent
	}

	if ev.Type != eventCheckoutCompleted {
		metrics.WebhookEvents.WithLabelValues("ignored").Inc()
		r.log.Debug("webhook.ignored", "type", ev.Type, "event_id", ev.ID)
		return nil
	}

	sessionID := strings.TrimSpace(ev.Data.Object.ID)
	if sessionID == "" {
		metrics.WebhookEvents.WithLabelValues("malformed").Inc()
		r.log.Warn("webhook.completed.no_session", "event_id", ev.ID)
		return nil
	}

	if _, err := r.purchases.FulfillCard(ctx, sessionID); err != nil {
		if errors.Is(err, purchase.ErrNotFound) {
			metrics.WebhookEvents.WithLabelValues("unmatched").Inc()
			r.log.Warn("webhook.completed.unknown_session", "session_id", sessionID, "event_id", ev.ID)
			return nil
		}
		metrics.WebhookEvents.WithLabelValues("error").Inc()
		return err
	}

	metrics.WebhookEvents.WithLabelValues("fulfilled").Inc()
	r.log.Info("webhook.completed.fulfilled", "session_id", sessionID, "event_id", ev.ID)
	return nil
}
