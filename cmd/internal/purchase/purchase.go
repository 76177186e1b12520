// Package purchase is the single source of truth for "this payment happened".
//
// Both rails write here: the card rail inserts an unfulfilled purchase at
// checkout time and flips it on webhook delivery; the chain rail upserts a
// fulfilled purchase directly when an invoice is confirmed. Correlation keys
// (card session id, invoice id) are unique, so duplicate deliveries of the
// same external event collapse into the same row instead of duplicating it.
package purchase

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Rail identifies which payment mechanism produced a purchase.
type Rail string

const (
	RailCard  Rail = "card"
	RailChain Rail = "ton"
)

// Purchase is one fulfillment record, regardless of rail.
type Purchase struct {
	ID            string
	StickerID     string
	PayerID       string
	Rail          Rail
	CardSessionID *string
	InvoiceID     *string
	TxHash        *string
	Email         *string
	Fulfilled     bool
	AmountPaid    int64
	Currency      string
	CreatedAt     time.Time
}

// CardIntentInput describes an unfulfilled card-rail purchase.
type CardIntentInput struct {
	StickerID  string
	PayerID    string
	SessionID  string
	Email      *string
	AmountPaid int64
	Currency   string
	Now        time.Time
}

// ChainInput describes a fulfilled chain-rail purchase.
type ChainInput struct {
	StickerID  string
	PayerID    string
	InvoiceID  string
	TxHash     string
	Email      *string
	AmountPaid int64
	Currency   string
	Now        time.Time
}

// Service exposes the purchase ledger over a Store.
type Service struct {
	store Store
}

// NewService constructs a purchase Service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, ErrInvalidInput
	}
	return &Service{store: store}, nil
}

// RecordCardIntent inserts an unfulfilled purchase at checkout-session
// creation time, keyed by the card-processor session id.
func (s *Service) RecordCardIntent(ctx context.Context, in CardIntentInput) (Purchase, error) {
	if s == nil || s.store == nil {
		return Purchase{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}

	stickerID := strings.TrimSpace(in.StickerID)
	payerID := strings.TrimSpace(in.PayerID)
	sessionID := strings.TrimSpace(in.SessionID)
	if stickerID == "" || payerID == "" || sessionID == "" || in.AmountPaid <= 0 {
		return Purchase{}, ErrInvalidInput
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	p := Purchase{
		ID:            newULID(now),
		StickerID:     stickerID,
		PayerID:       payerID,
		Rail:          RailCard,
		CardSessionID: &sessionID,
		Email:         in.Email,
		Fulfilled:     false,
		AmountPaid:    in.AmountPaid,
		Currency:      strings.ToLower(strings.TrimSpace(in.Currency)),
		CreatedAt:     now,
	}
	if err := s.store.InsertIntent(ctx, p); err != nil {
		return Purchase{}, err
	}
	return p, nil
}

// FulfillCard marks the purchase for a card session as fulfilled.
//
// Fulfilled is monotonic: re-fulfilling an already fulfilled purchase is a
// no-op success, which makes replayed webhook deliveries safe.
func (s *Service) FulfillCard(ctx context.Context, sessionID string) (Purchase, error) {
	if s == nil || s.store == nil {
		return Purchase{}, ErrInvalidInput
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Purchase{}, ErrInvalidInput
	}
	return s.store.FulfillBySession(ctx, sessionID)
}

// RecordChainPurchase upserts the fulfilled purchase for a confirmed invoice.
// Repeated confirmation calls for the same invoice update the one row in
// place rather than inserting duplicates.
func (s *Service) RecordChainPurchase(ctx context.Context, in ChainInput) (Purchase, error) {
	if s == nil || s.store == nil {
		return Purchase{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}

	invoiceID := strings.TrimSpace(in.InvoiceID)
	txHash := strings.TrimSpace(in.TxHash)
	if invoiceID == "" || txHash == "" || strings.TrimSpace(in.StickerID) == "" {
		return Purchase{}, ErrInvalidInput
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	return s.store.UpsertChain(ctx, ChainUpsert{
		ID:         newULID(now),
		StickerID:  strings.TrimSpace(in.StickerID),
		PayerID:    strings.TrimSpace(in.PayerID),
		InvoiceID:  invoiceID,
		TxHash:     txHash,
		Email:      in.Email,
		AmountPaid: in.AmountPaid,
		Currency:   strings.ToLower(strings.TrimSpace(in.Currency)),
		Now:        now,
	})
}

// ByInvoice fetches the purchase referencing an invoice, if any.
func (s *Service) ByInvoice(ctx context.Context, invoiceID string) (Purchase, error) {
	if s == nil || s.store == nil {
		return Purchase{}, ErrInvalidInput
	}
	invoiceID = strings.TrimSpace(invoiceID)
	if invoiceID == "" {
		return Purchase{}, ErrInvalidInput
	}
	return s.store.GetByInvoice(ctx, invoiceID)
}

// BySession fetches the purchase for a card session id, if any.
func (s *Service) BySession(ctx context.Context, sessionID string) (Purchase, error) {
	if s == nil || s.store == nil {
		return Purchase{}, ErrInvalidInput
	}
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return Purchase{}, ErrInvalidInput
	}
	return s.store.GetBySession(ctx, sessionID)
}

func newULID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}
