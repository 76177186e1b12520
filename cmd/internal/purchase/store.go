package purchase

import (
	"context"
	"time"
)

// ChainUpsert is the normalized chain-rail upsert payload.
//
// The upsert is keyed by InvoiceID: replaying the same confirmation must
// update the existing row, never create a second one.
type ChainUpsert struct {
	ID         string
	StickerID  string
	PayerID    string
	InvoiceID  string
	TxHash     string
	Email      *string
	AmountPaid int64
	Currency   string
	Now        time.Time
}

// Store is the persistence boundary for purchases.
type Store interface {
	// InsertIntent adds an unfulfilled card-rail purchase keyed by session id.
	InsertIntent(ctx context.Context, p Purchase) error

	// FulfillBySession flips fulfilled=true for the purchase with the given
	// card session id. ErrNotFound when no such purchase exists.
	FulfillBySession(ctx context.Context, sessionID string) (Purchase, error)

	// UpsertChain inserts a fulfilled chain-rail purchase, or updates the
	// existing row for the same invoice in place.
	UpsertChain(ctx context.Context, in ChainUpsert) (Purchase, error)

	// GetByInvoice fetches the purchase referencing an invoice.
	GetByInvoice(ctx context.Context, invoiceID string) (Purchase, error)

	// GetBySession fetches the purchase for a card session id.
	GetBySession(ctx context.Context, sessionID string) (Purchase, error)
}
