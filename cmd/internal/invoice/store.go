package invoice

import (
	"context"
	"time"
)

// ConfirmRecord describes a pending→confirmed transition.
type ConfirmRecord struct {
	ID            string
	TxHash        string
	Confirmations int
	Now           time.Time
}

// Store is the persistence boundary for invoices.
//
// Expire and Confirm are compare-and-set transitions: they only fire while
// the invoice is still pending and return the current record either way, so
// concurrent callers converge on the same terminal state.
type Store interface {
	// Insert adds a new pending invoice. ErrCommentTaken when the comment
	// collides with any invoice ever created.
	Insert(ctx context.Context, inv Invoice) error

	Get(ctx context.Context, id string) (Invoice, error)

	// Expire transitions pending→expired iff the deadline has passed at now.
	// Returns the stored record after the attempt.
	Expire(ctx context.Context, id string, now time.Time) (Invoice, error)

	// Confirm transitions pending→confirmed. Returns the stored record after
	// the attempt; if another caller already transitioned the invoice the
	// returned record reflects that.
	Confirm(ctx context.Context, in ConfirmRecord) (Invoice, error)
}
