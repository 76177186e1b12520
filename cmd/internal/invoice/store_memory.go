package invoice

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is a dev/test fallback when DB is not configured.
// It enforces the same invariants as the Postgres store: globally unique
// comments and CAS state transitions.
type InMemoryStore struct {
	mu        sync.Mutex
	invoices  map[string]*Invoice
	byComment map[string]string // comment -> invoice id, never deleted
}

// NewInMemoryStore constructs an empty in-memory invoice store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		invoices:  make(map[string]*Invoice),
		byComment: make(map[string]string),
	}
}

func (s *InMemoryStore) Insert(ctx context.Context, inv Invoice) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if inv.ID == "" || inv.Comment == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byComment[inv.Comment]; taken {
		return ErrCommentTaken
	}
	cp := inv
	s.invoices[inv.ID] = &cp
	s.byComment[inv.Comment] = inv.ID
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	return *inv, nil
}

func (s *InMemoryStore) Expire(ctx context.Context, id string, now time.Time) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[id]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	if inv.Status == StatusPending && !now.Before(inv.ExpiresAt) {
		inv.Status = StatusExpired
	}
	return *inv, nil
}

func (s *InMemoryStore) Confirm(ctx context.Context, in ConfirmRecord) (Invoice, error) {
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	inv, ok := s.invoices[in.ID]
	if !ok {
		return Invoice{}, ErrNotFound
	}
	if inv.Status == StatusPending {
		txHash := in.TxHash
		confirmedAt := in.Now
		inv.Status = StatusConfirmed
		inv.TxHash = &txHash
		inv.Confirmations = in.Confirmations
		inv.ConfirmedAt = &confirmedAt
	}
	return *inv, nil
}
