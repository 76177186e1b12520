package purchase

import (
	"context"
	"sync"
)

// InMemoryStore is a dev/test fallback when DB is not configured.
// It mirrors the Postgres semantics: one purchase per card session, one per
// invoice, monotonic fulfilled flag.
type InMemoryStore struct {
	mu        sync.Mutex
	bySession map[string]*Purchase
	byInvoice map[string]*Purchase
}

// NewInMemoryStore constructs an empty in-memory purchase store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		bySession: make(map[string]*Purchase),
		byInvoice: make(map[string]*Purchase),
	}
}

func (s *InMemoryStore) InsertIntent(ctx context.Context, p Purchase) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if p.CardSessionID == nil || *p.CardSessionID == "" {
		return ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bySession[*p.CardSessionID]; ok {
		return ErrInvalidInput
	}
	cp := p
	s.bySession[*p.CardSessionID] = &cp
	return nil
}

func (s *InMemoryStore) FulfillBySession(ctx context.Context, sessionID string) (Purchase, error) {
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.bySession[sessionID]
	if !ok {
		return Purchase{}, ErrNotFound
	}
	p.Fulfilled = true
	return *p, nil
}

func (s *InMemoryStore) UpsertChain(ctx context.Context, in ChainUpsert) (Purchase, error) {
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	txHash := in.TxHash
	if p, ok := s.byInvoice[in.InvoiceID]; ok {
		p.Fulfilled = true
		p.TxHash = &txHash
		p.Rail = RailChain
		p.AmountPaid = in.AmountPaid
		p.Currency = in.Currency
		return *p, nil
	}

	invoiceID := in.InvoiceID
	p := &Purchase{
		ID:         in.ID,
		StickerID:  in.StickerID,
		PayerID:    in.PayerID,
		Rail:       RailChain,
		InvoiceID:  &invoiceID,
		TxHash:     &txHash,
		Email:      in.Email,
		Fulfilled:  true,
		AmountPaid: in.AmountPaid,
		Currency:   in.Currency,
		CreatedAt:  in.Now,
	}
	s.byInvoice[invoiceID] = p
	return *p, nil
}

func (s *InMemoryStore) GetByInvoice(ctx context.Context, invoiceID string) (Purchase, error) {
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byInvoice[invoiceID]
	if !ok {
		return Purchase{}, ErrNotFound
	}
	return *p, nil
}

func (s *InMemoryStore) GetBySession(ctx context.Context, sessionID string) (Purchase, error) {
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.bySession[sessionID]
	if !ok {
		return Purchase{}, ErrNotFound
	}
	return *p, nil
}
