package catalog

import (
	"context"
	"sort"
	"sync"
)

// InMemoryStore is a dev/test fallback when DB is not configured.
type InMemoryStore struct {
	mu       sync.Mutex
	stickers map[string]Sticker
}

// NewInMemoryStore constructs an empty in-memory catalog store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{stickers: make(map[string]Sticker)}
}

func (s *InMemoryStore) Insert(ctx context.Context, in Sticker) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stickers[in.ID] = in
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (Sticker, error) {
	if err := ctx.Err(); err != nil {
		return Sticker{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st, ok := s.stickers[id]
	if !ok {
		return Sticker{}, ErrNotFound
	}
	return st, nil
}

func (s *InMemoryStore) List(ctx context.Context, includeInactive bool) ([]Sticker, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Sticker, 0, len(s.stickers))
	for _, st := range s.stickers {
		if !includeInactive && !st.Active {
			continue
		}
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *InMemoryStore) Update(ctx context.Context, in Sticker) (Sticker, error) {
	if err := ctx.Err(); err != nil {
		return Sticker{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stickers[in.ID]; !ok {
		return Sticker{}, ErrNotFound
	}
	s.stickers[in.ID] = in
	return in, nil
}

func (s *InMemoryStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.stickers[id]; !ok {
		return ErrNotFound
	}
	delete(s.stickers, id)
	return nil
}
