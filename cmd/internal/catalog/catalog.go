// Package catalog manages the sellable sticker catalog.
//
// From the payment core's point of view this is a read-only collaborator:
// reconciliation only ever asks "does this active sticker exist and what does
// it cost". The write side (admin CRUD) lives here too because it is plain
// bookkeeping.
package catalog

import (
	"context"
	"crypto/rand"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Sticker is one sellable catalog item. Prices are minor units of the
// currency: cents for card currencies, nanoton for "ton".
type Sticker struct {
	ID          string
	Name        string
	Description *string
	PriceMinor  int64
	Currency    string
	ImageURL    *string
	Active      bool
	CreatedAt   time.Time
}

// CreateInput describes a new sticker.
type CreateInput struct {
	Name        string
	Description *string
	PriceMinor  int64
	Currency    string
	ImageURL    *string
	Active      bool
	Now         time.Time
}

// UpdateInput carries a partial update; nil fields are left untouched.
type UpdateInput struct {
	Name        *string
	Description *string
	PriceMinor  *int64
	Currency    *string
	ImageURL    *string
	Active      *bool
}

// Service exposes catalog operations over a Store.
type Service struct {
	store Store
}

// NewService constructs a catalog Service.
func NewService(store Store) (*Service, error) {
	if store == nil {
		return nil, ErrInvalidInput
	}
	return &Service{store: store}, nil
}

// Create validates and inserts a new sticker.
func (s *Service) Create(ctx context.Context, in CreateInput) (Sticker, error) {
	if s == nil || s.store == nil {
		return Sticker{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Sticker{}, err
	}

	name := strings.TrimSpace(in.Name)
	if name == "" || in.PriceMinor <= 0 {
		return Sticker{}, ErrInvalidInput
	}
	currency := strings.ToLower(strings.TrimSpace(in.Currency))
	if currency == "" {
		currency = "usd"
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	st := Sticker{
		ID:          newULID(now),
		Name:        name,
		Description: trimPtr(in.Description),
		PriceMinor:  in.PriceMinor,
		Currency:    currency,
		ImageURL:    trimPtr(in.ImageURL),
		Active:      in.Active,
		CreatedAt:   now,
	}
	if err := s.store.Insert(ctx, st); err != nil {
		return Sticker{}, err
	}
	return st, nil
}

// Get returns a sticker by id.
func (s *Service) Get(ctx context.Context, id string) (Sticker, error) {
	if s == nil || s.store == nil {
		return Sticker{}, ErrInvalidInput
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Sticker{}, ErrInvalidInput
	}
	return s.store.Get(ctx, id)
}

// ActiveSticker returns a sticker only if it exists and is active.
// Inactive stickers are reported as not found to keep them unsellable.
func (s *Service) ActiveSticker(ctx context.Context, id string) (Sticker, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return Sticker{}, err
	}
	if !st.Active {
		return Sticker{}, ErrNotFound
	}
	return st, nil
}

// List returns stickers, newest first. Inactive stickers are included only
// on request (admin views).
func (s *Service) List(ctx context.Context, includeInactive bool) ([]Sticker, error) {
	if s == nil || s.store == nil {
		return nil, ErrInvalidInput
	}
	return s.store.List(ctx, includeInactive)
}

// Update applies a partial update to a sticker.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (Sticker, error) {
	if s == nil || s.store == nil {
		return Sticker{}, ErrInvalidInput
	}
	st, err := s.Get(ctx, id)
	if err != nil {
		return Sticker{}, err
	}

	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Sticker{}, ErrInvalidInput
		}
		st.Name = name
	}
	if in.Description != nil {
		st.Description = trimPtr(in.Description)
	}
	if in.PriceMinor != nil {
		if *in.PriceMinor <= 0 {
			return Sticker{}, ErrInvalidInput
		}
		st.PriceMinor = *in.PriceMinor
	}
	if in.Currency != nil {
		currency := strings.ToLower(strings.TrimSpace(*in.Currency))
		if currency == "" {
			return Sticker{}, ErrInvalidInput
		}
		st.Currency = currency
	}
	if in.ImageURL != nil {
		st.ImageURL = trimPtr(in.ImageURL)
	}
	if in.Active != nil {
		st.Active = *in.Active
	}

	return s.store.Update(ctx, st)
}

// Delete removes a sticker.
func (s *Service) Delete(ctx context.Context, id string) error {
	if s == nil || s.store == nil {
		return ErrInvalidInput
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return ErrInvalidInput
	}
	return s.store.Delete(ctx, id)
}

func newULID(now time.Time) string {
	return ulid.MustNew(ulid.Timestamp(now), rand.Reader).String()
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	s := strings.TrimSpace(*v)
	if s == "" {
		return nil
	}
	return &s
}
