package catalog

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(NewInMemoryStore())
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func strPtr(s string) *string { return &s }

func TestCreate_Defaults(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	st, err := svc.Create(context.Background(), CreateInput{
		Name:       "  Moon Duck  ",
		PriceMinor: 500,
		Active:     true,
		Now:        now,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if st.Name != "Moon Duck" {
		t.Fatalf("name = %q, want trimmed %q", st.Name, "Moon Duck")
	}
	if st.Currency != "usd" {
		t.Fatalf("currency = %q, want default usd", st.Currency)
	}
	if st.ID == "" {
		t.Fatalf("expected generated id")
	}
	if !st.CreatedAt.Equal(now) {
		t.Fatalf("created_at = %v, want %v", st.CreatedAt, now)
	}
}

func TestCreate_LowercasesCurrency(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	st, err := svc.Create(context.Background(), CreateInput{
		Name:       "Duck",
		PriceMinor: 100,
		Currency:   " TON ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if st.Currency != "ton" {
		t.Fatalf("currency = %q, want ton", st.Currency)
	}
}

func TestCreate_Invalid(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	cases := []struct {
		name string
		in   CreateInput
	}{
		{"empty name", CreateInput{Name: "   ", PriceMinor: 100}},
		{"zero price", CreateInput{Name: "Duck", PriceMinor: 0}},
		{"negative price", CreateInput{Name: "Duck", PriceMinor: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := svc.Create(context.Background(), tc.in); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestActiveSticker_HidesInactive(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	st, err := svc.Create(context.Background(), CreateInput{
		Name:       "Retired Duck",
		PriceMinor: 100,
		Active:     false,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.Get(context.Background(), st.ID); err != nil {
		t.Fatalf("Get should still see inactive sticker: %v", err)
	}
	if _, err := svc.ActiveSticker(context.Background(), st.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("ActiveSticker err = %v, want ErrNotFound", err)
	}
}

func TestUpdate_Partial(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	st, err := svc.Create(context.Background(), CreateInput{
		Name:        "Duck",
		Description: strPtr("a duck"),
		PriceMinor:  100,
		Currency:    "usd",
		Active:      true,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	newPrice := int64(250)
	got, err := svc.Update(context.Background(), st.ID, UpdateInput{PriceMinor: &newPrice})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.PriceMinor != 250 {
		t.Fatalf("price = %d, want 250", got.PriceMinor)
	}
	if got.Name != "Duck" || got.Description == nil || *got.Description != "a duck" {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	// A blank description pointer clears the field.
	got, err = svc.Update(context.Background(), st.ID, UpdateInput{Description: strPtr("  ")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Description != nil {
		t.Fatalf("description = %q, want cleared", *got.Description)
	}
}

func TestUpdate_Invalid(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	st, err := svc.Create(context.Background(), CreateInput{Name: "Duck", PriceMinor: 100})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	bad := int64(0)
	if _, err := svc.Update(context.Background(), st.ID, UpdateInput{PriceMinor: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("zero price err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Update(context.Background(), st.ID, UpdateInput{Name: strPtr(" ")}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("blank name err = %v, want ErrInvalidInput", err)
	}
	if _, err := svc.Update(context.Background(), "no-such-id", UpdateInput{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)

	st, err := svc.Create(context.Background(), CreateInput{Name: "Duck", PriceMinor: 100})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(context.Background(), st.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), st.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Get after delete err = %v, want ErrNotFound", err)
	}
	if err := svc.Delete(context.Background(), st.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second Delete err = %v, want ErrNotFound", err)
	}
}

func TestList_OrderAndFiltering(t *testing.T) {
	t.Parallel()
	svc := newTestService(t)
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, in := range []CreateInput{
		{Name: "Old Active", PriceMinor: 100, Active: true},
		{Name: "Inactive", PriceMinor: 100, Active: false},
		{Name: "New Active", PriceMinor: 100, Active: true},
	} {
		in.Now = base.Add(time.Duration(i) * time.Minute)
		if _, err := svc.Create(context.Background(), in); err != nil {
			t.Fatalf("Create %q: %v", in.Name, err)
		}
	}

	public, err := svc.List(context.Background(), false)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(public) != 2 || public[0].Name != "New Active" || public[1].Name != "Old Active" {
		t.Fatalf("public list = %+v, want newest-first actives only", public)
	}

	all, err := svc.List(context.Background(), true)
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len(all) = %d, want 3", len(all))
	}
}
