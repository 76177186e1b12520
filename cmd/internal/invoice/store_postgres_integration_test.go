package invoice

import (
	"context"
	"crypto/rand"
	"errors"
	"net"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
)

// Integration tests are opt-in and require SHOP_DATABASE_URL.
// In non-CI runs, unreachable Postgres skips these tests to keep local runs fast.

func TestPostgresStore_InsertGet(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyInvoiceSchema(t, pool, schema)

	store := mustNewInvoiceStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	inv := testStoredInvoice("a1b2c3d4")
	if err := store.Insert(ctx, inv); err != nil {
		t.Fatalf("insert: %v", err)
	}

	got, err := store.Get(ctx, inv.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Comment != inv.Comment || got.AmountNano != inv.AmountNano || got.Status != StatusPending {
		t.Fatalf("roundtrip mismatch: %+v", got)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("get missing: %v, want ErrNotFound", err)
	}
}

func TestPostgresStore_CommentConflict(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyInvoiceSchema(t, pool, schema)

	store := mustNewInvoiceStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := store.Insert(ctx, testStoredInvoice("deadbeef")); err != nil {
		t.Fatalf("insert 1: %v", err)
	}
	if err := store.Insert(ctx, testStoredInvoice("deadbeef")); !errors.Is(err, ErrCommentTaken) {
		t.Fatalf("insert 2: %v, want ErrCommentTaken", err)
	}
}

func TestPostgresStore_ExpireGuard(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyInvoiceSchema(t, pool, schema)

	store := mustNewInvoiceStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	inv := testStoredInvoice("11223344")
	if err := store.Insert(ctx, inv); err != nil {
		t.Fatalf("insert: %v", err)
	}

	// Before the deadline nothing moves.
	got, err := store.Expire(ctx, inv.ID, inv.ExpiresAt.Add(-time.Minute))
	if err != nil {
		t.Fatalf("early expire: %v", err)
	}
	if got.Status != StatusPending {
		t.Fatalf("status after early expire = %q, want pending", got.Status)
	}

	got, err = store.Expire(ctx, inv.ID, inv.ExpiresAt.Add(time.Second))
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	if got.Status != StatusExpired {
		t.Fatalf("status after expire = %q, want expired", got.Status)
	}

	// Expired is terminal: a late confirm leaves the row alone.
	got, err = store.Confirm(ctx, ConfirmRecord{ID: inv.ID, TxHash: "late", Confirmations: 1, Now: time.Now().UTC()})
	if err != nil {
		t.Fatalf("confirm after expire: %v", err)
	}
	if got.Status != StatusExpired || got.TxHash != nil {
		t.Fatalf("confirm mutated an expired invoice: %+v", got)
	}
}

func TestPostgresStore_ConfirmOnce(t *testing.T) {
	t.Parallel()

	pool := mustOpenTestPool(t)
	defer pool.Close()

	schema := mustCreateTestSchema(t, pool)
	t.Cleanup(func() { mustDropSchema(t, pool, schema) })
	mustApplyInvoiceSchema(t, pool, schema)

	store := mustNewInvoiceStore(t, pool, schema)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	inv := testStoredInvoice("55667788")
	if err := store.Insert(ctx, inv); err != nil {
		t.Fatalf("insert: %v", err)
	}

	now := time.Now().UTC()
	got, err := store.Confirm(ctx, ConfirmRecord{ID: inv.ID, TxHash: "txaaa", Confirmations: 3, Now: now})
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if got.Status != StatusConfirmed || got.TxHash == nil || *got.TxHash != "txaaa" || got.Confirmations != 3 {
		t.Fatalf("confirmed record = %+v", got)
	}

	// A second confirm with a different hash loses the CAS and returns the
	// stored record untouched.
	got, err = store.Confirm(ctx, ConfirmRecord{ID: inv.ID, TxHash: "txbbb", Confirmations: 9, Now: now})
	if err != nil {
		t.Fatalf("second confirm: %v", err)
	}
	if got.TxHash == nil || *got.TxHash != "txaaa" || got.Confirmations != 3 {
		t.Fatalf("second confirm mutated the row: %+v", got)
	}
}

func testStoredInvoice(comment string) Invoice {
	now := time.Now().UTC()
	return Invoice{
		ID:            ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
		StickerID:     "stk_it",
		PayerID:       "payer_it",
		WalletAddress: "EQIntegrationWallet0000000000000000000000000000",
		AmountNano:    1000000,
		Comment:       comment,
		Status:        StatusPending,
		ExpiresAt:     now.Add(30 * time.Minute),
		CreatedAt:     now,
	}
}

func mustOpenTestPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	raw := strings.TrimSpace(os.Getenv("SHOP_DATABASE_URL"))
	if raw == "" {
		t.Skip("integration test skipped: SHOP_DATABASE_URL is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 12*time.Second)
	defer cancel()

	cfg, err := pgxpool.ParseConfig(raw)
	if err != nil {
		t.Fatalf("parse SHOP_DATABASE_URL: %v", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		t.Fatalf("connect postgres: %v", err)
	}

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer pingCancel()

	c, err := pool.Acquire(pingCtx)
	if err != nil {
		pool.Close()
		if shouldSkipIntegration(err) {
			t.Skipf("integration test skipped: Postgres unreachable (SHOP_DATABASE_URL set): %v", err)
		}
		t.Fatalf("acquire: %v", err)
	}
	c.Release()

	return pool
}

func mustCreateTestSchema(t *testing.T, pool *pgxpool.Pool) string {
	t.Helper()

	schema := "shop_it_" + strings.ToLower(ulid.MustNew(ulid.Now(), rand.Reader).String())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if _, err := pool.Exec(ctx, `CREATE SCHEMA `+pgx.Identifier{schema}.Sanitize()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return schema
}

func mustDropSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, _ = pool.Exec(ctx, `DROP SCHEMA IF EXISTS `+pgx.Identifier{schema}.Sanitize()+` CASCADE`)
}

// mustApplyInvoiceSchema mirrors the production ton_invoices table, minus
// the cross-table sticker reference.
func mustApplyInvoiceSchema(t *testing.T, pool *pgxpool.Pool, schema string) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	table := pgx.Identifier{schema, "ton_invoices"}.Sanitize()
	_, err := pool.Exec(ctx, `
		CREATE TABLE `+table+` (
		    id             TEXT PRIMARY KEY,
		    sticker_id     TEXT NOT NULL,
		    payer_id       TEXT NOT NULL,
		    email          TEXT,
		    wallet_address TEXT NOT NULL,
		    amount_nano    BIGINT NOT NULL CHECK (amount_nano > 0),
		    comment        TEXT NOT NULL,
		    status         TEXT NOT NULL DEFAULT 'pending'
		                   CHECK (status IN ('pending', 'confirmed', 'expired')),
		    tx_hash        TEXT,
		    confirmations  INTEGER NOT NULL DEFAULT 0,
		    expires_at     TIMESTAMPTZ NOT NULL,
		    created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
		    confirmed_at   TIMESTAMPTZ,

		    CONSTRAINT ton_invoices_comment_key UNIQUE (comment)
		)`)
	if err != nil {
		t.Fatalf("apply invoice schema: %v", err)
	}
}

func mustNewInvoiceStore(t *testing.T, pool *pgxpool.Pool, schema string) *PostgresStore {
	t.Helper()

	store, err := NewPostgresStore(pool, WithSchema(schema))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return store
}

func shouldSkipIntegration(err error) bool {
	if err == nil {
		return false
	}
	if os.Getenv("CI") != "" {
		return false
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "context deadline exceeded") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "dial tcp") ||
		strings.Contains(msg, "no such host")
}
