package invoice

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const pgUniqueViolation = "23505"

// PostgresStore persists invoices in PostgreSQL.
//
// The comment column carries a unique constraint; the store maps that
// violation to ErrCommentTaken so the service can retry allocation. State
// transitions are single UPDATE statements guarded on status='pending',
// which is what keeps confirmed/expired terminal under concurrency.
type PostgresStore struct {
	pool   *pgxpool.Pool
	schema string
}

// StoreOption configures PostgresStore.
type StoreOption func(*PostgresStore) error

// WithSchema sets the DB schema used by the store (default: "shop").
func WithSchema(schema string) StoreOption {
	return func(s *PostgresStore) error {
		schema = strings.TrimSpace(schema)
		if schema == "" {
			return ErrInvalidInput
		}
		s.schema = schema
		return nil
	}
}

// NewPostgresStore constructs a PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool, opts ...StoreOption) (*PostgresStore, error) {
	st := &PostgresStore{pool: pool, schema: "shop"}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(st); err != nil {
			return nil, err
		}
	}
	if st.pool == nil {
		return nil, ErrInvalidInput
	}
	return st, nil
}

func (s *PostgresStore) table() string {
	return pgx.Identifier{s.schema, "ton_invoices"}.Sanitize()
}

const invoiceColumns = `id, sticker_id, payer_id, email, wallet_address, amount_nano, comment, status, tx_hash, confirmations, expires_at, created_at, confirmed_at`

func scanInvoice(row pgx.Row) (Invoice, error) {
	var out Invoice
	err := row.Scan(
		&out.ID,
		&out.StickerID,
		&out.PayerID,
		&out.Email,
		&out.WalletAddress,
		&out.AmountNano,
		&out.Comment,
		&out.Status,
		&out.TxHash,
		&out.Confirmations,
		&out.ExpiresAt,
		&out.CreatedAt,
		&out.ConfirmedAt,
	)
	return out, err
}

// Insert adds a new pending invoice row.
func (s *PostgresStore) Insert(ctx context.Context, inv Invoice) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (`+invoiceColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		inv.ID, inv.StickerID, inv.PayerID, inv.Email, inv.WalletAddress, inv.AmountNano,
		inv.Comment, inv.Status, inv.TxHash, inv.Confirmations, inv.ExpiresAt, inv.CreatedAt, inv.ConfirmedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && strings.Contains(pgErr.ConstraintName, "comment") {
			return ErrCommentTaken
		}
		return err
	}
	return nil
}

// Get fetches an invoice by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Invoice, error) {
	if s == nil || s.pool == nil {
		return Invoice{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+invoiceColumns+` FROM `+s.table()+` WHERE id = $1`, id)
	out, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Invoice{}, ErrNotFound
		}
		return Invoice{}, err
	}
	return out, nil
}

// Expire transitions pending→expired iff the deadline has passed.
func (s *PostgresStore) Expire(ctx context.Context, id string, now time.Time) (Invoice, error) {
	if s == nil || s.pool == nil {
		return Invoice{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+`
		    SET status = $2
		  WHERE id = $1
		    AND status = $3
		    AND expires_at <= $4
		RETURNING `+invoiceColumns,
		id, StatusExpired, StatusPending, now,
	)
	out, err := scanInvoice(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, err
	}
	// Lost the race or the guard did not match: return the current record.
	return s.Get(ctx, id)
}

// Confirm transitions pending→confirmed and records the observed hash.
func (s *PostgresStore) Confirm(ctx context.Context, in ConfirmRecord) (Invoice, error) {
	if s == nil || s.pool == nil {
		return Invoice{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+`
		    SET status = $2,
		        tx_hash = $3,
		        confirmations = $4,
		        confirmed_at = $5
		  WHERE id = $1
		    AND status = $6
		RETURNING `+invoiceColumns,
		in.ID, StatusConfirmed, in.TxHash, in.Confirmations, in.Now, StatusPending,
	)
	out, err := scanInvoice(row)
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Invoice{}, err
	}
	// Another confirm (or an expiry) won; surface whatever is stored now.
	return s.Get(ctx, in.ID)
}
