package purchase

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists purchases in PostgreSQL.
//
// Uniqueness of the correlation keys (card_session_id, ton_invoice_id,
// ton_tx_hash) is enforced by constraints in the migrations, not just here.
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
	return pgx.Identifier{s.schema, "purchases"}.Sanitize()
}

const purchaseColumns = `id, sticker_id, payer_id, rail, card_session_id, ton_invoice_id, ton_tx_hash, email, fulfilled, amount_paid, currency, created_at`

func scanPurchase(row pgx.Row) (Purchase, error) {
	var out Purchase
	err := row.Scan(
		&out.ID,
		&out.StickerID,
		&out.PayerID,
		&out.Rail,
		&out.CardSessionID,
		&out.InvoiceID,
		&out.TxHash,
		&out.Email,
		&out.Fulfilled,
		&out.AmountPaid,
		&out.Currency,
		&out.CreatedAt,
	)
	return out, err
}

// InsertIntent adds an unfulfilled card-rail purchase row.
func (s *PostgresStore) InsertIntent(ctx context.Context, p Purchase) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (`+purchaseColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		p.ID, p.StickerID, p.PayerID, p.Rail, p.CardSessionID, p.InvoiceID, p.TxHash,
		p.Email, p.Fulfilled, p.AmountPaid, p.Currency, p.CreatedAt,
	)
	return err
}

// FulfillBySession flips fulfilled=true for a card session's purchase.
func (s *PostgresStore) FulfillBySession(ctx context.Context, sessionID string) (Purchase, error) {
	if s == nil || s.pool == nil {
		return Purchase{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}

	row := s.pool.QueryRow(ctx,
		`UPDATE `+s.table()+`
		    SET fulfilled = TRUE
		  WHERE card_session_id = $1
		RETURNING `+purchaseColumns,
		sessionID,
	)
	out, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, err
	}
	return out, nil
}

// UpsertChain inserts a fulfilled chain purchase or updates the existing row
// for the same invoice. The ON CONFLICT target is the unique index on
// ton_invoice_id, which is what makes concurrent duplicate confirmations
// collapse to one row.
func (s *PostgresStore) UpsertChain(ctx context.Context, in ChainUpsert) (Purchase, error) {
	if s == nil || s.pool == nil {
		return Purchase{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}

	row := s.pool.QueryRow(ctx,
		`INSERT INTO `+s.table()+` (`+purchaseColumns+`)
		 VALUES ($1, $2, $3, $4, NULL, $5, $6, $7, TRUE, $8, $9, $10)
		 ON CONFLICT (ton_invoice_id) DO UPDATE
		    SET fulfilled = TRUE,
		        ton_tx_hash = EXCLUDED.ton_tx_hash,
		        rail = EXCLUDED.rail,
		        amount_paid = EXCLUDED.amount_paid,
		        currency = EXCLUDED.currency
		 RETURNING `+purchaseColumns,
		in.ID, in.StickerID, in.PayerID, RailChain, in.InvoiceID, in.TxHash,
		in.Email, in.AmountPaid, in.Currency, in.Now,
	)
	out, err := scanPurchase(row)
	if err != nil {
		return Purchase{}, err
	}
	return out, nil
}

// GetByInvoice fetches the purchase referencing an invoice.
func (s *PostgresStore) GetByInvoice(ctx context.Context, invoiceID string) (Purchase, error) {
	if s == nil || s.pool == nil {
		return Purchase{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM `+s.table()+` WHERE ton_invoice_id = $1`,
		invoiceID,
	)
	out, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, err
	}
	return out, nil
}

// GetBySession fetches the purchase for a card session id.
func (s *PostgresStore) GetBySession(ctx context.Context, sessionID string) (Purchase, error) {
	if s == nil || s.pool == nil {
		return Purchase{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Purchase{}, err
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+purchaseColumns+` FROM `+s.table()+` WHERE card_session_id = $1`,
		sessionID,
	)
	out, err := scanPurchase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Purchase{}, ErrNotFound
		}
		return Purchase{}, err
	}
	return out, nil
}
