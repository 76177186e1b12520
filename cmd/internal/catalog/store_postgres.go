package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists the catalog in PostgreSQL.
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
	return pgx.Identifier{s.schema, "stickers"}.Sanitize()
}

// Insert adds a new sticker row.
func (s *PostgresStore) Insert(ctx context.Context, in Sticker) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (
		     id, name, description, price_minor, currency, image_url, active, created_at
		   ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		in.ID, in.Name, in.Description, in.PriceMinor, in.Currency, in.ImageURL, in.Active, in.CreatedAt,
	)
	return err
}

// Get fetches a sticker by id.
func (s *PostgresStore) Get(ctx context.Context, id string) (Sticker, error) {
	if s == nil || s.pool == nil {
		return Sticker{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Sticker{}, err
	}

	var out Sticker
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, description, price_minor, currency, image_url, active, created_at
		   FROM `+s.table()+`
		  WHERE id = $1`,
		id,
	).Scan(&out.ID, &out.Name, &out.Description, &out.PriceMinor, &out.Currency, &out.ImageURL, &out.Active, &out.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Sticker{}, ErrNotFound
		}
		return Sticker{}, err
	}
	return out, nil
}

// List returns stickers ordered by creation time, newest first.
func (s *PostgresStore) List(ctx context.Context, includeInactive bool) ([]Sticker, error) {
	if s == nil || s.pool == nil {
		return nil, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	q := `SELECT id, name, description, price_minor, currency, image_url, active, created_at
	        FROM ` + s.table()
	if !includeInactive {
		q += ` WHERE active`
	}
	q += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sticker
	for rows.Next() {
		var st Sticker
		if err := rows.Scan(&st.ID, &st.Name, &st.Description, &st.PriceMinor, &st.Currency, &st.ImageURL, &st.Active, &st.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Update overwrites a sticker row.
func (s *PostgresStore) Update(ctx context.Context, in Sticker) (Sticker, error) {
	if s == nil || s.pool == nil {
		return Sticker{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Sticker{}, err
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE `+s.table()+`
		    SET name = $2, description = $3, price_minor = $4, currency = $5, image_url = $6, active = $7
		  WHERE id = $1`,
		in.ID, in.Name, in.Description, in.PriceMinor, in.Currency, in.ImageURL, in.Active,
	)
	if err != nil {
		return Sticker{}, err
	}
	if tag.RowsAffected() == 0 {
		return Sticker{}, ErrNotFound
	}
	return in, nil
}

// Delete removes a sticker row.
func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	if s == nil || s.pool == nil {
		return ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
