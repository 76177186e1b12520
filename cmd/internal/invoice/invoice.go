// Package invoice owns the lifecycle of chain-rail invoices: creation with a
// unique correlation comment, lazy expiry, and exactly-once confirmation.
//
// Confirmation is the payment core's hot path: it turns a user-submitted
// transaction hash into a durable fulfilled purchase. The validator
// (validate.go) makes the accept/reject decision; this package drives the
// state machine around it.
package invoice

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"stickershop/cmd/internal/catalog"
	"stickershop/cmd/internal/purchase"
	"stickershop/cmd/internal/tonchain"
)

// ChainCurrency is the only catalog currency the chain rail can settle.
const ChainCurrency = "ton"

const (
	defaultTTL             = 30 * time.Minute
	defaultCommentAttempts = 5
	commentBytes           = 4
)

// Status is the invoice lifecycle state.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusExpired   Status = "expired"
)

// Invoice is one expected chain payment.
type Invoice struct {
	ID            string
	StickerID     string
	PayerID       string
	Email         *string
	WalletAddress string
	AmountNano    int64
	Comment       string
	Status        Status
	TxHash        *string
	Confirmations int
	ExpiresAt     time.Time
	CreatedAt     time.Time
	ConfirmedAt   *time.Time
}

// TxFinder locates a transaction on the payment wallet.
// Implemented by tonchain.Client; faked in tests.
type TxFinder interface {
	FindTransaction(ctx context.Context, walletAddress, txHash string) (tonchain.Transaction, error)
}

// Config holds the chain-rail payment settings.
type Config struct {
	// WalletAddress is the destination wallet payers transfer to.
	WalletAddress string

	// TTL is how long a fresh invoice stays payable.
	TTL time.Duration

	// MinConfirmations gates acceptance; zero is allowed for fast finality.
	MinConfirmations int

	// CommentAttempts bounds comment allocation retries (default 5).
	CommentAttempts int
}

// CreateInput describes an invoice request.
type CreateInput struct {
	StickerID string
	PayerID   string
	Email     *string
	Now       time.Time
}

// ConfirmInput describes a confirmation request.
type ConfirmInput struct {
	InvoiceID string
	TxHash    string
	Now       time.Time
}

// Service manages invoice creation, expiry and confirmation.
type Service struct {
	log       *slog.Logger
	store     Store
	catalog   *catalog.Service
	finder    TxFinder
	purchases *purchase.Service
	cfg       Config
}

// NewService constructs an invoice Service.
func NewService(log *slog.Logger, store Store, cat *catalog.Service, finder TxFinder, purchases *purchase.Service, cfg Config) (*Service, error) {
	if store == nil || cat == nil || finder == nil || purchases == nil {
		return nil, ErrInvalidInput
	}
	if log == nil {
		log = slog.Default()
	}
	cfg.WalletAddress = strings.TrimSpace(cfg.WalletAddress)
	if cfg.WalletAddress == "" {
		return nil, ErrInvalidInput
	}
	if cfg.TTL <= 0 {
		cfg.TTL = defaultTTL
	}
	if cfg.CommentAttempts <= 0 {
		cfg.CommentAttempts = defaultCommentAttempts
	}
	if cfg.MinConfirmations < 0 {
		cfg.MinConfirmations = 0
	}
	return &Service{
		log:       log,
		store:     store,
		catalog:   cat,
		finder:    finder,
		purchases: purchases,
		cfg:       cfg,
	}, nil
}

// WalletAddress returns the configured payment wallet.
func (s *Service) WalletAddress() string { return s.cfg.WalletAddress }

// TTL returns the configured invoice lifetime.
func (s *Service) TTL() time.Duration { return s.cfg.TTL }

// CreateInvoice issues a new pending invoice for an active chain-priced
// sticker. The correlation comment is allocated against persisted state:
// an insert that hits the comment uniqueness constraint is retried with a
// fresh comment, up to the configured attempt bound.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInput) (Invoice, error) {
	if s == nil || s.store == nil {
		return Invoice{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}

	stickerID := strings.TrimSpace(in.StickerID)
	payerID := strings.TrimSpace(in.PayerID)
	if stickerID == "" || payerID == "" {
		return Invoice{}, ErrInvalidInput
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	st, err := s.catalog.ActiveSticker(ctx, stickerID)
	if err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			return Invoice{}, ErrItemNotFound
		}
		return Invoice{}, err
	}
	if !strings.EqualFold(st.Currency, ChainCurrency) {
		return Invoice{}, ErrUnsupportedCurrency
	}

	for attempt := 0; attempt < s.cfg.CommentAttempts; attempt++ {
		comment, err := newComment()
		if err != nil {
			return Invoice{}, err
		}
		inv := Invoice{
			ID:            ulid.MustNew(ulid.Timestamp(now), rand.Reader).String(),
			StickerID:     st.ID,
			PayerID:       payerID,
			Email:         in.Email,
			WalletAddress: s.cfg.WalletAddress,
			AmountNano:    st.PriceMinor,
			Comment:       comment,
			Status:        StatusPending,
			ExpiresAt:     now.Add(s.cfg.TTL),
			CreatedAt:     now,
		}
		err = s.store.Insert(ctx, inv)
		if err == nil {
			return inv, nil
		}
		if errors.Is(err, ErrCommentTaken) {
			s.log.Warn("invoice.comment.collision", "attempt", attempt+1)
			continue
		}
		return Invoice{}, err
	}
	return Invoice{}, ErrCommentExhausted
}

// GetInvoice fetches an invoice and evaluates lazy expiry: a pending invoice
// read after its deadline is transitioned to expired and persisted before it
// is returned. There is no background sweep; expiry only becomes observable
// on access.
func (s *Service) GetInvoice(ctx context.Context, id string, now time.Time) (Invoice, error) {
	if s == nil || s.store == nil {
		return Invoice{}, ErrInvalidInput
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Invoice{}, ErrInvalidInput
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	inv, err := s.store.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	return s.maybeExpire(ctx, inv, now)
}

// ConfirmInvoice settles an invoice against an observed transaction.
//
// Terminal states short-circuit: a confirmed invoice is returned as-is (the
// purchase upsert is re-applied so a retry after a partial failure heals),
// and an expired invoice always fails ErrExpired even if a matching
// transaction exists. Otherwise the transaction is fetched from the indexer,
// validated, the invoice transitioned, and the fulfilled purchase recorded.
func (s *Service) ConfirmInvoice(ctx context.Context, in ConfirmInput) (Invoice, error) {
	if s == nil || s.store == nil {
		return Invoice{}, ErrInvalidInput
	}
	if err := ctx.Err(); err != nil {
		return Invoice{}, err
	}

	id := strings.TrimSpace(in.InvoiceID)
	txHash := strings.TrimSpace(in.TxHash)
	if id == "" || txHash == "" {
		return Invoice{}, ErrInvalidInput
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}

	inv, err := s.store.Get(ctx, id)
	if err != nil {
		return Invoice{}, err
	}
	inv, err = s.maybeExpire(ctx, inv, now)
	if err != nil {
		return Invoice{}, err
	}

	switch inv.Status {
	case StatusExpired:
		return Invoice{}, ErrExpired
	case StatusConfirmed:
		// Idempotent retry: re-apply the purchase upsert with the stored
		// hash so a client retry after a network blip converges.
		if err := s.recordPurchase(ctx, inv, now); err != nil {
			return Invoice{}, err
		}
		return inv, nil
	}

	tx, err := s.finder.FindTransaction(ctx, inv.WalletAddress, txHash)
	if err != nil {
		if errors.Is(err, tonchain.ErrNotFound) {
			return Invoice{}, ErrTxNotFound
		}
		return Invoice{}, fmt.Errorf("chain gateway: %w", err)
	}

	if err := Validate(inv, tx, s.cfg.MinConfirmations); err != nil {
		return Invoice{}, err
	}

	inv, err = s.store.Confirm(ctx, ConfirmRecord{
		ID:            inv.ID,
		TxHash:        txHash,
		Confirmations: tx.ConfirmationCount(),
		Now:           now,
	})
	if err != nil {
		return Invoice{}, err
	}

	// A concurrent confirm may have won the CAS; an expired race still fails.
	if inv.Status == StatusExpired {
		return Invoice{}, ErrExpired
	}

	if err := s.recordPurchase(ctx, inv, now); err != nil {
		return Invoice{}, err
	}

	s.log.Info("invoice.confirmed", "invoice_id", inv.ID, "tx_hash", txHash, "confirmations", inv.Confirmations)
	return inv, nil
}

func (s *Service) maybeExpire(ctx context.Context, inv Invoice, now time.Time) (Invoice, error) {
	if inv.Status != StatusPending || now.Before(inv.ExpiresAt) {
		return inv, nil
	}
	out, err := s.store.Expire(ctx, inv.ID, now)
	if err != nil {
		return Invoice{}, err
	}
	if out.Status == StatusExpired {
		s.log.Info("invoice.expired", "invoice_id", inv.ID)
	}
	return out, nil
}

func (s *Service) recordPurchase(ctx context.Context, inv Invoice, now time.Time) error {
	txHash := ""
	if inv.TxHash != nil {
		txHash = *inv.TxHash
	}
	_, err := s.purchases.RecordChainPurchase(ctx, purchase.ChainInput{
		StickerID:  inv.StickerID,
		PayerID:    inv.PayerID,
		InvoiceID:  inv.ID,
		TxHash:     txHash,
		Email:      inv.Email,
		AmountPaid: inv.AmountNano,
		Currency:   ChainCurrency,
		Now:        now,
	})
	return err
}

// newComment returns a short random hex token. Uniqueness is enforced by the
// store, not here; the token just has to be unguessable.
func newComment() (string, error) {
	b := make([]byte, commentBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
