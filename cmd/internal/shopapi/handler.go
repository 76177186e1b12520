// Package shopapi exposes the shop's HTTP surface: catalog reads and admin
// CRUD, card checkout initiation, the card-processor webhook, and the chain
// invoice endpoints.
package shopapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"stickershop/internal/adminauth"
	"stickershop/cmd/internal/catalog"
	"stickershop/cmd/internal/checkout"
	"stickershop/cmd/internal/invoice"
	"stickershop/cmd/internal/purchase"
	"stickershop/cmd/internal/tonchain"
)

const defaultMaxBodyBytes = 1 << 20

// Config holds API-level settings.
type Config struct {
	// MaxBodyBytes bounds JSON request bodies (default 1 MiB).
	MaxBodyBytes int64

	// StaticDir is where uploaded sticker images are written.
	StaticDir string

	// PublicBaseURL is the externally visible server URL, used to build
	// absolute image URLs for the hosted checkout page.
	PublicBaseURL string

	// CardCurrency is the default card-rail currency (reported on
	// /payments/config).
	CardCurrency string

	// WatchInterval is how often the invoice watch socket re-reads the
	// invoice (default 3s). WatchMaxDuration bounds a single watch
	// session (default invoice TTL plus a grace period).
	WatchInterval    time.Duration
	WatchMaxDuration time.Duration

	// WatchOrigins are the origin host patterns allowed to open the
	// invoice watch socket. Empty means same-host only.
	WatchOrigins []string
}

// Handler wires shop HTTP endpoints to the domain services.
//
// Rails degrade independently: a nil invoices service means the chain rail
// is not configured, a nil card client/reconciler means the card rail is
// not; the corresponding endpoints answer 503 instead of failing startup.
type Handler struct {
	log *slog.Logger
	cfg Config

	catalog   *catalog.Service
	purchases *purchase.Service

	invoices *invoice.Service
	card     *checkout.Client
	webhooks *checkout.Reconciler

	admin *adminauth.Service
}

// NewHandler constructs the shop API handler.
func NewHandler(
	log *slog.Logger,
	cfg Config,
	cat *catalog.Service,
	purchases *purchase.Service,
	invoices *invoice.Service,
	card *checkout.Client,
	webhooks *checkout.Reconciler,
	admin *adminauth.Service,
) (*Handler, error) {
	if cat == nil || purchases == nil {
		return nil, errors.New("shopapi: nil catalog or purchase service")
	}
	if log == nil {
		log = slog.Default()
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	cfg.CardCurrency = strings.ToLower(strings.TrimSpace(cfg.CardCurrency))
	if cfg.CardCurrency == "" {
		cfg.CardCurrency = "usd"
	}
	if cfg.WatchInterval <= 0 {
		cfg.WatchInterval = defaultWatchInterval
	}
	if cfg.WatchMaxDuration <= 0 {
		cfg.WatchMaxDuration = defaultWatchMax
		if invoices != nil {
			cfg.WatchMaxDuration = invoices.TTL() + 5*time.Minute
		}
	}
	return &Handler{
		log:       log,
		cfg:       cfg,
		catalog:   cat,
		purchases: purchases,
		invoices:  invoices,
		card:      card,
		webhooks:  webhooks,
		admin:     admin,
	}, nil
}

// Register wires shop routes onto the provided mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("POST /admin/login", h.handleAdminLogin)

	mux.HandleFunc("GET /stickers", h.handleStickerList)
	mux.HandleFunc("POST /stickers", h.handleStickerCreate)
	mux.HandleFunc("PATCH /stickers/{id}", h.handleStickerUpdate)
	mux.HandleFunc("DELETE /stickers/{id}", h.handleStickerDelete)

	mux.HandleFunc("GET /payments/config", h.handlePublicConfig)
	mux.HandleFunc("GET /payments/ton/config", h.handleTonConfig)
	mux.HandleFunc("POST /payments/checkout", h.handleCheckout)
	mux.HandleFunc("POST /payments/webhook", h.handleWebhook)
	mux.HandleFunc("POST /payments/ton/invoice", h.handleInvoiceCreate)
	mux.HandleFunc("GET /payments/ton/invoice/{id}", h.handleInvoiceGet)
	mux.HandleFunc("GET /payments/ton/invoice/{id}/watch", h.handleInvoiceWatch)
	mux.HandleFunc("POST /payments/ton/confirm", h.handleInvoiceConfirm)
}

// requireAdmin checks the bearer token on catalog mutations.
func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if h.admin == nil {
		writeError(w, http.StatusServiceUnavailable, "admin_disabled", "admin auth not configured")
		return false
	}
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	token, ok := strings.CutPrefix(raw, "Bearer ")
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing_token", "bearer token required")
		return false
	}
	if err := h.admin.Authenticate(token, timeNow()); err != nil {
		writeError(w, http.StatusForbidden, "invalid_token", "invalid credentials")
		return false
	}
	return true
}

// writeDomainError maps domain sentinel errors to HTTP responses.
// Every expected failure keeps its distinct code so clients can render an
// accurate reason; only genuinely unexpected errors become 500s.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invoice.ErrItemNotFound), errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "sticker_not_found", "sticker not found")
	case errors.Is(err, invoice.ErrNotFound):
		writeError(w, http.StatusNotFound, "invoice_not_found", "invoice not found")
	case errors.Is(err, invoice.ErrTxNotFound):
		writeError(w, http.StatusNotFound, "transaction_not_found", "transaction not found")
	case errors.Is(err, purchase.ErrNotFound):
		writeError(w, http.StatusNotFound, "purchase_not_found", "purchase not found")
	case errors.Is(err, invoice.ErrExpired):
		writeError(w, http.StatusGone, "invoice_expired", "invoice expired")
	case errors.Is(err, invoice.ErrCommentExhausted):
		writeError(w, http.StatusConflict, "comment_allocation_exhausted", "unable to allocate invoice comment")
	case errors.Is(err, invoice.ErrUnsupportedCurrency):
		writeError(w, http.StatusUnprocessableEntity, "unsupported_currency", "sticker must be priced in ton minor units")
	case errors.Is(err, invoice.ErrWrongDestination):
		writeError(w, http.StatusBadRequest, "wrong_destination", "transaction not sent to configured wallet")
	case errors.Is(err, invoice.ErrCommentMismatch):
		writeError(w, http.StatusBadRequest, "comment_mismatch", "transaction comment mismatch")
	case errors.Is(err, invoice.ErrMalformedValue):
		writeError(w, http.StatusBadRequest, "malformed_value", "invalid transaction value")
	case errors.Is(err, invoice.ErrInsufficientAmount):
		writeError(w, http.StatusBadRequest, "insufficient_amount", "insufficient transaction amount")
	case errors.Is(err, invoice.ErrInsufficientConfirmations):
		writeError(w, http.StatusBadRequest, "insufficient_confirmations", "not enough confirmations yet")
	case errors.Is(err, tonchain.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "upstream_unavailable", "chain indexer unavailable")
	case errors.Is(err, tonchain.ErrRejected):
		writeError(w, http.StatusBadGateway, "upstream_rejected", "chain indexer rejected the lookup")
	case errors.Is(err, checkout.ErrUnavailable):
		writeError(w, http.StatusBadGateway, "processor_unavailable", "card processor unavailable")
	case errors.Is(err, checkout.ErrRejected):
		writeError(w, http.StatusBadGateway, "processor_rejected", "card processor rejected the request")
	case errors.Is(err, invoice.ErrInvalidInput), errors.Is(err, catalog.ErrInvalidInput), errors.Is(err, purchase.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	default:
		h.log.Error("api.internal", "err", err)
		writeError(w, http.StatusInternalServerError, "internal", "internal error")
	}
}
