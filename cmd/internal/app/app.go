// Package app wires the sticker shop runtime: config, logging, storage,
// payment rails, and HTTP routes.
package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"stickershop/internal/adminauth"
	"stickershop/cmd/internal/catalog"
	"stickershop/cmd/internal/checkout"
	"stickershop/cmd/internal/invoice"
	"stickershop/cmd/internal/metrics"
	"stickershop/cmd/internal/purchase"
	"stickershop/cmd/internal/shopapi"
	"stickershop/cmd/internal/tonchain"
)

// App is the server runtime: it owns the HTTP server wiring and the
// lifecycle of DB-backed resources.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	shop *shopapi.Handler
}

// New constructs a fully wired App instance from config and logger.
func New(cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidatePaymentConfig(cfg); err != nil {
		return nil, err
	}

	metrics.Register()

	dbPool, err := openDB(context.Background(), cfg, log)
	if err != nil {
		return nil, err
	}
	dbEnabled := dbPool != nil

	stores, err := newStores(dbPool)
	if err != nil {
		if dbPool != nil {
			dbPool.Close()
		}
		return nil, err
	}

	cat, err := catalog.NewService(stores.stickers)
	if err != nil {
		return nil, err
	}
	purchases, err := purchase.NewService(stores.purchases)
	if err != nil {
		return nil, err
	}

	var card *checkout.Client
	var webhooks *checkout.Reconciler
	if cfg.CardEnabled() {
		card, err = checkout.NewClient(checkout.ClientConfig{
			SecretKey:  cfg.StripeSecretKey,
			BaseURL:    cfg.StripeAPIBaseURL,
			SuccessURL: cfg.StripeSuccessURL,
			CancelURL:  cfg.StripeCancelURL,
		})
		if err != nil {
			return nil, err
		}
		webhooks, err = checkout.NewReconciler(log, purchases, cfg.StripeWebhookSecret)
		if err != nil {
			return nil, err
		}
	} else {
		log.Info("card.disabled")
	}

	var invoices *invoice.Service
	if cfg.TonEnabled() {
		finder, err := tonchain.NewClient(tonchain.ClientConfig{
			BaseURL: cfg.TonAPIBaseURL,
			APIKey:  cfg.TonAPIKey,
		})
		if err != nil {
			return nil, err
		}
		invoices, err = invoice.NewService(log, stores.invoices, cat, finder, purchases, invoice.Config{
			WalletAddress:    cfg.TonWalletAddress,
			TTL:              cfg.TonInvoiceTTL,
			MinConfirmations: cfg.TonMinConfirmations,
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Info("ton.disabled")
	}

	var admin *adminauth.Service
	if cfg.AdminEnabled() {
		admin, err = adminauth.NewService(adminauth.Config{
			PasswordHash: cfg.AdminPasswordHash,
			SecretKeyHex: cfg.AdminTokenKeyHex,
			TokenTTL:     cfg.AdminTokenTTL,
		})
		if err != nil {
			return nil, err
		}
	} else {
		log.Info("admin.disabled")
	}

	shop, err := shopapi.NewHandler(log, shopapi.Config{
		MaxBodyBytes:  cfg.MaxBodyBytes,
		StaticDir:     cfg.StaticDir,
		PublicBaseURL: cfg.PublicBaseURL,
		CardCurrency:  cfg.CardCurrency,
		WatchInterval: cfg.WatchInterval,
		WatchOrigins:  cfg.WatchOrigins,
	}, cat, purchases, invoices, card, webhooks, admin)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    dbPool,
		dbEnabled: dbEnabled,
		shop:      shop,
	}, nil
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	registerHTTP(mux, a.log, a.cfg, a.dbPool, a.dbEnabled, a.shop)

	handler := WithRequestLogging(WithSecurityHeaders(mux), a.log)

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           handler,
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	if a.dbPool != nil {
		a.dbPool.Close()
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// openDB connects and migrates when a database is configured; a nil pool
// selects the in-memory dev stores.
func openDB(ctx context.Context, cfg Config, log Logger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return nil, nil
	}

	if cfg.MigrateOnStart {
		if err := RunMigrations(cfg.DatabaseURL); err != nil {
			return nil, err
		}
		log.Info("db.migrated")
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return nil, err
	}

	log.Info("db.enabled.postgres_store")
	return pool, nil
}

// stores bundles the per-domain persistence backends.
type stores struct {
	stickers  catalog.Store
	invoices  invoice.Store
	purchases purchase.Store
}

func newStores(pool *pgxpool.Pool) (stores, error) {
	if pool == nil {
		return stores{
			stickers:  catalog.NewInMemoryStore(),
			invoices:  invoice.NewInMemoryStore(),
			purchases: purchase.NewInMemoryStore(),
		}, nil
	}

	st, err := catalog.NewPostgresStore(pool)
	if err != nil {
		return stores{}, err
	}
	inv, err := invoice.NewPostgresStore(pool)
	if err != nil {
		return stores{}, err
	}
	pur, err := purchase.NewPostgresStore(pool)
	if err != nil {
		return stores{}, err
	}

	return stores{stickers: st, invoices: inv, purchases: pur}, nil
}
