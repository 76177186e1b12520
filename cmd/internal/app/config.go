package app

import "time"

// Config contains all runtime configuration loaded from environment variables.
type Config struct {
	HTTPAddr  string
	LogLevel  string
	LogFormat string

	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int
	MaxBodyBytes      int64

	DatabaseURL string
	DBMaxConns  int32
	DBMinConns  int32

	// MigrateOnStart applies embedded schema migrations before serving.
	MigrateOnStart bool

	// If true:
	// - /readyz returns 503 unless DB is configured and reachable.
	ReadinessRequireDB bool

	// StaticDir holds uploaded sticker images, served under /static/.
	StaticDir string

	// PublicBaseURL is the externally visible server URL (absolute image
	// URLs on the hosted checkout page are built from it).
	PublicBaseURL string

	// Card rail. The rail is disabled when StripeSecretKey is empty.
	StripeSecretKey     string
	StripeWebhookSecret string
	StripeAPIBaseURL    string
	StripeSuccessURL    string
	StripeCancelURL     string
	CardCurrency        string

	// Chain rail. The rail is disabled when TonWalletAddress is empty.
	TonWalletAddress    string
	TonAPIBaseURL       string
	TonAPIKey           string
	TonInvoiceTTL       time.Duration
	TonMinConfirmations int

	// Admin auth. Disabled when either value is empty.
	AdminPasswordHash string
	AdminTokenKeyHex  string
	AdminTokenTTL     time.Duration

	// Invoice watch socket.
	WatchInterval time.Duration
	WatchOrigins  []string
}

// LoadConfig loads Config from environment variables with defaults.
func LoadConfig() Config {
	return Config{
		HTTPAddr:  EnvString("SHOP_HTTP_ADDR", "0.0.0.0:8080"),
		LogLevel:  EnvString("SHOP_LOG_LEVEL", "info"),
		LogFormat: EnvString("SHOP_LOG_FORMAT", "json"),

		ReadHeaderTimeout: EnvDuration("SHOP_HTTP_READ_HEADER_TIMEOUT", 5*time.Second),
		ReadTimeout:       EnvDuration("SHOP_HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:      EnvDuration("SHOP_HTTP_WRITE_TIMEOUT", 15*time.Second),
		IdleTimeout:       EnvDuration("SHOP_HTTP_IDLE_TIMEOUT", 60*time.Second),

		MaxHeaderBytes: EnvInt("SHOP_HTTP_MAX_HEADER_BYTES", 1<<20),
		MaxBodyBytes:   EnvInt64("SHOP_HTTP_MAX_BODY_BYTES", 1<<20),

		DatabaseURL: EnvString("SHOP_DATABASE_URL", ""),
		DBMaxConns:  EnvInt32("SHOP_DB_MAX_CONNS", 10),
		DBMinConns:  EnvInt32("SHOP_DB_MIN_CONNS", 0),

		MigrateOnStart:     EnvBool("SHOP_DB_MIGRATE", true),
		ReadinessRequireDB: EnvBool("SHOP_READINESS_REQUIRE_DB", false),

		StaticDir:     EnvString("SHOP_STATIC_DIR", "static"),
		PublicBaseURL: EnvString("SHOP_PUBLIC_BASE_URL", ""),

		StripeSecretKey:     EnvString("SHOP_STRIPE_SECRET_KEY", ""),
		StripeWebhookSecret: EnvString("SHOP_STRIPE_WEBHOOK_SECRET", ""),
		StripeAPIBaseURL:    EnvString("SHOP_STRIPE_API_BASE_URL", ""),
		StripeSuccessURL:    EnvString("SHOP_STRIPE_SUCCESS_URL", ""),
		StripeCancelURL:     EnvString("SHOP_STRIPE_CANCEL_URL", ""),
		CardCurrency:        EnvString("SHOP_CARD_CURRENCY", "usd"),

		TonWalletAddress:    EnvString("SHOP_TON_WALLET_ADDRESS", ""),
		TonAPIBaseURL:       EnvString("SHOP_TON_API_BASE_URL", "https://tonapi.io/v2"),
		TonAPIKey:           EnvString("SHOP_TON_API_KEY", ""),
		TonInvoiceTTL:       EnvDuration("SHOP_TON_INVOICE_TTL", 30*time.Minute),
		// Zero is a valid setting: it accepts transactions on first sight
		// for fast-finality deployments.
		TonMinConfirmations: EnvIntNonNegative("SHOP_TON_MIN_CONFIRMATIONS", 1),

		AdminPasswordHash: EnvString("SHOP_ADMIN_PASSWORD_HASH", ""),
		AdminTokenKeyHex:  EnvString("SHOP_ADMIN_TOKEN_KEY", ""),
		AdminTokenTTL:     EnvDuration("SHOP_ADMIN_TOKEN_TTL", 24*time.Hour),

		WatchInterval: EnvDuration("SHOP_WATCH_INTERVAL", 3*time.Second),
		WatchOrigins:  EnvCSV("SHOP_WATCH_ORIGINS", ""),
	}
}

// CardEnabled reports whether the card rail is configured.
func (c Config) CardEnabled() bool { return c.StripeSecretKey != "" }

// TonEnabled reports whether the chain rail is configured.
func (c Config) TonEnabled() bool { return c.TonWalletAddress != "" }

// AdminEnabled reports whether admin auth is configured.
func (c Config) AdminEnabled() bool {
	return c.AdminPasswordHash != "" && c.AdminTokenKeyHex != ""
}
