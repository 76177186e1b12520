package app

import "errors"

// ValidatePaymentConfig enforces the payment rail policy at startup.
//
// Fail-fast is intentional: a card rail that accepts checkouts but cannot
// verify webhook signatures would silently never fulfill a purchase.
func ValidatePaymentConfig(cfg Config) error {
	if cfg.CardEnabled() {
		if cfg.StripeWebhookSecret == "" {
			return errors.New("payment policy: SHOP_STRIPE_SECRET_KEY is set but SHOP_STRIPE_WEBHOOK_SECRET is missing")
		}
		if cfg.StripeSuccessURL == "" || cfg.StripeCancelURL == "" {
			return errors.New("payment policy: card rail requires SHOP_STRIPE_SUCCESS_URL and SHOP_STRIPE_CANCEL_URL")
		}
	}

	if cfg.TonEnabled() {
		if cfg.TonAPIBaseURL == "" {
			return errors.New("payment policy: SHOP_TON_WALLET_ADDRESS is set but SHOP_TON_API_BASE_URL is empty")
		}
		if cfg.TonMinConfirmations < 0 {
			return errors.New("payment policy: SHOP_TON_MIN_CONFIRMATIONS must not be negative")
		}
	}

	// A half-configured admin credential is a misconfiguration, not a
	// disabled feature.
	if (cfg.AdminPasswordHash == "") != (cfg.AdminTokenKeyHex == "") {
		return errors.New("admin policy: SHOP_ADMIN_PASSWORD_HASH and SHOP_ADMIN_TOKEN_KEY must be set together")
	}

	return nil
}
