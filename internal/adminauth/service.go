// Package adminauth guards catalog administration.
//
// There is exactly one admin credential: an Argon2id hash supplied via
// configuration. A successful login yields a short-lived PASETO v4.public
// access token; catalog mutations require it as a bearer token.
package adminauth

import (
	"strings"
	"time"
)

// Config holds admin auth settings.
type Config struct {
	// PasswordHash is the PHC Argon2id hash of the admin password.
	// Empty disables the login path entirely.
	PasswordHash string

	// SecretKeyHex is the hex Ed25519 key signing access tokens.
	SecretKeyHex string

	Issuer    string
	TokenTTL  time.Duration
	ClockSkew time.Duration
}

// Service authenticates the admin and mints access tokens.
type Service struct {
	passwordHash string
	tokens       *TokenManager

	// dummyHash keeps login timing uniform when the credential is unset.
	dummyHash string
}

// NewService constructs an admin auth Service.
func NewService(cfg Config) (*Service, error) {
	if cfg.Issuer == "" {
		cfg.Issuer = "stickershop"
	}
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ClockSkew < 0 {
		cfg.ClockSkew = 0
	}

	tokens, err := NewTokenManager(cfg.SecretKeyHex, cfg.Issuer, cfg.TokenTTL, cfg.ClockSkew)
	if err != nil {
		return nil, err
	}

	s := &Service{
		passwordHash: strings.TrimSpace(cfg.PasswordHash),
		tokens:       tokens,
	}
	if hash, err := HashPassword("dummy-password-for-timing-only", DefaultArgon2idParams()); err == nil {
		s.dummyHash = hash
	}
	return s, nil
}

// Login verifies the admin password and issues an access token.
func (s *Service) Login(password string, now time.Time) (string, time.Time, error) {
	if s == nil || s.tokens == nil {
		return "", time.Time{}, ErrConfig
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}

	if s.passwordHash == "" {
		// Burn comparable time against the dummy hash before refusing.
		_, _ = VerifyPassword(password, s.dummyHash)
		return "", time.Time{}, ErrNotConfigured
	}

	ok, err := VerifyPassword(password, s.passwordHash)
	if err != nil {
		return "", time.Time{}, ErrConfig
	}
	if !ok {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return s.tokens.Issue(now)
}

// Authenticate validates a bearer token from a catalog mutation request.
func (s *Service) Authenticate(token string, now time.Time) error {
	if s == nil || s.tokens == nil {
		return ErrConfig
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return ErrInvalidToken
	}
	if now.IsZero() {
		now = time.Now().UTC()
	}
	return s.tokens.Verify(token, now)
}
