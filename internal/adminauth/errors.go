package adminauth

import "errors"

var (
	ErrConfig = errors.New("invalid admin auth configuration")

	// ErrNotConfigured: no admin credential is set; the login path is disabled.
	ErrNotConfigured = errors.New("admin auth not configured")

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrInvalidHash        = errors.New("invalid password hash")
)
