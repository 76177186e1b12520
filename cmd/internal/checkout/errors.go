package checkout

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotConfigured: the card rail is disabled because credentials are absent.
	ErrNotConfigured = errors.New("card processor not configured")

	// ErrInvalidSignature: webhook payload failed authenticity verification.
	// No state is ever mutated on this path.
	ErrInvalidSignature = errors.New("invalid webhook signature")

	// ErrMalformedEvent: the payload was authentic but not a parseable event.
	ErrMalformedEvent = errors.New("malformed webhook event")

	// ErrRejected: the processor refused a checkout-session request (4xx).
	ErrRejected = errors.New("card processor rejected request")

	// ErrUnavailable: the processor could not be reached or answered 5xx.
	ErrUnavailable = errors.New("card processor unavailable")
)
