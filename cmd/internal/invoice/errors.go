package invoice

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrNotFound     = errors.New("invoice not found")

	// ErrItemNotFound: the sticker is missing or inactive.
	ErrItemNotFound = errors.New("sticker not found")

	// ErrUnsupportedCurrency: the sticker is not priced in the chain unit.
	ErrUnsupportedCurrency = errors.New("sticker not priced in ton")

	// ErrCommentExhausted: comment allocation collided on every attempt.
	ErrCommentExhausted = errors.New("unable to allocate invoice comment")

	// ErrCommentTaken is a store-level signal that an insert hit the comment
	// uniqueness constraint; the service retries with a fresh comment.
	ErrCommentTaken = errors.New("invoice comment already taken")

	// ErrExpired: the invoice deadline passed before confirmation.
	ErrExpired = errors.New("invoice expired")

	// ErrTxNotFound: the indexer has no such transaction on the wallet.
	ErrTxNotFound = errors.New("transaction not found")

	// Validation outcomes, one per check so callers can render an accurate
	// rejection reason. The first failing check wins.
	ErrWrongDestination          = errors.New("transaction not sent to configured wallet")
	ErrCommentMismatch           = errors.New("transaction comment mismatch")
	ErrMalformedValue            = errors.New("malformed transaction value")
	ErrInsufficientAmount        = errors.New("insufficient transaction amount")
	ErrInsufficientConfirmations = errors.New("not enough confirmations")
)
