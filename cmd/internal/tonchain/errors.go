package tonchain

import "errors"

var (
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotFound means the indexer answered but no transaction matched.
	// This is a permanent decision; callers should not retry.
	ErrNotFound = errors.New("transaction not found")

	// ErrRejected means the indexer refused the request (4xx).
	ErrRejected = errors.New("indexer rejected request")

	// ErrUnavailable means the indexer could not be reached or answered 5xx.
	// Callers may retry; the transaction may well exist.
	ErrUnavailable = errors.New("indexer unavailable")
)
