// Package common defines shared constants and sentinel errors used across
// the service layers. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token). Decode failures of every
	// flavour collapse to this value so callers cannot tell a bad signature
	// from an expired or malformed credential.
	ErrInvalidToken = errors.New("invalid token")

	// ErrSensitiveClaim is returned when a token would be minted with a
	// claim value that must never leave the process (the signing secret).
	ErrSensitiveClaim = errors.New("claim carries sensitive value")
)
