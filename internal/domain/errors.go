package domain

import "errors"

// Sentinel errors, one per externally visible failure tag.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrUnauthenticated    = errors.New("unauthenticated")
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrNotFound           = errors.New("not found")
	ErrTooManyAttempts    = errors.New("too many attempts")
	ErrExpired            = errors.New("expired")
	ErrCodeMismatch       = errors.New("code mismatch")
	ErrEmailNotConfigured = errors.New("email transport not configured")
)
