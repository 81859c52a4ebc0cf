// Package common defines shared constants and sentinel errors used across
// client and server layers of propkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorValidation   = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Verification errors.
	ErrSessionExpired   = errors.New("verification session expired")
	ErrTooManyAttempts  = errors.New("too many attempts")
	ErrInvalidCode      = errors.New("invalid code")
	ErrWeakPassword     = errors.New("password is too weak")
	ErrMissingArguments = errors.New("missing required fields")
)
