// Package common defines shared constants and sentinel errors used across
// client and server layers of spendkeeper. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Input validation.
	ErrValidation = errors.New("validation error")

	// Account errors.
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")

	// Authorization header errors.
	ErrMissingHeader = errors.New("missing authorization header")
	ErrBadScheme     = errors.New("invalid authorization scheme")

	// Token verification errors. ErrInvalidOrExpiredOrRevoked is the only one
	// surfaced to callers of protected endpoints.
	ErrInvalidOrExpiredOrRevoked = errors.New("invalid, expired or revoked token")
	ErrWrongTokenType            = errors.New("wrong token type")
	ErrMalformedPayload          = errors.New("malformed token payload")
	ErrInvalidToken              = errors.New("invalid token")

	// Token codec errors.
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrTokenExpired     = errors.New("token expired")
	ErrMalformedToken   = errors.New("malformed token")

	// Persistence failures, always wrapped with the underlying cause.
	ErrStorageUnavailable = errors.New("storage unavailable")
)
