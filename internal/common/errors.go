// Package common defines shared constants and sentinel errors used across
// client and server layers of socguard. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrNotFound        = errors.New("not found")
	ErrVersionConflict = errors.New("version conflict")

	// Authentication outcomes surfaced to the UI layer.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrRateLimited          = errors.New("too many login attempts")

	// Token errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")
)
