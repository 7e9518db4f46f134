package common

import "time"

// Persisted record keys. Rate-limit records are keyed per identifier, the
// rest are global to the shared store.
const (
	CredentialKey      = "auth.credential"
	ProfileKey         = "auth.profile"
	RateLimitKeyPrefix = "ratelimit."
	SessionActivityKey = "session.activity"
)

// Default session policy.
const (
	DefaultTokenTTL             = 24 * time.Hour
	DefaultRateLimitWindow      = 5 * time.Minute
	DefaultRateLimitMaxAttempts = 5
	DefaultRateLimitBlock       = 15 * time.Minute
	DefaultIdleTimeout          = 30 * time.Minute
	DefaultSessionCheckInterval = 60 * time.Second
)

// RateLimitKey returns the storage key of the rate-limit record for identifier.
func RateLimitKey(identifier string) string {
	return RateLimitKeyPrefix + identifier
}

// RequestIDHeaderName is the gRPC metadata key carrying a per-call request id.
const RequestIDHeaderName = "x-request-id"
