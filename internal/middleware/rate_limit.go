package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
)

// IPRateLimitConfig holds per-IP rate limiting configuration for public
// endpoints, which carry no API key for the persisted limiter to track.
type IPRateLimitConfig struct {
	RequestsPerMinute int
}

// DefaultAuthRateLimit returns the limit applied to login, registration and
// password reset endpoints.
func DefaultAuthRateLimit() IPRateLimitConfig {
	return IPRateLimitConfig{
		RequestsPerMinute: 10,
	}
}

// RateLimitByIP creates a middleware that rate limits requests by client IP
func RateLimitByIP(config IPRateLimitConfig) func(next http.Handler) http.Handler {
	return httprate.Limit(
		config.RequestsPerMinute,
		1*time.Minute,
		httprate.WithKeyByRealIP(),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			w.Write([]byte(`{"error":"rate_limit_exceeded","message":"Too many requests. Please try again later."}`))
		}),
	)
}
