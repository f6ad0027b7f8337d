package models

import "time"

// RateLimitRecord is one fixed-window counter row, keyed by API key.
type RateLimitRecord struct {
	APIKey      string
	Requests    int
	WindowStart time.Time
}

// Stale reports whether the window has elapsed and the counter should reset.
// A window started exactly one window ago is already stale.
func (r *RateLimitRecord) Stale(now time.Time, window time.Duration) bool {
	return now.Sub(r.WindowStart) >= window
}
