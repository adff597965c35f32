package models

import "time"

// RateLimitEntry is one client's bucket. It is logically stale once
// ResetTime has passed; the next hit starts a new window.
type RateLimitEntry struct {
	Count     int       `json:"count"`
	ResetTime time.Time `json:"reset_time"`
}

// Expired reports whether the window has elapsed at now.
func (e *RateLimitEntry) Expired(now time.Time) bool {
	return now.After(e.ResetTime)
}

// RateLimitDecision is the outcome of a single check-and-increment.
type RateLimitDecision struct {
	Allowed   bool
	Count     int
	Limit     int
	ResetTime time.Time
}

// RetryAfter is the time left until the window resets, never negative.
func (d RateLimitDecision) RetryAfter(now time.Time) time.Duration {
	if left := d.ResetTime.Sub(now); left > 0 {
		return left
	}
	return 0
}
