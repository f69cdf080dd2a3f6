package domain

import "time"

// AttemptRecord tracks attempts for one (operation, identifier) pair inside a
// sliding window. Blocked implies BlockedUntil is set and after WindowStart.
type AttemptRecord struct {
	Count        int       `json:"count"`
	WindowStart  time.Time `json:"window_start"`
	Blocked      bool      `json:"blocked"`
	BlockedUntil time.Time `json:"blocked_until,omitempty"`
}

// NewAttemptRecord starts a fresh window with a single attempt.
func NewAttemptRecord(now time.Time) AttemptRecord {
	return AttemptRecord{Count: 1, WindowStart: now}
}

// WindowExpired reports whether the counting window has elapsed at the
// supplied moment.
func (r AttemptRecord) WindowExpired(now time.Time, window time.Duration) bool {
	return now.Sub(r.WindowStart) > window
}

// BlockActive reports whether the record carries a block that has not yet
// lifted.
func (r AttemptRecord) BlockActive(now time.Time) bool {
	return r.Blocked && now.Before(r.BlockedUntil)
}

// BlockExpired reports whether a previously set block has lifted.
func (r AttemptRecord) BlockExpired(now time.Time) bool {
	return r.Blocked && !now.Before(r.BlockedUntil)
}

// Increment accounts for one more attempt within the current window and
// raises the block once the maximum is reached.
func (r *AttemptRecord) Increment(now time.Time, maxAttempts int, blockDuration time.Duration) {
	r.Count++
	if r.Count >= maxAttempts {
		r.Blocked = true
		r.BlockedUntil = now.Add(blockDuration)
	}
}

// Remaining returns how many attempts are left before the block triggers.
func (r AttemptRecord) Remaining(maxAttempts int) int {
	if r.Blocked {
		return 0
	}
	remaining := maxAttempts - r.Count
	if remaining < 0 {
		return 0
	}
	return remaining
}

// BlockRemaining returns how long the block still holds at the supplied
// moment, zero when no block is active.
func (r AttemptRecord) BlockRemaining(now time.Time) time.Duration {
	if !r.Blocked {
		return 0
	}
	remaining := r.BlockedUntil.Sub(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}
