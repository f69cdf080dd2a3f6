package domain

import "time"

// Session represents a persisted login session for a tracker user.
type Session struct {
	ID           string
	UserID       string
	IP           *string
	UserAgent    *string
	CreatedAt    time.Time
	LastSeen     time.Time
	ExpiresAt    time.Time
	RevokedAt    *time.Time
	RevokeReason *string
}

// IsActive reports whether the session is still valid (not revoked and not
// expired at the supplied moment).
func (s Session) IsActive(at time.Time) bool {
	if s.RevokedAt != nil {
		return false
	}
	return s.ExpiresAt.After(at)
}

// Touch updates last-seen metadata for the session when activity occurs.
func (s *Session) Touch(at time.Time) {
	s.LastSeen = at
}

// Revoke marks the session as revoked. Returns true when the session changed
// state.
func (s *Session) Revoke(at time.Time, reason string) bool {
	if s.RevokedAt != nil {
		return false
	}
	s.RevokedAt = &at
	s.RevokeReason = &reason
	return true
}
