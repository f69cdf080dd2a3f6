package domain

import "time"

// UserRegisteredEvent is emitted when a new tracker account is created.
type UserRegisteredEvent struct {
	UserID       string
	Username     string
	Email        string
	Role         Role
	RegisteredAt time.Time
}

// LockoutEvent is emitted when repeated attempts trip the limiter block.
type LockoutEvent struct {
	OperationKey string
	Identifier   string
	Attempts     int
	BlockedUntil time.Time
	At           time.Time
}

// SessionExpiredEvent is emitted when a session is terminated for idleness.
type SessionExpiredEvent struct {
	SessionID string
	UserID    string
	IdleFor   time.Duration
	At        time.Time
}

// SessionRevokedEvent is emitted when a session ends for any reason.
type SessionRevokedEvent struct {
	SessionID string
	UserID    string
	Reason    string
	RevokedAt time.Time
}
