package port

import (
	"context"
	"time"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
)

// SessionRepository persists login sessions.
type SessionRepository interface {
	Create(ctx context.Context, session domain.Session) error
	GetByID(ctx context.Context, id string) (*domain.Session, error)
	Touch(ctx context.Context, id string, at time.Time) error
	Revoke(ctx context.Context, id string, at time.Time, reason string) error
}
