package port

import (
	"context"
	"time"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
)

// UserRepository persists tracker accounts.
type UserRepository interface {
	Create(ctx context.Context, user domain.User) error
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByID(ctx context.Context, id string) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
