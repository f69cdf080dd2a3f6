package port

import (
	"context"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
)

// EventPublisher publishes security events to the message bus.
type EventPublisher interface {
	PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error
	PublishLockout(ctx context.Context, event domain.LockoutEvent) error
	PublishSessionExpired(ctx context.Context, event domain.SessionExpiredEvent) error
	PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error
}
