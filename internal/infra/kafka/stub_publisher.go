package kafka

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
)

// StubPublisher logs events instead of sending them to Kafka. Useful for
// development environments with no broker available.
type StubPublisher struct {
	logger *zap.Logger
}

var _ port.EventPublisher = (*StubPublisher)(nil)

// NewStubPublisher constructs a development-friendly event publisher.
func NewStubPublisher(logger *zap.Logger) *StubPublisher {
	return &StubPublisher{logger: logger}
}

func (p *StubPublisher) logEvent(eventType string, at time.Time, payload any) {
	if at.IsZero() {
		at = time.Now().UTC()
	}

	p.logger.Info("stub event published",
		zap.String("event_type", eventType),
		zap.Time("timestamp", at.UTC()),
		zap.Any("payload", payload),
	)
}

// PublishUserRegistered logs user.registered events.
func (p *StubPublisher) PublishUserRegistered(_ context.Context, event domain.UserRegisteredEvent) error {
	payload := map[string]any{
		"user_id":       event.UserID,
		"username":      event.Username,
		"role":          string(event.Role),
		"registered_at": event.RegisteredAt,
	}
	p.logEvent(eventUserRegistered, event.RegisteredAt, payload)
	return nil
}

// PublishLockout logs auth.lockout events.
func (p *StubPublisher) PublishLockout(_ context.Context, event domain.LockoutEvent) error {
	payload := map[string]any{
		"operation":     event.OperationKey,
		"identifier":    event.Identifier,
		"attempts":      event.Attempts,
		"blocked_until": event.BlockedUntil,
	}
	p.logEvent(eventAuthLockout, event.At, payload)
	return nil
}

// PublishSessionExpired logs session.expired events.
func (p *StubPublisher) PublishSessionExpired(_ context.Context, event domain.SessionExpiredEvent) error {
	payload := map[string]any{
		"session_id":   event.SessionID,
		"user_id":      event.UserID,
		"idle_seconds": event.IdleFor.Seconds(),
	}
	p.logEvent(eventSessionExpired, event.At, payload)
	return nil
}

// PublishSessionRevoked logs session.revoked events.
func (p *StubPublisher) PublishSessionRevoked(_ context.Context, event domain.SessionRevokedEvent) error {
	payload := map[string]any{
		"session_id": event.SessionID,
		"user_id":    event.UserID,
		"reason":     event.Reason,
	}
	p.logEvent(eventSessionRevoked, event.RevokedAt, payload)
	return nil
}
