package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
	"github.com/Rohit29052007/seed-track-flow/internal/infra/config"
)

const schemaVersion = "1.0"

// Event types published to the bus. The producer prepends the configured
// topic prefix, so "auth.lockout" becomes "tracker.auth.lockout".
const (
	eventUserRegistered = "user.registered"
	eventAuthLockout    = "auth.lockout"
	eventSessionExpired = "session.expired"
	eventSessionRevoked = "session.revoked"
)

// EventPublisher implements port.EventPublisher using Kafka.
type EventPublisher struct {
	producer *Producer
	logger   *zap.Logger
	appCfg   config.AppSettings
}

var _ port.EventPublisher = (*EventPublisher)(nil)

// NewEventPublisher constructs a Kafka-backed event publisher.
func NewEventPublisher(producer *Producer, appCfg config.AppSettings, logger *zap.Logger) *EventPublisher {
	return &EventPublisher{producer: producer, appCfg: appCfg, logger: logger}
}

type eventEnvelope struct {
	EventID   string            `json:"event_id"`
	EventType string            `json:"event_type"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Payload   any               `json:"payload"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

func (p *EventPublisher) publish(ctx context.Context, eventType string, ts time.Time, payload any) error {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	envelope := eventEnvelope{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Timestamp: ts.UTC(),
		Version:   schemaVersion,
		Payload:   payload,
		Metadata: map[string]string{
			"service":     p.appCfg.Name,
			"environment": p.appCfg.Env,
		},
	}

	bytes, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal event envelope: %w", err)
	}

	message := &sarama.ProducerMessage{
		Topic: p.producer.TopicName(eventType),
		Value: sarama.ByteEncoder(bytes),
	}

	select {
	case p.producer.Producer().Input() <- message:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// PublishUserRegistered publishes user.registered events.
func (p *EventPublisher) PublishUserRegistered(ctx context.Context, event domain.UserRegisteredEvent) error {
	payload := struct {
		UserID       string    `json:"user_id"`
		Username     string    `json:"username"`
		Email        string    `json:"email"`
		Role         string    `json:"role"`
		RegisteredAt time.Time `json:"registered_at"`
	}{
		UserID:       event.UserID,
		Username:     event.Username,
		Email:        event.Email,
		Role:         string(event.Role),
		RegisteredAt: event.RegisteredAt.UTC(),
	}

	return p.publish(ctx, eventUserRegistered, event.RegisteredAt, payload)
}

// PublishLockout publishes auth.lockout events.
func (p *EventPublisher) PublishLockout(ctx context.Context, event domain.LockoutEvent) error {
	payload := struct {
		Operation    string    `json:"operation"`
		Identifier   string    `json:"identifier"`
		Attempts     int       `json:"attempts"`
		BlockedUntil time.Time `json:"blocked_until"`
		At           time.Time `json:"at"`
	}{
		Operation:    event.OperationKey,
		Identifier:   event.Identifier,
		Attempts:     event.Attempts,
		BlockedUntil: event.BlockedUntil.UTC(),
		At:           event.At.UTC(),
	}

	return p.publish(ctx, eventAuthLockout, event.At, payload)
}

// PublishSessionExpired publishes session.expired events.
func (p *EventPublisher) PublishSessionExpired(ctx context.Context, event domain.SessionExpiredEvent) error {
	payload := struct {
		SessionID   string    `json:"session_id"`
		UserID      string    `json:"user_id"`
		IdleSeconds float64   `json:"idle_seconds"`
		At          time.Time `json:"at"`
	}{
		SessionID:   event.SessionID,
		UserID:      event.UserID,
		IdleSeconds: event.IdleFor.Seconds(),
		At:          event.At.UTC(),
	}

	return p.publish(ctx, eventSessionExpired, event.At, payload)
}

// PublishSessionRevoked publishes session.revoked events.
func (p *EventPublisher) PublishSessionRevoked(ctx context.Context, event domain.SessionRevokedEvent) error {
	payload := struct {
		SessionID string    `json:"session_id"`
		UserID    string    `json:"user_id"`
		Reason    string    `json:"reason"`
		RevokedAt time.Time `json:"revoked_at"`
	}{
		SessionID: event.SessionID,
		UserID:    event.UserID,
		Reason:    event.Reason,
		RevokedAt: event.RevokedAt.UTC(),
	}

	return p.publish(ctx, eventSessionRevoked, event.RevokedAt, payload)
}
