package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
	"github.com/Rohit29052007/seed-track-flow/internal/repository"
)

// SessionRepository implements port.SessionRepository using PostgreSQL.
type SessionRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewSessionRepository constructs a repository backed by any executor that
// satisfies pgExecutor (pool, transaction, or mock).
func NewSessionRepository(exec pgExecutor) *SessionRepository {
	return &SessionRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create persists a new session row.
func (r *SessionRepository) Create(ctx context.Context, session domain.Session) error {
	var ip any
	if session.IP != nil && *session.IP != "" {
		ip = *session.IP
	}
	var userAgent any
	if session.UserAgent != nil && *session.UserAgent != "" {
		userAgent = *session.UserAgent
	}

	query := r.builder.Insert("tracker.sessions").
		Columns("id", "user_id", "ip", "user_agent", "created_at", "last_seen", "expires_at", "revoked_at", "revoke_reason").
		Values(session.ID, session.UserID, ip, userAgent, session.CreatedAt, session.LastSeen, session.ExpiresAt, session.RevokedAt, session.RevokeReason)

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build insert session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	return nil
}

// GetByID retrieves a session by identifier.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	query := r.builder.Select("id", "user_id", "ip", "user_agent", "created_at", "last_seen", "expires_at", "revoked_at", "revoke_reason").
		From("tracker.sessions").
		Where(squirrel.Eq{"id": id}).
		Limit(1)

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select session sql: %w", err)
	}

	var session domain.Session
	row := r.exec.QueryRow(ctx, sql, args...)
	if err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.IP,
		&session.UserAgent,
		&session.CreatedAt,
		&session.LastSeen,
		&session.ExpiresAt,
		&session.RevokedAt,
		&session.RevokeReason,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select session: %w", err)
	}

	return &session, nil
}

// Touch updates last-seen for an unrevoked session.
func (r *SessionRepository) Touch(ctx context.Context, id string, at time.Time) error {
	query := r.builder.Update("tracker.sessions").
		Set("last_seen", at).
		Where(squirrel.Eq{"id": id, "revoked_at": nil})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build touch session sql: %w", err)
	}

	tag, err := r.exec.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// Revoke marks the session revoked. Revoking an already revoked session is a
// no-op so that idle-timeout and explicit sign-out can race safely.
func (r *SessionRepository) Revoke(ctx context.Context, id string, at time.Time, reason string) error {
	query := r.builder.Update("tracker.sessions").
		Set("revoked_at", at).
		Set("revoke_reason", reason).
		Where(squirrel.Eq{"id": id, "revoked_at": nil})

	sql, args, err := query.ToSql()
	if err != nil {
		return fmt.Errorf("build revoke session sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}

	return nil
}

var _ port.SessionRepository = (*SessionRepository)(nil)
