package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/repository"
)

func TestSessionRepository_Create(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	createdAt := time.Now().UTC()
	ip := "203.0.113.7"
	session := domain.Session{
		ID:        "session-123",
		UserID:    "user-123",
		IP:        &ip,
		CreatedAt: createdAt,
		LastSeen:  createdAt,
		ExpiresAt: createdAt.Add(30 * time.Minute),
	}

	mock.ExpectExec(`INSERT INTO tracker\.sessions`).
		WithArgs(
			session.ID,
			session.UserID,
			ip,
			nil,
			session.CreatedAt,
			session.LastSeen,
			session.ExpiresAt,
			session.RevokedAt,
			session.RevokeReason,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSessionRepository_TouchMissingSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	defer mock.Close()

	repo := NewSessionRepository(mock)

	at := time.Now().UTC()
	mock.ExpectExec(`UPDATE tracker\.sessions`).
		WithArgs(at, "missing").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err = repo.Touch(context.Background(), "missing", at)
	if !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
