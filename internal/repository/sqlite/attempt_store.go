package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS attempt_records (
    key        TEXT PRIMARY KEY,
    value      BLOB NOT NULL,
    expires_at INTEGER
);`

// AttemptStore persists attempt-limiter records in a local SQLite file.
// Fallback durable backend for single-instance deployments without Redis;
// lockouts still survive a restart.
type AttemptStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewAttemptStore opens (creating if necessary) the database at path.
func NewAttemptStore(path string) (*AttemptStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// Single writer; the sqlite driver serializes access per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create attempt_records table: %w", err)
	}

	return &AttemptStore{db: db, now: time.Now}, nil
}

// WithClock overrides the internal clock for deterministic testing.
func (s *AttemptStore) WithClock(clock func() time.Time) *AttemptStore {
	if clock != nil {
		s.now = clock
	}
	return s
}

// Get fetches the stored record bytes. Expired rows are purged and reported
// as absent.
func (s *AttemptStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		value     []byte
		expiresAt sql.NullInt64
	)

	row := s.db.QueryRowContext(ctx, `SELECT value, expires_at FROM attempt_records WHERE key = ?`, key)
	if err := row.Scan(&value, &expiresAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("select attempt record: %w", err)
	}

	if expiresAt.Valid && s.now().UnixMilli() >= expiresAt.Int64 {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM attempt_records WHERE key = ?`, key); err != nil {
			return nil, false, fmt.Errorf("purge expired attempt record: %w", err)
		}
		return nil, false, nil
	}

	return value, true, nil
}

// Set upserts the record bytes with the supplied TTL.
func (s *AttemptStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixMilli()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO attempt_records (key, value, expires_at) VALUES (?, ?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("upsert attempt record: %w", err)
	}
	return nil
}

// Delete removes the record for key.
func (s *AttemptStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM attempt_records WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete attempt record: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *AttemptStore) Close() error {
	return s.db.Close()
}

var _ port.AttemptStore = (*AttemptStore)(nil)
