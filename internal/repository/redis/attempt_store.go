package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
)

const defaultAttemptPrefix = "tracker:attempts"

// AttemptStore persists attempt-limiter records in Redis so that lockouts
// survive restarts and are shared across instances.
type AttemptStore struct {
	client *redis.Client
	prefix string
}

// NewAttemptStore constructs a Redis-backed attempt store.
func NewAttemptStore(client *redis.Client, keyPrefix string) *AttemptStore {
	prefix := strings.TrimSpace(keyPrefix)
	if prefix == "" {
		prefix = defaultAttemptPrefix
	}
	return &AttemptStore{client: client, prefix: prefix}
}

// Get fetches the stored record bytes, reporting absence on cache miss.
func (s *AttemptStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := s.client.Get(ctx, s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("redis get attempt record: %w", err)
	}
	return value, true, nil
}

// Set stores the record bytes with the supplied TTL.
func (s *AttemptStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("redis set attempt record: %w", err)
	}
	return nil
}

// Delete removes the record for key.
func (s *AttemptStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("redis delete attempt record: %w", err)
	}
	return nil
}

func (s *AttemptStore) key(key string) string {
	return fmt.Sprintf("%s:%s", s.prefix, key)
}

var _ port.AttemptStore = (*AttemptStore)(nil)
