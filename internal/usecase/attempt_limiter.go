package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
)

// AttemptLimiterConfig bounds attempts for one operation key.
type AttemptLimiterConfig struct {
	MaxAttempts   int
	Window        time.Duration
	BlockDuration time.Duration
}

func (c AttemptLimiterConfig) validate() error {
	if c.MaxAttempts <= 0 {
		return errors.New("max attempts must be positive")
	}
	if c.Window <= 0 {
		return errors.New("window must be positive")
	}
	if c.BlockDuration <= 0 {
		return errors.New("block duration must be positive")
	}
	return nil
}

// LockoutHook is invoked when repeated attempts trip the block.
type LockoutHook func(identifier string, record domain.AttemptRecord)

// AttemptLimiter throttles repeated attempts for one operation key (sign-in,
// sign-up) per identifier. Records live in a durable store so a restart
// cannot bypass a block; the store is authoritative on every read, so blocks
// raised or cleared by another instance sharing it are observed here. The
// in-memory cache only answers while the store is unreachable, keeping active
// blocks holding through an outage, and entries are dropped as soon as the
// store no longer has the record. Store failures and corrupt records degrade
// to "no record", they are never surfaced to the caller.
//
// Read-modify-write sequences are serialized in-process only. Two instances
// sharing a store may under-count near-simultaneous attempts; accepted, the
// purpose is abuse deterrence rather than exact accounting.
type AttemptLimiter struct {
	operation string
	cfg       AttemptLimiterConfig
	store     port.AttemptStore
	logger    *zap.Logger
	onLockout LockoutHook

	mu    sync.Mutex
	cache map[string]domain.AttemptRecord
	now   func() time.Time
}

// NewAttemptLimiter constructs a limiter for the given operation key.
func NewAttemptLimiter(operation string, cfg AttemptLimiterConfig, store port.AttemptStore, logger *zap.Logger) (*AttemptLimiter, error) {
	if operation == "" {
		return nil, errors.New("operation key is required")
	}
	if store == nil {
		return nil, errors.New("attempt store is required")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("attempt limiter %q: %w", operation, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &AttemptLimiter{
		operation: operation,
		cfg:       cfg,
		store:     store,
		logger:    logger,
		cache:     make(map[string]domain.AttemptRecord),
		now:       time.Now,
	}, nil
}

// WithClock overrides the internal clock for deterministic testing.
func (l *AttemptLimiter) WithClock(clock func() time.Time) *AttemptLimiter {
	if clock != nil {
		l.mu.Lock()
		l.now = clock
		l.mu.Unlock()
	}
	return l
}

// WithLockoutHook registers a callback fired when a block is raised.
func (l *AttemptLimiter) WithLockoutHook(hook LockoutHook) *AttemptLimiter {
	l.mu.Lock()
	l.onLockout = hook
	l.mu.Unlock()
	return l
}

// Operation returns the operation key this limiter guards.
func (l *AttemptLimiter) Operation() string {
	return l.operation
}

// MaxAttempts returns the configured attempt ceiling.
func (l *AttemptLimiter) MaxAttempts() int {
	return l.cfg.MaxAttempts
}

// IsBlocked reports whether the identifier is currently blocked. An expired
// block observed here is purged and reported as unblocked; this purge-on-read
// is the only mechanism that lifts a block.
func (l *AttemptLimiter) IsBlocked(ctx context.Context, identifier string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.isBlockedLocked(ctx, identifier)
}

// RecordAttempt accounts for one attempt. It returns false without mutating
// state when the identifier is blocked (safety net; callers should check
// IsBlocked first). Otherwise it rolls or extends the window, raises the
// block once the configured maximum is reached, persists the record, and
// returns true.
func (l *AttemptLimiter) RecordAttempt(ctx context.Context, identifier string) bool {
	l.mu.Lock()

	if l.isBlockedLocked(ctx, identifier) {
		l.mu.Unlock()
		return false
	}

	now := l.now()
	record, ok := l.loadLocked(ctx, identifier)
	if !ok || record.WindowExpired(now, l.cfg.Window) {
		record = domain.NewAttemptRecord(now)
		if record.Count >= l.cfg.MaxAttempts {
			record.Blocked = true
			record.BlockedUntil = now.Add(l.cfg.BlockDuration)
		}
	} else {
		record.Increment(now, l.cfg.MaxAttempts, l.cfg.BlockDuration)
	}

	l.persistLocked(ctx, identifier, record)

	hook := l.onLockout
	l.mu.Unlock()

	if record.Blocked {
		l.logger.Warn("attempt limit reached",
			zap.String("operation", l.operation),
			zap.Int("attempts", record.Count),
			zap.Time("blocked_until", record.BlockedUntil),
		)
		if hook != nil {
			hook(identifier, record)
		}
	}

	return true
}

// RemainingAttempts returns how many attempts are left before the block
// triggers: the full budget when no live record exists, zero while blocked.
func (l *AttemptLimiter) RemainingAttempts(ctx context.Context, identifier string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.loadLocked(ctx, identifier)
	if !ok {
		return l.cfg.MaxAttempts
	}

	now := l.now()
	if record.BlockActive(now) {
		return 0
	}
	if record.BlockExpired(now) {
		l.purgeLocked(ctx, identifier)
		return l.cfg.MaxAttempts
	}
	if record.WindowExpired(now, l.cfg.Window) {
		return l.cfg.MaxAttempts
	}

	return record.Remaining(l.cfg.MaxAttempts)
}

// BlockedTimeRemaining returns how long the current block still holds, zero
// when the identifier is not blocked.
func (l *AttemptLimiter) BlockedTimeRemaining(ctx context.Context, identifier string) time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()

	record, ok := l.loadLocked(ctx, identifier)
	if !ok {
		return 0
	}

	return record.BlockRemaining(l.now())
}

// Clear removes any attempt state for the identifier. Called after a
// successful operation (e.g. sign-in) and on sign-out; touches only this
// operation's storage.
func (l *AttemptLimiter) Clear(ctx context.Context, identifier string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.purgeLocked(ctx, identifier)
}

func (l *AttemptLimiter) isBlockedLocked(ctx context.Context, identifier string) bool {
	record, ok := l.loadLocked(ctx, identifier)
	if !ok {
		return false
	}

	now := l.now()
	if record.BlockActive(now) {
		return true
	}
	if record.BlockExpired(now) {
		l.purgeLocked(ctx, identifier)
	}
	return false
}

func (l *AttemptLimiter) loadLocked(ctx context.Context, identifier string) (domain.AttemptRecord, bool) {
	value, ok, err := l.store.Get(ctx, l.storeKey(identifier))
	if err != nil {
		l.logger.Debug("attempt store read failed",
			zap.String("operation", l.operation), zap.Error(err))
		// Fall back to the last record seen so an active block keeps
		// holding through a store outage.
		record, cached := l.cache[identifier]
		return record, cached
	}
	if !ok {
		// Expired or cleared in the store, possibly by another instance.
		delete(l.cache, identifier)
		return domain.AttemptRecord{}, false
	}

	var record domain.AttemptRecord
	if err := json.Unmarshal(value, &record); err != nil || record.Count <= 0 {
		// Corrupt persisted state self-heals to "no record".
		l.logger.Debug("discarding unreadable attempt record",
			zap.String("operation", l.operation), zap.Error(err))
		l.purgeLocked(ctx, identifier)
		return domain.AttemptRecord{}, false
	}

	l.cache[identifier] = record
	return record, true
}

func (l *AttemptLimiter) persistLocked(ctx context.Context, identifier string, record domain.AttemptRecord) {
	l.cache[identifier] = record

	value, err := json.Marshal(record)
	if err != nil {
		l.logger.Debug("marshal attempt record failed",
			zap.String("operation", l.operation), zap.Error(err))
		return
	}

	ttl := l.cfg.Window
	if record.Blocked {
		ttl = record.BlockedUntil.Sub(l.now())
	}

	if err := l.store.Set(ctx, l.storeKey(identifier), value, ttl); err != nil {
		l.logger.Debug("attempt store write failed",
			zap.String("operation", l.operation), zap.Error(err))
	}
}

func (l *AttemptLimiter) purgeLocked(ctx context.Context, identifier string) {
	delete(l.cache, identifier)
	if err := l.store.Delete(ctx, l.storeKey(identifier)); err != nil {
		l.logger.Debug("attempt store delete failed",
			zap.String("operation", l.operation), zap.Error(err))
	}
}

func (l *AttemptLimiter) storeKey(identifier string) string {
	return fmt.Sprintf("%s:%s", l.operation, identifier)
}
