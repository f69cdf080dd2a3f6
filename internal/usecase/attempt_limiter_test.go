package usecase

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/repository/memory"
)

func newTestLimiter(t *testing.T, cfg AttemptLimiterConfig, base time.Time) (*AttemptLimiter, *time.Time) {
	t.Helper()

	current := base
	clock := func() time.Time { return current }

	limiter, err := NewAttemptLimiter("sign-in", cfg, memory.NewAttemptStore().WithClock(clock), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAttemptLimiter failed: %v", err)
	}
	limiter.WithClock(clock)
	return limiter, &current
}

func TestAttemptLimiterBlocksAtThreshold(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cfg := AttemptLimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute}

	limiter, _ := newTestLimiter(t, cfg, base)

	for i := 0; i < 4; i++ {
		if !limiter.RecordAttempt(ctx, "user") {
			t.Fatalf("attempt %d should have been accounted", i+1)
		}
	}

	if limiter.IsBlocked(ctx, "user") {
		t.Fatalf("expected user to be unblocked after 4 of 5 attempts")
	}
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != 1 {
		t.Fatalf("expected 1 remaining attempt, got %d", remaining)
	}

	if !limiter.RecordAttempt(ctx, "user") {
		t.Fatalf("5th attempt should still be accounted")
	}

	if !limiter.IsBlocked(ctx, "user") {
		t.Fatalf("expected user to be blocked after reaching max attempts")
	}
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != 0 {
		t.Fatalf("expected 0 remaining attempts while blocked, got %d", remaining)
	}
	if got := limiter.BlockedTimeRemaining(ctx, "user"); got != 15*time.Minute {
		t.Fatalf("expected 15m block remaining, got %v", got)
	}

	// Safety net: attempts while blocked are not accounted.
	if limiter.RecordAttempt(ctx, "user") {
		t.Fatalf("expected RecordAttempt to refuse while blocked")
	}
}

func TestAttemptLimiterBlockLiftsAfterDuration(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cfg := AttemptLimiterConfig{MaxAttempts: 3, Window: 10 * time.Minute, BlockDuration: 30 * time.Minute}

	limiter, current := newTestLimiter(t, cfg, base)

	for i := 0; i < 3; i++ {
		limiter.RecordAttempt(ctx, "user")
	}
	if !limiter.IsBlocked(ctx, "user") {
		t.Fatalf("expected block after 3 attempts")
	}

	// Still blocked just before the duration elapses.
	*current = base.Add(30*time.Minute - time.Second)
	if !limiter.IsBlocked(ctx, "user") {
		t.Fatalf("expected block to hold before duration elapses")
	}

	// Purge-on-read lifts the block once the duration has passed.
	*current = base.Add(30 * time.Minute)
	if limiter.IsBlocked(ctx, "user") {
		t.Fatalf("expected block to lift after duration")
	}
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != cfg.MaxAttempts {
		t.Fatalf("expected full budget after block lifted, got %d", remaining)
	}

	// The next attempt starts a fresh window.
	if !limiter.RecordAttempt(ctx, "user") {
		t.Fatalf("expected fresh attempt to be accounted after block lifted")
	}
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != 2 {
		t.Fatalf("expected fresh window with count=1, got remaining=%d", remaining)
	}
}

func TestAttemptLimiterWindowIdleReset(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cfg := AttemptLimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute}

	limiter, current := newTestLimiter(t, cfg, base)

	limiter.RecordAttempt(ctx, "user")
	limiter.RecordAttempt(ctx, "user")
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != 3 {
		t.Fatalf("expected 3 remaining, got %d", remaining)
	}

	// Idle longer than the window: the next attempt resets the count.
	*current = base.Add(16 * time.Minute)
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != cfg.MaxAttempts {
		t.Fatalf("expected full budget after idle window, got %d", remaining)
	}
	limiter.RecordAttempt(ctx, "user")
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != 4 {
		t.Fatalf("expected count reset to 1, got remaining=%d", remaining)
	}
}

func TestAttemptLimiterSelfHealsCorruptState(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cfg := AttemptLimiterConfig{MaxAttempts: 5, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute}

	store := memory.NewAttemptStore()
	limiter, err := NewAttemptLimiter("sign-in", cfg, store, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAttemptLimiter failed: %v", err)
	}
	limiter.WithClock(func() time.Time { return base })

	if err := store.Set(ctx, "sign-in:user", []byte("not json"), 0); err != nil {
		t.Fatalf("seed corrupt record: %v", err)
	}

	if limiter.IsBlocked(ctx, "user") {
		t.Fatalf("corrupt record must read as absent")
	}
	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != cfg.MaxAttempts {
		t.Fatalf("expected full budget for corrupt record, got %d", remaining)
	}
	if _, ok, _ := store.Get(ctx, "sign-in:user"); ok {
		t.Fatalf("expected corrupt record to be discarded")
	}
}

func TestAttemptLimiterClearRemovesState(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cfg := AttemptLimiterConfig{MaxAttempts: 3, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute}

	limiter, _ := newTestLimiter(t, cfg, base)

	limiter.RecordAttempt(ctx, "user")
	limiter.RecordAttempt(ctx, "user")
	limiter.Clear(ctx, "user")

	if remaining := limiter.RemainingAttempts(ctx, "user"); remaining != cfg.MaxAttempts {
		t.Fatalf("expected full budget after Clear, got %d", remaining)
	}
}

func TestAttemptLimiterLockoutHook(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cfg := AttemptLimiterConfig{MaxAttempts: 2, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute}

	limiter, _ := newTestLimiter(t, cfg, base)

	var fired []domain.AttemptRecord
	limiter.WithLockoutHook(func(identifier string, record domain.AttemptRecord) {
		if identifier != "user" {
			t.Fatalf("unexpected identifier %q", identifier)
		}
		fired = append(fired, record)
	})

	limiter.RecordAttempt(ctx, "user")
	if len(fired) != 0 {
		t.Fatalf("hook must not fire before the block is raised")
	}

	limiter.RecordAttempt(ctx, "user")
	if len(fired) != 1 {
		t.Fatalf("expected hook to fire exactly once, got %d", len(fired))
	}
	if fired[0].Count != 2 || !fired[0].Blocked {
		t.Fatalf("unexpected hook record %+v", fired[0])
	}

	// Blocked attempts do not re-fire the hook.
	limiter.RecordAttempt(ctx, "user")
	if len(fired) != 1 {
		t.Fatalf("hook fired for a refused attempt")
	}
}

func TestAttemptLimiterConvergesAcrossInstances(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	cfg := AttemptLimiterConfig{MaxAttempts: 3, Window: 15 * time.Minute, BlockDuration: 15 * time.Minute}

	clock := func() time.Time { return base }
	store := memory.NewAttemptStore().WithClock(clock)

	first, err := NewAttemptLimiter("sign-in", cfg, store, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAttemptLimiter failed: %v", err)
	}
	first.WithClock(clock)

	second, err := NewAttemptLimiter("sign-in", cfg, store, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewAttemptLimiter failed: %v", err)
	}
	second.WithClock(clock)

	// A block raised through one instance is visible to the other.
	for i := 0; i < 3; i++ {
		first.RecordAttempt(ctx, "user")
	}
	if !second.IsBlocked(ctx, "user") {
		t.Fatalf("expected block raised elsewhere to be observed")
	}

	// The second instance has now seen the record; a Clear handled by the
	// first instance (e.g. an operator action) must still take effect.
	first.Clear(ctx, "user")
	if second.IsBlocked(ctx, "user") {
		t.Fatalf("expected Clear on the shared store to lift the block")
	}
	if remaining := second.RemainingAttempts(ctx, "user"); remaining != cfg.MaxAttempts {
		t.Fatalf("expected full budget after remote Clear, got %d", remaining)
	}
	if len(second.cache) != 0 {
		t.Fatalf("expected local copy to be dropped with the store record, %d entries remain", len(second.cache))
	}
}

func TestAttemptLimiterRejectsBadConfig(t *testing.T) {
	cases := []AttemptLimiterConfig{
		{MaxAttempts: 0, Window: time.Minute, BlockDuration: time.Minute},
		{MaxAttempts: 5, Window: 0, BlockDuration: time.Minute},
		{MaxAttempts: 5, Window: time.Minute, BlockDuration: 0},
	}

	for _, cfg := range cases {
		if _, err := NewAttemptLimiter("sign-in", cfg, memory.NewAttemptStore(), zaptest.NewLogger(t)); err == nil {
			t.Fatalf("expected config %+v to be rejected", cfg)
		}
	}
}
