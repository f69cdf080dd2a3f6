package memory

import (
	"context"
	"testing"
	"time"
)

func TestAttemptStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewAttemptStore()

	if err := store.Set(ctx, "ratelimit:sign-in:farmer-1", []byte(`{"count":2}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "ratelimit:sign-in:farmer-1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected stored value to be present")
	}
	if string(value) != `{"count":2}` {
		t.Fatalf("unexpected value %q", value)
	}

	if err := store.Delete(ctx, "ratelimit:sign-in:farmer-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "ratelimit:sign-in:farmer-1"); ok {
		t.Fatalf("expected value to be gone after delete")
	}
}

func TestAttemptStoreTTLExpiry(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	store := NewAttemptStore().WithClock(func() time.Time { return base })
	if err := store.Set(ctx, "key", []byte("value"), time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "key"); !ok {
		t.Fatalf("expected value before TTL elapsed")
	}

	store.WithClock(func() time.Time { return base.Add(2 * time.Minute) })
	if _, ok, _ := store.Get(ctx, "key"); ok {
		t.Fatalf("expected value to expire after TTL")
	}
}
