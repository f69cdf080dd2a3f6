package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *AttemptStore {
	t.Helper()

	store, err := NewAttemptStore(filepath.Join(t.TempDir(), "attempts.db"))
	if err != nil {
		t.Fatalf("NewAttemptStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAttemptStoreUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if err := store.Set(ctx, "ratelimit:sign-in:u1", []byte(`{"count":1}`), 0); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	if err := store.Set(ctx, "ratelimit:sign-in:u1", []byte(`{"count":2}`), 0); err != nil {
		t.Fatalf("Set (update) failed: %v", err)
	}

	value, ok, err := store.Get(ctx, "ratelimit:sign-in:u1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || string(value) != `{"count":2}` {
		t.Fatalf("expected updated value, got ok=%v value=%q", ok, value)
	}

	if err := store.Delete(ctx, "ratelimit:sign-in:u1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, ok, _ := store.Get(ctx, "ratelimit:sign-in:u1"); ok {
		t.Fatalf("expected record to be deleted")
	}
}

func TestAttemptStorePurgesExpiredRows(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	store := newTestStore(t).WithClock(func() time.Time { return base })
	if err := store.Set(ctx, "key", []byte("value"), 15*time.Minute); err != nil {
		t.Fatalf("Set failed: %v", err)
	}

	if _, ok, _ := store.Get(ctx, "key"); !ok {
		t.Fatalf("expected record before TTL elapsed")
	}

	store.WithClock(func() time.Time { return base.Add(16 * time.Minute) })
	if _, ok, err := store.Get(ctx, "key"); err != nil || ok {
		t.Fatalf("expected expired record to be purged, got ok=%v err=%v", ok, err)
	}
}
