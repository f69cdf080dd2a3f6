package port

import (
	"context"
	"time"
)

// AttemptStore is the durable key-value store backing the attempt limiter.
// Records must survive process restarts so that a restart cannot bypass a
// block. Implementations are not required to be atomic across processes;
// concurrent read-modify-write sequences may under-count, which is accepted
// for abuse deterrence.
type AttemptStore interface {
	// Get returns the stored value for key. The boolean reports whether a
	// value was present; expired values count as absent.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. A positive ttl bounds how long the value
	// may be retained; implementations may drop it any time after.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes the value for key. Deleting an absent key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
