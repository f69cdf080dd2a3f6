package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/core/domain"
	"github.com/Rohit29052007/seed-track-flow/internal/core/port"
)

// RevokeReasonIdleTimeout marks sessions ended by the idle watcher.
const RevokeReasonIdleTimeout = "idle_timeout"

const teardownTimeout = 5 * time.Second

// SessionWatchConfig holds the idle budget applied to every watched session.
type SessionWatchConfig struct {
	Timeout time.Duration
	Warning time.Duration
}

// ExpiryHook observes idle expiries, e.g. for metrics.
type ExpiryHook func(sessionID, userID string)

// SessionWatcher owns one IdleMonitor per live session. Every authenticated
// request counts as activity; expiry revokes the session and publishes an
// event. The timeout callback is a no-op for sessions that were already
// unwatched, so a stale trigger can never sign out a signed-out session.
type SessionWatcher struct {
	cfg      SessionWatchConfig
	sessions port.SessionRepository
	events   port.EventPublisher
	logger   *zap.Logger
	onExpiry ExpiryHook

	mu       sync.Mutex
	monitors map[string]*IdleMonitor
}

// NewSessionWatcher constructs a watcher. The config is validated the same
// way as a single monitor so misconfiguration fails at startup.
func NewSessionWatcher(cfg SessionWatchConfig, sessions port.SessionRepository, events port.EventPublisher, logger *zap.Logger) (*SessionWatcher, error) {
	if sessions == nil {
		return nil, errors.New("session repository is required")
	}
	if events == nil {
		return nil, errors.New("event publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	// Probe the monitor config once so Watch cannot fail later.
	probe, err := NewIdleMonitor(IdleMonitorConfig{Timeout: cfg.Timeout, Warning: cfg.Warning})
	if err != nil {
		return nil, fmt.Errorf("session watch config: %w", err)
	}
	probe.Disarm()

	return &SessionWatcher{
		cfg:      cfg,
		sessions: sessions,
		events:   events,
		logger:   logger,
		monitors: make(map[string]*IdleMonitor),
	}, nil
}

// WithExpiryHook registers an observer invoked on every idle expiry.
func (w *SessionWatcher) WithExpiryHook(hook ExpiryHook) *SessionWatcher {
	w.mu.Lock()
	w.onExpiry = hook
	w.mu.Unlock()
	return w
}

// Watch arms an idle monitor for the session. Re-watching a session ID
// replaces its previous monitor.
func (w *SessionWatcher) Watch(session domain.Session) error {
	monitor, err := NewIdleMonitor(IdleMonitorConfig{
		Timeout:   w.cfg.Timeout,
		Warning:   w.cfg.Warning,
		OnWarning: func() { w.warn(session.ID, session.UserID) },
		OnTimeout: func() { w.expire(session.ID, session.UserID) },
	})
	if err != nil {
		return fmt.Errorf("arm idle monitor: %w", err)
	}

	w.mu.Lock()
	if previous, ok := w.monitors[session.ID]; ok {
		previous.Disarm()
	}
	w.monitors[session.ID] = monitor
	w.mu.Unlock()

	w.logger.Debug("session watch armed",
		zap.String("session_id", session.ID),
		zap.Duration("timeout", w.cfg.Timeout),
	)
	return nil
}

// Touch registers activity for the session, rescheduling both triggers.
func (w *SessionWatcher) Touch(sessionID string) {
	if monitor, ok := w.monitor(sessionID); ok {
		monitor.Touch()
	}
}

// Extend is the explicit keep-alive. It reports whether the session was
// still watched and live, plus the refreshed idle budget.
func (w *SessionWatcher) Extend(sessionID string) (time.Duration, bool) {
	monitor, ok := w.monitor(sessionID)
	if !ok {
		return 0, false
	}
	if !monitor.Extend() {
		return 0, false
	}
	return monitor.TimeRemaining(), true
}

// TimeRemaining returns the idle budget left for the session, zero when the
// session is not watched.
func (w *SessionWatcher) TimeRemaining(sessionID string) time.Duration {
	if monitor, ok := w.monitor(sessionID); ok {
		return monitor.TimeRemaining()
	}
	return 0
}

// Warned reports whether the session is inside its warning period.
func (w *SessionWatcher) Warned(sessionID string) bool {
	if monitor, ok := w.monitor(sessionID); ok {
		return monitor.State() == MonitorWarned
	}
	return false
}

// Unwatch disarms and forgets the session's monitor. Pending triggers are
// cancelled; no callback fires afterwards.
func (w *SessionWatcher) Unwatch(sessionID string) {
	w.mu.Lock()
	monitor, ok := w.monitors[sessionID]
	if ok {
		delete(w.monitors, sessionID)
	}
	w.mu.Unlock()

	if ok {
		monitor.Disarm()
	}
}

// Shutdown disarms every monitor, e.g. on process teardown.
func (w *SessionWatcher) Shutdown() {
	w.mu.Lock()
	monitors := w.monitors
	w.monitors = make(map[string]*IdleMonitor)
	w.mu.Unlock()

	for _, monitor := range monitors {
		monitor.Disarm()
	}
}

func (w *SessionWatcher) monitor(sessionID string) (*IdleMonitor, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	monitor, ok := w.monitors[sessionID]
	return monitor, ok
}

func (w *SessionWatcher) warn(sessionID, userID string) {
	w.logger.Info("session idle warning",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.Duration("expires_in", w.cfg.Warning),
	)
}

func (w *SessionWatcher) expire(sessionID, userID string) {
	w.mu.Lock()
	monitor, ok := w.monitors[sessionID]
	if ok {
		delete(w.monitors, sessionID)
	}
	hook := w.onExpiry
	w.mu.Unlock()

	// Unwatch raced the trigger; the session already ended.
	if !ok {
		return
	}

	idleFor := w.cfg.Timeout
	at := time.Now().UTC()
	if last := monitor.LastActivity(); !last.IsZero() {
		idleFor = at.Sub(last)
	}

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if err := w.sessions.Revoke(ctx, sessionID, at, RevokeReasonIdleTimeout); err != nil {
		// One-shot edge trigger: log and move on, teardown is idempotent on
		// the consumer side.
		w.logger.Error("revoke idle session failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	if err := w.events.PublishSessionExpired(ctx, domain.SessionExpiredEvent{
		SessionID: sessionID,
		UserID:    userID,
		IdleFor:   idleFor,
		At:        at,
	}); err != nil {
		w.logger.Warn("publish session expired failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}

	if hook != nil {
		hook(sessionID, userID)
	}

	w.logger.Info("session expired for inactivity",
		zap.String("session_id", sessionID),
		zap.String("user_id", userID),
		zap.Duration("idle_for", idleFor),
	)
}
