package usecase

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// MonitorState tracks where an idle monitor is in its lifecycle.
type MonitorState int

const (
	// MonitorArmed means both triggers are scheduled from the last activity.
	MonitorArmed MonitorState = iota
	// MonitorWarned means the warning fired and expiry is still pending.
	MonitorWarned
	// MonitorExpired means the idle budget ran out; terminal for this period.
	MonitorExpired
	// MonitorDisarmed means the session ended; no callbacks fire afterwards.
	MonitorDisarmed
)

// String returns a readable state name for logs.
func (s MonitorState) String() string {
	switch s {
	case MonitorArmed:
		return "armed"
	case MonitorWarned:
		return "warned"
	case MonitorExpired:
		return "expired"
	case MonitorDisarmed:
		return "disarmed"
	default:
		return "unknown"
	}
}

// IdleMonitorConfig configures one idle monitor.
type IdleMonitorConfig struct {
	// Timeout is the total idle budget before the session ends.
	Timeout time.Duration
	// Warning is how long before expiry the warning fires.
	Warning time.Duration
	// OnWarning fires once per idle period at Timeout-Warning.
	OnWarning func()
	// OnTimeout fires exactly once when the idle budget runs out.
	OnTimeout func()
}

// IdleMonitor watches wall-clock time since the last activity signal for a
// single session. Two timers (warning, expiry) are always cancelled and
// rescheduled together relative to the same activity timestamp, so the most
// recent reset wins and stale triggers never fire. Expiry is edge-triggered:
// the monitor invokes OnTimeout once and never retries, the consumer owns
// idempotent teardown.
type IdleMonitor struct {
	cfg IdleMonitorConfig

	mu           sync.Mutex
	state        MonitorState
	lastActivity time.Time
	warningTimer *time.Timer
	expireTimer  *time.Timer
	generation   uint64
	now          func() time.Time
}

// NewIdleMonitor validates the configuration and returns an armed monitor.
// A warning lead time at or beyond the idle budget is rejected rather than
// clamped, so a misconfiguration surfaces at startup instead of as a warning
// that never fires.
func NewIdleMonitor(cfg IdleMonitorConfig) (*IdleMonitor, error) {
	if cfg.Timeout <= 0 {
		return nil, errors.New("idle timeout must be positive")
	}
	if cfg.Warning <= 0 {
		return nil, errors.New("warning lead time must be positive")
	}
	if cfg.Warning >= cfg.Timeout {
		return nil, fmt.Errorf("warning lead time %v must be shorter than idle timeout %v", cfg.Warning, cfg.Timeout)
	}

	m := &IdleMonitor{
		cfg: cfg,
		now: time.Now,
	}

	m.mu.Lock()
	m.armLocked()
	m.mu.Unlock()

	return m, nil
}

// Touch registers an activity signal: both triggers are rescheduled relative
// to now and the monitor returns to armed. A no-op once expired or disarmed.
func (m *IdleMonitor) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == MonitorExpired || m.state == MonitorDisarmed {
		return
	}
	m.armLocked()
}

// Extend is the explicit "keep me signed in" action. It behaves like Touch
// and reports whether the session was still live.
func (m *IdleMonitor) Extend() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == MonitorExpired || m.state == MonitorDisarmed {
		return false
	}
	m.armLocked()
	return true
}

// TimeRemaining returns how much idle budget is left, zero once the session
// has expired or been disarmed.
func (m *IdleMonitor) TimeRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == MonitorExpired || m.state == MonitorDisarmed {
		return 0
	}

	remaining := m.cfg.Timeout - m.now().Sub(m.lastActivity)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// State returns the current lifecycle state.
func (m *IdleMonitor) State() MonitorState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// LastActivity returns the timestamp the current schedule is relative to.
func (m *IdleMonitor) LastActivity() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastActivity
}

// Disarm cancels both pending triggers. No callback fires afterwards, even
// if the original schedule would already have elapsed.
func (m *IdleMonitor) Disarm() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopTimersLocked()
	m.state = MonitorDisarmed
}

// armLocked cancels any pending triggers and schedules both relative to the
// same activity timestamp. The generation guards against a stale trigger
// that lost the race with Stop. Caller holds the mutex.
func (m *IdleMonitor) armLocked() {
	m.stopTimersLocked()

	m.state = MonitorArmed
	m.lastActivity = m.now()
	m.generation++

	gen := m.generation
	m.warningTimer = time.AfterFunc(m.cfg.Timeout-m.cfg.Warning, func() { m.fireWarning(gen) })
	m.expireTimer = time.AfterFunc(m.cfg.Timeout, func() { m.fireTimeout(gen) })
}

func (m *IdleMonitor) stopTimersLocked() {
	if m.warningTimer != nil {
		m.warningTimer.Stop()
		m.warningTimer = nil
	}
	if m.expireTimer != nil {
		m.expireTimer.Stop()
		m.expireTimer = nil
	}
}

func (m *IdleMonitor) fireWarning(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || m.state != MonitorArmed {
		m.mu.Unlock()
		return
	}
	m.state = MonitorWarned
	callback := m.cfg.OnWarning
	m.mu.Unlock()

	if callback != nil {
		callback()
	}
}

func (m *IdleMonitor) fireTimeout(gen uint64) {
	m.mu.Lock()
	if gen != m.generation || (m.state != MonitorArmed && m.state != MonitorWarned) {
		m.mu.Unlock()
		return
	}
	m.state = MonitorExpired
	m.stopTimersLocked()
	callback := m.cfg.OnTimeout
	m.mu.Unlock()

	if callback != nil {
		callback()
	}
}
