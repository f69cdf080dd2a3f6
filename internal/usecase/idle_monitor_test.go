package usecase

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestIdleMonitorWarningThenTimeoutFireOnce(t *testing.T) {
	var warnings, timeouts atomic.Int32

	monitor, err := NewIdleMonitor(IdleMonitorConfig{
		Timeout:   200 * time.Millisecond,
		Warning:   100 * time.Millisecond,
		OnWarning: func() { warnings.Add(1) },
		OnTimeout: func() { timeouts.Add(1) },
	})
	if err != nil {
		t.Fatalf("NewIdleMonitor failed: %v", err)
	}
	defer monitor.Disarm()

	// Before the warning point nothing has fired.
	time.Sleep(50 * time.Millisecond)
	if warnings.Load() != 0 || timeouts.Load() != 0 {
		t.Fatalf("callbacks fired early: warnings=%d timeouts=%d", warnings.Load(), timeouts.Load())
	}

	// Past Timeout-Warning the warning has fired, but not the timeout.
	time.Sleep(100 * time.Millisecond)
	if warnings.Load() != 1 {
		t.Fatalf("expected exactly one warning, got %d", warnings.Load())
	}
	if timeouts.Load() != 0 {
		t.Fatalf("timeout fired before idle budget elapsed")
	}
	if monitor.State() != MonitorWarned {
		t.Fatalf("expected warned state, got %v", monitor.State())
	}

	// Past Timeout the expiry has fired exactly once and the monitor stays
	// expired.
	time.Sleep(150 * time.Millisecond)
	if timeouts.Load() != 1 {
		t.Fatalf("expected exactly one timeout, got %d", timeouts.Load())
	}
	if monitor.State() != MonitorExpired {
		t.Fatalf("expected expired state, got %v", monitor.State())
	}
	if monitor.TimeRemaining() != 0 {
		t.Fatalf("expected zero time remaining after expiry")
	}

	time.Sleep(250 * time.Millisecond)
	if warnings.Load() != 1 || timeouts.Load() != 1 {
		t.Fatalf("callbacks re-fired: warnings=%d timeouts=%d", warnings.Load(), timeouts.Load())
	}
}

func TestIdleMonitorExtendCancelsOriginalSchedule(t *testing.T) {
	var warnings, timeouts atomic.Int32

	monitor, err := NewIdleMonitor(IdleMonitorConfig{
		Timeout:   200 * time.Millisecond,
		Warning:   80 * time.Millisecond,
		OnWarning: func() { warnings.Add(1) },
		OnTimeout: func() { timeouts.Add(1) },
	})
	if err != nil {
		t.Fatalf("NewIdleMonitor failed: %v", err)
	}
	defer monitor.Disarm()

	// Extend after the warning has fired; the monitor re-arms.
	time.Sleep(150 * time.Millisecond)
	if warnings.Load() != 1 {
		t.Fatalf("expected warning before extend, got %d", warnings.Load())
	}
	if !monitor.Extend() {
		t.Fatalf("expected Extend to succeed while warned")
	}
	if monitor.State() != MonitorArmed {
		t.Fatalf("expected armed state after extend, got %v", monitor.State())
	}

	// The original timeout moment passes without expiry.
	time.Sleep(100 * time.Millisecond)
	if timeouts.Load() != 0 {
		t.Fatalf("timeout fired despite extend")
	}

	// A fresh warning is scheduled relative to the extend.
	time.Sleep(50 * time.Millisecond)
	if warnings.Load() != 2 {
		t.Fatalf("expected a second warning after extend, got %d", warnings.Load())
	}
}

func TestIdleMonitorRepeatedExtendsAreIdempotent(t *testing.T) {
	var warnings, timeouts atomic.Int32

	monitor, err := NewIdleMonitor(IdleMonitorConfig{
		Timeout:   150 * time.Millisecond,
		Warning:   50 * time.Millisecond,
		OnWarning: func() { warnings.Add(1) },
		OnTimeout: func() { timeouts.Add(1) },
	})
	if err != nil {
		t.Fatalf("NewIdleMonitor failed: %v", err)
	}
	defer monitor.Disarm()

	// Hammer Extend before any trigger fires; only the most recent pair of
	// triggers may fire, and never early.
	for i := 0; i < 10; i++ {
		if !monitor.Extend() {
			t.Fatalf("extend %d failed", i)
		}
		time.Sleep(10 * time.Millisecond)
	}

	if warnings.Load() != 0 || timeouts.Load() != 0 {
		t.Fatalf("callbacks fired during active extends: warnings=%d timeouts=%d", warnings.Load(), timeouts.Load())
	}

	time.Sleep(200 * time.Millisecond)
	if warnings.Load() != 1 {
		t.Fatalf("expected single warning from final schedule, got %d", warnings.Load())
	}
	if timeouts.Load() != 1 {
		t.Fatalf("expected single timeout from final schedule, got %d", timeouts.Load())
	}
}

func TestIdleMonitorDisarmCancelsPendingTriggers(t *testing.T) {
	var warnings, timeouts atomic.Int32

	monitor, err := NewIdleMonitor(IdleMonitorConfig{
		Timeout:   100 * time.Millisecond,
		Warning:   50 * time.Millisecond,
		OnWarning: func() { warnings.Add(1) },
		OnTimeout: func() { timeouts.Add(1) },
	})
	if err != nil {
		t.Fatalf("NewIdleMonitor failed: %v", err)
	}

	monitor.Disarm()

	time.Sleep(200 * time.Millisecond)
	if warnings.Load() != 0 || timeouts.Load() != 0 {
		t.Fatalf("callbacks fired after disarm: warnings=%d timeouts=%d", warnings.Load(), timeouts.Load())
	}
	if monitor.State() != MonitorDisarmed {
		t.Fatalf("expected disarmed state, got %v", monitor.State())
	}
	if monitor.TimeRemaining() != 0 {
		t.Fatalf("expected zero remaining after disarm")
	}
	if monitor.Extend() {
		t.Fatalf("extend must fail after disarm")
	}
}

func TestIdleMonitorTimeRemaining(t *testing.T) {
	monitor, err := NewIdleMonitor(IdleMonitorConfig{
		Timeout: 30 * time.Minute,
		Warning: 2 * time.Minute,
	})
	if err != nil {
		t.Fatalf("NewIdleMonitor failed: %v", err)
	}
	defer monitor.Disarm()

	remaining := monitor.TimeRemaining()
	if remaining <= 29*time.Minute || remaining > 30*time.Minute {
		t.Fatalf("unexpected time remaining %v", remaining)
	}
}

func TestIdleMonitorRejectsWarningNotBeforeTimeout(t *testing.T) {
	cases := []IdleMonitorConfig{
		{Timeout: time.Minute, Warning: time.Minute},
		{Timeout: time.Minute, Warning: 2 * time.Minute},
		{Timeout: 0, Warning: time.Minute},
		{Timeout: time.Minute, Warning: 0},
	}

	for _, cfg := range cases {
		if _, err := NewIdleMonitor(cfg); err == nil {
			t.Fatalf("expected config %+v to be rejected", cfg)
		}
	}
}
