package telemetry

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestProviderCountsAuthAttempts(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := NewProvider(registry, "tracker-test")

	provider.CountAuthAttempt("sign-in", "success")
	provider.CountAuthAttempt("sign-in", "success")
	provider.CountAuthAttempt("sign-in", "invalid_credentials")
	provider.CountLockout("sign-in")

	if got := testutil.ToFloat64(provider.authAttempts.WithLabelValues("sign-in", "success")); got != 2 {
		t.Fatalf("expected 2 successful attempts, got %f", got)
	}
	if got := testutil.ToFloat64(provider.authAttempts.WithLabelValues("sign-in", "invalid_credentials")); got != 1 {
		t.Fatalf("expected 1 failed attempt, got %f", got)
	}
	if got := testutil.ToFloat64(provider.lockouts.WithLabelValues("sign-in")); got != 1 {
		t.Fatalf("expected 1 lockout, got %f", got)
	}
}

func TestProviderRequestCounter(t *testing.T) {
	registry := prometheus.NewRegistry()
	provider := NewProvider(registry, "tracker-test")

	provider.RequestCounter().Inc()
	provider.RequestCounter().Inc()

	if got := testutil.ToFloat64(provider.requestCounter); got != 2 {
		t.Fatalf("expected request counter 2, got %f", got)
	}
}

func TestNilProviderIsNoop(t *testing.T) {
	var provider *Provider

	provider.CountAuthAttempt("sign-in", "success")
	provider.CountLockout("sign-up")
	provider.CountSessionExpiry()
	provider.CountSessionExtend()
	provider.RequestCounter().Inc()
}
