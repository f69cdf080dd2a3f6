package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Rohit29052007/seed-track-flow/internal/infra/config"
)

// Provider holds the service's Prometheus metrics.
type Provider struct {
	requestCounter  prometheus.Counter
	authAttempts    *prometheus.CounterVec
	lockouts        *prometheus.CounterVec
	sessionExpiries prometheus.Counter
	sessionExtends  prometheus.Counter
}

// Attach registers the service metrics on the default registry and returns a
// provider handle.
func Attach(_ context.Context, cfg *config.AppConfig) (*Provider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	return NewProvider(prometheus.DefaultRegisterer, cfg.Telemetry.ServiceName), nil
}

// NewProvider registers the service metrics with the given registerer. Every
// series carries the service name as a constant label so dashboards can tell
// deployments apart.
func NewProvider(reg prometheus.Registerer, serviceName string) *Provider {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	labels := prometheus.Labels{}
	if serviceName != "" {
		labels["service"] = serviceName
	}
	factory := promauto.With(reg)

	return &Provider{
		requestCounter: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "tracker",
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: labels,
		}),
		authAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tracker",
			Name:        "auth_attempts_total",
			Help:        "Authentication attempts by operation and outcome",
			ConstLabels: labels,
		}, []string{"operation", "outcome"}),
		lockouts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   "tracker",
			Name:        "auth_lockouts_total",
			Help:        "Limiter lockouts by operation",
			ConstLabels: labels,
		}, []string{"operation"}),
		sessionExpiries: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "tracker",
			Name:        "session_idle_expiries_total",
			Help:        "Sessions terminated by the idle watch",
			ConstLabels: labels,
		}),
		sessionExtends: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   "tracker",
			Name:        "session_extends_total",
			Help:        "Explicit keep-alive extensions requested by clients",
			ConstLabels: labels,
		}),
	}
}

// RequestCounter exposes the HTTP request metric.
func (p *Provider) RequestCounter() prometheus.Counter {
	if p == nil {
		return prometheus.NewCounter(prometheus.CounterOpts{})
	}
	return p.requestCounter
}

// CountAuthAttempt records one authentication attempt outcome
// ("success", "invalid_credentials", "blocked", "rejected", "error").
func (p *Provider) CountAuthAttempt(operation, outcome string) {
	if p == nil {
		return
	}
	p.authAttempts.WithLabelValues(operation, outcome).Inc()
}

// CountLockout records a limiter block being imposed.
func (p *Provider) CountLockout(operation string) {
	if p == nil {
		return
	}
	p.lockouts.WithLabelValues(operation).Inc()
}

// CountSessionExpiry records an idle-timeout session termination.
func (p *Provider) CountSessionExpiry() {
	if p == nil {
		return
	}
	p.sessionExpiries.Inc()
}

// CountSessionExtend records an explicit keep-alive.
func (p *Provider) CountSessionExtend() {
	if p == nil {
		return
	}
	p.sessionExtends.Inc()
}
