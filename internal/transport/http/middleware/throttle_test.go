package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap/zaptest"

	"github.com/Rohit29052007/seed-track-flow/internal/repository/memory"
	"github.com/Rohit29052007/seed-track-flow/internal/usecase"
)

func newThrottleRouter(t *testing.T, limiter *usecase.AttemptLimiter) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(Throttle(limiter, ClientIPIdentifier(), zaptest.NewLogger(t)))
	router.POST("/", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router
}

func newThrottleLimiter(t *testing.T, now func() time.Time) *usecase.AttemptLimiter {
	t.Helper()

	limiter, err := usecase.NewAttemptLimiter("sign-in", usecase.AttemptLimiterConfig{
		MaxAttempts:   3,
		Window:        time.Minute,
		BlockDuration: time.Minute,
	}, memory.NewAttemptStore().WithClock(now), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("limiter: %v", err)
	}
	limiter.WithClock(now)
	return limiter
}

func TestThrottleAllowsUnblockedRequests(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	limiter := newThrottleLimiter(t, func() time.Time { return now })
	router := newThrottleRouter(t, limiter)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.1:51234"
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if got := rr.Header().Get("X-RateLimit-Limit"); got != "3" {
		t.Fatalf("expected limit header 3, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "3" {
		t.Fatalf("expected remaining header 3, got %q", got)
	}
}

func TestThrottleRejectsBlockedIdentifier(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	limiter := newThrottleLimiter(t, func() time.Time { return now })
	router := newThrottleRouter(t, limiter)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		limiter.RecordAttempt(ctx, "192.0.2.1")
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.1:51234"
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}
	if got := rr.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Fatalf("expected remaining header 0, got %q", got)
	}

	var problem ProblemDetails
	if err := json.Unmarshal(rr.Body.Bytes(), &problem); err != nil {
		t.Fatalf("decode problem details: %v", err)
	}
	if problem.Status != http.StatusTooManyRequests {
		t.Fatalf("unexpected problem status %d", problem.Status)
	}
	if problem.RetryAfter != 60 {
		t.Fatalf("unexpected retry_after %d", problem.RetryAfter)
	}
}

func TestThrottleIgnoresOtherIdentifiers(t *testing.T) {
	now := time.Date(2025, 10, 12, 10, 0, 0, 0, time.UTC)
	limiter := newThrottleLimiter(t, func() time.Time { return now })
	router := newThrottleRouter(t, limiter)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		limiter.RecordAttempt(ctx, "192.0.2.1")
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "198.51.100.7:40000"
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 for unrelated client, got %d", rr.Code)
	}
}
