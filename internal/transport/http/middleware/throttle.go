package middleware

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Rohit29052007/seed-track-flow/internal/usecase"
)

const (
	throttleProblemType  = "https://tracker.seed-track-flow.example.com/errors/too-many-attempts"
	throttleProblemTitle = "Too Many Attempts"
)

// IdentifierFunc extracts the identifier an attempt limiter is keyed on
// (client IP, username from the payload, ...).
type IdentifierFunc func(*gin.Context) (string, bool)

// ProblemDetails is an RFC 9457 compatible error payload for throttled
// requests.
type ProblemDetails struct {
	Type       string `json:"type"`
	Title      string `json:"title"`
	Status     int    `json:"status"`
	Detail     string `json:"detail"`
	Instance   string `json:"instance"`
	RetryAfter int    `json:"retry_after"`
	TraceID    string `json:"trace_id,omitempty"`
}

// ClientIPIdentifier keys the limiter on the request's client IP.
func ClientIPIdentifier() IdentifierFunc {
	return func(c *gin.Context) (string, bool) {
		ip := c.ClientIP()
		if ip == "" {
			return "", false
		}
		return ip, true
	}
}

// Throttle rejects requests whose identifier is currently blocked by the
// limiter. It only reads limiter state; recording attempts is the business
// layer's job, so an accepted request that later fails validation still
// counts exactly once.
func Throttle(limiter *usecase.AttemptLimiter, identify IdentifierFunc, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		if limiter == nil || identify == nil {
			c.Next()
			return
		}

		identifier, ok := identify(c)
		if !ok || identifier == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		headers := c.Writer.Header()
		headers.Set("X-RateLimit-Limit", strconv.Itoa(limiter.MaxAttempts()))

		if !limiter.IsBlocked(ctx, identifier) {
			headers.Set("X-RateLimit-Remaining", strconv.Itoa(limiter.RemainingAttempts(ctx, identifier)))
			c.Next()
			return
		}

		retryAfter := limiter.BlockedTimeRemaining(ctx, identifier)
		retrySeconds := int(math.Ceil(retryAfter.Seconds()))
		if retrySeconds < 0 {
			retrySeconds = 0
		}

		headers.Set("X-RateLimit-Remaining", "0")
		headers.Set("Retry-After", strconv.Itoa(retrySeconds))

		logger.Warn("request throttled",
			zap.String("operation", limiter.Operation()),
			zap.String("path", c.Request.URL.Path),
			zap.Int("retry_after_seconds", retrySeconds),
		)

		instance := c.FullPath()
		if instance == "" {
			instance = c.Request.URL.Path
		}

		c.AbortWithStatusJSON(http.StatusTooManyRequests, ProblemDetails{
			Type:       throttleProblemType,
			Title:      throttleProblemTitle,
			Status:     http.StatusTooManyRequests,
			Detail:     fmt.Sprintf("Too many attempts. Try again in %d seconds.", retrySeconds),
			Instance:   instance,
			RetryAfter: retrySeconds,
			TraceID:    GetTraceID(c),
		})
	}
}
