package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Rohit29052007/seed-track-flow/internal/infra/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID tags every request with a correlation identifier. A
// caller-supplied X-Request-ID is honored so clients can stitch responses
// into their own traces, otherwise one is minted here. The identifier is
// echoed back on the response and placed in the request context for the
// access log.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := requestID(c)

		c.Writer.Header().Set(requestIDHeader, id)
		c.Request = c.Request.WithContext(
			context.WithValue(c.Request.Context(), logger.RequestIDKey{}, id),
		)

		c.Next()
	}
}

func requestID(c *gin.Context) string {
	if id := c.GetHeader(requestIDHeader); id != "" {
		return id
	}
	return uuid.NewString()
}
