package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts every handled request on the given counter. A nil counter
// disables instrumentation.
func Metrics(requests prometheus.Counter) gin.HandlerFunc {
	if requests == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		c.Next()
		requests.Inc()
	}
}
