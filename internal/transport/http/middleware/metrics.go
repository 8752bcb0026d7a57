package middleware

import (
	"strconv"
	"time"

	"github.com/ErlanBelekov/account-model/internal/metrics"
	"github.com/gin-gonic/gin"
)

// Metrics records latency and count per route template, so /users/alice and
// /users/bob share one series.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, status).Observe(time.Since(start).Seconds())
		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
	}
}
