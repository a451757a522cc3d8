package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/pmb-api/internal/service"
)

// Metrics observes request latency per route template. Unmatched routes are
// folded into a single label so probing clients cannot inflate cardinality.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
