package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/campus-backend/internal/metrics"
)

// MetricsMiddleware records every request under its route template.
func MetricsMiddleware(m *metrics.HTTPMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.Observe(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
