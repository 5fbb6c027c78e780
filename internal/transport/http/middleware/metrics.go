package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"docchat/internal/metrics"
)

// Metrics counts requests by route template so ids do not explode label sets.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.CaptureHTTPRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), time.Since(start))
	}
}
