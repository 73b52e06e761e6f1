package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/tailor-orders-api/utils"
	"go.uber.org/zap"
)

// RequestLogger writes one access log line per request and records HTTP metrics
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start)
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		utils.HTTPRequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration.Seconds())
		utils.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", duration),
			zap.String("client_ip", c.ClientIP()),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch {
		case c.Writer.Status() >= 500:
			utils.GetLogger().Error("request failed", fields...)
		case c.Writer.Status() >= 400:
			utils.GetLogger().Warn("request rejected", fields...)
		default:
			utils.GetLogger().Info("request handled", fields...)
		}
	}
}
