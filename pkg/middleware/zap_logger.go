package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"syncbridge/pkg/logger"
)

// GinZapLogger creates a Gin logging middleware using zap directly
func GinZapLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.Request.URL.Path
		if path == "/health" || path == "/ping" || path == "/favicon.ico" {
			return
		}

		latency := time.Since(start)

		fields := []zap.Field{
			zap.String("request_id", c.GetString("RequestID")),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("ip", c.ClientIP()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.Int("response_size", c.Writer.Size()),
		}
		if c.Request.URL.RawQuery != "" {
			fields = append(fields, zap.String("query", c.Request.URL.RawQuery))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("error", c.Errors.String()))
		}

		statusCode := c.Writer.Status()
		switch {
		case statusCode >= 500:
			logger.Error("Internal server error", fields...)
		case statusCode >= 400:
			logger.Warn("Client request error", fields...)
		default:
			logger.Debug("HTTP request completed", fields...)
		}
	}
}
