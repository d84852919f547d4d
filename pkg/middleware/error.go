package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"syncbridge/pkg/logger"
)

// ErrorHandler logs request-scoped errors and emits a generic JSON
// body when a handler attached errors without writing a response.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		err := c.Errors.Last()

		logger.Error("request error",
			zap.String("path", c.Request.URL.Path),
			zap.String("method", c.Request.Method),
			zap.Error(err.Err),
			zap.String("request_id", c.GetString("RequestID")),
			zap.Int("status", c.Writer.Status()),
		)

		if !c.Writer.Written() {
			status := c.Writer.Status()
			if status == 0 || status == 200 {
				status = 500
			}
			c.JSON(status, gin.H{
				"error":   true,
				"message": err.Error(),
			})
		}
	}
}
