package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

var startTime = time.Now()

// HealthCheck returns service health status
// @Summary Health check
// @Tags System
// @Produce json
// @Router /health [get]
func (h *HandlerService) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int64(time.Since(startTime).Seconds()),
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	})
}

// GetSchedulerStatus returns the scheduler state
// @Summary Scheduler status
// @Tags System
// @Produce json
// @Router /api/v1/scheduler/status [get]
func (h *HandlerService) GetSchedulerStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.GetSchedulerStatus())
}
