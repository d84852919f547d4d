package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"syncbridge/internal/models"
)

// CreateJob creates a new sync job
// @Summary Create sync job
// @Description Validates the job definition (sources, frequency, field mappings) and arms its schedule
// @Tags Sync Jobs
// @Accept json
// @Produce json
// @Router /api/v1/jobs [post]
func (h *HandlerService) CreateJob(c *gin.Context) {
	var job models.SyncJob
	if err := c.ShouldBindJSON(&job); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   true,
			"message": "Invalid JSON format",
			"details": err.Error(),
		})
		return
	}

	created, err := h.svc.CreateSyncJob(c.Request.Context(), &job)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

// ListJobs returns all sync jobs
// @Summary List sync jobs
// @Tags Sync Jobs
// @Produce json
// @Param active query bool false "Only active jobs"
// @Router /api/v1/jobs [get]
func (h *HandlerService) ListJobs(c *gin.Context) {
	activeOnly := c.Query("active") == "true"
	jobs, err := h.svc.ListSyncJobs(c.Request.Context(), activeOnly)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"jobs":  jobs,
		"count": len(jobs),
	})
}

// GetJob returns one sync job definition
// @Summary Get sync job
// @Tags Sync Jobs
// @Produce json
// @Router /api/v1/jobs/{id} [get]
func (h *HandlerService) GetJob(c *gin.Context) {
	job, err := h.svc.GetSyncJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// GetJobStatus returns a job plus its recent run history
// @Summary Get sync job status
// @Tags Sync Jobs
// @Produce json
// @Router /api/v1/jobs/{id}/status [get]
func (h *HandlerService) GetJobStatus(c *gin.Context) {
	status, err := h.svc.GetSyncJobStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}

// ExecuteJob runs a job immediately, outside its schedule
// @Summary Execute sync job now
// @Tags Sync Jobs
// @Produce json
// @Router /api/v1/jobs/{id}/execute [post]
func (h *HandlerService) ExecuteJob(c *gin.Context) {
	runLog, err := h.svc.ExecuteSyncJob(c.Request.Context(), c.Param("id"))
	if err != nil && runLog == nil {
		abortWithError(c, err)
		return
	}
	// A run that finished with status error still produced a log entry;
	// the outcome is in the body, not the HTTP status.
	c.JSON(http.StatusOK, runLog)
}

// ActivateJob re-enables a job
// @Summary Activate sync job
// @Tags Sync Jobs
// @Produce json
// @Router /api/v1/jobs/{id}/activate [post]
func (h *HandlerService) ActivateJob(c *gin.Context) {
	job, err := h.svc.ActivateJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeactivateJob disables a job
// @Summary Deactivate sync job
// @Tags Sync Jobs
// @Produce json
// @Router /api/v1/jobs/{id}/deactivate [post]
func (h *HandlerService) DeactivateJob(c *gin.Context) {
	job, err := h.svc.DeactivateJob(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, job)
}

// DeleteJob removes a job definition
// @Summary Delete sync job
// @Tags Sync Jobs
// @Produce json
// @Router /api/v1/jobs/{id} [delete]
func (h *HandlerService) DeleteJob(c *gin.Context) {
	if err := h.svc.DeleteSyncJob(c.Request.Context(), c.Param("id")); err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "job deleted"})
}
