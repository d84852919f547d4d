package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListJobConflicts returns conflicts detected by a job's runs
// @Summary List sync conflicts
// @Tags Conflicts
// @Produce json
// @Param unresolved query bool false "Only unresolved conflicts"
// @Router /api/v1/jobs/{id}/conflicts [get]
func (h *HandlerService) ListJobConflicts(c *gin.Context) {
	unresolvedOnly := c.Query("unresolved") == "true"
	conflicts, err := h.svc.ListConflicts(c.Request.Context(), c.Param("id"), unresolvedOnly)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}

type resolveConflictRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// ResolveConflict records how a conflict was settled
// @Summary Resolve sync conflict
// @Tags Conflicts
// @Accept json
// @Produce json
// @Router /api/v1/conflicts/{id}/resolve [post]
func (h *HandlerService) ResolveConflict(c *gin.Context) {
	var req resolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   true,
			"message": "resolution is required",
			"details": err.Error(),
		})
		return
	}

	conflict, err := h.svc.ResolveConflict(c.Request.Context(), c.Param("id"), req.Resolution)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, conflict)
}
