package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"syncbridge/internal/models"
)

// CreateSource registers a new data source
// @Summary Register data source
// @Tags Data Sources
// @Accept json
// @Produce json
// @Router /api/v1/sources [post]
func (h *HandlerService) CreateSource(c *gin.Context) {
	var source models.DataSource
	if err := c.ShouldBindJSON(&source); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   true,
			"message": "Invalid JSON format",
			"details": err.Error(),
		})
		return
	}

	id, err := h.svc.RegisterDataSource(c.Request.Context(), &source)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":     id,
		"source": source,
	})
}

// ListSources returns all registered data sources
// @Summary List data sources
// @Tags Data Sources
// @Produce json
// @Router /api/v1/sources [get]
func (h *HandlerService) ListSources(c *gin.Context) {
	sources, err := h.svc.ListDataSources(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sources": sources,
		"count":   len(sources),
	})
}

// GetSource returns one data source by id
// @Summary Get data source
// @Tags Data Sources
// @Produce json
// @Router /api/v1/sources/{id} [get]
func (h *HandlerService) GetSource(c *gin.Context) {
	source, err := h.svc.GetDataSource(c.Request.Context(), c.Param("id"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, source)
}
