package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"syncbridge/internal/models"
)

// statusFor maps domain sentinels onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrJobNotFound),
		errors.Is(err, models.ErrSourceNotFound),
		errors.Is(err, models.ErrConflictNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrJobAlreadyRunning):
		return http.StatusConflict
	case errors.Is(err, models.ErrDuplicateSource):
		return http.StatusConflict
	case errors.Is(err, models.ErrJobInactive),
		errors.Is(err, models.ErrSourceDisabled):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrInvalidJobConfig),
		errors.Is(err, models.ErrUnsupportedSourceType):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// abortWithError writes the unified error body and records the error
// for the logging middleware.
func abortWithError(c *gin.Context, err error) {
	c.Error(err)
	c.JSON(statusFor(err), gin.H{
		"error":   true,
		"message": err.Error(),
	})
}
