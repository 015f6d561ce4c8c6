// Package respond holds the JSON envelope and error mapping shared by the HTTP handlers.
package respond

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paddockpicks/paddock/internal/models"
)

// Error sends a standardized error response.
func Error(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}

// StatusFor maps domain errors to HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrEventLocked):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// FromError sends err with its mapped status. Internal errors are not echoed
// to the client; fallback is sent instead.
func FromError(c *gin.Context, err error, fallback string) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		Error(c, status, fallback)
		return
	}
	Error(c, status, err.Error())
}

// ParseID extracts a positive numeric ID from the named URL parameter.
func ParseID(c *gin.Context, param, what string) (uint, error) {
	raw := c.Param(param)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid %s ID: %s", what, raw)
	}
	return uint(id), nil
}
