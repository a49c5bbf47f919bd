package controllers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/service/progress"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

// Status maps a service error to its HTTP status.
func Status(err error) int {
	var hierarchy *progress.HierarchyError
	switch {
	case errors.As(err, &hierarchy):
		return http.StatusBadGateway
	case errors.Is(err, app_errors.ErrBackendUnavailable),
		errors.Is(err, app_errors.ErrSearchDisabled),
		errors.Is(err, app_errors.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	case errors.Is(err, app_errors.ErrNotAuthenticated),
		errors.Is(err, app_errors.ErrTokenExpired),
		errors.Is(err, app_errors.ErrTokenNotFound),
		errors.Is(err, app_errors.ErrLinkExpired),
		errors.Is(err, app_errors.ErrUserNotFound),
		errors.Is(err, app_errors.ErrIncorrectPassword):
		return http.StatusUnauthorized
	case errors.Is(err, app_errors.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, app_errors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, app_errors.ErrInvalidInput),
		errors.Is(err, app_errors.ErrInvalidID),
		errors.Is(err, app_errors.ErrNotImage):
		return http.StatusBadRequest
	case errors.Is(err, app_errors.ErrFileSize):
		return http.StatusRequestEntityTooLarge
	case app_errors.IsQueryFailed(err):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// Error writes err as a JSON body. Backend messages are passed through
// verbatim; unexpected errors are logged and hidden.
func Error(c *gin.Context, log logger.Log, err error) {
	status := Status(err)
	var hierarchy *progress.HierarchyError
	switch {
	case errors.As(err, &hierarchy):
		c.JSON(status, gin.H{"error": hierarchy.Error(), "kind": "aggregation"})
	case status == http.StatusInternalServerError:
		log.ErrorErr("request failed", err, "path", c.FullPath())
		c.JSON(status, gin.H{"error": "internal error"})
	default:
		c.JSON(status, gin.H{"error": app_errors.Message(err)})
	}
	_ = c.Error(err)
}

// ParamID reads a path id, answering 400 itself when it is blank.
func ParamID(c *gin.Context, name string) (models.ID, bool) {
	id, err := models.ParseID(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid %s", name)})
		return "", false
	}
	return id, true
}

// BindJSON decodes the body into v, answering 400 itself on failure.
func BindJSON(c *gin.Context, v any) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return false
	}
	return true
}
