package course

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/middleware"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type EnrollmentService interface {
	StartCourse(ctx context.Context, userID, courseID models.ID) error
	CompleteCourse(ctx context.Context, userID, courseID models.ID, completed bool) error
	UserCourses(ctx context.Context, userID models.ID) ([]models.Course, error)
}

type EnrollmentHandler struct {
	log     logger.Log
	service EnrollmentService
}

func NewEnrollmentHandler(log logger.Log, s EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{
		log:     log,
		service: s,
	}
}

func (h *EnrollmentHandler) StartCourse(c *gin.Context) {
	courseID, ok := controllers.ParamID(c, "course_id")
	if !ok {
		return
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	if err := h.service.StartCourse(c.Request.Context(), user.ID, courseID); err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": models.StatusInProgress})
}

type completeRequest struct {
	Completed *bool `json:"completed"`
}

// CompleteCourse marks the course completed; {"completed": false} reopens it.
func (h *EnrollmentHandler) CompleteCourse(c *gin.Context) {
	courseID, ok := controllers.ParamID(c, "course_id")
	if !ok {
		return
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	var input completeRequest
	if c.Request.ContentLength > 0 && !controllers.BindJSON(c, &input) {
		return
	}
	completed := input.Completed == nil || *input.Completed

	if err := h.service.CompleteCourse(c.Request.Context(), user.ID, courseID, completed); err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	status := models.StatusInProgress
	if completed {
		status = models.StatusCompleted
	}
	c.JSON(http.StatusOK, gin.H{"status": status})
}

func (h *EnrollmentHandler) MyCourses(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}
	courses, err := h.service.UserCourses(c.Request.Context(), user.ID)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}
