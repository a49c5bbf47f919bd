package course

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type ManagementService interface {
	CreateCourse(ctx context.Context, in models.NewCourse) (*models.Course, error)
	UpdateCourse(ctx context.Context, id models.ID, in models.CourseUpdate) (*models.Course, error)
	Reindex(ctx context.Context) (int, error)
}

type ManagementHandler struct {
	log     logger.Log
	service ManagementService
}

func NewManagementHandler(log logger.Log, s ManagementService) *ManagementHandler {
	return &ManagementHandler{
		log:     log,
		service: s,
	}
}

type newCourseRequest struct {
	Title       string  `json:"title" binding:"required"`
	Slug        string  `json:"slug"`
	Description *string `json:"description"`
}

func (h *ManagementHandler) CreateCourse(c *gin.Context) {
	var input newCourseRequest
	if !controllers.BindJSON(c, &input) {
		return
	}
	created, err := h.service.CreateCourse(c.Request.Context(), models.NewCourse{
		Title:       input.Title,
		Slug:        input.Slug,
		Description: input.Description,
	})
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *ManagementHandler) UpdateCourse(c *gin.Context) {
	courseID, ok := controllers.ParamID(c, "course_id")
	if !ok {
		return
	}
	var input models.CourseUpdate
	if !controllers.BindJSON(c, &input) {
		return
	}
	updated, err := h.service.UpdateCourse(c.Request.Context(), courseID, input)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *ManagementHandler) Reindex(c *gin.Context) {
	n, err := h.service.Reindex(c.Request.Context())
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "indexed": n})
}
