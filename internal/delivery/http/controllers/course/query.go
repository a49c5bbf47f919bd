package course

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/service/course"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type QueryService interface {
	ListCourses(ctx context.Context, q course.ListQuery) ([]models.Course, error)
	SearchCourses(ctx context.Context, query string, size int) ([]models.Course, int, error)
	CourseByID(ctx context.Context, id models.ID) (*models.Course, error)
	CourseBySlug(ctx context.Context, slug string) (*models.Course, error)
	CourseModules(ctx context.Context, courseID models.ID) ([]models.Module, error)
}

type QueryHandler struct {
	log     logger.Log
	service QueryService
}

func NewQueryHandler(log logger.Log, s QueryService) *QueryHandler {
	return &QueryHandler{
		log:     log,
		service: s,
	}
}

// ListCourses serves ?search= and ?sort=latest|title.
func (h *QueryHandler) ListCourses(c *gin.Context) {
	sort, err := course.ParseSortOrder(c.Query("sort"))
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	courses, err := h.service.ListCourses(c.Request.Context(), course.ListQuery{Search: c.Query("search"), Sort: sort})
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses})
}

func (h *QueryHandler) SearchCourses(c *gin.Context) {
	limit := 10
	if s := c.Query("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = v
	}

	courses, total, err := h.service.SearchCourses(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"courses": courses, "total": total})
}

func (h *QueryHandler) CourseByID(c *gin.Context) {
	courseID, ok := controllers.ParamID(c, "course_id")
	if !ok {
		return
	}
	found, err := h.service.CourseByID(c.Request.Context(), courseID)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *QueryHandler) CourseBySlug(c *gin.Context) {
	found, err := h.service.CourseBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, found)
}

func (h *QueryHandler) CourseModules(c *gin.Context) {
	courseID, ok := controllers.ParamID(c, "course_id")
	if !ok {
		return
	}
	modules, err := h.service.CourseModules(c.Request.Context(), courseID)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"modules": modules})
}
