package lesson

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type ContentService interface {
	LessonByID(ctx context.Context, id models.ID) (*models.Lesson, error)
	LessonsByIDs(ctx context.Context, ids []models.ID) ([]models.Lesson, error)
	LessonResources(ctx context.Context, lessonID models.ID) ([]models.LessonResource, error)
	ModuleTests(ctx context.Context, moduleID models.ID) ([]models.ModuleTest, error)
}

type ContentHandler struct {
	log     logger.Log
	service ContentService
}

func NewContentHandler(log logger.Log, service ContentService) *ContentHandler {
	return &ContentHandler{
		log:     log,
		service: service,
	}
}

func (h *ContentHandler) LessonByID(c *gin.Context) {
	lessonID, ok := controllers.ParamID(c, "lesson_id")
	if !ok {
		return
	}
	lesson, err := h.service.LessonByID(c.Request.Context(), lessonID)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, lesson)
}

// LessonsByIDs serves ?ids=a,b,c in the order given.
func (h *ContentHandler) LessonsByIDs(c *gin.Context) {
	var ids []models.ID
	for _, raw := range strings.Split(c.Query("ids"), ",") {
		if id, err := models.ParseID(raw); err == nil {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ids is required"})
		return
	}
	lessons, err := h.service.LessonsByIDs(c.Request.Context(), ids)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"lessons": lessons})
}

func (h *ContentHandler) LessonResources(c *gin.Context) {
	lessonID, ok := controllers.ParamID(c, "lesson_id")
	if !ok {
		return
	}
	resources, err := h.service.LessonResources(c.Request.Context(), lessonID)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"resources": resources})
}

func (h *ContentHandler) ModuleTests(c *gin.Context) {
	moduleID, ok := controllers.ParamID(c, "module_id")
	if !ok {
		return
	}
	tests, err := h.service.ModuleTests(c.Request.Context(), moduleID)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tests": tests})
}
