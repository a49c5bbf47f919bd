package lesson

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/middleware"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type ProgressService interface {
	MarkLessonProgress(ctx context.Context, userID, lessonID models.ID, completed bool) (*models.LessonProgress, error)
}

type ProgressHandler struct {
	log     logger.Log
	service ProgressService
}

func NewProgressHandler(log logger.Log, service ProgressService) *ProgressHandler {
	return &ProgressHandler{log, service}
}

type markProgressRequest struct {
	Completed *bool `json:"completed" binding:"required"`
}

func (h *ProgressHandler) MarkProgress(c *gin.Context) {
	lessonID, ok := controllers.ParamID(c, "lesson_id")
	if !ok {
		return
	}
	var req markProgressRequest
	if !controllers.BindJSON(c, &req) {
		return
	}
	user, ok := middleware.CurrentUser(c)
	if !ok {
		return
	}

	p, err := h.service.MarkLessonProgress(c.Request.Context(), user.ID, lessonID, *req.Completed)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
