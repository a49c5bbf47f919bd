package lesson

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type ManagementService interface {
	CreateModule(ctx context.Context, in models.NewModule) (*models.Module, error)
	UpdateModule(ctx context.Context, id models.ID, in models.ModuleUpdate) (*models.Module, error)
	CreateLesson(ctx context.Context, in models.NewLesson) (*models.Lesson, error)
	UpdateLesson(ctx context.Context, id models.ID, in models.LessonUpdate) (*models.Lesson, error)
	CreateResource(ctx context.Context, in models.NewLessonResource) (*models.LessonResource, error)
	UpdateResource(ctx context.Context, id models.ID, in models.LessonResourceUpdate) (*models.LessonResource, error)
	CreateModuleTest(ctx context.Context, in models.NewModuleTest) (*models.ModuleTest, error)
}

type ManagementHandler struct {
	log     logger.Log
	service ManagementService
}

func NewManagementHandler(log logger.Log, service ManagementService) *ManagementHandler {
	return &ManagementHandler{
		log:     log,
		service: service,
	}
}

// create binds the body into In and answers 201 with what fn returns.
func create[In, Out any](h *ManagementHandler, c *gin.Context, fn func(context.Context, In) (*Out, error)) {
	var input In
	if !controllers.BindJSON(c, &input) {
		return
	}
	out, err := fn(c.Request.Context(), input)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// update binds the body into In and applies it to the id in param.
func update[In, Out any](h *ManagementHandler, c *gin.Context, param string, fn func(context.Context, models.ID, In) (*Out, error)) {
	id, ok := controllers.ParamID(c, param)
	if !ok {
		return
	}
	var input In
	if !controllers.BindJSON(c, &input) {
		return
	}
	out, err := fn(c.Request.Context(), id, input)
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *ManagementHandler) CreateModule(c *gin.Context) {
	create(h, c, h.service.CreateModule)
}

func (h *ManagementHandler) UpdateModule(c *gin.Context) {
	update(h, c, "module_id", h.service.UpdateModule)
}

func (h *ManagementHandler) CreateLesson(c *gin.Context) {
	create(h, c, h.service.CreateLesson)
}

func (h *ManagementHandler) UpdateLesson(c *gin.Context) {
	update(h, c, "lesson_id", h.service.UpdateLesson)
}

func (h *ManagementHandler) CreateResource(c *gin.Context) {
	create(h, c, h.service.CreateResource)
}

func (h *ManagementHandler) UpdateResource(c *gin.Context) {
	update(h, c, "resource_id", h.service.UpdateResource)
}

func (h *ManagementHandler) CreateModuleTest(c *gin.Context) {
	create(h, c, h.service.CreateModuleTest)
}
