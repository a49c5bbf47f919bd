package dashboard

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/service/analytics"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type AnalyticsService interface {
	Dashboard(ctx context.Context, now time.Time) (*analytics.Dashboard, error)
}

type DashboardHandler struct {
	log     logger.Log
	service AnalyticsService
	now     func() time.Time
}

func NewDashboardHandler(log logger.Log, service AnalyticsService, now func() time.Time) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{log: log, service: service, now: now}
}

func (h *DashboardHandler) Dashboard(c *gin.Context) {
	d, err := h.service.Dashboard(c.Request.Context(), h.now())
	if err != nil {
		controllers.Error(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
