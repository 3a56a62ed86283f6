package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/service"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// DashboardHandler exposes the admin dashboard aggregates.
type DashboardHandler struct {
	dashboards *service.DashboardService
}

// NewDashboardHandler constructs DashboardHandler.
func NewDashboardHandler(dashboards *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboards: dashboards}
}

// Admin godoc
// @Summary Admin dashboard counters
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, err := h.dashboards.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Analytics godoc
// @Summary Download analytics
// @Tags Dashboard
// @Produce json
// @Param days query int false "Window size in days" default(30)
// @Param top query int false "Number of top notes" default(10)
// @Success 200 {object} response.Envelope
// @Router /admin/dashboard/analytics [get]
func (h *DashboardHandler) Analytics(c *gin.Context) {
	days := intQuery(c, "days", 30)
	top := intQuery(c, "top", 10)

	analytics, err := h.dashboards.DownloadAnalytics(c.Request.Context(), days, top)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analytics, nil)
}
