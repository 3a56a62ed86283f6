package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// StudentPortalHandler serves the authenticated student area: schedule,
// dashboard and profile.
type StudentPortalHandler struct {
	schedules  *service.ScheduleService
	dashboards *service.DashboardService
	auth       *service.AuthService
}

// NewStudentPortalHandler constructs StudentPortalHandler.
func NewStudentPortalHandler(schedules *service.ScheduleService, dashboards *service.DashboardService, auth *service.AuthService) *StudentPortalHandler {
	return &StudentPortalHandler{schedules: schedules, dashboards: dashboards, auth: auth}
}

// Schedule godoc
// @Summary Weekly schedule for the caller
// @Tags StudentPortal
// @Produce json
// @Param semester_id query string false "Explicit semester, defaults to the active one"
// @Success 200 {object} response.Envelope
// @Router /student/schedule [get]
func (h *StudentPortalHandler) Schedule(c *gin.Context) {
	claims := claimsFromContext(c)
	schedule, err := h.schedules.ForStudent(c.Request.Context(), claims.UserID, c.Query("semester_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Dashboard godoc
// @Summary Student home payload
// @Tags StudentPortal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/dashboard [get]
func (h *StudentPortalHandler) Dashboard(c *gin.Context) {
	claims := claimsFromContext(c)
	dashboard, err := h.dashboards.Student(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Profile godoc
// @Summary Profile of the caller
// @Tags StudentPortal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/profile [get]
func (h *StudentPortalHandler) Profile(c *gin.Context) {
	claims := claimsFromContext(c)
	info, err := h.auth.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}

// UpdateProfile godoc
// @Summary Update the caller's profile
// @Tags StudentPortal
// @Accept json
// @Produce json
// @Param payload body service.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Router /student/profile [put]
func (h *StudentPortalHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)

	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}

	info, err := h.auth.UpdateProfile(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, info, nil)
}
