package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// SemesterHandler exposes semester endpoints.
type SemesterHandler struct {
	semesters *service.SemesterService
}

// NewSemesterHandler constructs SemesterHandler.
func NewSemesterHandler(semesters *service.SemesterService) *SemesterHandler {
	return &SemesterHandler{semesters: semesters}
}

// List godoc
// @Summary List semesters
// @Tags Semesters
// @Produce json
// @Param year_id query string false "Filter by study year"
// @Param academic_year query string false "Filter by academic year"
// @Success 200 {object} response.Envelope
// @Router /admin/semesters [get]
func (h *SemesterHandler) List(c *gin.Context) {
	filter := models.SemesterFilter{
		YearID:       c.Query("year_id"),
		AcademicYear: c.Query("academic_year"),
		IsActive:     boolQuery(c, "is_active"),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
	semesters, pagination, err := h.semesters.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semesters, pagination)
}

// Get godoc
// @Summary Get one semester
// @Tags Semesters
// @Produce json
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /admin/semesters/{id} [get]
func (h *SemesterHandler) Get(c *gin.Context) {
	semester, err := h.semesters.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Create godoc
// @Summary Create a semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param payload body service.CreateSemesterRequest true "Semester payload"
// @Success 201 {object} response.Envelope
// @Router /admin/semesters [post]
func (h *SemesterHandler) Create(c *gin.Context) {
	var req service.CreateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.semesters.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, semester)
}

// Update godoc
// @Summary Update a semester
// @Tags Semesters
// @Accept json
// @Produce json
// @Param id path string true "Semester ID"
// @Param payload body service.UpdateSemesterRequest true "Semester payload"
// @Success 200 {object} response.Envelope
// @Router /admin/semesters/{id} [put]
func (h *SemesterHandler) Update(c *gin.Context) {
	var req service.UpdateSemesterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	semester, err := h.semesters.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, semester, nil)
}

// Delete godoc
// @Summary Delete a semester
// @Tags Semesters
// @Param id path string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /admin/semesters/{id} [delete]
func (h *SemesterHandler) Delete(c *gin.Context) {
	if err := h.semesters.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "semester deleted")
}
