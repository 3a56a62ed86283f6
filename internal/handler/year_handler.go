package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// YearHandler exposes study year endpoints.
type YearHandler struct {
	years *service.YearService
}

// NewYearHandler constructs YearHandler.
func NewYearHandler(years *service.YearService) *YearHandler {
	return &YearHandler{years: years}
}

// List godoc
// @Summary List study years
// @Tags Years
// @Produce json
// @Param speciality_id query string false "Filter by speciality"
// @Success 200 {object} response.Envelope
// @Router /admin/years [get]
func (h *YearHandler) List(c *gin.Context) {
	filter := models.YearFilter{
		SpecialityID: c.Query("speciality_id"),
		IsActive:     boolQuery(c, "is_active"),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
	years, pagination, err := h.years.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, years, pagination)
}

// Get godoc
// @Summary Get one study year
// @Tags Years
// @Produce json
// @Param id path string true "Year ID"
// @Success 200 {object} response.Envelope
// @Router /admin/years/{id} [get]
func (h *YearHandler) Get(c *gin.Context) {
	year, err := h.years.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Create godoc
// @Summary Create a study year
// @Tags Years
// @Accept json
// @Produce json
// @Param payload body service.CreateYearRequest true "Year payload"
// @Success 201 {object} response.Envelope
// @Router /admin/years [post]
func (h *YearHandler) Create(c *gin.Context) {
	var req service.CreateYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.years.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, year)
}

// Update godoc
// @Summary Update a study year
// @Tags Years
// @Accept json
// @Produce json
// @Param id path string true "Year ID"
// @Param payload body service.UpdateYearRequest true "Year payload"
// @Success 200 {object} response.Envelope
// @Router /admin/years/{id} [put]
func (h *YearHandler) Update(c *gin.Context) {
	var req service.UpdateYearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	year, err := h.years.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, year, nil)
}

// Delete godoc
// @Summary Delete a study year
// @Tags Years
// @Param id path string true "Year ID"
// @Success 200 {object} response.Envelope
// @Router /admin/years/{id} [delete]
func (h *YearHandler) Delete(c *gin.Context) {
	if err := h.years.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "study year deleted")
}
