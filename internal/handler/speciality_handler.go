package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// SpecialityHandler exposes speciality endpoints.
type SpecialityHandler struct {
	specialities *service.SpecialityService
}

// NewSpecialityHandler constructs SpecialityHandler.
func NewSpecialityHandler(specialities *service.SpecialityService) *SpecialityHandler {
	return &SpecialityHandler{specialities: specialities}
}

func specialityFilterFromQuery(c *gin.Context) models.SpecialityFilter {
	return models.SpecialityFilter{
		FiliereID: c.Query("filiere_id"),
		IsActive:  boolQuery(c, "is_active"),
		Search:    strings.TrimSpace(c.Query("search")),
		Page:      intQuery(c, "page", 1),
		PageSize:  intQuery(c, "limit", 20),
	}
}

// List godoc
// @Summary List specialities
// @Tags Specialities
// @Produce json
// @Param filiere_id query string false "Filter by filiere"
// @Param search query string false "Search in the French name"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/specialites [get]
func (h *SpecialityHandler) List(c *gin.Context) {
	specialities, pagination, err := h.specialities.List(c.Request.Context(), specialityFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, specialities, pagination)
}

// PublicList serves the public catalogue, restricted to active entries.
func (h *SpecialityHandler) PublicList(c *gin.Context) {
	filter := specialityFilterFromQuery(c)
	active := true
	filter.IsActive = &active
	specialities, pagination, err := h.specialities.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, specialities, pagination)
}

// Get godoc
// @Summary Get one speciality with its parent filiere
// @Tags Specialities
// @Produce json
// @Param id path string true "Speciality ID"
// @Success 200 {object} response.Envelope
// @Router /admin/specialites/{id} [get]
func (h *SpecialityHandler) Get(c *gin.Context) {
	speciality, err := h.specialities.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speciality, nil)
}

// Create godoc
// @Summary Create a speciality
// @Tags Specialities
// @Accept json
// @Produce json
// @Param payload body service.CreateSpecialityRequest true "Speciality payload"
// @Success 201 {object} response.Envelope
// @Router /admin/specialites [post]
func (h *SpecialityHandler) Create(c *gin.Context) {
	var req service.CreateSpecialityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	speciality, err := h.specialities.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, speciality)
}

// Update godoc
// @Summary Update a speciality
// @Tags Specialities
// @Accept json
// @Produce json
// @Param id path string true "Speciality ID"
// @Param payload body service.UpdateSpecialityRequest true "Speciality payload"
// @Success 200 {object} response.Envelope
// @Router /admin/specialites/{id} [put]
func (h *SpecialityHandler) Update(c *gin.Context) {
	var req service.UpdateSpecialityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	speciality, err := h.specialities.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, speciality, nil)
}

// Delete godoc
// @Summary Delete a speciality
// @Tags Specialities
// @Param id path string true "Speciality ID"
// @Success 200 {object} response.Envelope
// @Router /admin/specialites/{id} [delete]
func (h *SpecialityHandler) Delete(c *gin.Context) {
	if err := h.specialities.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "speciality deleted")
}
