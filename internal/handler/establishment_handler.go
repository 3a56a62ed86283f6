package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// EstablishmentHandler exposes partner training site endpoints.
type EstablishmentHandler struct {
	establishments *service.EstablishmentService
}

// NewEstablishmentHandler constructs EstablishmentHandler.
func NewEstablishmentHandler(establishments *service.EstablishmentService) *EstablishmentHandler {
	return &EstablishmentHandler{establishments: establishments}
}

// List godoc
// @Summary List establishments
// @Tags Establishments
// @Produce json
// @Param specialite_id query string false "Filter by speciality"
// @Success 200 {object} response.Envelope
// @Router /admin/establishments [get]
func (h *EstablishmentHandler) List(c *gin.Context) {
	establishments, err := h.establishments.List(c.Request.Context(), c.Query("specialite_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, establishments, nil)
}

// Get godoc
// @Summary Get one establishment
// @Tags Establishments
// @Produce json
// @Param id path string true "Establishment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/establishments/{id} [get]
func (h *EstablishmentHandler) Get(c *gin.Context) {
	establishment, err := h.establishments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, establishment, nil)
}

// Create godoc
// @Summary Create an establishment
// @Tags Establishments
// @Accept json
// @Produce json
// @Param payload body service.SaveEstablishmentRequest true "Establishment payload"
// @Success 201 {object} response.Envelope
// @Router /admin/establishments [post]
func (h *EstablishmentHandler) Create(c *gin.Context) {
	var req service.SaveEstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	establishment, err := h.establishments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, establishment)
}

// Update godoc
// @Summary Update an establishment
// @Tags Establishments
// @Accept json
// @Produce json
// @Param id path string true "Establishment ID"
// @Param payload body service.SaveEstablishmentRequest true "Establishment payload"
// @Success 200 {object} response.Envelope
// @Router /admin/establishments/{id} [put]
func (h *EstablishmentHandler) Update(c *gin.Context) {
	var req service.SaveEstablishmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	establishment, err := h.establishments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, establishment, nil)
}

// Delete godoc
// @Summary Delete an establishment
// @Tags Establishments
// @Param id path string true "Establishment ID"
// @Success 200 {object} response.Envelope
// @Router /admin/establishments/{id} [delete]
func (h *EstablishmentHandler) Delete(c *gin.Context) {
	if err := h.establishments.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "establishment deleted")
}
