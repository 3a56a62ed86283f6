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

// FiliereHandler exposes filiere endpoints.
type FiliereHandler struct {
	filieres *service.FiliereService
}

// NewFiliereHandler constructs FiliereHandler.
func NewFiliereHandler(filieres *service.FiliereService) *FiliereHandler {
	return &FiliereHandler{filieres: filieres}
}

func filiereFilterFromQuery(c *gin.Context) models.FiliereFilter {
	return models.FiliereFilter{
		IsActive: boolQuery(c, "is_active"),
		Search:   strings.TrimSpace(c.Query("search")),
		Page:     intQuery(c, "page", 1),
		PageSize: intQuery(c, "limit", 20),
	}
}

// List godoc
// @Summary List filieres
// @Tags Filieres
// @Produce json
// @Param search query string false "Search in the French name"
// @Param is_active query bool false "Filter by active state"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /admin/filieres [get]
func (h *FiliereHandler) List(c *gin.Context) {
	filieres, pagination, err := h.filieres.List(c.Request.Context(), filiereFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filieres, pagination)
}

// PublicList serves the public catalogue, restricted to active entries.
func (h *FiliereHandler) PublicList(c *gin.Context) {
	filter := filiereFilterFromQuery(c)
	active := true
	filter.IsActive = &active
	filieres, pagination, err := h.filieres.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filieres, pagination)
}

// Get godoc
// @Summary Get one filiere
// @Tags Filieres
// @Produce json
// @Param id path string true "Filiere ID"
// @Success 200 {object} response.Envelope
// @Router /admin/filieres/{id} [get]
func (h *FiliereHandler) Get(c *gin.Context) {
	filiere, err := h.filieres.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filiere, nil)
}

// Create godoc
// @Summary Create a filiere
// @Tags Filieres
// @Accept json
// @Produce json
// @Param payload body service.CreateFiliereRequest true "Filiere payload"
// @Success 201 {object} response.Envelope
// @Router /admin/filieres [post]
func (h *FiliereHandler) Create(c *gin.Context) {
	var req service.CreateFiliereRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	filiere, err := h.filieres.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, filiere)
}

// Update godoc
// @Summary Update a filiere
// @Tags Filieres
// @Accept json
// @Produce json
// @Param id path string true "Filiere ID"
// @Param payload body service.UpdateFiliereRequest true "Filiere payload"
// @Success 200 {object} response.Envelope
// @Router /admin/filieres/{id} [put]
func (h *FiliereHandler) Update(c *gin.Context) {
	var req service.UpdateFiliereRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	filiere, err := h.filieres.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, filiere, nil)
}

// Delete godoc
// @Summary Delete a filiere
// @Tags Filieres
// @Param id path string true "Filiere ID"
// @Success 200 {object} response.Envelope
// @Router /admin/filieres/{id} [delete]
func (h *FiliereHandler) Delete(c *gin.Context) {
	if err := h.filieres.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "filiere deleted")
}
