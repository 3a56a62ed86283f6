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

// ModuleHandler exposes teaching module endpoints.
type ModuleHandler struct {
	modules *service.ModuleService
}

// NewModuleHandler constructs ModuleHandler.
func NewModuleHandler(modules *service.ModuleService) *ModuleHandler {
	return &ModuleHandler{modules: modules}
}

// List godoc
// @Summary List modules
// @Tags Modules
// @Produce json
// @Param specialite_id query string false "Filter by speciality"
// @Param year_id query string false "Filter by study year"
// @Param search query string false "Search in the French title"
// @Success 200 {object} response.Envelope
// @Router /admin/modules [get]
func (h *ModuleHandler) List(c *gin.Context) {
	filter := models.ModuleFilter{
		SpecialityID: c.Query("specialite_id"),
		YearID:       c.Query("year_id"),
		IsActive:     boolQuery(c, "is_active"),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
	modules, pagination, err := h.modules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, pagination)
}

// PublicList serves the public catalogue, restricted to active modules.
func (h *ModuleHandler) PublicList(c *gin.Context) {
	filter := models.ModuleFilter{
		SpecialityID: c.Query("specialite_id"),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
	active := true
	filter.IsActive = &active
	modules, pagination, err := h.modules.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, pagination)
}

// StudentModules godoc
// @Summary List the caller's enrolled modules
// @Tags StudentPortal
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /student/modules [get]
func (h *ModuleHandler) StudentModules(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthenticated)
		return
	}
	modules, err := h.modules.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, modules, nil)
}

// Get godoc
// @Summary Get one module
// @Tags Modules
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /admin/modules/{id} [get]
func (h *ModuleHandler) Get(c *gin.Context) {
	module, err := h.modules.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// Create godoc
// @Summary Create a module
// @Tags Modules
// @Accept json
// @Produce json
// @Param payload body service.CreateModuleRequest true "Module payload"
// @Success 201 {object} response.Envelope
// @Router /admin/modules [post]
func (h *ModuleHandler) Create(c *gin.Context) {
	var req service.CreateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.modules.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, module)
}

// Update godoc
// @Summary Update a module
// @Tags Modules
// @Accept json
// @Produce json
// @Param id path string true "Module ID"
// @Param payload body service.UpdateModuleRequest true "Module payload"
// @Success 200 {object} response.Envelope
// @Router /admin/modules/{id} [put]
func (h *ModuleHandler) Update(c *gin.Context) {
	var req service.UpdateModuleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	module, err := h.modules.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, module, nil)
}

// Delete godoc
// @Summary Delete a module
// @Tags Modules
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /admin/modules/{id} [delete]
func (h *ModuleHandler) Delete(c *gin.Context) {
	if err := h.modules.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "module deleted")
}

// YearAssignments godoc
// @Summary List the study years a module is taught in
// @Tags Modules
// @Produce json
// @Param id path string true "Module ID"
// @Success 200 {object} response.Envelope
// @Router /admin/modules/{id}/years [get]
func (h *ModuleHandler) YearAssignments(c *gin.Context) {
	assignments, err := h.modules.YearAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// AssignYears godoc
// @Summary Replace a module's study year assignments
// @Tags Modules
// @Accept json
// @Param id path string true "Module ID"
// @Param payload body service.AssignYearsRequest true "Assignments"
// @Success 204
// @Router /admin/modules/{id}/years [put]
func (h *ModuleHandler) AssignYears(c *gin.Context) {
	var req service.AssignYearsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.modules.AssignYears(c.Request.Context(), c.Param("id"), req); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
