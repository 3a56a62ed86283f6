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

// StudentAdminHandler exposes admin-side student account management.
type StudentAdminHandler struct {
	students *service.StudentService
}

// NewStudentAdminHandler constructs StudentAdminHandler.
func NewStudentAdminHandler(students *service.StudentService) *StudentAdminHandler {
	return &StudentAdminHandler{students: students}
}

func studentFilterFromQuery(c *gin.Context) models.UserFilter {
	return models.UserFilter{
		IsActive:     boolQuery(c, "is_active"),
		SpecialityID: c.Query("speciality_id"),
		YearID:       c.Query("year_id"),
		GroupID:      c.Query("group_id"),
		Search:       strings.TrimSpace(c.Query("search")),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
		SortBy:       c.Query("sort"),
		SortOrder:    c.Query("order"),
	}
}

// List godoc
// @Summary List student accounts
// @Tags Students
// @Produce json
// @Param search query string false "Search by name, email or student number"
// @Param group_id query string false "Filter by group"
// @Success 200 {object} response.Envelope
// @Router /admin/students [get]
func (h *StudentAdminHandler) List(c *gin.Context) {
	students, pagination, err := h.students.List(c.Request.Context(), studentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get one student with year, group and enrollments
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [get]
func (h *StudentAdminHandler) Get(c *gin.Context) {
	profile, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Create godoc
// @Summary Create a student with a generated temporary password
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /admin/students [post]
func (h *StudentAdminHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	created, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, created)
}

// Update godoc
// @Summary Update a student account
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [put]
func (h *StudentAdminHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Deactivate godoc
// @Summary Deactivate a student account
// @Tags Students
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id} [delete]
func (h *StudentAdminHandler) Deactivate(c *gin.Context) {
	if err := h.students.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "student deactivated")
}

// ResetPassword godoc
// @Summary Issue a new temporary password for a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id}/reset-password [post]
func (h *StudentAdminHandler) ResetPassword(c *gin.Context) {
	created, err := h.students.ResetPassword(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, created, nil)
}

// AssignModules godoc
// @Summary Replace a student's module enrollments
// @Tags Students
// @Accept json
// @Param id path string true "Student ID"
// @Success 204
// @Router /admin/students/{id}/assign-modules [post]
func (h *StudentAdminHandler) AssignModules(c *gin.Context) {
	var req struct {
		ModuleIDs []string `json:"module_ids"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.students.AssignModules(c.Request.Context(), c.Param("id"), req.ModuleIDs); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Activity godoc
// @Summary Recent note downloads for a student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Param limit query int false "Max entries"
// @Success 200 {object} response.Envelope
// @Router /admin/students/{id}/activity [get]
func (h *StudentAdminHandler) Activity(c *gin.Context) {
	logs, err := h.students.Activity(c.Request.Context(), c.Param("id"), intQuery(c, "limit", 50))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, logs, nil)
}

// Export godoc
// @Summary Export the student roster as CSV or PDF
// @Tags Students
// @Produce text/csv
// @Produce application/pdf
// @Param format query string false "csv or pdf"
// @Router /admin/students/export [get]
func (h *StudentAdminHandler) Export(c *gin.Context) {
	export, err := h.students.ExportRoster(c.Request.Context(), studentFilterFromQuery(c), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+export.Filename)
	c.Data(http.StatusOK, export.ContentType, export.Data)
}
