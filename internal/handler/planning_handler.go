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

// PlanningHandler exposes planning, slot and schedule image endpoints.
type PlanningHandler struct {
	plannings *service.PlanningService
	images    *service.ScheduleImageService
}

// NewPlanningHandler constructs PlanningHandler.
func NewPlanningHandler(plannings *service.PlanningService, images *service.ScheduleImageService) *PlanningHandler {
	return &PlanningHandler{plannings: plannings, images: images}
}

func planningRequestFromForm(c *gin.Context) (service.CreatePlanningRequest, error) {
	data, filename, err := readFormFile(c, "image")
	if err != nil {
		return service.CreatePlanningRequest{}, err
	}
	return service.CreatePlanningRequest{
		SemesterID:   strings.TrimSpace(c.PostForm("semester_id")),
		AcademicYear: strings.TrimSpace(c.PostForm("academic_year")),
		IsPublished:  formBool(c, "is_published"),
		Filename:     filename,
		ImageData:    data,
	}, nil
}

func formBool(c *gin.Context, key string) *bool {
	switch c.PostForm(key) {
	case "true", "1":
		v := true
		return &v
	case "false", "0":
		v := false
		return &v
	}
	return nil
}

// List godoc
// @Summary List plannings
// @Tags Plannings
// @Produce json
// @Param semester_id query string false "Filter by semester"
// @Param academic_year query string false "Filter by academic year"
// @Param is_published query bool false "Filter by published state"
// @Success 200 {object} response.Envelope
// @Router /admin/plannings [get]
func (h *PlanningHandler) List(c *gin.Context) {
	filter := models.PlanningFilter{
		SemesterID:   c.Query("semester_id"),
		AcademicYear: c.Query("academic_year"),
		IsPublished:  boolQuery(c, "is_published"),
		Page:         intQuery(c, "page", 1),
		PageSize:     intQuery(c, "limit", 20),
	}
	plannings, pagination, err := h.plannings.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, plannings, pagination)
}

// Get godoc
// @Summary Get one planning with its slots
// @Tags Plannings
// @Produce json
// @Param id path string true "Planning ID"
// @Success 200 {object} response.Envelope
// @Router /admin/plannings/{id} [get]
func (h *PlanningHandler) Get(c *gin.Context) {
	planning, items, err := h.plannings.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"planning": planning, "items": items}, nil)
}

// Create godoc
// @Summary Create a planning
// @Tags Plannings
// @Accept multipart/form-data
// @Produce json
// @Param semester_id formData string true "Semester ID"
// @Param academic_year formData string true "Academic year"
// @Param image formData file false "Planning image"
// @Success 201 {object} response.Envelope
// @Router /admin/plannings [post]
func (h *PlanningHandler) Create(c *gin.Context) {
	req, err := planningRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read uploaded image"))
		return
	}
	planning, err := h.plannings.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, planning)
}

// Update godoc
// @Summary Update a planning, optionally replacing its image
// @Tags Plannings
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Planning ID"
// @Success 200 {object} response.Envelope
// @Router /admin/plannings/{id} [put]
func (h *PlanningHandler) Update(c *gin.Context) {
	req, err := planningRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read uploaded image"))
		return
	}
	planning, err := h.plannings.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, planning, nil)
}

// Publish godoc
// @Summary Publish or unpublish a planning
// @Tags Plannings
// @Accept json
// @Produce json
// @Param id path string true "Planning ID"
// @Success 200 {object} response.Envelope
// @Router /admin/plannings/{id}/publish [put]
func (h *PlanningHandler) Publish(c *gin.Context) {
	var req struct {
		IsPublished bool `json:"is_published"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	planning, err := h.plannings.SetPublished(c.Request.Context(), c.Param("id"), req.IsPublished)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, planning, nil)
}

// Delete godoc
// @Summary Delete a planning with its slots and image
// @Tags Plannings
// @Param id path string true "Planning ID"
// @Success 200 {object} response.Envelope
// @Router /admin/plannings/{id} [delete]
func (h *PlanningHandler) Delete(c *gin.Context) {
	if err := h.plannings.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "planning deleted")
}

// AddItem godoc
// @Summary Add a weekly slot to a planning
// @Tags Plannings
// @Accept json
// @Produce json
// @Param id path string true "Planning ID"
// @Param payload body service.PlanningItemRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /admin/plannings/{id}/items [post]
func (h *PlanningHandler) AddItem(c *gin.Context) {
	var req service.PlanningItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.plannings.AddItem(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, item)
}

// UpdateItem godoc
// @Summary Update a weekly slot
// @Tags Plannings
// @Accept json
// @Produce json
// @Param itemId path string true "Slot ID"
// @Param payload body service.PlanningItemRequest true "Slot payload"
// @Success 200 {object} response.Envelope
// @Router /admin/plannings/items/{itemId} [put]
func (h *PlanningHandler) UpdateItem(c *gin.Context) {
	var req service.PlanningItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	item, err := h.plannings.UpdateItem(c.Request.Context(), c.Param("itemId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, item, nil)
}

// DeleteItem godoc
// @Summary Delete a weekly slot
// @Tags Plannings
// @Param itemId path string true "Slot ID"
// @Success 200 {object} response.Envelope
// @Router /admin/plannings/items/{itemId} [delete]
func (h *PlanningHandler) DeleteItem(c *gin.Context) {
	if err := h.plannings.DeleteItem(c.Request.Context(), c.Param("itemId")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "planning slot deleted")
}

// ListImages godoc
// @Summary List timetable images for a semester
// @Tags ScheduleImages
// @Produce json
// @Param semester_id query string true "Semester ID"
// @Success 200 {object} response.Envelope
// @Router /admin/schedule-images [get]
func (h *PlanningHandler) ListImages(c *gin.Context) {
	images, err := h.images.ListBySemester(c.Request.Context(), c.Query("semester_id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, images, nil)
}

// UploadImage godoc
// @Summary Upload a timetable image
// @Tags ScheduleImages
// @Accept multipart/form-data
// @Produce json
// @Param semester_id formData string true "Semester ID"
// @Param image formData file true "JPEG or PNG"
// @Success 201 {object} response.Envelope
// @Router /admin/schedule-images [post]
func (h *PlanningHandler) UploadImage(c *gin.Context) {
	claims := claimsFromContext(c)
	data, filename, err := readFormFile(c, "image")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to read uploaded image"))
		return
	}
	req := service.UploadScheduleImageRequest{
		SemesterID: strings.TrimSpace(c.PostForm("semester_id")),
		Filename:   filename,
		Data:       data,
		IsActive:   formBool(c, "is_active"),
	}
	image, err := h.images.Upload(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, image)
}

// ActivateImage godoc
// @Summary Make one timetable image the active one for its semester
// @Tags ScheduleImages
// @Produce json
// @Param id path string true "Image ID"
// @Success 200 {object} response.Envelope
// @Router /admin/schedule-images/{id}/activate [put]
func (h *PlanningHandler) ActivateImage(c *gin.Context) {
	image, err := h.images.Activate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, image, nil)
}

// DeleteImage godoc
// @Summary Delete a timetable image
// @Tags ScheduleImages
// @Param id path string true "Image ID"
// @Success 200 {object} response.Envelope
// @Router /admin/schedule-images/{id} [delete]
func (h *PlanningHandler) DeleteImage(c *gin.Context) {
	if err := h.images.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "schedule image deleted")
}
