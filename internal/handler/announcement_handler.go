package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// AnnouncementHandler exposes announcement endpoints.
type AnnouncementHandler struct {
	announcements *service.AnnouncementService
}

// NewAnnouncementHandler constructs AnnouncementHandler.
func NewAnnouncementHandler(announcements *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

func announcementRequestFromForm(c *gin.Context) (service.SaveAnnouncementRequest, error) {
	var req service.SaveAnnouncementRequest
	var err error

	if req.Title, err = localizedForm(c, "title"); err != nil {
		return req, err
	}
	if req.Content, err = localizedForm(c, "content"); err != nil {
		return req, err
	}
	if req.Summary, err = nullableLocalizedForm(c, "summary"); err != nil {
		return req, err
	}
	req.IsPublished = formBool(c, "is_published")
	req.TargetAudience = models.TargetAudience(c.DefaultPostForm("target_audience", "all"))
	req.SpecialityID = optionalForm(c, "specialite_id")

	if req.CoverImage, err = contentUploadFromForm(c, "cover_image"); err != nil {
		return req, err
	}
	if req.Attachment, err = contentUploadFromForm(c, "attachment"); err != nil {
		return req, err
	}
	if req.GalleryImages, err = galleryFromForm(c, "gallery"); err != nil {
		return req, err
	}
	return req, nil
}

// List godoc
// @Summary List announcements
// @Tags Announcements
// @Produce json
// @Param is_published query bool false "Filter by published state"
// @Param audience query string false "Filter by target audience"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements [get]
func (h *AnnouncementHandler) List(c *gin.Context) {
	announcements, pagination, err := h.announcements.List(c.Request.Context(), contentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, pagination)
}

// PublicList serves published announcements for the public site.
func (h *AnnouncementHandler) PublicList(c *gin.Context) {
	filter := contentFilterFromQuery(c)
	published := true
	filter.IsPublished = &published
	announcements, pagination, err := h.announcements.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcements, pagination)
}

// Get godoc
// @Summary Get one announcement with its gallery
// @Tags Announcements
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [get]
func (h *AnnouncementHandler) Get(c *gin.Context) {
	announcement, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// PublicGet serves one published announcement.
func (h *AnnouncementHandler) PublicGet(c *gin.Context) {
	announcement, err := h.announcements.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !announcement.IsPublished {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "announcement not found"))
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Create godoc
// @Summary Create an announcement
// @Tags Announcements
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/announcements [post]
func (h *AnnouncementHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	req, err := announcementRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement form"))
		return
	}
	announcement, err := h.announcements.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, announcement)
}

// Update godoc
// @Summary Update an announcement
// @Tags Announcements
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [put]
func (h *AnnouncementHandler) Update(c *gin.Context) {
	req, err := announcementRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid announcement form"))
		return
	}
	announcement, err := h.announcements.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, announcement, nil)
}

// Delete godoc
// @Summary Delete an announcement with its files
// @Tags Announcements
// @Param id path string true "Announcement ID"
// @Success 200 {object} response.Envelope
// @Router /admin/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c *gin.Context) {
	if err := h.announcements.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "announcement deleted")
}
