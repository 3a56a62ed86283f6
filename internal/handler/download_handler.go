package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// DownloadHandler exposes downloadable resource endpoints.
type DownloadHandler struct {
	downloads *service.DownloadService
}

// NewDownloadHandler constructs DownloadHandler.
func NewDownloadHandler(downloads *service.DownloadService) *DownloadHandler {
	return &DownloadHandler{downloads: downloads}
}

func downloadRequestFromForm(c *gin.Context) (service.SaveDownloadRequest, error) {
	var req service.SaveDownloadRequest
	var err error

	if req.Title, err = localizedForm(c, "title"); err != nil {
		return req, err
	}
	if req.Content, err = localizedForm(c, "content"); err != nil {
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
// @Summary List downloadable resources
// @Tags Downloads
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/downloads [get]
func (h *DownloadHandler) List(c *gin.Context) {
	downloads, pagination, err := h.downloads.List(c.Request.Context(), contentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, downloads, pagination)
}

// PublicList serves published resources for the public site.
func (h *DownloadHandler) PublicList(c *gin.Context) {
	filter := contentFilterFromQuery(c)
	published := true
	filter.IsPublished = &published
	downloads, pagination, err := h.downloads.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, downloads, pagination)
}

// Get godoc
// @Summary Get one downloadable resource
// @Tags Downloads
// @Produce json
// @Param id path string true "Download ID"
// @Success 200 {object} response.Envelope
// @Router /admin/downloads/{id} [get]
func (h *DownloadHandler) Get(c *gin.Context) {
	download, err := h.downloads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// PublicGet serves one published resource.
func (h *DownloadHandler) PublicGet(c *gin.Context) {
	download, err := h.downloads.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !download.IsPublished {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "download not found"))
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// ServeFile streams the resource's attachment.
func (h *DownloadHandler) ServeFile(c *gin.Context) {
	download, path, err := h.downloads.ServeFile(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	filename := "download"
	if download.Filename != nil {
		filename = *download.Filename
	}
	if download.MimeType != nil {
		c.Header("Content-Type", *download.MimeType)
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.File(path)
}

// Create godoc
// @Summary Create a downloadable resource
// @Tags Downloads
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/downloads [post]
func (h *DownloadHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	req, err := downloadRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid download form"))
		return
	}
	download, err := h.downloads.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, download)
}

// Update godoc
// @Summary Update a downloadable resource
// @Tags Downloads
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Download ID"
// @Success 200 {object} response.Envelope
// @Router /admin/downloads/{id} [put]
func (h *DownloadHandler) Update(c *gin.Context) {
	req, err := downloadRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid download form"))
		return
	}
	download, err := h.downloads.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, download, nil)
}

// Delete godoc
// @Summary Delete a downloadable resource with its files
// @Tags Downloads
// @Param id path string true "Download ID"
// @Success 200 {object} response.Envelope
// @Router /admin/downloads/{id} [delete]
func (h *DownloadHandler) Delete(c *gin.Context) {
	if err := h.downloads.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "download deleted")
}
