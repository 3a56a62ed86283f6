package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// RegulatoryTextHandler exposes regulatory document endpoints.
type RegulatoryTextHandler struct {
	texts *service.RegulatoryTextService
}

// NewRegulatoryTextHandler constructs RegulatoryTextHandler.
func NewRegulatoryTextHandler(texts *service.RegulatoryTextService) *RegulatoryTextHandler {
	return &RegulatoryTextHandler{texts: texts}
}

func regulatoryTextRequestFromForm(c *gin.Context) (service.SaveRegulatoryTextRequest, error) {
	var req service.SaveRegulatoryTextRequest
	var err error

	if req.Title, err = localizedForm(c, "title"); err != nil {
		return req, err
	}
	if req.Content, err = localizedForm(c, "content"); err != nil {
		return req, err
	}
	req.IsPublished = formBool(c, "is_published")
	req.TargetAudience = models.TargetAudience(c.DefaultPostForm("target_audience", "all"))

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
// @Summary List regulatory texts
// @Tags RegulatoryTexts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/regulatory-texts [get]
func (h *RegulatoryTextHandler) List(c *gin.Context) {
	texts, pagination, err := h.texts.List(c.Request.Context(), contentFilterFromQuery(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, texts, pagination)
}

// PublicList serves published regulatory texts.
func (h *RegulatoryTextHandler) PublicList(c *gin.Context) {
	filter := contentFilterFromQuery(c)
	published := true
	filter.IsPublished = &published
	texts, pagination, err := h.texts.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, texts, pagination)
}

// Get godoc
// @Summary Get one regulatory text
// @Tags RegulatoryTexts
// @Produce json
// @Param id path string true "Text ID"
// @Success 200 {object} response.Envelope
// @Router /admin/regulatory-texts/{id} [get]
func (h *RegulatoryTextHandler) Get(c *gin.Context) {
	text, err := h.texts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, text, nil)
}

// PublicGet serves one published regulatory text.
func (h *RegulatoryTextHandler) PublicGet(c *gin.Context) {
	text, err := h.texts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	if !text.IsPublished {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "regulatory text not found"))
		return
	}
	response.JSON(c, http.StatusOK, text, nil)
}

// Create godoc
// @Summary Create a regulatory text
// @Tags RegulatoryTexts
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/regulatory-texts [post]
func (h *RegulatoryTextHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	req, err := regulatoryTextRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regulatory text form"))
		return
	}
	text, err := h.texts.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, text)
}

// Update godoc
// @Summary Update a regulatory text
// @Tags RegulatoryTexts
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Text ID"
// @Success 200 {object} response.Envelope
// @Router /admin/regulatory-texts/{id} [put]
func (h *RegulatoryTextHandler) Update(c *gin.Context) {
	req, err := regulatoryTextRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid regulatory text form"))
		return
	}
	text, err := h.texts.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, text, nil)
}

// Delete godoc
// @Summary Delete a regulatory text with its files
// @Tags RegulatoryTexts
// @Param id path string true "Text ID"
// @Success 200 {object} response.Envelope
// @Router /admin/regulatory-texts/{id} [delete]
func (h *RegulatoryTextHandler) Delete(c *gin.Context) {
	if err := h.texts.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "regulatory text deleted")
}
