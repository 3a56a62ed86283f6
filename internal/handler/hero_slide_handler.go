package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ifpm-dz/ifpm-api/internal/service"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/response"
)

// HeroSlideHandler exposes home-page carousel endpoints.
type HeroSlideHandler struct {
	slides *service.HeroSlideService
}

// NewHeroSlideHandler constructs HeroSlideHandler.
func NewHeroSlideHandler(slides *service.HeroSlideService) *HeroSlideHandler {
	return &HeroSlideHandler{slides: slides}
}

func heroSlideRequestFromForm(c *gin.Context) (service.SaveHeroSlideRequest, error) {
	var req service.SaveHeroSlideRequest
	var err error

	if req.Title, err = localizedForm(c, "title"); err != nil {
		return req, err
	}
	if req.Subtitle, err = nullableLocalizedForm(c, "subtitle"); err != nil {
		return req, err
	}
	req.Gradient = c.PostForm("gradient")
	if order, err := strconv.Atoi(c.PostForm("order")); err == nil {
		req.Order = order
	}
	req.IsActive = formBool(c, "is_active")

	data, filename, err := readFormFile(c, "image")
	if err != nil {
		return req, err
	}
	req.Filename = filename
	req.Data = data
	return req, nil
}

// List godoc
// @Summary List hero slides
// @Tags HeroSlides
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/hero-slides [get]
func (h *HeroSlideHandler) List(c *gin.Context) {
	slides, err := h.slides.List(c.Request.Context(), false)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slides, nil)
}

// PublicList serves active slides for the home page.
func (h *HeroSlideHandler) PublicList(c *gin.Context) {
	slides, err := h.slides.List(c.Request.Context(), true)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slides, nil)
}

// Get godoc
// @Summary Get one hero slide
// @Tags HeroSlides
// @Produce json
// @Param id path string true "Slide ID"
// @Success 200 {object} response.Envelope
// @Router /admin/hero-slides/{id} [get]
func (h *HeroSlideHandler) Get(c *gin.Context) {
	slide, err := h.slides.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// Create godoc
// @Summary Create a hero slide
// @Tags HeroSlides
// @Accept multipart/form-data
// @Produce json
// @Success 201 {object} response.Envelope
// @Router /admin/hero-slides [post]
func (h *HeroSlideHandler) Create(c *gin.Context) {
	req, err := heroSlideRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slide form"))
		return
	}
	slide, err := h.slides.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slide)
}

// Update godoc
// @Summary Update a hero slide
// @Tags HeroSlides
// @Accept multipart/form-data
// @Produce json
// @Param id path string true "Slide ID"
// @Success 200 {object} response.Envelope
// @Router /admin/hero-slides/{id} [put]
func (h *HeroSlideHandler) Update(c *gin.Context) {
	req, err := heroSlideRequestFromForm(c)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slide form"))
		return
	}
	slide, err := h.slides.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slide, nil)
}

// Delete godoc
// @Summary Delete a hero slide
// @Tags HeroSlides
// @Param id path string true "Slide ID"
// @Success 200 {object} response.Envelope
// @Router /admin/hero-slides/{id} [delete]
func (h *HeroSlideHandler) Delete(c *gin.Context) {
	if err := h.slides.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Message(c, "hero slide deleted")
}
