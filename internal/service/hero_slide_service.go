package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/storage"
)

type heroSlideRepository interface {
	List(ctx context.Context, activeOnly bool) ([]models.HeroSlide, error)
	FindByID(ctx context.Context, id string) (*models.HeroSlide, error)
	Create(ctx context.Context, slide *models.HeroSlide) error
	Update(ctx context.Context, slide *models.HeroSlide) error
	Delete(ctx context.Context, id string) error
}

// SaveHeroSlideRequest captures the create and update payload. The image is
// required on create and optional on update.
type SaveHeroSlideRequest struct {
	Title    models.LocalizedText         `json:"title" validate:"required"`
	Subtitle models.NullableLocalizedText `json:"subtitle"`
	Gradient string                       `json:"gradient"`
	Order    int                          `json:"order"`
	IsActive *bool                        `json:"is_active"`
	Filename string                       `json:"-"`
	Data     []byte                       `json:"-"`
}

// HeroSlideService coordinates home-page carousel slides.
type HeroSlideService struct {
	repo      heroSlideRepository
	store     blobStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHeroSlideService constructs HeroSlideService.
func NewHeroSlideService(repo heroSlideRepository, store blobStore, validate *validator.Validate, logger *zap.Logger) *HeroSlideService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeroSlideService{repo: repo, store: store, validator: validate, logger: logger}
}

// List returns slides in display order.
func (s *HeroSlideService) List(ctx context.Context, activeOnly bool) ([]models.HeroSlide, error) {
	slides, err := s.repo.List(ctx, activeOnly)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list hero slides")
	}
	return slides, nil
}

// Get returns one slide.
func (s *HeroSlideService) Get(ctx context.Context, id string) (*models.HeroSlide, error) {
	slide, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "hero slide not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load hero slide")
	}
	return slide, nil
}

// Create adds a slide with its image.
func (s *HeroSlideService) Create(ctx context.Context, req SaveHeroSlideRequest) (*models.HeroSlide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid hero slide payload")
	}
	if len(req.Data) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "a slide image is required")
	}

	relPath, err := s.storeImage(req.Filename, req.Data)
	if err != nil {
		return nil, err
	}
	slide := &models.HeroSlide{
		Title:     req.Title,
		Subtitle:  req.Subtitle,
		ImagePath: relPath,
		Filename:  storage.SanitizeFilename(req.Filename),
		Gradient:  req.Gradient,
		Order:     req.Order,
		IsActive:  boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, slide); err != nil {
		_ = s.store.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create hero slide")
	}
	return slide, nil
}

// Update modifies an existing slide, optionally replacing its image.
func (s *HeroSlideService) Update(ctx context.Context, id string, req SaveHeroSlideRequest) (*models.HeroSlide, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid hero slide payload")
	}

	slide, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldImage := ""
	if len(req.Data) > 0 {
		relPath, err := s.storeImage(req.Filename, req.Data)
		if err != nil {
			return nil, err
		}
		oldImage = slide.ImagePath
		slide.ImagePath = relPath
		slide.Filename = storage.SanitizeFilename(req.Filename)
	}

	slide.Title = req.Title
	slide.Subtitle = req.Subtitle
	slide.Gradient = req.Gradient
	slide.Order = req.Order
	if req.IsActive != nil {
		slide.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, slide); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update hero slide")
	}
	if oldImage != "" {
		if err := s.store.Delete(oldImage); err != nil {
			s.logger.Warn("failed to remove replaced slide image", zap.String("path", oldImage), zap.Error(err))
		}
	}
	return slide, nil
}

// Delete removes a slide and its image.
func (s *HeroSlideService) Delete(ctx context.Context, id string) error {
	slide, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete hero slide")
	}
	if err := s.store.Delete(slide.ImagePath); err != nil {
		s.logger.Warn("failed to remove slide image", zap.String("path", slide.ImagePath), zap.Error(err))
	}
	return nil
}

func (s *HeroSlideService) storeImage(filename string, data []byte) (string, error) {
	mime, err := sniffNoteMime(data)
	if err != nil {
		return "", err
	}
	if mime == "application/pdf" {
		return "", appErrors.Clone(appErrors.ErrUpload, "slide image must be JPEG or PNG")
	}
	storedName := storage.StoredName(storage.CategoryHeroSlides, filename)
	relPath := filepath.ToSlash(filepath.Join(storage.CategoryHeroSlides, storedName))
	if _, err := s.store.Save(relPath, data); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to store image")
	}
	return relPath, nil
}
