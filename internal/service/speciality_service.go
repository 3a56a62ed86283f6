package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type specialityRepository interface {
	List(ctx context.Context, filter models.SpecialityFilter) ([]models.SpecialityDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Speciality, error)
	ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, speciality *models.Speciality) error
	Update(ctx context.Context, speciality *models.Speciality) error
	Delete(ctx context.Context, id string) error
}

// CreateSpecialityRequest captures the creation payload.
type CreateSpecialityRequest struct {
	FiliereID   string                       `json:"filiere_id" validate:"required"`
	Name        models.LocalizedText         `json:"name" validate:"required"`
	Slug        string                       `json:"slug"`
	Description models.NullableLocalizedText `json:"description"`
	ImageURL    *string                      `json:"image_url"`
	Duration    *string                      `json:"duration"`
	Order       int                          `json:"order"`
	IsActive    *bool                        `json:"is_active"`
}

// UpdateSpecialityRequest modifies speciality fields.
type UpdateSpecialityRequest = CreateSpecialityRequest

// SpecialityService coordinates speciality operations.
type SpecialityService struct {
	repo        specialityRepository
	filiereRepo filiereRepository
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewSpecialityService constructs SpecialityService.
func NewSpecialityService(repo specialityRepository, filiereRepo filiereRepository, validate *validator.Validate, logger *zap.Logger) *SpecialityService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SpecialityService{repo: repo, filiereRepo: filiereRepo, validator: validate, logger: logger}
}

// List returns specialities with their module counts.
func (s *SpecialityService) List(ctx context.Context, filter models.SpecialityFilter) ([]models.SpecialityDetail, *models.Pagination, error) {
	specialities, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list specialities")
	}
	return specialities, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one speciality with its parent filiere attached.
func (s *SpecialityService) Get(ctx context.Context, id string) (*models.SpecialityDetail, error) {
	speciality, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speciality not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load speciality")
	}

	detail := &models.SpecialityDetail{Speciality: *speciality}
	filiere, err := s.filiereRepo.FindByID(ctx, speciality.FiliereID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filiere")
	}
	detail.Filiere = filiere
	return detail, nil
}

// Create adds a new speciality under an existing filiere.
func (s *SpecialityService) Create(ctx context.Context, req CreateSpecialityRequest) (*models.Speciality, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid speciality payload")
	}

	if _, err := s.filiereRepo.FindByID(ctx, req.FiliereID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filiere not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filiere")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name.Fr)
	}
	exists, err := s.repo.ExistsSlug(ctx, slug, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSlug, "a speciality with this slug already exists")
	}

	speciality := &models.Speciality{
		FiliereID:   req.FiliereID,
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Duration:    req.Duration,
		Order:       req.Order,
		IsActive:    boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, speciality); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create speciality")
	}
	return speciality, nil
}

// Update modifies an existing speciality.
func (s *SpecialityService) Update(ctx context.Context, id string, req UpdateSpecialityRequest) (*models.Speciality, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid speciality payload")
	}

	speciality, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speciality not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load speciality")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name.Fr)
	}
	if slug != speciality.Slug {
		exists, err := s.repo.ExistsSlug(ctx, slug, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicateSlug, "a speciality with this slug already exists")
		}
	}

	speciality.FiliereID = req.FiliereID
	speciality.Name = req.Name
	speciality.Slug = slug
	speciality.Description = req.Description
	speciality.ImageURL = req.ImageURL
	speciality.Duration = req.Duration
	speciality.Order = req.Order
	if req.IsActive != nil {
		speciality.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, speciality); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update speciality")
	}
	return speciality, nil
}

// Delete removes a speciality.
func (s *SpecialityService) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "speciality not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load speciality")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete speciality")
	}
	return nil
}
