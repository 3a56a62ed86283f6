package service

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type filiereRepository interface {
	List(ctx context.Context, filter models.FiliereFilter) ([]models.Filiere, int, error)
	FindByID(ctx context.Context, id string) (*models.Filiere, error)
	ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error)
	Create(ctx context.Context, filiere *models.Filiere) error
	Update(ctx context.Context, filiere *models.Filiere) error
	Delete(ctx context.Context, id string) error
}

// CreateFiliereRequest captures the creation payload.
type CreateFiliereRequest struct {
	Name        models.LocalizedText         `json:"name" validate:"required"`
	Slug        string                       `json:"slug"`
	Description models.NullableLocalizedText `json:"description"`
	ImageURL    *string                      `json:"image_url"`
	Order       int                          `json:"order"`
	IsActive    *bool                        `json:"is_active"`
}

// UpdateFiliereRequest modifies filiere fields.
type UpdateFiliereRequest struct {
	Name        models.LocalizedText         `json:"name" validate:"required"`
	Slug        string                       `json:"slug"`
	Description models.NullableLocalizedText `json:"description"`
	ImageURL    *string                      `json:"image_url"`
	Order       int                          `json:"order"`
	IsActive    *bool                        `json:"is_active"`
}

// FiliereService coordinates filiere operations.
type FiliereService struct {
	repo      filiereRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFiliereService constructs FiliereService.
func NewFiliereService(repo filiereRepository, validate *validator.Validate, logger *zap.Logger) *FiliereService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FiliereService{repo: repo, validator: validate, logger: logger}
}

// List returns filieres with pagination metadata.
func (s *FiliereService) List(ctx context.Context, filter models.FiliereFilter) ([]models.Filiere, *models.Pagination, error) {
	filieres, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list filieres")
	}
	return filieres, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one filiere.
func (s *FiliereService) Get(ctx context.Context, id string) (*models.Filiere, error) {
	filiere, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filiere not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filiere")
	}
	return filiere, nil
}

// Create adds a new filiere. The slug is derived from the French name when
// not provided.
func (s *FiliereService) Create(ctx context.Context, req CreateFiliereRequest) (*models.Filiere, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid filiere payload")
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
		return nil, appErrors.Clone(appErrors.ErrDuplicateSlug, "a filiere with this slug already exists")
	}

	filiere := &models.Filiere{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
		ImageURL:    req.ImageURL,
		Order:       req.Order,
		IsActive:    boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, filiere); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create filiere")
	}
	return filiere, nil
}

// Update modifies an existing filiere.
func (s *FiliereService) Update(ctx context.Context, id string, req UpdateFiliereRequest) (*models.Filiere, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid filiere payload")
	}

	filiere, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "filiere not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load filiere")
	}

	slug := req.Slug
	if slug == "" {
		slug = Slugify(req.Name.Fr)
	}
	if slug != filiere.Slug {
		exists, err := s.repo.ExistsSlug(ctx, slug, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slug")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicateSlug, "a filiere with this slug already exists")
		}
	}

	filiere.Name = req.Name
	filiere.Slug = slug
	filiere.Description = req.Description
	filiere.ImageURL = req.ImageURL
	filiere.Order = req.Order
	if req.IsActive != nil {
		filiere.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, filiere); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update filiere")
	}
	return filiere, nil
}

// Delete removes a filiere.
func (s *FiliereService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete filiere")
	}
	return nil
}

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowers, strips accents common in French labels and collapses the
// rest to hyphen-separated ascii.
func Slugify(value string) string {
	value = strings.ToLower(value)
	replacer := strings.NewReplacer(
		"é", "e", "è", "e", "ê", "e", "ë", "e",
		"à", "a", "â", "a", "ä", "a",
		"î", "i", "ï", "i",
		"ô", "o", "ö", "o",
		"ù", "u", "û", "u", "ü", "u",
		"ç", "c", "œ", "oe",
	)
	value = replacer.Replace(value)
	value = slugStrip.ReplaceAllString(value, "-")
	return strings.Trim(value, "-")
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func boolOrDefault(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}
