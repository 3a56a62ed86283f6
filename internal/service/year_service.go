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

type yearRepository interface {
	List(ctx context.Context, filter models.YearFilter) ([]models.Year, int, error)
	FindByID(ctx context.Context, id string) (*models.Year, error)
	ExistsNumber(ctx context.Context, specialityID string, yearNumber int, excludeID string) (bool, error)
	CountStudents(ctx context.Context, id string) (int, error)
	Create(ctx context.Context, year *models.Year) error
	Update(ctx context.Context, year *models.Year) error
	Delete(ctx context.Context, id string) error
}

// CreateYearRequest captures the creation payload.
type CreateYearRequest struct {
	SpecialityID string                       `json:"speciality_id" validate:"required"`
	YearNumber   int                          `json:"year_number" validate:"required,min=1,max=5"`
	Name         models.LocalizedText         `json:"name" validate:"required"`
	Description  models.NullableLocalizedText `json:"description"`
	Order        int                          `json:"order"`
	IsActive     *bool                        `json:"is_active"`
}

// UpdateYearRequest modifies year fields.
type UpdateYearRequest = CreateYearRequest

// YearService coordinates study year operations.
type YearService struct {
	repo           yearRepository
	specialityRepo specialityRepository
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewYearService constructs YearService.
func NewYearService(repo yearRepository, specialityRepo specialityRepository, validate *validator.Validate, logger *zap.Logger) *YearService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &YearService{repo: repo, specialityRepo: specialityRepo, validator: validate, logger: logger}
}

// List returns years with pagination metadata.
func (s *YearService) List(ctx context.Context, filter models.YearFilter) ([]models.Year, *models.Pagination, error) {
	years, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list years")
	}
	return years, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one year.
func (s *YearService) Get(ctx context.Context, id string) (*models.Year, error) {
	year, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year")
	}
	return year, nil
}

// Create adds a study year. The year number must be unique within its
// speciality.
func (s *YearService) Create(ctx context.Context, req CreateYearRequest) (*models.Year, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid year payload")
	}

	if _, err := s.specialityRepo.FindByID(ctx, req.SpecialityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speciality not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load speciality")
	}

	exists, err := s.repo.ExistsNumber(ctx, req.SpecialityID, req.YearNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check year number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateYear, "this speciality already has that year number")
	}

	year := &models.Year{
		SpecialityID: req.SpecialityID,
		YearNumber:   req.YearNumber,
		Name:         req.Name,
		Description:  req.Description,
		Order:        req.Order,
		IsActive:     boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create year")
	}
	return year, nil
}

// Update modifies an existing year.
func (s *YearService) Update(ctx context.Context, id string, req UpdateYearRequest) (*models.Year, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid year payload")
	}

	year, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SpecialityID != year.SpecialityID || req.YearNumber != year.YearNumber {
		exists, err := s.repo.ExistsNumber(ctx, req.SpecialityID, req.YearNumber, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check year number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicateYear, "this speciality already has that year number")
		}
	}

	year.SpecialityID = req.SpecialityID
	year.YearNumber = req.YearNumber
	year.Name = req.Name
	year.Description = req.Description
	year.Order = req.Order
	if req.IsActive != nil {
		year.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, year); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update year")
	}
	return year, nil
}

// Delete removes a year. Deletion is blocked while students are assigned
// to it.
func (s *YearService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrHasStudents, "year still has students assigned")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete year")
	}
	return nil
}
