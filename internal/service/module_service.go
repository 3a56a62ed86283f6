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

type moduleRepository interface {
	List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error)
	FindByID(ctx context.Context, id string) (*models.Module, error)
	ExistsCode(ctx context.Context, specialityID, code, excludeID string) (bool, error)
	Create(ctx context.Context, module *models.Module) error
	Update(ctx context.Context, module *models.Module) error
	Delete(ctx context.Context, id string) error
	ListYearAssignments(ctx context.Context, moduleID string) ([]models.ModuleYearAssignment, error)
	ReplaceYearAssignments(ctx context.Context, moduleID string, assignments []models.ModuleYearAssignment) error
	ReplaceEnrollments(ctx context.Context, studentID string, moduleIDs []string) error
	IsEnrolled(ctx context.Context, studentID, moduleID string) (bool, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.Module, error)
	ListEnrolledSpecialities(ctx context.Context, studentID string) ([]string, error)
}

// CreateModuleRequest captures the creation payload.
type CreateModuleRequest struct {
	SpecialityID string                       `json:"specialite_id" validate:"required"`
	Code         string                       `json:"code" validate:"required"`
	Title        models.LocalizedText         `json:"title" validate:"required"`
	Description  models.NullableLocalizedText `json:"description"`
	Credits      int                          `json:"credits" validate:"min=0"`
	Hours        int                          `json:"hours" validate:"min=0"`
	Order        int                          `json:"order"`
	IsActive     *bool                        `json:"is_active"`
}

// UpdateModuleRequest modifies module fields.
type UpdateModuleRequest = CreateModuleRequest

// YearAssignmentPayload attaches a module to a study year.
type YearAssignmentPayload struct {
	YearID         string `json:"year_id" validate:"required"`
	SemesterNumber int    `json:"semester_number" validate:"required,min=1,max=2"`
	IsMandatory    bool   `json:"is_mandatory"`
}

// AssignYearsRequest handles bulk year assignment.
type AssignYearsRequest struct {
	Assignments []YearAssignmentPayload `json:"assignments" validate:"dive"`
}

// ModuleService coordinates module operations.
type ModuleService struct {
	repo           moduleRepository
	specialityRepo specialityRepository
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewModuleService constructs ModuleService.
func NewModuleService(repo moduleRepository, specialityRepo specialityRepository, validate *validator.Validate, logger *zap.Logger) *ModuleService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModuleService{repo: repo, specialityRepo: specialityRepo, validator: validate, logger: logger}
}

// List returns modules with pagination metadata.
func (s *ModuleService) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, *models.Pagination, error) {
	modules, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list modules")
	}
	return modules, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one module.
func (s *ModuleService) Get(ctx context.Context, id string) (*models.Module, error) {
	module, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	return module, nil
}

// Create adds a module under an existing speciality. The code must be unique
// within the speciality.
func (s *ModuleService) Create(ctx context.Context, req CreateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid module payload")
	}

	if _, err := s.specialityRepo.FindByID(ctx, req.SpecialityID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "speciality not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load speciality")
	}

	exists, err := s.repo.ExistsCode(ctx, req.SpecialityID, req.Code, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module code")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "a module with this code already exists in the speciality")
	}

	module := &models.Module{
		SpecialityID: req.SpecialityID,
		Code:         req.Code,
		Title:        req.Title,
		Description:  req.Description,
		Credits:      req.Credits,
		Hours:        req.Hours,
		Order:        req.Order,
		IsActive:     boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create module")
	}
	return module, nil
}

// Update modifies an existing module.
func (s *ModuleService) Update(ctx context.Context, id string, req UpdateModuleRequest) (*models.Module, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid module payload")
	}

	module, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SpecialityID != module.SpecialityID || req.Code != module.Code {
		exists, err := s.repo.ExistsCode(ctx, req.SpecialityID, req.Code, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module code")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "a module with this code already exists in the speciality")
		}
	}

	module.SpecialityID = req.SpecialityID
	module.Code = req.Code
	module.Title = req.Title
	module.Description = req.Description
	module.Credits = req.Credits
	module.Hours = req.Hours
	module.Order = req.Order
	if req.IsActive != nil {
		module.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, module); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update module")
	}
	return module, nil
}

// Delete removes a module.
func (s *ModuleService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete module")
	}
	return nil
}

// YearAssignments returns the year assignments for a module.
func (s *ModuleService) YearAssignments(ctx context.Context, moduleID string) ([]models.ModuleYearAssignment, error) {
	if _, err := s.Get(ctx, moduleID); err != nil {
		return nil, err
	}
	assignments, err := s.repo.ListYearAssignments(ctx, moduleID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// AssignYears replaces the year assignments of a module.
func (s *ModuleService) AssignYears(ctx context.Context, moduleID string, req AssignYearsRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid assignment payload")
	}
	if _, err := s.Get(ctx, moduleID); err != nil {
		return err
	}

	assignments := make([]models.ModuleYearAssignment, 0, len(req.Assignments))
	for _, a := range req.Assignments {
		assignments = append(assignments, models.ModuleYearAssignment{
			YearID:         a.YearID,
			SemesterNumber: a.SemesterNumber,
			IsMandatory:    a.IsMandatory,
		})
	}
	if err := s.repo.ReplaceYearAssignments(ctx, moduleID, assignments); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace assignments")
	}
	return nil
}

// ListByStudent returns the modules a student is enrolled in.
func (s *ModuleService) ListByStudent(ctx context.Context, studentID string) ([]models.Module, error) {
	modules, err := s.repo.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student modules")
	}
	return modules, nil
}
