package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type semesterRepository interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
	ExistsNumber(ctx context.Context, yearID string, semesterNumber int, excludeID string) (bool, error)
	HasPlanning(ctx context.Context, id string) (bool, error)
	Create(ctx context.Context, semester *models.Semester) error
	Update(ctx context.Context, semester *models.Semester) error
	Delete(ctx context.Context, id string) error
}

// CreateSemesterRequest captures the creation payload.
type CreateSemesterRequest struct {
	YearID         string               `json:"year_id" validate:"required"`
	SemesterNumber int                  `json:"semester_number" validate:"required,min=1,max=2"`
	Name           models.LocalizedText `json:"name" validate:"required"`
	StartDate      time.Time            `json:"start_date" validate:"required"`
	EndDate        time.Time            `json:"end_date" validate:"required"`
	AcademicYear   string               `json:"academic_year" validate:"required"`
	IsActive       *bool                `json:"is_active"`
}

// UpdateSemesterRequest modifies semester fields.
type UpdateSemesterRequest = CreateSemesterRequest

// SemesterService coordinates semester operations.
type SemesterService struct {
	repo      semesterRepository
	yearRepo  yearRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSemesterService constructs SemesterService.
func NewSemesterService(repo semesterRepository, yearRepo yearRepository, validate *validator.Validate, logger *zap.Logger) *SemesterService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SemesterService{repo: repo, yearRepo: yearRepo, validator: validate, logger: logger}
}

// List returns semesters with pagination metadata.
func (s *SemesterService) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, *models.Pagination, error) {
	semesters, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	return semesters, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one semester.
func (s *SemesterService) Get(ctx context.Context, id string) (*models.Semester, error) {
	semester, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	return semester, nil
}

// Create adds a semester. The semester number must be unique within its year
// and the date range must be coherent.
func (s *SemesterService) Create(ctx context.Context, req CreateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid semester payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	if _, err := s.yearRepo.FindByID(ctx, req.YearID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "year not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load year")
	}

	exists, err := s.repo.ExistsNumber(ctx, req.YearID, req.SemesterNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester number")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateSemester, "this year already has that semester number")
	}

	semester := &models.Semester{
		YearID:         req.YearID,
		SemesterNumber: req.SemesterNumber,
		Name:           req.Name,
		StartDate:      req.StartDate,
		EndDate:        req.EndDate,
		AcademicYear:   req.AcademicYear,
		IsActive:       boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create semester")
	}
	return semester, nil
}

// Update modifies an existing semester.
func (s *SemesterService) Update(ctx context.Context, id string, req UpdateSemesterRequest) (*models.Semester, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid semester payload")
	}
	if !req.EndDate.After(req.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end date must be after start date")
	}

	semester, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.YearID != semester.YearID || req.SemesterNumber != semester.SemesterNumber {
		exists, err := s.repo.ExistsNumber(ctx, req.YearID, req.SemesterNumber, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester number")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicateSemester, "this year already has that semester number")
		}
	}

	semester.YearID = req.YearID
	semester.SemesterNumber = req.SemesterNumber
	semester.Name = req.Name
	semester.StartDate = req.StartDate
	semester.EndDate = req.EndDate
	semester.AcademicYear = req.AcademicYear
	if req.IsActive != nil {
		semester.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, semester); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update semester")
	}
	return semester, nil
}

// Delete removes a semester. Deletion is blocked while a planning references
// it.
func (s *SemesterService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	hasPlanning, err := s.repo.HasPlanning(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check planning")
	}
	if hasPlanning {
		return appErrors.Clone(appErrors.ErrHasPlanning, "semester still has a planning attached")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete semester")
	}
	return nil
}
