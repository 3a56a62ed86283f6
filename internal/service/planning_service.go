package service

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/storage"
)

type planningRepository interface {
	List(ctx context.Context, filter models.PlanningFilter) ([]models.Planning, int, error)
	FindByID(ctx context.Context, id string) (*models.Planning, error)
	FindBySemester(ctx context.Context, semesterID string) (*models.Planning, error)
	FindPublishedBySemester(ctx context.Context, semesterID string) (*models.Planning, error)
	ExistsForSemester(ctx context.Context, semesterID, excludeID string) (bool, error)
	Create(ctx context.Context, planning *models.Planning) error
	Update(ctx context.Context, planning *models.Planning) error
	SetPublished(ctx context.Context, id string, published bool) error
	Delete(ctx context.Context, id string) error
	ListItems(ctx context.Context, planningID, groupID string) ([]models.PlanningItemDetail, error)
	FindItemByID(ctx context.Context, id string) (*models.PlanningItem, error)
	CreateItem(ctx context.Context, item *models.PlanningItem) error
	UpdateItem(ctx context.Context, item *models.PlanningItem) error
	DeleteItem(ctx context.Context, id string) error
}

// CreatePlanningRequest captures the creation payload. Image data is
// optional; when present it is stored before the record is written.
type CreatePlanningRequest struct {
	SemesterID   string `json:"semester_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
	IsPublished  *bool  `json:"is_published"`
	Filename     string `json:"-"`
	ImageData    []byte `json:"-"`
}

// UpdatePlanningRequest modifies planning fields. When ImageData is set the
// new blob replaces the old one and both the fields and the image path land
// in a single row update.
type UpdatePlanningRequest = CreatePlanningRequest

// PlanningItemRequest captures one weekly slot.
type PlanningItemRequest struct {
	ModuleID     string            `json:"module_id" validate:"required"`
	GroupID      *string           `json:"group_id"`
	DayOfWeek    int               `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime    string            `json:"start_time" validate:"required,datetime=15:04"`
	EndTime      string            `json:"end_time" validate:"required,datetime=15:04"`
	Room         *string           `json:"room"`
	TeacherName  *string           `json:"teacher_name"`
	TeacherEmail *string           `json:"teacher_email" validate:"omitempty,email"`
	CourseType   models.CourseType `json:"course_type" validate:"required,oneof=cours td tp examen"`
	Order        int               `json:"order"`
}

// PlanningService coordinates planning and slot operations.
type PlanningService struct {
	repo         planningRepository
	semesterRepo semesterRepository
	moduleRepo   moduleRepository
	store        blobStore
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewPlanningService constructs PlanningService.
func NewPlanningService(repo planningRepository, semesterRepo semesterRepository, moduleRepo moduleRepository, store blobStore, validate *validator.Validate, logger *zap.Logger) *PlanningService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanningService{repo: repo, semesterRepo: semesterRepo, moduleRepo: moduleRepo, store: store, validator: validate, logger: logger}
}

// List returns plannings with pagination metadata.
func (s *PlanningService) List(ctx context.Context, filter models.PlanningFilter) ([]models.Planning, *models.Pagination, error) {
	plannings, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list plannings")
	}
	return plannings, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one planning with its slots.
func (s *PlanningService) Get(ctx context.Context, id string) (*models.Planning, []models.PlanningItemDetail, error) {
	planning, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "planning not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning")
	}
	items, err := s.repo.ListItems(ctx, id, "")
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list planning items")
	}
	return planning, items, nil
}

// Create adds a planning for a semester that does not have one yet.
func (s *PlanningService) Create(ctx context.Context, req CreatePlanningRequest) (*models.Planning, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid planning payload")
	}

	if _, err := s.semesterRepo.FindByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}
	exists, err := s.repo.ExistsForSemester(ctx, req.SemesterID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester planning")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "semester already has a planning")
	}

	planning := &models.Planning{
		SemesterID:   req.SemesterID,
		AcademicYear: req.AcademicYear,
		IsPublished:  boolOrDefault(req.IsPublished, false),
	}
	if len(req.ImageData) > 0 {
		relPath, err := s.storeImage(req.Filename, req.ImageData)
		if err != nil {
			return nil, err
		}
		planning.ImagePath = &relPath
	}
	if err := s.repo.Create(ctx, planning); err != nil {
		if planning.ImagePath != nil {
			_ = s.store.Delete(*planning.ImagePath)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create planning")
	}
	return planning, nil
}

// Update modifies an existing planning. A new image and the field changes
// are applied in one row update; the old blob is removed only afterwards.
func (s *PlanningService) Update(ctx context.Context, id string, req UpdatePlanningRequest) (*models.Planning, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid planning payload")
	}

	planning, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "planning not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning")
	}

	if req.SemesterID != planning.SemesterID {
		exists, err := s.repo.ExistsForSemester(ctx, req.SemesterID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check semester planning")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "semester already has a planning")
		}
	}

	oldImage := ""
	if len(req.ImageData) > 0 {
		relPath, err := s.storeImage(req.Filename, req.ImageData)
		if err != nil {
			return nil, err
		}
		if planning.ImagePath != nil {
			oldImage = *planning.ImagePath
		}
		planning.ImagePath = &relPath
	}

	planning.SemesterID = req.SemesterID
	planning.AcademicYear = req.AcademicYear
	if req.IsPublished != nil {
		planning.IsPublished = *req.IsPublished
	}
	if err := s.repo.Update(ctx, planning); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update planning")
	}
	if oldImage != "" {
		if err := s.store.Delete(oldImage); err != nil {
			s.logger.Warn("failed to remove replaced planning image", zap.String("path", oldImage), zap.Error(err))
		}
	}
	return planning, nil
}

// SetPublished publishes or unpublishes a planning.
func (s *PlanningService) SetPublished(ctx context.Context, id string, published bool) (*models.Planning, error) {
	planning, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "planning not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning")
	}
	if err := s.repo.SetPublished(ctx, id, published); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to set planning state")
	}
	planning.IsPublished = published
	return planning, nil
}

// Delete removes a planning, its slots and its image.
func (s *PlanningService) Delete(ctx context.Context, id string) error {
	planning, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "planning not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete planning")
	}
	if planning.ImagePath != nil {
		if err := s.store.Delete(*planning.ImagePath); err != nil {
			s.logger.Warn("failed to remove planning image", zap.String("path", *planning.ImagePath), zap.Error(err))
		}
	}
	return nil
}

// AddItem appends one weekly slot to a planning.
func (s *PlanningService) AddItem(ctx context.Context, planningID string, req PlanningItemRequest) (*models.PlanningItem, error) {
	if err := s.validateItem(ctx, &req); err != nil {
		return nil, err
	}
	if _, err := s.repo.FindByID(ctx, planningID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "planning not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning")
	}

	item := &models.PlanningItem{
		PlanningID:   planningID,
		ModuleID:     req.ModuleID,
		GroupID:      req.GroupID,
		DayOfWeek:    req.DayOfWeek,
		StartTime:    req.StartTime,
		EndTime:      req.EndTime,
		Room:         req.Room,
		TeacherName:  req.TeacherName,
		TeacherEmail: req.TeacherEmail,
		CourseType:   req.CourseType,
		Order:        req.Order,
	}
	if err := s.repo.CreateItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create planning item")
	}
	return item, nil
}

// UpdateItem modifies one weekly slot.
func (s *PlanningService) UpdateItem(ctx context.Context, itemID string, req PlanningItemRequest) (*models.PlanningItem, error) {
	if err := s.validateItem(ctx, &req); err != nil {
		return nil, err
	}
	item, err := s.repo.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "planning item not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning item")
	}

	item.ModuleID = req.ModuleID
	item.GroupID = req.GroupID
	item.DayOfWeek = req.DayOfWeek
	item.StartTime = req.StartTime
	item.EndTime = req.EndTime
	item.Room = req.Room
	item.TeacherName = req.TeacherName
	item.TeacherEmail = req.TeacherEmail
	item.CourseType = req.CourseType
	item.Order = req.Order
	if err := s.repo.UpdateItem(ctx, item); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update planning item")
	}
	return item, nil
}

// DeleteItem removes one weekly slot.
func (s *PlanningService) DeleteItem(ctx context.Context, itemID string) error {
	if _, err := s.repo.FindItemByID(ctx, itemID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "planning item not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning item")
	}
	if err := s.repo.DeleteItem(ctx, itemID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete planning item")
	}
	return nil
}

// validateItem checks the payload and normalises the slot times to
// zero-padded HH:MM so start_time ordering stays chronological in SQL.
func (s *PlanningService) validateItem(ctx context.Context, req *PlanningItemRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Validation(err, "invalid planning item payload")
	}
	start, err := time.Parse("15:04", req.StartTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be HH:MM")
	}
	end, err := time.Parse("15:04", req.EndTime)
	if err != nil {
		return appErrors.Clone(appErrors.ErrValidation, "end time must be HH:MM")
	}
	if !start.Before(end) {
		return appErrors.Clone(appErrors.ErrValidation, "start time must be before end time")
	}
	req.StartTime = start.Format("15:04")
	req.EndTime = end.Format("15:04")
	if _, err := s.moduleRepo.FindByID(ctx, req.ModuleID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "module not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load module")
	}
	return nil
}

func (s *PlanningService) storeImage(filename string, data []byte) (string, error) {
	mime, err := sniffNoteMime(data)
	if err != nil {
		return "", err
	}
	if mime == "application/pdf" {
		return "", appErrors.Clone(appErrors.ErrUpload, "planning image must be JPEG or PNG")
	}
	storedName := storage.StoredName(storage.CategoryPlannings, filename)
	relPath := filepath.ToSlash(filepath.Join(storage.CategoryPlannings, storedName))
	if _, err := s.store.Save(relPath, data); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to store image")
	}
	return relPath, nil
}
