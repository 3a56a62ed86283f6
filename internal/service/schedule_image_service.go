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

type scheduleImageRepository interface {
	ListBySemester(ctx context.Context, semesterID string) ([]models.ScheduleImage, error)
	FindByID(ctx context.Context, id string) (*models.ScheduleImage, error)
	FindActiveBySemester(ctx context.Context, semesterID string) (*models.ScheduleImage, error)
	Create(ctx context.Context, image *models.ScheduleImage) error
	Activate(ctx context.Context, id, semesterID string) error
	Delete(ctx context.Context, id string) error
}

// UploadScheduleImageRequest carries a scanned timetable upload.
type UploadScheduleImageRequest struct {
	SemesterID string `json:"semester_id" validate:"required"`
	Filename   string `json:"-" validate:"required"`
	Data       []byte `json:"-" validate:"required"`
	IsActive   *bool  `json:"is_active"`
}

// ScheduleImageService coordinates scanned timetable images. At most one
// image per semester is active at a time.
type ScheduleImageService struct {
	repo         scheduleImageRepository
	semesterRepo semesterRepository
	store        blobStore
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewScheduleImageService constructs ScheduleImageService.
func NewScheduleImageService(repo scheduleImageRepository, semesterRepo semesterRepository, store blobStore, validate *validator.Validate, logger *zap.Logger) *ScheduleImageService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleImageService{repo: repo, semesterRepo: semesterRepo, store: store, validator: validate, logger: logger}
}

// ListBySemester returns all images for a semester.
func (s *ScheduleImageService) ListBySemester(ctx context.Context, semesterID string) ([]models.ScheduleImage, error) {
	images, err := s.repo.ListBySemester(ctx, semesterID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule images")
	}
	return images, nil
}

// Upload stores a scanned timetable and creates its record. An active
// upload displaces the previously active image.
func (s *ScheduleImageService) Upload(ctx context.Context, uploaderID string, req UploadScheduleImageRequest) (*models.ScheduleImage, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid schedule image payload")
	}

	if _, err := s.semesterRepo.FindByID(ctx, req.SemesterID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
	}

	mime, err := sniffNoteMime(req.Data)
	if err != nil {
		return nil, err
	}
	if mime == "application/pdf" {
		return nil, appErrors.Clone(appErrors.ErrUpload, "schedule image must be JPEG or PNG")
	}

	storedName := storage.StoredName(storage.CategoryScheduleImages, req.Filename)
	relPath := filepath.ToSlash(filepath.Join(storage.CategoryScheduleImages, storedName))
	if _, err := s.store.Save(relPath, req.Data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to store image")
	}

	image := &models.ScheduleImage{
		SemesterID:       req.SemesterID,
		ImagePath:        relPath,
		OriginalFilename: storage.SanitizeFilename(req.Filename),
		UploadedBy:       uploaderID,
		IsActive:         boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, image); err != nil {
		_ = s.store.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create schedule image")
	}
	return image, nil
}

// Activate makes one image the active one for its semester.
func (s *ScheduleImageService) Activate(ctx context.Context, id string) (*models.ScheduleImage, error) {
	image, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "schedule image not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule image")
	}
	if err := s.repo.Activate(ctx, id, image.SemesterID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to activate schedule image")
	}
	image.IsActive = true
	return image, nil
}

// Delete removes an image record and its blob.
func (s *ScheduleImageService) Delete(ctx context.Context, id string) error {
	image, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "schedule image not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule image")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete schedule image")
	}
	if err := s.store.Delete(image.ImagePath); err != nil {
		s.logger.Warn("failed to remove schedule image blob", zap.String("path", image.ImagePath), zap.Error(err))
	}
	return nil
}
