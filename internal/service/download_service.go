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
	"github.com/ifpm-dz/ifpm-api/pkg/storage"
)

type downloadRepository interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.Download, int, error)
	FindByID(ctx context.Context, id string) (*models.Download, error)
	Create(ctx context.Context, download *models.Download) error
	Update(ctx context.Context, download *models.Download) error
	Delete(ctx context.Context, id string) error
	ListImages(ctx context.Context, parentID string) ([]models.ContentImage, error)
	ReplaceImages(ctx context.Context, parentID string, paths []string) error
}

// SaveDownloadRequest captures the create and update payload.
type SaveDownloadRequest struct {
	Title          models.LocalizedText  `json:"title" validate:"required"`
	Content        models.LocalizedText  `json:"content" validate:"required"`
	IsPublished    *bool                 `json:"is_published"`
	TargetAudience models.TargetAudience `json:"target_audience" validate:"required,oneof=all students specific_specialite"`
	SpecialityID   *string               `json:"specialite_id"`
	CoverImage     *ContentUpload        `json:"-"`
	Attachment     *ContentUpload        `json:"-"`
	GalleryImages  []ContentUpload       `json:"-"`
}

// DownloadService coordinates downloadable site resources.
type DownloadService struct {
	repo      downloadRepository
	store     blobStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDownloadService constructs DownloadService.
func NewDownloadService(repo downloadRepository, store blobStore, validate *validator.Validate, logger *zap.Logger) *DownloadService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DownloadService{repo: repo, store: store, validator: validate, logger: logger}
}

// List returns downloads with their galleries attached.
func (s *DownloadService) List(ctx context.Context, filter models.ContentFilter) ([]models.Download, *models.Pagination, error) {
	downloads, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list downloads")
	}
	for i := range downloads {
		images, err := s.repo.ListImages(ctx, downloads[i].ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list download images")
		}
		downloads[i].Images = images
	}
	return downloads, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one download with its gallery.
func (s *DownloadService) Get(ctx context.Context, id string) (*models.Download, error) {
	download, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "download not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load download")
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list download images")
	}
	download.Images = images
	return download, nil
}

// Create publishes a new downloadable resource.
func (s *DownloadService) Create(ctx context.Context, authorID string, req SaveDownloadRequest) (*models.Download, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid download payload")
	}
	if err := validateAudience(req.TargetAudience, req.SpecialityID); err != nil {
		return nil, err
	}

	download := &models.Download{
		Title:          req.Title,
		Content:        req.Content,
		AuthorID:       authorID,
		IsPublished:    boolOrDefault(req.IsPublished, false),
		TargetAudience: req.TargetAudience,
		SpecialityID:   req.SpecialityID,
	}
	if download.IsPublished {
		now := time.Now().UTC()
		download.PublishedAt = &now
	}
	if err := s.applyUploads(download, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, download); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create download")
	}
	if len(req.GalleryImages) > 0 {
		paths, err := storeContentImages(s.store, storage.CategoryDownloadImages, req.GalleryImages)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceImages(ctx, download.ID, paths); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save download gallery")
		}
	}
	return s.Get(ctx, download.ID)
}

// Update modifies an existing download.
func (s *DownloadService) Update(ctx context.Context, id string, req SaveDownloadRequest) (*models.Download, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid download payload")
	}
	if err := validateAudience(req.TargetAudience, req.SpecialityID); err != nil {
		return nil, err
	}

	download, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "download not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load download")
	}

	wasPublished := download.IsPublished
	download.Title = req.Title
	download.Content = req.Content
	download.TargetAudience = req.TargetAudience
	download.SpecialityID = req.SpecialityID
	if req.IsPublished != nil {
		download.IsPublished = *req.IsPublished
	}
	if download.IsPublished && !wasPublished {
		now := time.Now().UTC()
		download.PublishedAt = &now
	}
	if err := s.applyUploads(download, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, download); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update download")
	}
	if len(req.GalleryImages) > 0 {
		paths, err := storeContentImages(s.store, storage.CategoryDownloadImages, req.GalleryImages)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceImages(ctx, id, paths); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save download gallery")
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a download, its gallery rows and its blobs.
func (s *DownloadService) Delete(ctx context.Context, id string) error {
	download, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete download")
	}
	deleteContentBlobs(s.store, s.logger, download.ImagePath, download.FilePath, download.Images)
	return nil
}

// ServeFile resolves the attached file for streaming.
func (s *DownloadService) ServeFile(ctx context.Context, id string) (*models.Download, string, error) {
	download, err := s.Get(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if download.FilePath == nil || !s.storeExists(*download.FilePath) {
		return nil, "", appErrors.Clone(appErrors.ErrFileNotFound, "stored file is missing")
	}
	return download, s.store.Path(*download.FilePath), nil
}

func (s *DownloadService) storeExists(relPath string) bool {
	return s.store.Exists(relPath)
}

func (s *DownloadService) applyUploads(download *models.Download, req SaveDownloadRequest) error {
	if req.CoverImage != nil {
		relPath, err := storeContentBlob(s.store, storage.CategoryDownloadImages, *req.CoverImage, false)
		if err != nil {
			return err
		}
		download.ImagePath = &relPath
	}
	if req.Attachment != nil {
		relPath, err := storeContentBlob(s.store, storage.CategoryDownloadFiles, *req.Attachment, true)
		if err != nil {
			return err
		}
		name := storage.SanitizeFilename(req.Attachment.Filename)
		size := int64(len(req.Attachment.Data))
		mime := "application/pdf"
		download.FilePath = &relPath
		download.Filename = &name
		download.MimeType = &mime
		download.FileSize = &size
	}
	return nil
}
