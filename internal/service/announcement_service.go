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

type announcementRepository interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.Announcement, int, error)
	FindByID(ctx context.Context, id string) (*models.Announcement, error)
	Create(ctx context.Context, announcement *models.Announcement) error
	Update(ctx context.Context, announcement *models.Announcement) error
	Delete(ctx context.Context, id string) error
	ListImages(ctx context.Context, parentID string) ([]models.ContentImage, error)
	ReplaceImages(ctx context.Context, parentID string, paths []string) error
}

// ContentUpload is one uploaded blob attached to a content record.
type ContentUpload struct {
	Filename string
	Data     []byte
}

// SaveAnnouncementRequest captures the create and update payload.
type SaveAnnouncementRequest struct {
	Title          models.LocalizedText         `json:"title" validate:"required"`
	Content        models.LocalizedText         `json:"content" validate:"required"`
	Summary        models.NullableLocalizedText `json:"summary"`
	IsPublished    *bool                        `json:"is_published"`
	TargetAudience models.TargetAudience        `json:"target_audience" validate:"required,oneof=all students specific_specialite"`
	SpecialityID   *string                      `json:"specialite_id"`
	CoverImage     *ContentUpload               `json:"-"`
	Attachment     *ContentUpload               `json:"-"`
	GalleryImages  []ContentUpload              `json:"-"`
}

// AnnouncementService coordinates announcement publishing.
type AnnouncementService struct {
	repo      announcementRepository
	store     blobStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnnouncementService constructs AnnouncementService.
func NewAnnouncementService(repo announcementRepository, store blobStore, validate *validator.Validate, logger *zap.Logger) *AnnouncementService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{repo: repo, store: store, validator: validate, logger: logger}
}

// List returns announcements with their galleries attached.
func (s *AnnouncementService) List(ctx context.Context, filter models.ContentFilter) ([]models.Announcement, *models.Pagination, error) {
	announcements, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcements")
	}
	for i := range announcements {
		images, err := s.repo.ListImages(ctx, announcements[i].ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcement images")
		}
		announcements[i].Images = images
	}
	return announcements, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one announcement with its gallery.
func (s *AnnouncementService) Get(ctx context.Context, id string) (*models.Announcement, error) {
	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list announcement images")
	}
	announcement.Images = images
	return announcement, nil
}

// Create publishes a new announcement with optional cover, attachment and
// gallery.
func (s *AnnouncementService) Create(ctx context.Context, authorID string, req SaveAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid announcement payload")
	}
	if err := validateAudience(req.TargetAudience, req.SpecialityID); err != nil {
		return nil, err
	}

	announcement := &models.Announcement{
		Title:          req.Title,
		Content:        req.Content,
		Summary:        req.Summary,
		AuthorID:       authorID,
		IsPublished:    boolOrDefault(req.IsPublished, false),
		TargetAudience: req.TargetAudience,
		SpecialityID:   req.SpecialityID,
	}
	if announcement.IsPublished {
		now := time.Now().UTC()
		announcement.PublishedAt = &now
	}
	if err := s.applyUploads(announcement, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create announcement")
	}
	if len(req.GalleryImages) > 0 {
		paths, err := storeContentImages(s.store, storage.CategoryAnnouncementImages, req.GalleryImages)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceImages(ctx, announcement.ID, paths); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save announcement gallery")
		}
	}
	return s.Get(ctx, announcement.ID)
}

// Update modifies an existing announcement. A non-empty gallery replaces
// the previous one.
func (s *AnnouncementService) Update(ctx context.Context, id string, req SaveAnnouncementRequest) (*models.Announcement, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid announcement payload")
	}
	if err := validateAudience(req.TargetAudience, req.SpecialityID); err != nil {
		return nil, err
	}

	announcement, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "announcement not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load announcement")
	}

	wasPublished := announcement.IsPublished
	announcement.Title = req.Title
	announcement.Content = req.Content
	announcement.Summary = req.Summary
	announcement.TargetAudience = req.TargetAudience
	announcement.SpecialityID = req.SpecialityID
	if req.IsPublished != nil {
		announcement.IsPublished = *req.IsPublished
	}
	if announcement.IsPublished && !wasPublished {
		now := time.Now().UTC()
		announcement.PublishedAt = &now
	}
	if err := s.applyUploads(announcement, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, announcement); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update announcement")
	}
	if len(req.GalleryImages) > 0 {
		paths, err := storeContentImages(s.store, storage.CategoryAnnouncementImages, req.GalleryImages)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceImages(ctx, id, paths); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save announcement gallery")
		}
	}
	return s.Get(ctx, id)
}

// Delete removes an announcement, its gallery rows and its blobs.
func (s *AnnouncementService) Delete(ctx context.Context, id string) error {
	announcement, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete announcement")
	}
	deleteContentBlobs(s.store, s.logger, announcement.ImagePath, announcement.FilePath, announcement.Images)
	return nil
}

func (s *AnnouncementService) applyUploads(announcement *models.Announcement, req SaveAnnouncementRequest) error {
	if req.CoverImage != nil {
		relPath, err := storeContentBlob(s.store, storage.CategoryAnnouncementImages, *req.CoverImage, false)
		if err != nil {
			return err
		}
		announcement.ImagePath = &relPath
	}
	if req.Attachment != nil {
		relPath, err := storeContentBlob(s.store, storage.CategoryAnnouncementPDFs, *req.Attachment, true)
		if err != nil {
			return err
		}
		name := storage.SanitizeFilename(req.Attachment.Filename)
		size := int64(len(req.Attachment.Data))
		mime := "application/pdf"
		announcement.FilePath = &relPath
		announcement.Filename = &name
		announcement.MimeType = &mime
		announcement.FileSize = &size
	}
	return nil
}

func validateAudience(audience models.TargetAudience, specialityID *string) error {
	if audience == models.AudienceSpecificSpecialite && specialityID == nil {
		return appErrors.Clone(appErrors.ErrValidation, "a speciality is required for this audience")
	}
	return nil
}

// storeContentBlob saves one uploaded blob under the category. pdfOnly
// restricts the sniffed type to PDF, otherwise JPEG/PNG are required.
func storeContentBlob(store blobStore, category string, upload ContentUpload, pdfOnly bool) (string, error) {
	mime, err := sniffNoteMime(upload.Data)
	if err != nil {
		return "", err
	}
	if pdfOnly && mime != "application/pdf" {
		return "", appErrors.Clone(appErrors.ErrUpload, "attachment must be a PDF")
	}
	if !pdfOnly && mime == "application/pdf" {
		return "", appErrors.Clone(appErrors.ErrUpload, "image must be JPEG or PNG")
	}
	storedName := storage.StoredName(category, upload.Filename)
	relPath := filepath.ToSlash(filepath.Join(category, storedName))
	if _, err := store.Save(relPath, upload.Data); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to store file")
	}
	return relPath, nil
}

func storeContentImages(store blobStore, category string, uploads []ContentUpload) ([]string, error) {
	paths := make([]string, 0, len(uploads))
	for _, upload := range uploads {
		relPath, err := storeContentBlob(store, category, upload, false)
		if err != nil {
			return nil, err
		}
		paths = append(paths, relPath)
	}
	return paths, nil
}

func deleteContentBlobs(store blobStore, logger *zap.Logger, imagePath, filePath *string, images []models.ContentImage) {
	if imagePath != nil {
		if err := store.Delete(*imagePath); err != nil {
			logger.Warn("failed to remove content image", zap.String("path", *imagePath), zap.Error(err))
		}
	}
	if filePath != nil {
		if err := store.Delete(*filePath); err != nil {
			logger.Warn("failed to remove content file", zap.String("path", *filePath), zap.Error(err))
		}
	}
	for _, img := range images {
		if err := store.Delete(img.ImagePath); err != nil {
			logger.Warn("failed to remove gallery image", zap.String("path", img.ImagePath), zap.Error(err))
		}
	}
}
