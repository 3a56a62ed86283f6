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

type regulatoryTextRepository interface {
	List(ctx context.Context, filter models.ContentFilter) ([]models.RegulatoryText, int, error)
	FindByID(ctx context.Context, id string) (*models.RegulatoryText, error)
	Create(ctx context.Context, text *models.RegulatoryText) error
	Update(ctx context.Context, text *models.RegulatoryText) error
	Delete(ctx context.Context, id string) error
	ListImages(ctx context.Context, parentID string) ([]models.ContentImage, error)
	ReplaceImages(ctx context.Context, parentID string, paths []string) error
}

// SaveRegulatoryTextRequest captures the create and update payload.
type SaveRegulatoryTextRequest struct {
	Title          models.LocalizedText  `json:"title" validate:"required"`
	Content        models.LocalizedText  `json:"content" validate:"required"`
	IsPublished    *bool                 `json:"is_published"`
	TargetAudience models.TargetAudience `json:"target_audience" validate:"required,oneof=all students specific_specialite"`
	CoverImage     *ContentUpload        `json:"-"`
	Attachment     *ContentUpload        `json:"-"`
	GalleryImages  []ContentUpload       `json:"-"`
}

// RegulatoryTextService coordinates official document publishing.
type RegulatoryTextService struct {
	repo      regulatoryTextRepository
	store     blobStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRegulatoryTextService constructs RegulatoryTextService.
func NewRegulatoryTextService(repo regulatoryTextRepository, store blobStore, validate *validator.Validate, logger *zap.Logger) *RegulatoryTextService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RegulatoryTextService{repo: repo, store: store, validator: validate, logger: logger}
}

// List returns regulatory texts with their galleries attached.
func (s *RegulatoryTextService) List(ctx context.Context, filter models.ContentFilter) ([]models.RegulatoryText, *models.Pagination, error) {
	texts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regulatory texts")
	}
	for i := range texts {
		images, err := s.repo.ListImages(ctx, texts[i].ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regulatory text images")
		}
		texts[i].Images = images
	}
	return texts, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one regulatory text with its gallery.
func (s *RegulatoryTextService) Get(ctx context.Context, id string) (*models.RegulatoryText, error) {
	text, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "regulatory text not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load regulatory text")
	}
	images, err := s.repo.ListImages(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list regulatory text images")
	}
	text.Images = images
	return text, nil
}

// Create publishes a new regulatory text.
func (s *RegulatoryTextService) Create(ctx context.Context, authorID string, req SaveRegulatoryTextRequest) (*models.RegulatoryText, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid regulatory text payload")
	}

	text := &models.RegulatoryText{
		Title:          req.Title,
		Content:        req.Content,
		AuthorID:       authorID,
		IsPublished:    boolOrDefault(req.IsPublished, false),
		TargetAudience: req.TargetAudience,
	}
	if text.IsPublished {
		now := time.Now().UTC()
		text.PublishedAt = &now
	}
	if err := s.applyUploads(text, req); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, text); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create regulatory text")
	}
	if len(req.GalleryImages) > 0 {
		paths, err := storeContentImages(s.store, storage.CategoryRegulatoryTextImages, req.GalleryImages)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceImages(ctx, text.ID, paths); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save regulatory text gallery")
		}
	}
	return s.Get(ctx, text.ID)
}

// Update modifies an existing regulatory text.
func (s *RegulatoryTextService) Update(ctx context.Context, id string, req SaveRegulatoryTextRequest) (*models.RegulatoryText, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid regulatory text payload")
	}

	text, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "regulatory text not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load regulatory text")
	}

	wasPublished := text.IsPublished
	text.Title = req.Title
	text.Content = req.Content
	text.TargetAudience = req.TargetAudience
	if req.IsPublished != nil {
		text.IsPublished = *req.IsPublished
	}
	if text.IsPublished && !wasPublished {
		now := time.Now().UTC()
		text.PublishedAt = &now
	}
	if err := s.applyUploads(text, req); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, text); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update regulatory text")
	}
	if len(req.GalleryImages) > 0 {
		paths, err := storeContentImages(s.store, storage.CategoryRegulatoryTextImages, req.GalleryImages)
		if err != nil {
			return nil, err
		}
		if err := s.repo.ReplaceImages(ctx, id, paths); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save regulatory text gallery")
		}
	}
	return s.Get(ctx, id)
}

// Delete removes a regulatory text, its gallery rows and its blobs.
func (s *RegulatoryTextService) Delete(ctx context.Context, id string) error {
	text, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete regulatory text")
	}
	deleteContentBlobs(s.store, s.logger, text.ImagePath, text.FilePath, text.Images)
	return nil
}

func (s *RegulatoryTextService) applyUploads(text *models.RegulatoryText, req SaveRegulatoryTextRequest) error {
	if req.CoverImage != nil {
		relPath, err := storeContentBlob(s.store, storage.CategoryRegulatoryTextImages, *req.CoverImage, false)
		if err != nil {
			return err
		}
		text.ImagePath = &relPath
	}
	if req.Attachment != nil {
		relPath, err := storeContentBlob(s.store, storage.CategoryRegulatoryTextFiles, *req.Attachment, true)
		if err != nil {
			return err
		}
		name := storage.SanitizeFilename(req.Attachment.Filename)
		size := int64(len(req.Attachment.Data))
		mime := "application/pdf"
		text.FilePath = &relPath
		text.Filename = &name
		text.MimeType = &mime
		text.FileSize = &size
	}
	return nil
}
