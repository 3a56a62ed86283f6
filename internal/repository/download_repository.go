package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const downloadColumns = `id, title, content, author_id, is_published, published_at, target_audience,
specialite_id, image_path, file_path, filename, mime_type, file_size, created_at, updated_at`

// DownloadRepository provides persistence for downloadable site resources.
type DownloadRepository struct {
	db *sqlx.DB
}

// NewDownloadRepository creates the repository.
func NewDownloadRepository(db *sqlx.DB) *DownloadRepository {
	return &DownloadRepository{db: db}
}

// List returns downloads newest first.
func (r *DownloadRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.Download, int, error) {
	base := "FROM downloads WHERE 1=1"
	var args []interface{}
	base, args = contentFilterClause(base, filter, args)
	size, offset := contentPageBounds(filter)

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", downloadColumns, base, size, offset)
	var downloads []models.Download
	if err := r.db.SelectContext(ctx, &downloads, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list downloads: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count downloads: %w", err)
	}
	return downloads, total, nil
}

// FindByID loads a download by identifier.
func (r *DownloadRepository) FindByID(ctx context.Context, id string) (*models.Download, error) {
	query := fmt.Sprintf("SELECT %s FROM downloads WHERE id = $1", downloadColumns)
	var download models.Download
	if err := r.db.GetContext(ctx, &download, query, id); err != nil {
		return nil, err
	}
	return &download, nil
}

// Create inserts a new download.
func (r *DownloadRepository) Create(ctx context.Context, download *models.Download) error {
	if download.ID == "" {
		download.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if download.CreatedAt.IsZero() {
		download.CreatedAt = now
	}
	download.UpdatedAt = now
	const query = `INSERT INTO downloads (id, title, content, author_id, is_published, published_at, target_audience,
specialite_id, image_path, file_path, filename, mime_type, file_size, created_at, updated_at)
VALUES (:id, :title, :content, :author_id, :is_published, :published_at, :target_audience,
:specialite_id, :image_path, :file_path, :filename, :mime_type, :file_size, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, download); err != nil {
		return fmt.Errorf("create download: %w", err)
	}
	return nil
}

// Update modifies an existing download.
func (r *DownloadRepository) Update(ctx context.Context, download *models.Download) error {
	download.UpdatedAt = time.Now().UTC()
	const query = `UPDATE downloads SET title = :title, content = :content,
is_published = :is_published, published_at = :published_at, target_audience = :target_audience, specialite_id = :specialite_id,
image_path = :image_path, file_path = :file_path, filename = :filename, mime_type = :mime_type, file_size = :file_size,
updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, download); err != nil {
		return fmt.Errorf("update download: %w", err)
	}
	return nil
}

// Delete removes a download and its gallery.
func (r *DownloadRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete download: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM download_images WHERE parent_id = $1`, id); err != nil {
		return fmt.Errorf("delete download images: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM downloads WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete download: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete download: %w", err)
	}
	return nil
}

// ListImages returns the gallery for one download in display order.
func (r *DownloadRepository) ListImages(ctx context.Context, parentID string) ([]models.ContentImage, error) {
	return listContentImages(ctx, r.db, "download_images", parentID)
}

// ReplaceImages swaps the full gallery of a download.
func (r *DownloadRepository) ReplaceImages(ctx context.Context, parentID string, paths []string) error {
	return replaceContentImages(ctx, r.db, "download_images", parentID, paths)
}
