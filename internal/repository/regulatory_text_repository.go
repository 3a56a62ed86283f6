package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const regulatoryTextColumns = `id, title, content, author_id, is_published, published_at, target_audience,
image_path, file_path, filename, mime_type, file_size, created_at, updated_at`

// RegulatoryTextRepository provides persistence for official documents.
type RegulatoryTextRepository struct {
	db *sqlx.DB
}

// NewRegulatoryTextRepository creates the repository.
func NewRegulatoryTextRepository(db *sqlx.DB) *RegulatoryTextRepository {
	return &RegulatoryTextRepository{db: db}
}

// List returns regulatory texts newest first.
func (r *RegulatoryTextRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.RegulatoryText, int, error) {
	base := "FROM regulatory_texts WHERE 1=1"
	var args []interface{}
	base, args = contentFilterClause(base, filter, args)
	size, offset := contentPageBounds(filter)

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", regulatoryTextColumns, base, size, offset)
	var texts []models.RegulatoryText
	if err := r.db.SelectContext(ctx, &texts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list regulatory texts: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count regulatory texts: %w", err)
	}
	return texts, total, nil
}

// FindByID loads a regulatory text by identifier.
func (r *RegulatoryTextRepository) FindByID(ctx context.Context, id string) (*models.RegulatoryText, error) {
	query := fmt.Sprintf("SELECT %s FROM regulatory_texts WHERE id = $1", regulatoryTextColumns)
	var text models.RegulatoryText
	if err := r.db.GetContext(ctx, &text, query, id); err != nil {
		return nil, err
	}
	return &text, nil
}

// Create inserts a new regulatory text.
func (r *RegulatoryTextRepository) Create(ctx context.Context, text *models.RegulatoryText) error {
	if text.ID == "" {
		text.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if text.CreatedAt.IsZero() {
		text.CreatedAt = now
	}
	text.UpdatedAt = now
	const query = `INSERT INTO regulatory_texts (id, title, content, author_id, is_published, published_at, target_audience,
image_path, file_path, filename, mime_type, file_size, created_at, updated_at)
VALUES (:id, :title, :content, :author_id, :is_published, :published_at, :target_audience,
:image_path, :file_path, :filename, :mime_type, :file_size, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, text); err != nil {
		return fmt.Errorf("create regulatory text: %w", err)
	}
	return nil
}

// Update modifies an existing regulatory text.
func (r *RegulatoryTextRepository) Update(ctx context.Context, text *models.RegulatoryText) error {
	text.UpdatedAt = time.Now().UTC()
	const query = `UPDATE regulatory_texts SET title = :title, content = :content,
is_published = :is_published, published_at = :published_at, target_audience = :target_audience,
image_path = :image_path, file_path = :file_path, filename = :filename, mime_type = :mime_type, file_size = :file_size,
updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, text); err != nil {
		return fmt.Errorf("update regulatory text: %w", err)
	}
	return nil
}

// Delete removes a regulatory text and its gallery.
func (r *RegulatoryTextRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete regulatory text: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM regulatory_text_images WHERE parent_id = $1`, id); err != nil {
		return fmt.Errorf("delete regulatory text images: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM regulatory_texts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete regulatory text: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete regulatory text: %w", err)
	}
	return nil
}

// ListImages returns the gallery for one regulatory text in display order.
func (r *RegulatoryTextRepository) ListImages(ctx context.Context, parentID string) ([]models.ContentImage, error) {
	return listContentImages(ctx, r.db, "regulatory_text_images", parentID)
}

// ReplaceImages swaps the full gallery of a regulatory text.
func (r *RegulatoryTextRepository) ReplaceImages(ctx context.Context, parentID string, paths []string) error {
	return replaceContentImages(ctx, r.db, "regulatory_text_images", parentID, paths)
}
