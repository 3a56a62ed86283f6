package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const announcementColumns = `id, title, content, summary, author_id, is_published, published_at, target_audience,
specialite_id, image_path, file_path, filename, mime_type, file_size, created_at, updated_at`

// AnnouncementRepository provides persistence for announcements and their
// image galleries.
type AnnouncementRepository struct {
	db *sqlx.DB
}

// NewAnnouncementRepository creates the repository.
func NewAnnouncementRepository(db *sqlx.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func contentFilterClause(base string, filter models.ContentFilter, args []interface{}) (string, []interface{}) {
	var conditions []string
	if filter.IsPublished != nil {
		conditions = append(conditions, fmt.Sprintf("is_published = $%d", len(args)+1))
		args = append(args, *filter.IsPublished)
	}
	if filter.Audience != "" {
		conditions = append(conditions, fmt.Sprintf("target_audience = $%d", len(args)+1))
		args = append(args, filter.Audience)
	}
	if filter.SpecialityID != "" {
		conditions = append(conditions, fmt.Sprintf("(specialite_id IS NULL OR specialite_id = $%d)", len(args)+1))
		args = append(args, filter.SpecialityID)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(title->>'fr' ILIKE $%d OR content->>'fr' ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	return base, args
}

func contentPageBounds(filter models.ContentFilter) (size, offset int) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size = filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// List returns announcements newest first.
func (r *AnnouncementRepository) List(ctx context.Context, filter models.ContentFilter) ([]models.Announcement, int, error) {
	base := "FROM announcements WHERE 1=1"
	var args []interface{}
	base, args = contentFilterClause(base, filter, args)
	size, offset := contentPageBounds(filter)

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", announcementColumns, base, size, offset)
	var announcements []models.Announcement
	if err := r.db.SelectContext(ctx, &announcements, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list announcements: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count announcements: %w", err)
	}
	return announcements, total, nil
}

// FindByID loads an announcement by identifier.
func (r *AnnouncementRepository) FindByID(ctx context.Context, id string) (*models.Announcement, error) {
	query := fmt.Sprintf("SELECT %s FROM announcements WHERE id = $1", announcementColumns)
	var announcement models.Announcement
	if err := r.db.GetContext(ctx, &announcement, query, id); err != nil {
		return nil, err
	}
	return &announcement, nil
}

// Create inserts a new announcement.
func (r *AnnouncementRepository) Create(ctx context.Context, announcement *models.Announcement) error {
	if announcement.ID == "" {
		announcement.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if announcement.CreatedAt.IsZero() {
		announcement.CreatedAt = now
	}
	announcement.UpdatedAt = now
	const query = `INSERT INTO announcements (id, title, content, summary, author_id, is_published, published_at, target_audience,
specialite_id, image_path, file_path, filename, mime_type, file_size, created_at, updated_at)
VALUES (:id, :title, :content, :summary, :author_id, :is_published, :published_at, :target_audience,
:specialite_id, :image_path, :file_path, :filename, :mime_type, :file_size, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("create announcement: %w", err)
	}
	return nil
}

// Update modifies an existing announcement.
func (r *AnnouncementRepository) Update(ctx context.Context, announcement *models.Announcement) error {
	announcement.UpdatedAt = time.Now().UTC()
	const query = `UPDATE announcements SET title = :title, content = :content, summary = :summary,
is_published = :is_published, published_at = :published_at, target_audience = :target_audience, specialite_id = :specialite_id,
image_path = :image_path, file_path = :file_path, filename = :filename, mime_type = :mime_type, file_size = :file_size,
updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, announcement); err != nil {
		return fmt.Errorf("update announcement: %w", err)
	}
	return nil
}

// Delete removes an announcement and its gallery.
func (r *AnnouncementRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete announcement: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM announcement_images WHERE parent_id = $1`, id); err != nil {
		return fmt.Errorf("delete announcement images: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM announcements WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete announcement: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete announcement: %w", err)
	}
	return nil
}

// ListImages returns the gallery for one announcement in display order.
func (r *AnnouncementRepository) ListImages(ctx context.Context, parentID string) ([]models.ContentImage, error) {
	return listContentImages(ctx, r.db, "announcement_images", parentID)
}

// ReplaceImages swaps the full gallery of an announcement.
func (r *AnnouncementRepository) ReplaceImages(ctx context.Context, parentID string, paths []string) error {
	return replaceContentImages(ctx, r.db, "announcement_images", parentID, paths)
}

func listContentImages(ctx context.Context, db *sqlx.DB, table, parentID string) ([]models.ContentImage, error) {
	query := fmt.Sprintf(`SELECT id, parent_id, image_path, display_order, created_at
FROM %s WHERE parent_id = $1 ORDER BY display_order ASC`, table)
	var images []models.ContentImage
	if err := db.SelectContext(ctx, &images, query, parentID); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return images, nil
}

func replaceContentImages(ctx context.Context, db *sqlx.DB, table, parentID string, paths []string) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace %s: %w", table, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE parent_id = $1", table), parentID); err != nil {
		return fmt.Errorf("clear %s: %w", table, err)
	}
	insert := fmt.Sprintf(`INSERT INTO %s (id, parent_id, image_path, display_order, created_at)
VALUES ($1, $2, $3, $4, $5)`, table)
	now := time.Now().UTC()
	for i, path := range paths {
		if _, err := tx.ExecContext(ctx, insert, uuid.NewString(), parentID, path, i, now); err != nil {
			return fmt.Errorf("insert %s: %w", table, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace %s: %w", table, err)
	}
	return nil
}
