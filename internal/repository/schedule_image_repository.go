package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const scheduleImageColumns = `id, semester_id, image_path, original_filename, uploaded_by, is_active, created_at, updated_at`

// ScheduleImageRepository provides persistence for scanned timetable images.
type ScheduleImageRepository struct {
	db *sqlx.DB
}

// NewScheduleImageRepository creates the repository.
func NewScheduleImageRepository(db *sqlx.DB) *ScheduleImageRepository {
	return &ScheduleImageRepository{db: db}
}

// ListBySemester returns all images for a semester, newest first.
func (r *ScheduleImageRepository) ListBySemester(ctx context.Context, semesterID string) ([]models.ScheduleImage, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_images WHERE semester_id = $1 ORDER BY created_at DESC", scheduleImageColumns)
	var images []models.ScheduleImage
	if err := r.db.SelectContext(ctx, &images, query, semesterID); err != nil {
		return nil, fmt.Errorf("list schedule images: %w", err)
	}
	return images, nil
}

// FindByID loads an image by identifier.
func (r *ScheduleImageRepository) FindByID(ctx context.Context, id string) (*models.ScheduleImage, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_images WHERE id = $1", scheduleImageColumns)
	var image models.ScheduleImage
	if err := r.db.GetContext(ctx, &image, query, id); err != nil {
		return nil, err
	}
	return &image, nil
}

// FindActiveBySemester loads the single active image for a semester.
// Returns sql.ErrNoRows when none is active.
func (r *ScheduleImageRepository) FindActiveBySemester(ctx context.Context, semesterID string) (*models.ScheduleImage, error) {
	query := fmt.Sprintf("SELECT %s FROM schedule_images WHERE semester_id = $1 AND is_active = TRUE LIMIT 1", scheduleImageColumns)
	var image models.ScheduleImage
	if err := r.db.GetContext(ctx, &image, query, semesterID); err != nil {
		return nil, err
	}
	return &image, nil
}

// Create inserts a new image and, when it is active, deactivates any other
// active image of the same semester in the same transaction.
func (r *ScheduleImageRepository) Create(ctx context.Context, image *models.ScheduleImage) error {
	if image.ID == "" {
		image.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if image.CreatedAt.IsZero() {
		image.CreatedAt = now
	}
	image.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create schedule image: %w", err)
	}
	defer tx.Rollback()

	if image.IsActive {
		if _, err := tx.ExecContext(ctx,
			`UPDATE schedule_images SET is_active = FALSE, updated_at = $2 WHERE semester_id = $1 AND is_active = TRUE`,
			image.SemesterID, now); err != nil {
			return fmt.Errorf("deactivate schedule images: %w", err)
		}
	}
	const insert = `INSERT INTO schedule_images (id, semester_id, image_path, original_filename, uploaded_by, is_active, created_at, updated_at)
VALUES (:id, :semester_id, :image_path, :original_filename, :uploaded_by, :is_active, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insert, image); err != nil {
		return fmt.Errorf("create schedule image: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create schedule image: %w", err)
	}
	return nil
}

// Activate marks one image active and deactivates its siblings.
func (r *ScheduleImageRepository) Activate(ctx context.Context, id, semesterID string) error {
	now := time.Now().UTC()
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin activate schedule image: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`UPDATE schedule_images SET is_active = FALSE, updated_at = $2 WHERE semester_id = $1 AND is_active = TRUE`,
		semesterID, now); err != nil {
		return fmt.Errorf("deactivate schedule images: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE schedule_images SET is_active = TRUE, updated_at = $2 WHERE id = $1`, id, now); err != nil {
		return fmt.Errorf("activate schedule image: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit activate schedule image: %w", err)
	}
	return nil
}

// Delete removes an image permanently.
func (r *ScheduleImageRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM schedule_images WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete schedule image: %w", err)
	}
	return nil
}
