package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const heroSlideColumns = `id, title, subtitle, image_path, filename, gradient, display_order, is_active, created_at, updated_at`

// HeroSlideRepository provides persistence for home-page carousel slides.
type HeroSlideRepository struct {
	db *sqlx.DB
}

// NewHeroSlideRepository creates the repository.
func NewHeroSlideRepository(db *sqlx.DB) *HeroSlideRepository {
	return &HeroSlideRepository{db: db}
}

// List returns slides in display order. When activeOnly is set, inactive
// slides are excluded.
func (r *HeroSlideRepository) List(ctx context.Context, activeOnly bool) ([]models.HeroSlide, error) {
	query := fmt.Sprintf("SELECT %s FROM hero_slides", heroSlideColumns)
	if activeOnly {
		query += " WHERE is_active = TRUE"
	}
	query += " ORDER BY display_order ASC, created_at ASC"
	var slides []models.HeroSlide
	if err := r.db.SelectContext(ctx, &slides, query); err != nil {
		return nil, fmt.Errorf("list hero slides: %w", err)
	}
	return slides, nil
}

// FindByID loads a slide by identifier.
func (r *HeroSlideRepository) FindByID(ctx context.Context, id string) (*models.HeroSlide, error) {
	query := fmt.Sprintf("SELECT %s FROM hero_slides WHERE id = $1", heroSlideColumns)
	var slide models.HeroSlide
	if err := r.db.GetContext(ctx, &slide, query, id); err != nil {
		return nil, err
	}
	return &slide, nil
}

// Create inserts a new slide.
func (r *HeroSlideRepository) Create(ctx context.Context, slide *models.HeroSlide) error {
	if slide.ID == "" {
		slide.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if slide.CreatedAt.IsZero() {
		slide.CreatedAt = now
	}
	slide.UpdatedAt = now
	const query = `INSERT INTO hero_slides (id, title, subtitle, image_path, filename, gradient, display_order, is_active, created_at, updated_at)
VALUES (:id, :title, :subtitle, :image_path, :filename, :gradient, :display_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slide); err != nil {
		return fmt.Errorf("create hero slide: %w", err)
	}
	return nil
}

// Update modifies an existing slide.
func (r *HeroSlideRepository) Update(ctx context.Context, slide *models.HeroSlide) error {
	slide.UpdatedAt = time.Now().UTC()
	const query = `UPDATE hero_slides SET title = :title, subtitle = :subtitle, image_path = :image_path,
filename = :filename, gradient = :gradient, display_order = :display_order, is_active = :is_active,
updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, slide); err != nil {
		return fmt.Errorf("update hero slide: %w", err)
	}
	return nil
}

// Delete removes a slide permanently.
func (r *HeroSlideRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM hero_slides WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete hero slide: %w", err)
	}
	return nil
}
