package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const specialityColumns = `id, filiere_id, name, slug, description, image_url, duration, display_order, is_active, created_at, updated_at`

// SpecialityRepository provides persistence for programs of study.
type SpecialityRepository struct {
	db *sqlx.DB
}

// NewSpecialityRepository creates the repository.
func NewSpecialityRepository(db *sqlx.DB) *SpecialityRepository {
	return &SpecialityRepository{db: db}
}

// List returns specialities with their active module count.
func (r *SpecialityRepository) List(ctx context.Context, filter models.SpecialityFilter) ([]models.SpecialityDetail, int, error) {
	base := "FROM specialities s WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.FiliereID != "" {
		conditions = append(conditions, fmt.Sprintf("s.filiere_id = $%d", len(args)+1))
		args = append(args, filter.FiliereID)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("s.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(s.name->>'fr' ILIKE $%d OR s.slug ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 50
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT s.id, s.filiere_id, s.name, s.slug, s.description, s.image_url, s.duration, s.display_order, s.is_active, s.created_at, s.updated_at,
(SELECT COUNT(*) FROM modules m WHERE m.specialite_id = s.id AND m.is_active = TRUE) AS active_module_count
%s ORDER BY s.display_order ASC, s.created_at ASC LIMIT %d OFFSET %d`, base, size, offset)
	var specialities []models.SpecialityDetail
	if err := r.db.SelectContext(ctx, &specialities, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list specialities: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count specialities: %w", err)
	}
	return specialities, total, nil
}

// FindByID loads a speciality by identifier.
func (r *SpecialityRepository) FindByID(ctx context.Context, id string) (*models.Speciality, error) {
	query := fmt.Sprintf("SELECT %s FROM specialities WHERE id = $1", specialityColumns)
	var speciality models.Speciality
	if err := r.db.GetContext(ctx, &speciality, query, id); err != nil {
		return nil, err
	}
	return &speciality, nil
}

// Exists reports whether a speciality with the given id is present.
func (r *SpecialityRepository) Exists(ctx context.Context, id string) (bool, error) {
	var exists int
	err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM specialities WHERE id = $1 LIMIT 1", id)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check speciality exists: %w", err)
	}
	return true, nil
}

// ExistsSlug checks slug uniqueness, optionally excluding one record.
func (r *SpecialityRepository) ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error) {
	query := "SELECT 1 FROM specialities WHERE slug = $1"
	args := []interface{}{slug}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check speciality slug: %w", err)
	}
	return true, nil
}

// Create inserts a new speciality.
func (r *SpecialityRepository) Create(ctx context.Context, speciality *models.Speciality) error {
	if speciality.ID == "" {
		speciality.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if speciality.CreatedAt.IsZero() {
		speciality.CreatedAt = now
	}
	speciality.UpdatedAt = now
	const query = `INSERT INTO specialities (id, filiere_id, name, slug, description, image_url, duration, display_order, is_active, created_at, updated_at)
VALUES (:id, :filiere_id, :name, :slug, :description, :image_url, :duration, :display_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, speciality); err != nil {
		return fmt.Errorf("create speciality: %w", err)
	}
	return nil
}

// Update modifies an existing speciality.
func (r *SpecialityRepository) Update(ctx context.Context, speciality *models.Speciality) error {
	speciality.UpdatedAt = time.Now().UTC()
	const query = `UPDATE specialities SET filiere_id = :filiere_id, name = :name, slug = :slug, description = :description,
image_url = :image_url, duration = :duration, display_order = :display_order, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, speciality); err != nil {
		return fmt.Errorf("update speciality: %w", err)
	}
	return nil
}

// Delete removes a speciality permanently.
func (r *SpecialityRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM specialities WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete speciality: %w", err)
	}
	return nil
}
