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

const filiereColumns = `id, name, slug, description, image_url, display_order, is_active, created_at, updated_at`

// FiliereRepository provides persistence for academic tracks.
type FiliereRepository struct {
	db *sqlx.DB
}

// NewFiliereRepository creates the repository.
func NewFiliereRepository(db *sqlx.DB) *FiliereRepository {
	return &FiliereRepository{db: db}
}

// List returns filieres ordered by display order.
func (r *FiliereRepository) List(ctx context.Context, filter models.FiliereFilter) ([]models.Filiere, int, error) {
	base := "FROM filieres WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(name->>'fr' ILIKE $%d OR slug ILIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY display_order ASC, created_at ASC LIMIT %d OFFSET %d", filiereColumns, base, size, offset)
	var filieres []models.Filiere
	if err := r.db.SelectContext(ctx, &filieres, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list filieres: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count filieres: %w", err)
	}
	return filieres, total, nil
}

// FindByID loads a filiere by identifier.
func (r *FiliereRepository) FindByID(ctx context.Context, id string) (*models.Filiere, error) {
	query := fmt.Sprintf("SELECT %s FROM filieres WHERE id = $1", filiereColumns)
	var filiere models.Filiere
	if err := r.db.GetContext(ctx, &filiere, query, id); err != nil {
		return nil, err
	}
	return &filiere, nil
}

// ExistsSlug checks slug uniqueness, optionally excluding one record.
func (r *FiliereRepository) ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error) {
	query := "SELECT 1 FROM filieres WHERE slug = $1"
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
		return false, fmt.Errorf("check filiere slug: %w", err)
	}
	return true, nil
}

// Create inserts a new filiere.
func (r *FiliereRepository) Create(ctx context.Context, filiere *models.Filiere) error {
	if filiere.ID == "" {
		filiere.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if filiere.CreatedAt.IsZero() {
		filiere.CreatedAt = now
	}
	filiere.UpdatedAt = now
	const query = `INSERT INTO filieres (id, name, slug, description, image_url, display_order, is_active, created_at, updated_at)
VALUES (:id, :name, :slug, :description, :image_url, :display_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, filiere); err != nil {
		return fmt.Errorf("create filiere: %w", err)
	}
	return nil
}

// Update modifies an existing filiere.
func (r *FiliereRepository) Update(ctx context.Context, filiere *models.Filiere) error {
	filiere.UpdatedAt = time.Now().UTC()
	const query = `UPDATE filieres SET name = :name, slug = :slug, description = :description, image_url = :image_url,
display_order = :display_order, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, filiere); err != nil {
		return fmt.Errorf("update filiere: %w", err)
	}
	return nil
}

// Delete removes a filiere permanently.
func (r *FiliereRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM filieres WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete filiere: %w", err)
	}
	return nil
}
