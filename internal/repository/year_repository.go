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

const yearColumns = `id, speciality_id, year_number, name, description, display_order, is_active, created_at, updated_at`

// YearRepository provides persistence for study years.
type YearRepository struct {
	db *sqlx.DB
}

// NewYearRepository creates the repository.
func NewYearRepository(db *sqlx.DB) *YearRepository {
	return &YearRepository{db: db}
}

// List returns years ordered by year number.
func (r *YearRepository) List(ctx context.Context, filter models.YearFilter) ([]models.Year, int, error) {
	base := "FROM years WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SpecialityID != "" {
		conditions = append(conditions, fmt.Sprintf("speciality_id = $%d", len(args)+1))
		args = append(args, filter.SpecialityID)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY year_number ASC LIMIT %d OFFSET %d", yearColumns, base, size, offset)
	var years []models.Year
	if err := r.db.SelectContext(ctx, &years, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list years: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count years: %w", err)
	}
	return years, total, nil
}

// FindByID loads a year by identifier.
func (r *YearRepository) FindByID(ctx context.Context, id string) (*models.Year, error) {
	query := fmt.Sprintf("SELECT %s FROM years WHERE id = $1", yearColumns)
	var year models.Year
	if err := r.db.GetContext(ctx, &year, query, id); err != nil {
		return nil, err
	}
	return &year, nil
}

// ExistsNumber checks year-number uniqueness within a speciality.
func (r *YearRepository) ExistsNumber(ctx context.Context, specialityID string, yearNumber int, excludeID string) (bool, error) {
	query := "SELECT 1 FROM years WHERE speciality_id = $1 AND year_number = $2"
	args := []interface{}{specialityID, yearNumber}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check year number: %w", err)
	}
	return true, nil
}

// CountStudents returns how many students are attached to the year.
func (r *YearRepository) CountStudents(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE year_id = $1 AND role = 'student'`, id); err != nil {
		return 0, fmt.Errorf("count year students: %w", err)
	}
	return count, nil
}

// Create inserts a new year.
func (r *YearRepository) Create(ctx context.Context, year *models.Year) error {
	if year.ID == "" {
		year.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if year.CreatedAt.IsZero() {
		year.CreatedAt = now
	}
	year.UpdatedAt = now
	const query = `INSERT INTO years (id, speciality_id, year_number, name, description, display_order, is_active, created_at, updated_at)
VALUES (:id, :speciality_id, :year_number, :name, :description, :display_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("create year: %w", err)
	}
	return nil
}

// Update modifies an existing year.
func (r *YearRepository) Update(ctx context.Context, year *models.Year) error {
	year.UpdatedAt = time.Now().UTC()
	const query = `UPDATE years SET speciality_id = :speciality_id, year_number = :year_number, name = :name,
description = :description, display_order = :display_order, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, year); err != nil {
		return fmt.Errorf("update year: %w", err)
	}
	return nil
}

// Delete removes a year permanently.
func (r *YearRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM years WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete year: %w", err)
	}
	return nil
}
