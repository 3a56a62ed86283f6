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

const semesterColumns = `id, year_id, semester_number, name, start_date, end_date, academic_year, is_active, created_at, updated_at`

// SemesterRepository provides persistence for semesters.
type SemesterRepository struct {
	db *sqlx.DB
}

// NewSemesterRepository creates the repository.
func NewSemesterRepository(db *sqlx.DB) *SemesterRepository {
	return &SemesterRepository{db: db}
}

// List returns semesters ordered by semester number.
func (r *SemesterRepository) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	base := "FROM semesters WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.YearID != "" {
		conditions = append(conditions, fmt.Sprintf("year_id = $%d", len(args)+1))
		args = append(args, filter.YearID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY semester_number ASC LIMIT %d OFFSET %d", semesterColumns, base, size, offset)
	var semesters []models.Semester
	if err := r.db.SelectContext(ctx, &semesters, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list semesters: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count semesters: %w", err)
	}
	return semesters, total, nil
}

// FindByID loads a semester by identifier.
func (r *SemesterRepository) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	query := fmt.Sprintf("SELECT %s FROM semesters WHERE id = $1", semesterColumns)
	var semester models.Semester
	if err := r.db.GetContext(ctx, &semester, query, id); err != nil {
		return nil, err
	}
	return &semester, nil
}

// ExistsNumber checks semester-number uniqueness within a year.
func (r *SemesterRepository) ExistsNumber(ctx context.Context, yearID string, semesterNumber int, excludeID string) (bool, error) {
	query := "SELECT 1 FROM semesters WHERE year_id = $1 AND semester_number = $2"
	args := []interface{}{yearID, semesterNumber}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check semester number: %w", err)
	}
	return true, nil
}

// HasPlanning reports whether a planning references the semester.
func (r *SemesterRepository) HasPlanning(ctx context.Context, id string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, `SELECT 1 FROM plannings WHERE semester_id = $1 LIMIT 1`, id); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check semester planning: %w", err)
	}
	return true, nil
}

// Create inserts a new semester.
func (r *SemesterRepository) Create(ctx context.Context, semester *models.Semester) error {
	if semester.ID == "" {
		semester.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if semester.CreatedAt.IsZero() {
		semester.CreatedAt = now
	}
	semester.UpdatedAt = now
	const query = `INSERT INTO semesters (id, year_id, semester_number, name, start_date, end_date, academic_year, is_active, created_at, updated_at)
VALUES (:id, :year_id, :semester_number, :name, :start_date, :end_date, :academic_year, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("create semester: %w", err)
	}
	return nil
}

// Update modifies an existing semester.
func (r *SemesterRepository) Update(ctx context.Context, semester *models.Semester) error {
	semester.UpdatedAt = time.Now().UTC()
	const query = `UPDATE semesters SET year_id = :year_id, semester_number = :semester_number, name = :name,
start_date = :start_date, end_date = :end_date, academic_year = :academic_year, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, semester); err != nil {
		return fmt.Errorf("update semester: %w", err)
	}
	return nil
}

// Delete removes a semester permanently.
func (r *SemesterRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM semesters WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete semester: %w", err)
	}
	return nil
}
