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

const moduleColumns = `id, specialite_id, code, title, description, credits, hours, display_order, is_active, created_at, updated_at`

// ModuleRepository provides persistence for course modules, their year
// assignments and student enrollments.
type ModuleRepository struct {
	db *sqlx.DB
}

// NewModuleRepository creates the repository.
func NewModuleRepository(db *sqlx.DB) *ModuleRepository {
	return &ModuleRepository{db: db}
}

// List returns modules ordered by display order then code.
func (r *ModuleRepository) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error) {
	base := "FROM modules m WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SpecialityID != "" {
		conditions = append(conditions, fmt.Sprintf("m.specialite_id = $%d", len(args)+1))
		args = append(args, filter.SpecialityID)
	}
	if filter.YearID != "" {
		conditions = append(conditions, fmt.Sprintf("EXISTS (SELECT 1 FROM module_year_assignments mya WHERE mya.module_id = m.id AND mya.year_id = $%d)", len(args)+1))
		args = append(args, filter.YearID)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("m.is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(m.code ILIKE $%d OR m.title->>'fr' ILIKE $%d)", len(args)+1, len(args)+1))
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

	query := fmt.Sprintf(`SELECT m.id, m.specialite_id, m.code, m.title, m.description, m.credits, m.hours, m.display_order, m.is_active, m.created_at, m.updated_at
%s ORDER BY m.display_order ASC, m.code ASC LIMIT %d OFFSET %d`, base, size, offset)
	var modules []models.Module
	if err := r.db.SelectContext(ctx, &modules, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list modules: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count modules: %w", err)
	}
	return modules, total, nil
}

// FindByID loads a module by identifier.
func (r *ModuleRepository) FindByID(ctx context.Context, id string) (*models.Module, error) {
	query := fmt.Sprintf("SELECT %s FROM modules WHERE id = $1", moduleColumns)
	var module models.Module
	if err := r.db.GetContext(ctx, &module, query, id); err != nil {
		return nil, err
	}
	return &module, nil
}

// ExistsCode checks code uniqueness within a speciality.
func (r *ModuleRepository) ExistsCode(ctx context.Context, specialityID, code, excludeID string) (bool, error) {
	query := "SELECT 1 FROM modules WHERE specialite_id = $1 AND code = $2"
	args := []interface{}{specialityID, code}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check module code: %w", err)
	}
	return true, nil
}

// Create inserts a new module.
func (r *ModuleRepository) Create(ctx context.Context, module *models.Module) error {
	if module.ID == "" {
		module.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if module.CreatedAt.IsZero() {
		module.CreatedAt = now
	}
	module.UpdatedAt = now
	const query = `INSERT INTO modules (id, specialite_id, code, title, description, credits, hours, display_order, is_active, created_at, updated_at)
VALUES (:id, :specialite_id, :code, :title, :description, :credits, :hours, :display_order, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("create module: %w", err)
	}
	return nil
}

// Update modifies an existing module.
func (r *ModuleRepository) Update(ctx context.Context, module *models.Module) error {
	module.UpdatedAt = time.Now().UTC()
	const query = `UPDATE modules SET specialite_id = :specialite_id, code = :code, title = :title, description = :description,
credits = :credits, hours = :hours, display_order = :display_order, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, module); err != nil {
		return fmt.Errorf("update module: %w", err)
	}
	return nil
}

// Delete removes a module permanently.
func (r *ModuleRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM modules WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete module: %w", err)
	}
	return nil
}

// ListYearAssignments returns the year assignments for a module.
func (r *ModuleRepository) ListYearAssignments(ctx context.Context, moduleID string) ([]models.ModuleYearAssignment, error) {
	var assignments []models.ModuleYearAssignment
	const query = `SELECT id, module_id, year_id, semester_number, is_mandatory, created_at
FROM module_year_assignments WHERE module_id = $1 ORDER BY semester_number ASC`
	if err := r.db.SelectContext(ctx, &assignments, query, moduleID); err != nil {
		return nil, fmt.Errorf("list module year assignments: %w", err)
	}
	return assignments, nil
}

// ReplaceYearAssignments swaps the full assignment set of a module in one
// transaction.
func (r *ModuleRepository) ReplaceYearAssignments(ctx context.Context, moduleID string, assignments []models.ModuleYearAssignment) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace assignments: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM module_year_assignments WHERE module_id = $1`, moduleID); err != nil {
		return fmt.Errorf("clear module year assignments: %w", err)
	}
	const insert = `INSERT INTO module_year_assignments (id, module_id, year_id, semester_number, is_mandatory, created_at)
VALUES (:id, :module_id, :year_id, :semester_number, :is_mandatory, :created_at)`
	now := time.Now().UTC()
	for i := range assignments {
		assignments[i].ID = uuid.NewString()
		assignments[i].ModuleID = moduleID
		assignments[i].CreatedAt = now
		if _, err := tx.NamedExecContext(ctx, insert, assignments[i]); err != nil {
			return fmt.Errorf("insert module year assignment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace assignments: %w", err)
	}
	return nil
}

// ReplaceEnrollments swaps a student's module enrollments in one transaction.
func (r *ModuleRepository) ReplaceEnrollments(ctx context.Context, studentID string, moduleIDs []string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace enrollments: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM enrollments WHERE student_id = $1`, studentID); err != nil {
		return fmt.Errorf("clear enrollments: %w", err)
	}
	now := time.Now().UTC()
	for _, moduleID := range moduleIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO enrollments (id, student_id, module_id, enrolled_at) VALUES ($1, $2, $3, $4)`,
			uuid.NewString(), studentID, moduleID, now); err != nil {
			return fmt.Errorf("insert enrollment: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace enrollments: %w", err)
	}
	return nil
}

// IsEnrolled reports whether a student is enrolled in a module.
func (r *ModuleRepository) IsEnrolled(ctx context.Context, studentID, moduleID string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists,
		`SELECT 1 FROM enrollments WHERE student_id = $1 AND module_id = $2 LIMIT 1`, studentID, moduleID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check enrollment: %w", err)
	}
	return true, nil
}

// ListByStudent returns the modules a student is enrolled in.
func (r *ModuleRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Module, error) {
	var modules []models.Module
	const query = `SELECT m.id, m.specialite_id, m.code, m.title, m.description, m.credits, m.hours, m.display_order, m.is_active, m.created_at, m.updated_at
FROM modules m JOIN enrollments e ON e.module_id = m.id
WHERE e.student_id = $1 AND m.is_active = TRUE ORDER BY m.display_order ASC, m.code ASC`
	if err := r.db.SelectContext(ctx, &modules, query, studentID); err != nil {
		return nil, fmt.Errorf("list student modules: %w", err)
	}
	return modules, nil
}

// ListEnrolledSpecialities returns the distinct speciality ids of a student's
// enrolled modules.
func (r *ModuleRepository) ListEnrolledSpecialities(ctx context.Context, studentID string) ([]string, error) {
	var ids []string
	const query = `SELECT DISTINCT m.specialite_id FROM modules m
JOIN enrollments e ON e.module_id = m.id WHERE e.student_id = $1`
	if err := r.db.SelectContext(ctx, &ids, query, studentID); err != nil {
		return nil, fmt.Errorf("list enrolled specialities: %w", err)
	}
	return ids, nil
}
