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

const planningColumns = `id, semester_id, academic_year, image_path, is_published, created_at, updated_at`

const planningItemColumns = `id, planning_id, module_id, group_id, day_of_week, start_time, end_time,
room, teacher_name, teacher_email, course_type, display_order, created_at, updated_at`

// PlanningRepository provides persistence for semester plannings and their
// weekly slots.
type PlanningRepository struct {
	db *sqlx.DB
}

// NewPlanningRepository creates the repository.
func NewPlanningRepository(db *sqlx.DB) *PlanningRepository {
	return &PlanningRepository{db: db}
}

// List returns plannings newest first.
func (r *PlanningRepository) List(ctx context.Context, filter models.PlanningFilter) ([]models.Planning, int, error) {
	base := "FROM plannings WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SemesterID != "" {
		conditions = append(conditions, fmt.Sprintf("semester_id = $%d", len(args)+1))
		args = append(args, filter.SemesterID)
	}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.IsPublished != nil {
		conditions = append(conditions, fmt.Sprintf("is_published = $%d", len(args)+1))
		args = append(args, *filter.IsPublished)
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
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY created_at DESC LIMIT %d OFFSET %d", planningColumns, base, size, offset)
	var plannings []models.Planning
	if err := r.db.SelectContext(ctx, &plannings, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list plannings: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count plannings: %w", err)
	}
	return plannings, total, nil
}

// FindByID loads a planning by identifier.
func (r *PlanningRepository) FindByID(ctx context.Context, id string) (*models.Planning, error) {
	query := fmt.Sprintf("SELECT %s FROM plannings WHERE id = $1", planningColumns)
	var planning models.Planning
	if err := r.db.GetContext(ctx, &planning, query, id); err != nil {
		return nil, err
	}
	return &planning, nil
}

// FindBySemester loads the planning attached to a semester, if any.
func (r *PlanningRepository) FindBySemester(ctx context.Context, semesterID string) (*models.Planning, error) {
	query := fmt.Sprintf("SELECT %s FROM plannings WHERE semester_id = $1", planningColumns)
	var planning models.Planning
	if err := r.db.GetContext(ctx, &planning, query, semesterID); err != nil {
		return nil, err
	}
	return &planning, nil
}

// FindPublishedBySemester loads the published planning for a semester.
// Returns sql.ErrNoRows when the semester has none or it is unpublished.
func (r *PlanningRepository) FindPublishedBySemester(ctx context.Context, semesterID string) (*models.Planning, error) {
	query := fmt.Sprintf("SELECT %s FROM plannings WHERE semester_id = $1 AND is_published = TRUE", planningColumns)
	var planning models.Planning
	if err := r.db.GetContext(ctx, &planning, query, semesterID); err != nil {
		return nil, err
	}
	return &planning, nil
}

// ExistsForSemester reports whether a semester already has a planning.
func (r *PlanningRepository) ExistsForSemester(ctx context.Context, semesterID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM plannings WHERE semester_id = $1"
	args := []interface{}{semesterID}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check semester planning: %w", err)
	}
	return true, nil
}

// Create inserts a new planning.
func (r *PlanningRepository) Create(ctx context.Context, planning *models.Planning) error {
	if planning.ID == "" {
		planning.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if planning.CreatedAt.IsZero() {
		planning.CreatedAt = now
	}
	planning.UpdatedAt = now
	const query = `INSERT INTO plannings (id, semester_id, academic_year, image_path, is_published, created_at, updated_at)
VALUES (:id, :semester_id, :academic_year, :image_path, :is_published, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, planning); err != nil {
		return fmt.Errorf("create planning: %w", err)
	}
	return nil
}

// Update modifies all planning fields, including the image path, in one
// statement so a metadata edit and an image swap land together.
func (r *PlanningRepository) Update(ctx context.Context, planning *models.Planning) error {
	planning.UpdatedAt = time.Now().UTC()
	const query = `UPDATE plannings SET semester_id = :semester_id, academic_year = :academic_year,
image_path = :image_path, is_published = :is_published, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, planning); err != nil {
		return fmt.Errorf("update planning: %w", err)
	}
	return nil
}

// SetPublished flips the published flag.
func (r *PlanningRepository) SetPublished(ctx context.Context, id string, published bool) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE plannings SET is_published = $2, updated_at = $3 WHERE id = $1`,
		id, published, time.Now().UTC()); err != nil {
		return fmt.Errorf("set planning published: %w", err)
	}
	return nil
}

// Delete removes a planning and its items.
func (r *PlanningRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete planning: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM planning_items WHERE planning_id = $1`, id); err != nil {
		return fmt.Errorf("delete planning items: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM plannings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete planning: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete planning: %w", err)
	}
	return nil
}

// ListItems returns a planning's slots with module title and code joined,
// ordered for timetable rendering. When groupID is set, group-scoped slots
// of other groups are excluded while unscoped slots are kept.
func (r *PlanningRepository) ListItems(ctx context.Context, planningID, groupID string) ([]models.PlanningItemDetail, error) {
	query := fmt.Sprintf(`SELECT %s, m.title AS module_title, m.code AS module_code
FROM planning_items pi JOIN modules m ON m.id = pi.module_id
WHERE pi.planning_id = $1`, prefixColumns(planningItemColumns, "pi"))
	args := []interface{}{planningID}
	if groupID != "" {
		query += " AND (pi.group_id IS NULL OR pi.group_id = $2)"
		args = append(args, groupID)
	}
	query += " ORDER BY pi.day_of_week ASC, pi.start_time ASC, pi.display_order ASC"

	var items []models.PlanningItemDetail
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list planning items: %w", err)
	}
	return items, nil
}

// FindItemByID loads a single slot.
func (r *PlanningRepository) FindItemByID(ctx context.Context, id string) (*models.PlanningItem, error) {
	query := fmt.Sprintf("SELECT %s FROM planning_items WHERE id = $1", planningItemColumns)
	var item models.PlanningItem
	if err := r.db.GetContext(ctx, &item, query, id); err != nil {
		return nil, err
	}
	return &item, nil
}

// CreateItem inserts a new slot.
func (r *PlanningRepository) CreateItem(ctx context.Context, item *models.PlanningItem) error {
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	const query = `INSERT INTO planning_items (id, planning_id, module_id, group_id, day_of_week, start_time, end_time,
room, teacher_name, teacher_email, course_type, display_order, created_at, updated_at)
VALUES (:id, :planning_id, :module_id, :group_id, :day_of_week, :start_time, :end_time,
:room, :teacher_name, :teacher_email, :course_type, :display_order, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("create planning item: %w", err)
	}
	return nil
}

// UpdateItem modifies an existing slot.
func (r *PlanningRepository) UpdateItem(ctx context.Context, item *models.PlanningItem) error {
	item.UpdatedAt = time.Now().UTC()
	const query = `UPDATE planning_items SET module_id = :module_id, group_id = :group_id, day_of_week = :day_of_week,
start_time = :start_time, end_time = :end_time, room = :room, teacher_name = :teacher_name, teacher_email = :teacher_email,
course_type = :course_type, display_order = :display_order, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, item); err != nil {
		return fmt.Errorf("update planning item: %w", err)
	}
	return nil
}

// DeleteItem removes a slot permanently.
func (r *PlanningRepository) DeleteItem(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM planning_items WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete planning item: %w", err)
	}
	return nil
}
