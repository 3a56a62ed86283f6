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

const groupColumns = `id, speciality_id, year_id, name, code, capacity, is_active, created_at, updated_at`

// GroupRepository provides persistence for student groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository creates the repository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// List returns groups with their student counts.
func (r *GroupRepository) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error) {
	base := "FROM groups g WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.SpecialityID != "" {
		conditions = append(conditions, fmt.Sprintf("g.speciality_id = $%d", len(args)+1))
		args = append(args, filter.SpecialityID)
	}
	if filter.YearID != "" {
		conditions = append(conditions, fmt.Sprintf("g.year_id = $%d", len(args)+1))
		args = append(args, filter.YearID)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("g.is_active = $%d", len(args)+1))
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

	query := fmt.Sprintf(`SELECT g.id, g.speciality_id, g.year_id, g.name, g.code, g.capacity, g.is_active, g.created_at, g.updated_at,
(SELECT COUNT(*) FROM users u WHERE u.group_id = g.id AND u.role = 'student') AS student_count
%s ORDER BY g.name ASC LIMIT %d OFFSET %d`, base, size, offset)
	var groups []models.GroupDetail
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list groups: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count groups: %w", err)
	}
	return groups, total, nil
}

// FindByID loads a group by identifier.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	query := fmt.Sprintf("SELECT %s FROM groups WHERE id = $1", groupColumns)
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ExistsName checks name uniqueness within a speciality and year pair.
func (r *GroupRepository) ExistsName(ctx context.Context, specialityID, yearID, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM groups WHERE speciality_id = $1 AND year_id = $2 AND name = $3"
	args := []interface{}{specialityID, yearID, name}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check group name: %w", err)
	}
	return true, nil
}

// CountStudents returns how many students are assigned to the group.
func (r *GroupRepository) CountStudents(ctx context.Context, id string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM users WHERE group_id = $1 AND role = 'student'`, id); err != nil {
		return 0, fmt.Errorf("count group students: %w", err)
	}
	return count, nil
}

// Create inserts a new group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if group.CreatedAt.IsZero() {
		group.CreatedAt = now
	}
	group.UpdatedAt = now
	const query = `INSERT INTO groups (id, speciality_id, year_id, name, code, capacity, is_active, created_at, updated_at)
VALUES (:id, :speciality_id, :year_id, :name, :code, :capacity, :is_active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}

// Update modifies an existing group.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET speciality_id = :speciality_id, year_id = :year_id, name = :name, code = :code,
capacity = :capacity, is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return nil
}

// Delete removes a group permanently.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return nil
}
