package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

// DashboardRepository aggregates cross-table counts for the admin and
// student dashboards.
type DashboardRepository struct {
	db *sqlx.DB
}

// NewDashboardRepository creates the repository.
func NewDashboardRepository(db *sqlx.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// AdminCounts collects the admin home-screen counters in one round trip.
func (r *DashboardRepository) AdminCounts(ctx context.Context) (*models.AdminDashboard, error) {
	const query = `SELECT
(SELECT COUNT(*) FROM users WHERE role = 'student') AS total_students,
(SELECT COUNT(*) FROM users WHERE role = 'student' AND is_active = TRUE) AS active_students,
(SELECT COUNT(*) FROM filieres) AS total_filieres,
(SELECT COUNT(*) FROM specialities) AS total_specialities,
(SELECT COUNT(*) FROM modules) AS total_modules,
(SELECT COUNT(*) FROM notes) AS total_notes,
(SELECT COUNT(*) FROM download_logs) AS total_downloads,
(SELECT COUNT(*) FROM plannings WHERE is_published = TRUE) AS published_plannings`
	var dashboard models.AdminDashboard
	if err := r.db.GetContext(ctx, &dashboard, query); err != nil {
		return nil, fmt.Errorf("admin dashboard counts: %w", err)
	}
	return &dashboard, nil
}

// DownloadSeries buckets download events per day over the last n days.
func (r *DashboardRepository) DownloadSeries(ctx context.Context, days int) ([]models.DownloadPoint, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	const query = `SELECT date_trunc('day', downloaded_at) AS day, COUNT(*) AS count
FROM download_logs WHERE downloaded_at >= NOW() - ($1 || ' days')::interval
GROUP BY day ORDER BY day ASC`
	var points []models.DownloadPoint
	if err := r.db.SelectContext(ctx, &points, query, days); err != nil {
		return nil, fmt.Errorf("download series: %w", err)
	}
	return points, nil
}

// TopNotes ranks notes by download count.
func (r *DashboardRepository) TopNotes(ctx context.Context, limit int) ([]models.TopNote, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	const query = `SELECT id AS note_id, title, download_count FROM notes
ORDER BY download_count DESC, created_at DESC LIMIT $1`
	var notes []models.TopNote
	if err := r.db.SelectContext(ctx, &notes, query, limit); err != nil {
		return nil, fmt.Errorf("top notes: %w", err)
	}
	return notes, nil
}

// CountVisibleNotes counts the notes a student may read, using the same
// visibility terms as the student listing.
func (r *DashboardRepository) CountVisibleNotes(ctx context.Context, studentID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notes n WHERE (
(n.module_id IS NULL AND n.specialite_id IS NULL AND n.assigned_student_id IS NULL)
OR n.assigned_student_id = $1
OR (n.visibility = 'module' AND n.module_id IN (SELECT e.module_id FROM enrollments e WHERE e.student_id = $1))
OR (n.visibility = 'specialite' AND n.specialite_id IN (
SELECT DISTINCT m.specialite_id FROM modules m JOIN enrollments e ON e.module_id = m.id WHERE e.student_id = $1))
)`
	var count int
	if err := r.db.GetContext(ctx, &count, query, studentID); err != nil {
		return 0, fmt.Errorf("count visible notes: %w", err)
	}
	return count, nil
}
