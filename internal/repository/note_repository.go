package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

const noteColumns = `id, module_id, specialite_id, uploader_id, assigned_student_id, title, description,
filename, stored_filename, file_path, mime_type, file_size, visibility, download_count, created_at, updated_at`

// NoteRepository provides persistence for course notes and their download
// history.
type NoteRepository struct {
	db *sqlx.DB
}

// NewNoteRepository creates the repository.
func NewNoteRepository(db *sqlx.DB) *NoteRepository {
	return &NoteRepository{db: db}
}

func appendNoteFilter(base string, filter models.NoteFilter, args []interface{}) (string, []interface{}) {
	var conditions []string
	if filter.ModuleID != "" {
		conditions = append(conditions, fmt.Sprintf("n.module_id = $%d", len(args)+1))
		args = append(args, filter.ModuleID)
	}
	if filter.SpecialityID != "" {
		conditions = append(conditions, fmt.Sprintf("n.specialite_id = $%d", len(args)+1))
		args = append(args, filter.SpecialityID)
	}
	switch filter.FileType {
	case "pdf":
		conditions = append(conditions, "n.mime_type = 'application/pdf'")
	case "image":
		conditions = append(conditions, "n.mime_type LIKE 'image/%'")
	}
	if filter.GeneralOnly {
		conditions = append(conditions, "n.visibility = 'specialite' AND n.module_id IS NULL AND n.specialite_id IS NULL AND n.assigned_student_id IS NULL")
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(n.title ILIKE $%d OR n.description ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}
	return base, args
}

func notePageBounds(filter models.NoteFilter) (size, offset int) {
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size = filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return size, (page - 1) * size
}

// List returns notes for the admin listing, newest first.
func (r *NoteRepository) List(ctx context.Context, filter models.NoteFilter) ([]models.Note, int, error) {
	base := "FROM notes n WHERE 1=1"
	var args []interface{}
	base, args = appendNoteFilter(base, filter, args)
	size, offset := notePageBounds(filter)

	query := fmt.Sprintf("SELECT %s %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d",
		prefixColumns(noteColumns, "n"), base, size, offset)
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list notes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count notes: %w", err)
	}
	return notes, total, nil
}

// ListVisible returns the notes a student may read. A note is visible when it
// is general, personally assigned to the student, scoped to a module the
// student is enrolled in, or scoped to a speciality of an enrolled module.
func (r *NoteRepository) ListVisible(ctx context.Context, studentID string, filter models.NoteFilter) ([]models.Note, int, error) {
	base := `FROM notes n WHERE (
(n.visibility = 'specialite' AND n.module_id IS NULL AND n.specialite_id IS NULL AND n.assigned_student_id IS NULL)
OR n.assigned_student_id = $1
OR (n.visibility = 'module' AND n.module_id IN (SELECT e.module_id FROM enrollments e WHERE e.student_id = $1))
OR (n.visibility = 'specialite' AND n.specialite_id IN (
SELECT DISTINCT m.specialite_id FROM modules m JOIN enrollments e ON e.module_id = m.id WHERE e.student_id = $1))
)`
	args := []interface{}{studentID}
	base, args = appendNoteFilter(base, filter, args)
	size, offset := notePageBounds(filter)

	query := fmt.Sprintf("SELECT %s %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d",
		prefixColumns(noteColumns, "n"), base, size, offset)
	var notes []models.Note
	if err := r.db.SelectContext(ctx, &notes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list visible notes: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, fmt.Sprintf("SELECT COUNT(*) %s", base), args...); err != nil {
		return nil, 0, fmt.Errorf("count visible notes: %w", err)
	}
	return notes, total, nil
}

// FindByID loads a note by identifier.
func (r *NoteRepository) FindByID(ctx context.Context, id string) (*models.Note, error) {
	query := fmt.Sprintf("SELECT %s FROM notes WHERE id = $1", noteColumns)
	var note models.Note
	if err := r.db.GetContext(ctx, &note, query, id); err != nil {
		return nil, err
	}
	return &note, nil
}

// Create inserts a new note.
func (r *NoteRepository) Create(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if note.CreatedAt.IsZero() {
		note.CreatedAt = now
	}
	note.UpdatedAt = now
	const query = `INSERT INTO notes (id, module_id, specialite_id, uploader_id, assigned_student_id, title, description,
filename, stored_filename, file_path, mime_type, file_size, visibility, download_count, created_at, updated_at)
VALUES (:id, :module_id, :specialite_id, :uploader_id, :assigned_student_id, :title, :description,
:filename, :stored_filename, :file_path, :mime_type, :file_size, :visibility, :download_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}
	return nil
}

// Update modifies note metadata and, when re-uploaded, its file fields.
func (r *NoteRepository) Update(ctx context.Context, note *models.Note) error {
	note.UpdatedAt = time.Now().UTC()
	const query = `UPDATE notes SET module_id = :module_id, specialite_id = :specialite_id, assigned_student_id = :assigned_student_id,
title = :title, description = :description, filename = :filename, stored_filename = :stored_filename, file_path = :file_path,
mime_type = :mime_type, file_size = :file_size, visibility = :visibility, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, note); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// Delete removes a note and its download history.
func (r *NoteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete note: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM download_logs WHERE note_id = $1`, id); err != nil {
		return fmt.Errorf("delete note download logs: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM notes WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete note: %w", err)
	}
	return nil
}

// RecordDownload appends one download log row and bumps the counter in a
// single transaction. Nothing is written when either statement fails.
func (r *NoteRepository) RecordDownload(ctx context.Context, log *models.DownloadLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.DownloadedAt.IsZero() {
		log.DownloadedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record download: %w", err)
	}
	defer tx.Rollback()

	const insert = `INSERT INTO download_logs (id, note_id, student_id, downloaded_at, ip_address, user_agent)
VALUES (:id, :note_id, :student_id, :downloaded_at, :ip_address, :user_agent)`
	if _, err := tx.NamedExecContext(ctx, insert, log); err != nil {
		return fmt.Errorf("insert download log: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`UPDATE notes SET download_count = download_count + 1 WHERE id = $1`, log.NoteID); err != nil {
		return fmt.Errorf("increment download count: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit record download: %w", err)
	}
	return nil
}

// Stats summarises download activity for one note.
func (r *NoteRepository) Stats(ctx context.Context, noteID string) (*models.NoteStats, error) {
	const query = `SELECT n.id AS note_id, n.download_count,
COALESCE((SELECT COUNT(DISTINCT dl.student_id) FROM download_logs dl WHERE dl.note_id = n.id), 0) AS unique_downloads,
(SELECT MAX(dl.downloaded_at) FROM download_logs dl WHERE dl.note_id = n.id) AS last_download_at
FROM notes n WHERE n.id = $1`
	var stats models.NoteStats
	if err := r.db.GetContext(ctx, &stats, query, noteID); err != nil {
		return nil, err
	}
	return &stats, nil
}

// ListDownloadsByStudent returns a student's recent download history.
func (r *NoteRepository) ListDownloadsByStudent(ctx context.Context, studentID string, limit int) ([]models.DownloadLog, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	var logs []models.DownloadLog
	const query = `SELECT id, note_id, student_id, downloaded_at, ip_address, user_agent
FROM download_logs WHERE student_id = $1 ORDER BY downloaded_at DESC LIMIT $2`
	if err := r.db.SelectContext(ctx, &logs, query, studentID, limit); err != nil {
		return nil, fmt.Errorf("list student downloads: %w", err)
	}
	return logs, nil
}

// prefixColumns qualifies a comma separated column list with a table alias.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}
