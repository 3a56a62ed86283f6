package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

func newNoteRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func noteRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "module_id", "specialite_id", "uploader_id", "assigned_student_id", "title", "description",
		"filename", "stored_filename", "file_path", "mime_type", "file_size", "visibility", "download_count", "created_at", "updated_at",
	}).AddRow("n1", nil, nil, "admin-1", nil, "Règlement intérieur", nil,
		"reglement.pdf", "notes_1693000000_a1b2.pdf", "notes/notes_1693000000_a1b2.pdf", "application/pdf", 2048, "specialite", 5, now, now)
}

func TestNoteRepositoryListVisible(t *testing.T) {
	db, mock, cleanup := newNoteRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	now := time.Now()
	// The general branch only matches unscoped specialite notes; an
	// unscoped private or module note must stay invisible.
	mock.ExpectQuery(`n\.visibility = 'specialite' AND n\.module_id IS NULL AND n\.specialite_id IS NULL AND n\.assigned_student_id IS NULL`).
		WithArgs("u1").
		WillReturnRows(noteRows(now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notes n`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	notes, total, err := repo.ListVisible(context.Background(), "u1", models.NoteFilter{})
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.True(t, notes[0].IsGeneral())
	assert.Equal(t, 5, notes[0].DownloadCount)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryListVisibleAppliesFilters(t *testing.T) {
	db, mock, cleanup := newNoteRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	mock.ExpectQuery(`n\.module_id = \$2 AND n\.mime_type = 'application/pdf'`).
		WithArgs("u1", "m1").
		WillReturnRows(noteRows(time.Now()))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM notes n`).
		WithArgs("u1", "m1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	_, _, err := repo.ListVisible(context.Background(), "u1", models.NoteFilter{ModuleID: "m1", FileType: "pdf"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryFindByIDNotFound(t *testing.T) {
	db, mock, cleanup := newNoteRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	mock.ExpectQuery(`FROM notes WHERE id = \$1`).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestNoteRepositoryRecordDownload(t *testing.T) {
	db, mock, cleanup := newNoteRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO download_logs")).
		WithArgs(sqlmock.AnyArg(), "n1", "u1", sqlmock.AnyArg(), "10.0.0.8", "Mozilla/5.0").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notes SET download_count = download_count + 1 WHERE id = $1")).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	log := &models.DownloadLog{NoteID: "n1", StudentID: "u1", IPAddress: "10.0.0.8", UserAgent: "Mozilla/5.0"}
	err := repo.RecordDownload(context.Background(), log)
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.DownloadedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryRecordDownloadRollsBack(t *testing.T) {
	db, mock, cleanup := newNoteRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO download_logs")).
		WithArgs(sqlmock.AnyArg(), "n1", "u1", sqlmock.AnyArg(), "", "").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE notes SET download_count")).
		WithArgs("n1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := repo.RecordDownload(context.Background(), &models.DownloadLog{NoteID: "n1", StudentID: "u1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "increment download count")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryDeleteRemovesHistory(t *testing.T) {
	db, mock, cleanup := newNoteRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM download_logs WHERE note_id = $1")).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM notes WHERE id = $1")).
		WithArgs("n1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "n1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoteRepositoryListDownloadsByStudentClampsLimit(t *testing.T) {
	db, mock, cleanup := newNoteRepoMock(t)
	defer cleanup()
	repo := NewNoteRepository(db)

	mock.ExpectQuery(`FROM download_logs WHERE student_id = \$1 ORDER BY downloaded_at DESC LIMIT \$2`).
		WithArgs("u1", 20).
		WillReturnRows(sqlmock.NewRows([]string{"id", "note_id", "student_id", "downloaded_at", "ip_address", "user_agent"}))

	_, err := repo.ListDownloadsByStudent(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
