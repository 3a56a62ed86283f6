package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
)

func newUserRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func userRows(now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "password_hash", "role", "locale", "must_change_password", "is_active",
		"year_id", "filiere_id", "speciality_id", "group_id", "student_number", "last_login", "created_at", "updated_at",
	}).AddRow("u1", "Amine Benali", "amine@ifpm.dz", "$2a$10$hash", "student", "fr", false, true,
		"y1", nil, "sp1", "g1", "IFPM-001", nil, now, now)
}

func TestUserRepositoryFindByEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(`FROM users WHERE email = \$1 LIMIT 1`).
		WithArgs("amine@ifpm.dz").
		WillReturnRows(userRows(time.Now()))

	user, err := repo.FindByEmail(context.Background(), "amine@ifpm.dz")
	require.NoError(t, err)
	assert.Equal(t, models.RoleStudent, user.Role)
	require.NotNil(t, user.StudentNumber)
	assert.Equal(t, "IFPM-001", *user.StudentNumber)
	assert.Nil(t, user.LastLogin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryExistsEmail(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 LIMIT 1")).
		WithArgs("amine@ifpm.dz").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsEmail(context.Background(), "amine@ifpm.dz", "")
	require.NoError(t, err)
	assert.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM users WHERE email = $1 AND id <> $2 LIMIT 1")).
		WithArgs("amine@ifpm.dz", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsEmail(context.Background(), "amine@ifpm.dz", "u1")
	require.NoError(t, err)
	assert.False(t, exists, "the account's own email is not a conflict")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryCreateAuditLog(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO audit_logs")).
		WithArgs(sqlmock.AnyArg(), "u1", "LOGIN", "auth", nil, nil, "10.0.0.8", "Mozilla/5.0", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	userID := "u1"
	log := &models.AuditLog{
		UserID:    &userID,
		Action:    "LOGIN",
		Resource:  "auth",
		IPAddress: "10.0.0.8",
		UserAgent: "Mozilla/5.0",
	}
	err := repo.CreateAuditLog(context.Background(), log)
	require.NoError(t, err)
	assert.NotEmpty(t, log.ID)
	assert.False(t, log.CreatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryListAuditLogs(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "action", "resource", "resource_id", "new_values", "ip_address", "user_agent", "created_at"}).
		AddRow("a1", "u1", "CREATE", "notes", "n1", []byte(`{"title":"Cours"}`), "10.0.0.8", "Mozilla/5.0", now)

	mock.ExpectQuery(`FROM audit_logs WHERE 1=1 AND user_id = \$1 AND action = \$2 ORDER BY created_at DESC`).
		WithArgs("u1", "CREATE").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_logs WHERE 1=1 AND user_id = \$1 AND action = \$2`).
		WithArgs("u1", "CREATE").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	logs, total, err := repo.ListAuditLogs(context.Background(), models.AuditLogFilter{UserID: "u1", Action: "CREATE"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "notes", logs[0].Resource)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpdatePassword(t *testing.T) {
	db, mock, cleanup := newUserRepoMock(t)
	defer cleanup()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE users SET password_hash = $2, must_change_password = $3")).
		WithArgs("u1", "$2a$10$newhash", true, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePassword(context.Background(), "u1", "$2a$10$newhash", true)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
