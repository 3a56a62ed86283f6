package service

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockStudentUsers struct {
	items       map[string]*models.User
	nextID      int
	deactivated []string
	revoked     []string
	passwords   map[string]string
}

func newMockStudentUsers() *mockStudentUsers {
	return &mockStudentUsers{items: map[string]*models.User{}, passwords: map[string]string{}}
}

func (m *mockStudentUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.items[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentUsers) ExistsEmail(ctx context.Context, email, excludeID string) (bool, error) {
	for _, u := range m.items {
		if u.Email == email && u.ID != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockStudentUsers) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	out := []models.User{}
	for _, u := range m.items {
		if filter.Role != nil && u.Role != *filter.Role {
			continue
		}
		out = append(out, *u)
	}
	return out, len(out), nil
}

func (m *mockStudentUsers) Create(ctx context.Context, user *models.User) error {
	m.nextID++
	if user.ID == "" {
		user.ID = "u-" + strconv.Itoa(m.nextID)
	}
	cp := *user
	m.items[user.ID] = &cp
	return nil
}

func (m *mockStudentUsers) Update(ctx context.Context, user *models.User) error {
	cp := *user
	m.items[user.ID] = &cp
	return nil
}

func (m *mockStudentUsers) Deactivate(ctx context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	if u, ok := m.items[id]; ok {
		u.IsActive = false
	}
	return nil
}

func (m *mockStudentUsers) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	m.passwords[id] = passwordHash
	if u, ok := m.items[id]; ok {
		u.PasswordHash = passwordHash
		u.MustChangePassword = mustChange
	}
	return nil
}

func (m *mockStudentUsers) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revoked = append(m.revoked, userID)
	return nil
}

func (m *mockStudentUsers) YearSummaryByID(ctx context.Context, id string) (*models.YearSummary, error) {
	return &models.YearSummary{ID: id, YearNumber: 1}, nil
}

func (m *mockStudentUsers) GroupSummaryByID(ctx context.Context, id string) (*models.GroupSummary, error) {
	return &models.GroupSummary{ID: id, Name: "A"}, nil
}

type mockStudentModules struct {
	known       map[string]bool
	enrollments map[string][]string
}

func (m *mockStudentModules) FindByID(ctx context.Context, id string) (*models.Module, error) {
	if m.known[id] {
		return &models.Module{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentModules) ReplaceEnrollments(ctx context.Context, studentID string, moduleIDs []string) error {
	if m.enrollments == nil {
		m.enrollments = map[string][]string{}
	}
	m.enrollments[studentID] = moduleIDs
	return nil
}

func (m *mockStudentModules) ListByStudent(ctx context.Context, studentID string) ([]models.Module, error) {
	out := []models.Module{}
	for _, id := range m.enrollments[studentID] {
		out = append(out, models.Module{ID: id})
	}
	return out, nil
}

type mockDownloadReader struct{ logs []models.DownloadLog }

func (m *mockDownloadReader) ListDownloadsByStudent(ctx context.Context, studentID string, limit int) ([]models.DownloadLog, error) {
	if limit < len(m.logs) {
		return m.logs[:limit], nil
	}
	return m.logs, nil
}

func newTestStudentService(users *mockStudentUsers, modules *mockStudentModules) *StudentService {
	if modules == nil {
		modules = &mockStudentModules{known: map[string]bool{}}
	}
	return NewStudentService(users, modules, &mockDownloadReader{}, NewValidator())
}

func TestStudentServiceCreate(t *testing.T) {
	users := newMockStudentUsers()
	svc := newTestStudentService(users, nil)

	created, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:  "Amine Benali",
		Email: "  Amine@IFPM.dz ",
	})
	require.NoError(t, err)
	assert.Equal(t, "amine@ifpm.dz", created.User.Email)
	assert.Equal(t, models.RoleStudent, created.User.Role)
	assert.Equal(t, "fr", created.User.Locale)
	assert.True(t, created.User.IsActive)
	assert.True(t, created.User.MustChangePassword)

	// The returned one-time password matches the stored hash.
	require.NotEmpty(t, created.Password)
	err = bcrypt.CompareHashAndPassword([]byte(users.items[created.User.ID].PasswordHash), []byte(created.Password))
	assert.NoError(t, err)
}

func TestStudentServiceCreateDuplicateEmail(t *testing.T) {
	users := newMockStudentUsers()
	users.items["u1"] = &models.User{ID: "u1", Email: "amine@ifpm.dz", Role: models.RoleStudent}
	svc := newTestStudentService(users, nil)

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		Name:  "Amine Benali",
		Email: "amine@ifpm.dz",
	})
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", appErrors.FromError(err).Code)
}

func TestStudentServiceGetRejectsAdmins(t *testing.T) {
	users := newMockStudentUsers()
	users.items["a1"] = &models.User{ID: "a1", Email: "admin@ifpm.dz", Role: models.RoleAdmin}
	svc := newTestStudentService(users, nil)

	_, err := svc.Get(context.Background(), "a1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestStudentServiceDeactivateRevokesSessions(t *testing.T) {
	users := newMockStudentUsers()
	users.items["u1"] = &models.User{ID: "u1", Role: models.RoleStudent, IsActive: true}
	svc := newTestStudentService(users, nil)

	require.NoError(t, svc.Deactivate(context.Background(), "u1"))
	assert.Equal(t, []string{"u1"}, users.deactivated)
	assert.Equal(t, []string{"u1"}, users.revoked)
}

func TestStudentServiceResetPassword(t *testing.T) {
	users := newMockStudentUsers()
	users.items["u1"] = &models.User{ID: "u1", Role: models.RoleStudent}
	svc := newTestStudentService(users, nil)

	created, err := svc.ResetPassword(context.Background(), "u1")
	require.NoError(t, err)
	require.NotEmpty(t, created.Password)
	assert.True(t, users.items["u1"].MustChangePassword)
	assert.Contains(t, users.revoked, "u1")
}

func TestStudentServiceAssignModulesUnknownModule(t *testing.T) {
	users := newMockStudentUsers()
	users.items["u1"] = &models.User{ID: "u1", Role: models.RoleStudent}
	modules := &mockStudentModules{known: map[string]bool{"m1": true}}
	svc := newTestStudentService(users, modules)

	err := svc.AssignModules(context.Background(), "u1", []string{"m1", "ghost"})
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
	assert.Empty(t, modules.enrollments)

	require.NoError(t, svc.AssignModules(context.Background(), "u1", []string{"m1"}))
	assert.Equal(t, []string{"m1"}, modules.enrollments["u1"])
}

func TestStudentServiceExportRoster(t *testing.T) {
	users := newMockStudentUsers()
	number := "IFPM-001"
	lastLogin := time.Date(2026, 5, 10, 9, 30, 0, 0, time.UTC)
	users.items["u1"] = &models.User{
		ID:            "u1",
		Name:          "Amine Benali",
		Email:         "amine@ifpm.dz",
		Role:          models.RoleStudent,
		IsActive:      true,
		StudentNumber: &number,
		LastLogin:     &lastLogin,
		CreatedAt:     time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC),
	}
	svc := newTestStudentService(users, nil)

	out, err := svc.ExportRoster(context.Background(), models.UserFilter{}, "csv")
	require.NoError(t, err)
	assert.Equal(t, "text/csv", out.ContentType)
	assert.True(t, strings.HasPrefix(out.Filename, "etudiants_"))
	body := string(out.Data)
	assert.Contains(t, body, "Matricule,Nom,Email")
	assert.Contains(t, body, "IFPM-001,Amine Benali,amine@ifpm.dz,Actif,10/05/2026 09:30,01/09/2025")

	pdfOut, err := svc.ExportRoster(context.Background(), models.UserFilter{}, "pdf")
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", pdfOut.ContentType)
	assert.True(t, strings.HasPrefix(string(pdfOut.Data), "%PDF"))

	_, err = svc.ExportRoster(context.Background(), models.UserFilter{}, "xlsx")
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestGeneratePasswordSatisfiesPolicy(t *testing.T) {
	validate := NewValidator()
	type payload struct {
		Password string `validate:"required,password"`
	}
	for i := 0; i < 20; i++ {
		password, err := generatePassword()
		require.NoError(t, err)
		assert.Len(t, password, passwordLength)
		assert.NoError(t, validate.Struct(payload{Password: password}), "password %q", password)
	}
}
