package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockAuthRepo struct {
	users         map[string]*models.User
	refreshTokens map[string]*models.RefreshToken
	resetTokens   map[string]*models.PasswordResetToken
	auditLogs     []models.AuditLog
	revokedAll    []string
	passwords     map[string]string
}

func newMockAuthRepo() *mockAuthRepo {
	return &mockAuthRepo{
		users:         map[string]*models.User{},
		refreshTokens: map[string]*models.RefreshToken{},
		resetTokens:   map[string]*models.PasswordResetToken{},
		passwords:     map[string]string{},
	}
}

func (m *mockAuthRepo) addUser(u *models.User) { m.users[u.ID] = u }

func (m *mockAuthRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) Update(ctx context.Context, user *models.User) error {
	cp := *user
	m.users[user.ID] = &cp
	return nil
}

func (m *mockAuthRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if u, ok := m.users[id]; ok {
		u.LastLogin = &ts
	}
	return nil
}

func (m *mockAuthRepo) UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error {
	m.passwords[id] = passwordHash
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
		u.MustChangePassword = mustChange
	}
	return nil
}

func (m *mockAuthRepo) RevokeUserRefreshTokens(ctx context.Context, userID string) error {
	m.revokedAll = append(m.revokedAll, userID)
	return nil
}

func (m *mockAuthRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	cp := *token
	m.refreshTokens[token.Token] = &cp
	return nil
}

func (m *mockAuthRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	if t, ok := m.refreshTokens[token]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	for _, t := range m.refreshTokens {
		if t.ID == id {
			t.Revoked = true
			t.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (m *mockAuthRepo) UpsertPasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	cp := *token
	m.resetTokens[token.Email] = &cp
	return nil
}

func (m *mockAuthRepo) FindPasswordResetToken(ctx context.Context, email string) (*models.PasswordResetToken, error) {
	if t, ok := m.resetTokens[email]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockAuthRepo) ConsumePasswordResetToken(ctx context.Context, email string, usedAt time.Time) error {
	if t, ok := m.resetTokens[email]; ok {
		t.UsedAt = &usedAt
	}
	return nil
}

func (m *mockAuthRepo) YearSummaryByID(ctx context.Context, id string) (*models.YearSummary, error) {
	return &models.YearSummary{ID: id, YearNumber: 2, Name: models.LocalizedText{Fr: "2ème année"}}, nil
}

func (m *mockAuthRepo) GroupSummaryByID(ctx context.Context, id string) (*models.GroupSummary, error) {
	return &models.GroupSummary{ID: id, Name: "Groupe A", Code: "ISP-A2-GA"}, nil
}

func (m *mockAuthRepo) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.auditLogs = append(m.auditLogs, *log)
	return nil
}

func newTestAuthService(repo *mockAuthRepo) *AuthService {
	return NewAuthService(repo, NewValidator(), nil, AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  time.Minute * 15,
		RefreshTokenExpiry: time.Hour * 24,
		ResetTokenExpiry:   time.Minute * 30,
		Issuer:             "ifpm-test",
	})
}

func mustHash(t *testing.T, password string) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func seedStudent(t *testing.T, repo *mockAuthRepo, password string) *models.User {
	t.Helper()
	yearID := "year-1"
	groupID := "group-1"
	user := &models.User{
		ID:           "u1",
		Name:         "Amine B",
		Email:        "amine@ifpm.dz",
		PasswordHash: mustHash(t, password),
		Role:         models.RoleStudent,
		Locale:       "fr",
		IsActive:     true,
		YearID:       &yearID,
		GroupID:      &groupID,
	}
	repo.addUser(user)
	return user
}

func TestAuthServiceLogin(t *testing.T) {
	repo := newMockAuthRepo()
	seedStudent(t, repo, "Passw0rd!")
	svc := newTestAuthService(repo)

	resp, err := svc.Login(context.Background(), models.LoginRequest{
		Email:    "amine@ifpm.dz",
		Password: "Passw0rd!",
		IP:       "10.0.0.1",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, int64(900), resp.ExpiresIn)
	assert.Equal(t, models.RoleStudent, resp.User.Role)
	require.NotNil(t, resp.User.Year)
	assert.Equal(t, 2, resp.User.Year.YearNumber)
	require.NotNil(t, resp.User.Group)
	assert.Equal(t, "ISP-A2-GA", resp.User.Group.Code)

	// The access token round-trips through ValidateToken.
	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "u1", claims.UserID)
	assert.Equal(t, models.RoleStudent, claims.Role)

	require.Len(t, repo.auditLogs, 1)
	assert.Equal(t, models.AuditActionLogin, repo.auditLogs[0].Action)
}

func TestAuthServiceLoginDoesNotRevealAccounts(t *testing.T) {
	repo := newMockAuthRepo()
	seedStudent(t, repo, "Passw0rd!")
	svc := newTestAuthService(repo)

	_, wrongPassword := svc.Login(context.Background(), models.LoginRequest{
		Email: "amine@ifpm.dz", Password: "nope",
	})
	_, unknownEmail := svc.Login(context.Background(), models.LoginRequest{
		Email: "ghost@ifpm.dz", Password: "nope",
	})

	require.Error(t, wrongPassword)
	require.Error(t, unknownEmail)
	assert.Equal(t, appErrors.FromError(wrongPassword).Code, appErrors.FromError(unknownEmail).Code)
	assert.Equal(t, appErrors.FromError(wrongPassword).Message, appErrors.FromError(unknownEmail).Message)
}

func TestAuthServiceLoginInactiveAccount(t *testing.T) {
	repo := newMockAuthRepo()
	user := seedStudent(t, repo, "Passw0rd!")
	user.IsActive = false
	svc := newTestAuthService(repo)

	_, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "amine@ifpm.dz", Password: "Passw0rd!",
	})
	require.Error(t, err)
	assert.Equal(t, "ACCOUNT_INACTIVE", appErrors.FromError(err).Code)
}

func TestAuthServiceRefreshTokenRotates(t *testing.T) {
	repo := newMockAuthRepo()
	seedStudent(t, repo, "Passw0rd!")
	svc := newTestAuthService(repo)

	login, err := svc.Login(context.Background(), models.LoginRequest{
		Email: "amine@ifpm.dz", Password: "Passw0rd!",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// The used token is revoked, a second exchange must fail.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{RefreshToken: login.RefreshToken})
	require.Error(t, err)
	assert.Equal(t, "UNAUTHENTICATED", appErrors.FromError(err).Code)
}

func TestAuthServiceChangePassword(t *testing.T) {
	repo := newMockAuthRepo()
	seedStudent(t, repo, "Passw0rd!")
	svc := newTestAuthService(repo)

	err := svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "wrong",
		NewPassword: "NewPassw0rd!",
	})
	require.Error(t, err)
	assert.Equal(t, "INVALID_CREDENTIALS", appErrors.FromError(err).Code)

	// Weak replacement is rejected by the password rule.
	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "Passw0rd!",
		NewPassword: "short",
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)

	err = svc.ChangePassword(context.Background(), "u1", models.ChangePasswordRequest{
		OldPassword: "Passw0rd!",
		NewPassword: "NewPassw0rd!",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "u1")
	assert.False(t, repo.users["u1"].MustChangePassword)
}

func TestAuthServiceForgotPasswordUnknownEmailSilent(t *testing.T) {
	repo := newMockAuthRepo()
	svc := newTestAuthService(repo)

	plain, err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "ghost@ifpm.dz"})
	require.NoError(t, err)
	assert.Empty(t, plain)
	assert.Empty(t, repo.resetTokens)
}

func TestAuthServiceResetPasswordFlow(t *testing.T) {
	repo := newMockAuthRepo()
	seedStudent(t, repo, "Passw0rd!")
	svc := newTestAuthService(repo)

	plain, err := svc.ForgotPassword(context.Background(), models.ForgotPasswordRequest{Email: "amine@ifpm.dz"})
	require.NoError(t, err)
	require.NotEmpty(t, plain)
	// Only the hash is stored.
	assert.NotEqual(t, plain, repo.resetTokens["amine@ifpm.dz"].TokenHash)

	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Token: "tampered", Email: "amine@ifpm.dz", NewPassword: "NewPassw0rd!",
	})
	require.Error(t, err)

	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Token: plain, Email: "amine@ifpm.dz", NewPassword: "NewPassw0rd!",
	})
	require.NoError(t, err)
	assert.Contains(t, repo.revokedAll, "u1")
	require.NotNil(t, repo.resetTokens["amine@ifpm.dz"].UsedAt)

	// A consumed token cannot be replayed.
	err = svc.ResetPassword(context.Background(), models.ResetPasswordRequest{
		Token: plain, Email: "amine@ifpm.dz", NewPassword: "OtherPassw0rd1!",
	})
	require.Error(t, err)
}

func TestAuthServiceUpdateProfile(t *testing.T) {
	repo := newMockAuthRepo()
	seedStudent(t, repo, "Passw0rd!")
	svc := newTestAuthService(repo)

	info, err := svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Name: "Amine Benali", Locale: "ar"})
	require.NoError(t, err)
	assert.Equal(t, "Amine Benali", info.Name)
	assert.Equal(t, "ar", info.Locale)

	_, err = svc.UpdateProfile(context.Background(), "u1", UpdateProfileRequest{Name: "X"})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestAuthServiceValidateTokenRejectsForgedToken(t *testing.T) {
	repo := newMockAuthRepo()
	seedStudent(t, repo, "Passw0rd!")
	svc := newTestAuthService(repo)

	other := NewAuthService(repo, NewValidator(), nil, AuthConfig{
		AccessTokenSecret: "other-secret",
		AccessTokenExpiry: time.Minute,
	})
	login, err := other.Login(context.Background(), models.LoginRequest{
		Email: "amine@ifpm.dz", Password: "Passw0rd!",
	})
	require.NoError(t, err)

	_, err = svc.ValidateToken(login.AccessToken)
	require.Error(t, err)
}
