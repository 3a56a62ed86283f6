package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/export"
)

type studentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsEmail(ctx context.Context, email, excludeID string) (bool, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Deactivate(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, passwordHash string, mustChange bool) error
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	YearSummaryByID(ctx context.Context, id string) (*models.YearSummary, error)
	GroupSummaryByID(ctx context.Context, id string) (*models.GroupSummary, error)
}

type studentModuleRepository interface {
	FindByID(ctx context.Context, id string) (*models.Module, error)
	ReplaceEnrollments(ctx context.Context, studentID string, moduleIDs []string) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Module, error)
}

type studentDownloadReader interface {
	ListDownloadsByStudent(ctx context.Context, studentID string, limit int) ([]models.DownloadLog, error)
}

// CreateStudentRequest captures the admin student creation payload. The
// initial password is generated server side and returned exactly once.
type CreateStudentRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=150"`
	Email         string  `json:"email" validate:"required,email"`
	Locale        string  `json:"locale" validate:"omitempty,oneof=fr ar en"`
	YearID        *string `json:"year_id" validate:"omitempty,uuid4"`
	FiliereID     *string `json:"filiere_id" validate:"omitempty,uuid4"`
	SpecialityID  *string `json:"speciality_id" validate:"omitempty,uuid4"`
	GroupID       *string `json:"group_id" validate:"omitempty,uuid4"`
	StudentNumber *string `json:"student_number"`
}

// UpdateStudentRequest captures the admin student update payload.
type UpdateStudentRequest struct {
	Name          string  `json:"name" validate:"required,min=2,max=150"`
	Email         string  `json:"email" validate:"required,email"`
	Locale        string  `json:"locale" validate:"omitempty,oneof=fr ar en"`
	IsActive      *bool   `json:"is_active"`
	YearID        *string `json:"year_id" validate:"omitempty,uuid4"`
	FiliereID     *string `json:"filiere_id" validate:"omitempty,uuid4"`
	SpecialityID  *string `json:"speciality_id" validate:"omitempty,uuid4"`
	GroupID       *string `json:"group_id" validate:"omitempty,uuid4"`
	StudentNumber *string `json:"student_number"`
}

// CreatedStudent pairs a new account with its one-time generated password.
type CreatedStudent struct {
	User     *models.User `json:"user"`
	Password string       `json:"password"`
}

// StudentProfile is the admin detail view of one student.
type StudentProfile struct {
	User    *models.User         `json:"user"`
	Year    *models.YearSummary  `json:"year,omitempty"`
	Group   *models.GroupSummary `json:"group,omitempty"`
	Modules []models.Module      `json:"modules"`
}

// RosterExport carries a rendered roster document.
type RosterExport struct {
	Filename    string
	ContentType string
	Data        []byte
}

// StudentService manages student accounts on behalf of administrators.
type StudentService struct {
	users     studentUserRepository
	modules   studentModuleRepository
	downloads studentDownloadReader
	csv       *export.CSVExporter
	pdf       *export.PDFExporter
	validator *validator.Validate
}

// NewStudentService constructs StudentService.
func NewStudentService(users studentUserRepository, modules studentModuleRepository, downloads studentDownloadReader, validate *validator.Validate) *StudentService {
	if validate == nil {
		validate = NewValidator()
	}
	return &StudentService{
		users:     users,
		modules:   modules,
		downloads: downloads,
		csv:       export.NewCSVExporter(),
		pdf:       export.NewPDFExporter(),
		validator: validate,
	}
}

// List returns a filtered page of student accounts.
func (s *StudentService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	role := models.RoleStudent
	filter.Role = &role
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}
	return users, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one student with year, group and enrolled modules attached.
func (s *StudentService) Get(ctx context.Context, id string) (*StudentProfile, error) {
	user, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	profile := &StudentProfile{User: user, Modules: []models.Module{}}
	if user.YearID != nil {
		if year, err := s.users.YearSummaryByID(ctx, *user.YearID); err == nil {
			profile.Year = year
		}
	}
	if user.GroupID != nil {
		if group, err := s.users.GroupSummaryByID(ctx, *user.GroupID); err == nil {
			profile.Group = group
		}
	}
	modules, err := s.modules.ListByStudent(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollments")
	}
	profile.Modules = modules
	return profile, nil
}

// Create registers a student with a generated temporary password. The account
// is forced through a password change on first login.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*CreatedStudent, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.users.ExistsEmail(ctx, email, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
	}
	if taken {
		return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
	}

	password, err := generatePassword()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	locale := req.Locale
	if locale == "" {
		locale = "fr"
	}
	user := &models.User{
		Name:               strings.TrimSpace(req.Name),
		Email:              email,
		PasswordHash:       string(hash),
		Role:               models.RoleStudent,
		Locale:             locale,
		MustChangePassword: true,
		IsActive:           true,
		YearID:             req.YearID,
		FiliereID:          req.FiliereID,
		SpecialityID:       req.SpecialityID,
		GroupID:            req.GroupID,
		StudentNumber:      req.StudentNumber,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return &CreatedStudent{User: user, Password: password}, nil
}

// Update modifies a student account.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid student payload")
	}

	user, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email != user.Email {
		taken, err := s.users.ExistsEmail(ctx, email, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check email")
		}
		if taken {
			return nil, appErrors.Clone(appErrors.ErrConflict, "an account with this email already exists")
		}
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = email
	if req.Locale != "" {
		user.Locale = req.Locale
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.YearID = req.YearID
	user.FiliereID = req.FiliereID
	user.SpecialityID = req.SpecialityID
	user.GroupID = req.GroupID
	user.StudentNumber = req.StudentNumber
	if err := s.users.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return user, nil
}

// Deactivate soft-deletes a student and revokes every open session. Download
// history is retained.
func (s *StudentService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.findStudent(ctx, id); err != nil {
		return err
	}
	if err := s.users.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate student")
	}
	if err := s.users.RevokeUserRefreshTokens(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke sessions")
	}
	return nil
}

// ResetPassword issues a fresh temporary password and revokes open sessions.
func (s *StudentService) ResetPassword(ctx context.Context, id string) (*CreatedStudent, error) {
	user, err := s.findStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	password, err := generatePassword()
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate password")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}
	if err := s.users.UpdatePassword(ctx, id, string(hash), true); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reset password")
	}
	if err := s.users.RevokeUserRefreshTokens(ctx, id); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revoke sessions")
	}
	return &CreatedStudent{User: user, Password: password}, nil
}

// AssignModules replaces the student's module enrollments.
func (s *StudentService) AssignModules(ctx context.Context, id string, moduleIDs []string) error {
	if _, err := s.findStudent(ctx, id); err != nil {
		return err
	}
	for _, moduleID := range moduleIDs {
		if _, err := s.modules.FindByID(ctx, moduleID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("module %s not found", moduleID))
			}
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check module")
		}
	}
	if err := s.modules.ReplaceEnrollments(ctx, id, moduleIDs); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign modules")
	}
	return nil
}

// Activity returns the student's recent note downloads.
func (s *StudentService) Activity(ctx context.Context, id string, limit int) ([]models.DownloadLog, error) {
	if _, err := s.findStudent(ctx, id); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	logs, err := s.downloads.ListDownloadsByStudent(ctx, id, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return logs, nil
}

// ExportRoster renders the filtered student roster as CSV or PDF.
func (s *StudentService) ExportRoster(ctx context.Context, filter models.UserFilter, format string) (*RosterExport, error) {
	role := models.RoleStudent
	filter.Role = &role
	filter.Page = 1
	filter.PageSize = 10000
	users, _, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
	}

	dataset := export.Dataset{
		Headers: []string{"Matricule", "Nom", "Email", "Statut", "Dernière connexion", "Créé le"},
	}
	for _, user := range users {
		number := ""
		if user.StudentNumber != nil {
			number = *user.StudentNumber
		}
		status := "Actif"
		if !user.IsActive {
			status = "Inactif"
		}
		lastLogin := ""
		if user.LastLogin != nil {
			lastLogin = user.LastLogin.Format("02/01/2006 15:04")
		}
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Matricule":          number,
			"Nom":                user.Name,
			"Email":              user.Email,
			"Statut":             status,
			"Dernière connexion": lastLogin,
			"Créé le":            user.CreatedAt.Format("02/01/2006"),
		})
	}

	stamp := time.Now().UTC().Format("20060102")
	switch format {
	case "pdf":
		data, err := s.pdf.Render(dataset, "Liste des étudiants")
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
		}
		return &RosterExport{
			Filename:    fmt.Sprintf("etudiants_%s.pdf", stamp),
			ContentType: "application/pdf",
			Data:        data,
		}, nil
	case "", "csv":
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster")
		}
		return &RosterExport{
			Filename:    fmt.Sprintf("etudiants_%s.csv", stamp),
			ContentType: "text/csv",
			Data:        data,
		}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "export format must be csv or pdf")
	}
}

func (s *StudentService) findStudent(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if user.Role != models.RoleStudent {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return user, nil
}

const (
	passwordLength  = 12
	passwordUpper   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	passwordLower   = "abcdefghijkmnpqrstuvwxyz"
	passwordDigits  = "23456789"
	passwordSymbols = "!@#$%&*"
)

// generatePassword builds a random temporary password that satisfies the
// password validation rule.
func generatePassword() (string, error) {
	charset := passwordUpper + passwordLower + passwordDigits + passwordSymbols
	chars := make([]byte, passwordLength)
	for i, pool := range []string{passwordUpper, passwordLower, passwordDigits, passwordSymbols} {
		c, err := randomChar(pool)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}
	for i := 4; i < passwordLength; i++ {
		c, err := randomChar(charset)
		if err != nil {
			return "", err
		}
		chars[i] = c
	}
	for i := len(chars) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		j := int(n.Int64())
		chars[i], chars[j] = chars[j], chars[i]
	}
	return string(chars), nil
}

func randomChar(pool string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(pool))))
	if err != nil {
		return 0, fmt.Errorf("read random: %w", err)
	}
	return pool[n.Int64()], nil
}
