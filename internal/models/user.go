package models

import "time"

// UserRole represents the two account roles.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

// User represents an account stored in the users table. Student-only fields
// are nullable and unset for admins.
type User struct {
	ID                 string     `db:"id" json:"id"`
	Name               string     `db:"name" json:"name"`
	Email              string     `db:"email" json:"email"`
	PasswordHash       string     `db:"password_hash" json:"-"`
	Role               UserRole   `db:"role" json:"role"`
	Locale             string     `db:"locale" json:"locale"`
	MustChangePassword bool       `db:"must_change_password" json:"must_change_password"`
	IsActive           bool       `db:"is_active" json:"is_active"`
	YearID             *string    `db:"year_id" json:"year_id,omitempty"`
	FiliereID          *string    `db:"filiere_id" json:"filiere_id,omitempty"`
	SpecialityID       *string    `db:"speciality_id" json:"speciality_id,omitempty"`
	GroupID            *string    `db:"group_id" json:"group_id,omitempty"`
	StudentNumber      *string    `db:"student_number" json:"student_number,omitempty"`
	LastLogin          *time.Time `db:"last_login" json:"last_login,omitempty"`
	CreatedAt          time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updated_at"`
}

// UserFilter captures filtering criteria for listing students.
type UserFilter struct {
	Role         *UserRole
	IsActive     *bool
	SpecialityID string
	YearID       string
	GroupID      string
	Search       string
	Page         int
	PageSize     int
	SortBy       string
	SortOrder    string
}

// YearSummary is the denormalized year payload attached to student profiles.
type YearSummary struct {
	ID         string        `db:"id" json:"id"`
	YearNumber int           `db:"year_number" json:"year_number"`
	Name       LocalizedText `db:"name" json:"name"`
}

// GroupSummary is the denormalized group payload attached to student profiles.
type GroupSummary struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
	Code string `db:"code" json:"code"`
}
