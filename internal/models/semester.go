package models

import "time"

// Semester is one half of a study year (semester_number 1|2, unique per
// year). At most one Planning and one ScheduleImage reference it.
type Semester struct {
	ID             string        `db:"id" json:"id"`
	YearID         string        `db:"year_id" json:"year_id"`
	SemesterNumber int           `db:"semester_number" json:"semester_number"`
	Name           LocalizedText `db:"name" json:"name"`
	StartDate      time.Time     `db:"start_date" json:"start_date"`
	EndDate        time.Time     `db:"end_date" json:"end_date"`
	AcademicYear   string        `db:"academic_year" json:"academic_year"`
	IsActive       bool          `db:"is_active" json:"is_active"`
	CreatedAt      time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `db:"updated_at" json:"updated_at"`
}

// SemesterFilter captures list filters.
type SemesterFilter struct {
	YearID       string
	AcademicYear string
	IsActive     *bool
	Page         int
	PageSize     int
}
