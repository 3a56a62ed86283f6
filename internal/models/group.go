package models

import "time"

// Group is a student cohort within a speciality and year. Code is derived
// ("SPEC{specialityID}-Y{yearID}-{name}") and unique. A group cannot be
// deleted while students are assigned to it.
type Group struct {
	ID           string    `db:"id" json:"id"`
	SpecialityID string    `db:"speciality_id" json:"speciality_id"`
	YearID       string    `db:"year_id" json:"year_id"`
	Name         string    `db:"name" json:"name"`
	Code         string    `db:"code" json:"code"`
	Capacity     *int      `db:"capacity" json:"capacity,omitempty"`
	IsActive     bool      `db:"is_active" json:"is_active"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// GroupDetail bundles a group with its current student count.
type GroupDetail struct {
	Group
	StudentCount int `db:"student_count" json:"student_count"`
}

// GroupFilter captures list filters.
type GroupFilter struct {
	SpecialityID string
	YearID       string
	IsActive     *bool
	Page         int
	PageSize     int
}
