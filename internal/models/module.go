package models

import "time"

// Module is a course unit belonging to a speciality.
type Module struct {
	ID           string                `db:"id" json:"id"`
	SpecialityID string                `db:"specialite_id" json:"specialite_id"`
	Code         string                `db:"code" json:"code"`
	Title        LocalizedText         `db:"title" json:"title"`
	Description  NullableLocalizedText `db:"description" json:"description"`
	Credits      int                   `db:"credits" json:"credits"`
	Hours        int                   `db:"hours" json:"hours"`
	Order        int                   `db:"display_order" json:"order"`
	IsActive     bool                  `db:"is_active" json:"is_active"`
	CreatedAt    time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time             `db:"updated_at" json:"updated_at"`
}

// ModuleYearAssignment attaches a module to a study year for one semester.
type ModuleYearAssignment struct {
	ID             string    `db:"id" json:"id"`
	ModuleID       string    `db:"module_id" json:"module_id"`
	YearID         string    `db:"year_id" json:"year_id"`
	SemesterNumber int       `db:"semester_number" json:"semester_number"`
	IsMandatory    bool      `db:"is_mandatory" json:"is_mandatory"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// Enrollment links a student to a module.
type Enrollment struct {
	ID         string    `db:"id" json:"id"`
	StudentID  string    `db:"student_id" json:"student_id"`
	ModuleID   string    `db:"module_id" json:"module_id"`
	EnrolledAt time.Time `db:"enrolled_at" json:"enrolled_at"`
}

// ModuleFilter captures list filters.
type ModuleFilter struct {
	SpecialityID string
	YearID       string
	IsActive     *bool
	Search       string
	Page         int
	PageSize     int
}
