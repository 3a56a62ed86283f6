package models

import "time"

// Year is one study year inside a speciality (year_number 1-5, unique per
// speciality).
type Year struct {
	ID           string                `db:"id" json:"id"`
	SpecialityID string                `db:"speciality_id" json:"speciality_id"`
	YearNumber   int                   `db:"year_number" json:"year_number"`
	Name         LocalizedText         `db:"name" json:"name"`
	Description  NullableLocalizedText `db:"description" json:"description"`
	Order        int                   `db:"display_order" json:"order"`
	IsActive     bool                  `db:"is_active" json:"is_active"`
	CreatedAt    time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time             `db:"updated_at" json:"updated_at"`
}

// YearFilter captures list filters.
type YearFilter struct {
	SpecialityID string
	IsActive     *bool
	Page         int
	PageSize     int
}
