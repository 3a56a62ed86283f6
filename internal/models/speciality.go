package models

import (
	"regexp"
	"strconv"
	"time"
)

// Speciality is a concrete program of study within a filiere.
type Speciality struct {
	ID          string                `db:"id" json:"id"`
	FiliereID   string                `db:"filiere_id" json:"filiere_id"`
	Name        LocalizedText         `db:"name" json:"name"`
	Slug        string                `db:"slug" json:"slug"`
	Description NullableLocalizedText `db:"description" json:"description"`
	ImageURL    *string               `db:"image_url" json:"image_url,omitempty"`
	Duration    *string               `db:"duration" json:"duration,omitempty"`
	Order       int                   `db:"display_order" json:"order"`
	IsActive    bool                  `db:"is_active" json:"is_active"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
}

// SpecialityDetail bundles a speciality with its filiere and module count.
type SpecialityDetail struct {
	Speciality
	Filiere           *Filiere `json:"filiere,omitempty"`
	ActiveModuleCount int      `db:"active_module_count" json:"active_module_count"`
}

// SpecialityFilter captures list filters.
type SpecialityFilter struct {
	FiliereID string
	IsActive  *bool
	Search    string
	Page      int
	PageSize  int
}

var durationNumber = regexp.MustCompile(`(\d+)`)

// DurationInYears extracts the program length from the free-text duration
// ("3 ans" -> 3). Returns nil when the field is empty or carries no number.
func (s Speciality) DurationInYears() *int {
	if s.Duration == nil || *s.Duration == "" {
		return nil
	}
	match := durationNumber.FindString(*s.Duration)
	if match == "" {
		return nil
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return nil
	}
	return &n
}
