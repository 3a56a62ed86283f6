package models

import "time"

// Filiere is a top-level academic track (e.g. Nursing).
type Filiere struct {
	ID          string                `db:"id" json:"id"`
	Name        LocalizedText         `db:"name" json:"name"`
	Slug        string                `db:"slug" json:"slug"`
	Description NullableLocalizedText `db:"description" json:"description"`
	ImageURL    *string               `db:"image_url" json:"image_url,omitempty"`
	Order       int                   `db:"display_order" json:"order"`
	IsActive    bool                  `db:"is_active" json:"is_active"`
	CreatedAt   time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time             `db:"updated_at" json:"updated_at"`
}

// FiliereFilter captures list filters. Public listings default to active only.
type FiliereFilter struct {
	IsActive *bool
	Search   string
	Page     int
	PageSize int
}
