package models

import "time"

// TargetAudience scopes published site content.
type TargetAudience string

const (
	AudienceAll                TargetAudience = "all"
	AudienceStudents           TargetAudience = "students"
	AudienceSpecificSpecialite TargetAudience = "specific_specialite"
)

// Announcement is a published site notice with an optional image gallery and
// attached PDF.
type Announcement struct {
	ID             string                `db:"id" json:"id"`
	Title          LocalizedText         `db:"title" json:"title"`
	Content        LocalizedText         `db:"content" json:"content"`
	AuthorID       string                `db:"author_id" json:"author_id"`
	IsPublished    bool                  `db:"is_published" json:"is_published"`
	PublishedAt    *time.Time            `db:"published_at" json:"published_at,omitempty"`
	TargetAudience TargetAudience        `db:"target_audience" json:"target_audience"`
	SpecialityID   *string               `db:"specialite_id" json:"specialite_id,omitempty"`
	ImagePath      *string               `db:"image_path" json:"image_path,omitempty"`
	FilePath       *string               `db:"file_path" json:"file_path,omitempty"`
	Filename       *string               `db:"filename" json:"filename,omitempty"`
	MimeType       *string               `db:"mime_type" json:"mime_type,omitempty"`
	FileSize       *int64                `db:"file_size" json:"file_size,omitempty"`
	Images         []ContentImage        `db:"-" json:"images,omitempty"`
	Summary        NullableLocalizedText `db:"summary" json:"summary"`
	CreatedAt      time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time             `db:"updated_at" json:"updated_at"`
}

// Download is a downloadable resource published on the site.
type Download struct {
	ID             string         `db:"id" json:"id"`
	Title          LocalizedText  `db:"title" json:"title"`
	Content        LocalizedText  `db:"content" json:"content"`
	AuthorID       string         `db:"author_id" json:"author_id"`
	IsPublished    bool           `db:"is_published" json:"is_published"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at,omitempty"`
	TargetAudience TargetAudience `db:"target_audience" json:"target_audience"`
	SpecialityID   *string        `db:"specialite_id" json:"specialite_id,omitempty"`
	ImagePath      *string        `db:"image_path" json:"image_path,omitempty"`
	FilePath       *string        `db:"file_path" json:"file_path,omitempty"`
	Filename       *string        `db:"filename" json:"filename,omitempty"`
	MimeType       *string        `db:"mime_type" json:"mime_type,omitempty"`
	FileSize       *int64         `db:"file_size" json:"file_size,omitempty"`
	Images         []ContentImage `db:"-" json:"images,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// RegulatoryText is an official or regulatory document published on the site.
type RegulatoryText struct {
	ID             string         `db:"id" json:"id"`
	Title          LocalizedText  `db:"title" json:"title"`
	Content        LocalizedText  `db:"content" json:"content"`
	AuthorID       string         `db:"author_id" json:"author_id"`
	IsPublished    bool           `db:"is_published" json:"is_published"`
	PublishedAt    *time.Time     `db:"published_at" json:"published_at,omitempty"`
	TargetAudience TargetAudience `db:"target_audience" json:"target_audience"`
	ImagePath      *string        `db:"image_path" json:"image_path,omitempty"`
	FilePath       *string        `db:"file_path" json:"file_path,omitempty"`
	Filename       *string        `db:"filename" json:"filename,omitempty"`
	MimeType       *string        `db:"mime_type" json:"mime_type,omitempty"`
	FileSize       *int64         `db:"file_size" json:"file_size,omitempty"`
	Images         []ContentImage `db:"-" json:"images,omitempty"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// ContentImage is one order-indexed gallery entry attached to a parent
// content record (announcement, download or regulatory text).
type ContentImage struct {
	ID        string    `db:"id" json:"id"`
	ParentID  string    `db:"parent_id" json:"parent_id"`
	ImagePath string    `db:"image_path" json:"image_path"`
	Order     int       `db:"display_order" json:"order"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContentFilter captures list filters shared by published content listings.
type ContentFilter struct {
	IsPublished  *bool
	Audience     TargetAudience
	SpecialityID string
	Search       string
	Page         int
	PageSize     int
}

// HeroSlide is a home-page carousel entry.
type HeroSlide struct {
	ID        string                `db:"id" json:"id"`
	Title     LocalizedText         `db:"title" json:"title"`
	Subtitle  NullableLocalizedText `db:"subtitle" json:"subtitle"`
	ImagePath string                `db:"image_path" json:"image_path"`
	Filename  string                `db:"filename" json:"filename"`
	Gradient  string                `db:"gradient" json:"gradient"`
	Order     int                   `db:"display_order" json:"order"`
	IsActive  bool                  `db:"is_active" json:"is_active"`
	CreatedAt time.Time             `db:"created_at" json:"created_at"`
	UpdatedAt time.Time             `db:"updated_at" json:"updated_at"`
}

// Establishment is a partner training site attached to a speciality.
type Establishment struct {
	ID           string        `db:"id" json:"id"`
	SpecialityID string        `db:"specialite_id" json:"specialite_id"`
	Name         LocalizedText `db:"name" json:"name"`
	Address      *string       `db:"address" json:"address,omitempty"`
	ContactEmail *string       `db:"contact_email" json:"contact_email,omitempty"`
	ContactPhone *string       `db:"contact_phone" json:"contact_phone,omitempty"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}
