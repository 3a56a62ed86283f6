package models

import "time"

// AdminDashboard aggregates counts for the admin home screen.
type AdminDashboard struct {
	TotalStudents      int `db:"total_students" json:"total_students"`
	ActiveStudents     int `db:"active_students" json:"active_students"`
	TotalFilieres      int `db:"total_filieres" json:"total_filieres"`
	TotalSpecialities  int `db:"total_specialities" json:"total_specialities"`
	TotalModules       int `db:"total_modules" json:"total_modules"`
	TotalNotes         int `db:"total_notes" json:"total_notes"`
	TotalDownloads     int `db:"total_downloads" json:"total_downloads"`
	PublishedPlannings int `db:"published_plannings" json:"published_plannings"`
}

// DownloadPoint is one bucket of the download-analytics series.
type DownloadPoint struct {
	Day   time.Time `db:"day" json:"day"`
	Count int       `db:"count" json:"count"`
}

// TopNote ranks a note by downloads.
type TopNote struct {
	NoteID        string `db:"note_id" json:"note_id"`
	Title         string `db:"title" json:"title"`
	DownloadCount int    `db:"download_count" json:"download_count"`
}

// DownloadAnalytics is the admin download-activity report.
type DownloadAnalytics struct {
	Daily    []DownloadPoint `json:"daily"`
	TopNotes []TopNote       `json:"top_notes"`
}

// StudentDashboard is the student home payload.
type StudentDashboard struct {
	Modules           []Module      `json:"modules"`
	AccessibleNotes   int           `json:"accessible_notes"`
	RecentDownloads   []DownloadLog `json:"recent_downloads"`
	Year              *YearSummary  `json:"year,omitempty"`
	Group             *GroupSummary `json:"group,omitempty"`
}
