package models

import "time"

// NoteVisibility scopes who can read an uploaded course document.
type NoteVisibility string

const (
	VisibilityPrivate    NoteVisibility = "private"
	VisibilityModule     NoteVisibility = "module"
	VisibilitySpecialite NoteVisibility = "specialite"
)

// Note is an uploaded document (PDF or image) with a visibility scope.
// A note with module, speciality and assigned-student all unset and
// visibility "specialite" is a general note visible to every student.
type Note struct {
	ID                string         `db:"id" json:"id"`
	ModuleID          *string        `db:"module_id" json:"module_id,omitempty"`
	SpecialityID      *string        `db:"specialite_id" json:"specialite_id,omitempty"`
	UploaderID        string         `db:"uploader_id" json:"uploader_id"`
	AssignedStudentID *string        `db:"assigned_student_id" json:"assigned_student_id,omitempty"`
	Title             string         `db:"title" json:"title"`
	Description       *string        `db:"description" json:"description,omitempty"`
	Filename          string         `db:"filename" json:"filename"`
	StoredFilename    string         `db:"stored_filename" json:"stored_filename"`
	FilePath          string         `db:"file_path" json:"file_path"`
	MimeType          string         `db:"mime_type" json:"mime_type"`
	FileSize          int64          `db:"file_size" json:"file_size"`
	Visibility        NoteVisibility `db:"visibility" json:"visibility"`
	DownloadCount     int            `db:"download_count" json:"download_count"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// IsGeneral reports whether the note is visible to every student. Only the
// "specialite" visibility may be unscoped; an unscoped private or module
// note is malformed and must stay hidden.
func (n Note) IsGeneral() bool {
	return n.Visibility == VisibilitySpecialite &&
		n.ModuleID == nil && n.SpecialityID == nil && n.AssignedStudentID == nil
}

// IsPDF reports whether the stored blob is a PDF document.
func (n Note) IsPDF() bool {
	return n.MimeType == "application/pdf"
}

// IsImage reports whether the stored blob is a supported image.
func (n Note) IsImage() bool {
	switch n.MimeType {
	case "image/jpeg", "image/jpg", "image/png":
		return true
	}
	return false
}

// NoteFilter captures list filters for admin and student listings.
type NoteFilter struct {
	ModuleID     string
	SpecialityID string
	FileType     string // "pdf" | "image"
	GeneralOnly  bool
	Search       string
	Page         int
	PageSize     int
}

// DownloadLog is one append-only audit row per download event.
type DownloadLog struct {
	ID           string    `db:"id" json:"id"`
	NoteID       string    `db:"note_id" json:"note_id"`
	StudentID    string    `db:"student_id" json:"student_id"`
	DownloadedAt time.Time `db:"downloaded_at" json:"downloaded_at"`
	IPAddress    string    `db:"ip_address" json:"ip_address"`
	UserAgent    string    `db:"user_agent" json:"user_agent"`
}

// NoteStats summarises download activity for one note.
type NoteStats struct {
	NoteID          string     `db:"note_id" json:"note_id"`
	DownloadCount   int        `db:"download_count" json:"download_count"`
	UniqueDownloads int        `db:"unique_downloads" json:"unique_downloads"`
	LastDownloadAt  *time.Time `db:"last_download_at" json:"last_download_at,omitempty"`
}
