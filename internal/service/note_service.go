package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/storage"
)

type noteRepository interface {
	List(ctx context.Context, filter models.NoteFilter) ([]models.Note, int, error)
	ListVisible(ctx context.Context, studentID string, filter models.NoteFilter) ([]models.Note, int, error)
	FindByID(ctx context.Context, id string) (*models.Note, error)
	Create(ctx context.Context, note *models.Note) error
	Update(ctx context.Context, note *models.Note) error
	Delete(ctx context.Context, id string) error
	RecordDownload(ctx context.Context, log *models.DownloadLog) error
	Stats(ctx context.Context, noteID string) (*models.NoteStats, error)
	ListDownloadsByStudent(ctx context.Context, studentID string, limit int) ([]models.DownloadLog, error)
}

type enrollmentReader interface {
	IsEnrolled(ctx context.Context, studentID, moduleID string) (bool, error)
	ListEnrolledSpecialities(ctx context.Context, studentID string) ([]string, error)
}

type blobStore interface {
	Save(relPath string, data []byte) (string, error)
	Exists(relPath string) bool
	Delete(relPath string) error
	Path(relPath string) string
}

// UploadNoteRequest carries the multipart note upload.
type UploadNoteRequest struct {
	Title             string                `json:"title" validate:"required"`
	Description       *string               `json:"description"`
	ModuleID          *string               `json:"module_id"`
	SpecialityID      *string               `json:"specialite_id"`
	AssignedStudentID *string               `json:"assigned_student_id"`
	Visibility        models.NoteVisibility `json:"visibility" validate:"required,oneof=private module specialite"`
	Filename          string                `json:"-" validate:"required"`
	Data              []byte                `json:"-" validate:"required"`
}

// UpdateNoteRequest modifies note metadata. File fields are only touched
// when Data is set.
type UpdateNoteRequest struct {
	Title             string                `json:"title" validate:"required"`
	Description       *string               `json:"description"`
	ModuleID          *string               `json:"module_id"`
	SpecialityID      *string               `json:"specialite_id"`
	AssignedStudentID *string               `json:"assigned_student_id"`
	Visibility        models.NoteVisibility `json:"visibility" validate:"required,oneof=private module specialite"`
	Filename          string                `json:"-"`
	Data              []byte                `json:"-"`
}

// ServedNote bundles a note with the resolved on-disk path for streaming.
type ServedNote struct {
	Note *models.Note
	Path string
}

// NoteService owns note uploads, the visibility predicate and download
// accounting.
type NoteService struct {
	repo        noteRepository
	enrollments enrollmentReader
	store       blobStore
	signer      *storage.SignedURLSigner
	maxFileSize int64
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewNoteService constructs NoteService.
func NewNoteService(repo noteRepository, enrollments enrollmentReader, store blobStore, signer *storage.SignedURLSigner, maxFileSize int64, validate *validator.Validate, logger *zap.Logger) *NoteService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxFileSize <= 0 {
		maxFileSize = 10 << 20
	}
	return &NoteService{
		repo:        repo,
		enrollments: enrollments,
		store:       store,
		signer:      signer,
		maxFileSize: maxFileSize,
		validator:   validate,
		logger:      logger,
	}
}

// List returns notes for the admin listing.
func (s *NoteService) List(ctx context.Context, filter models.NoteFilter) ([]models.Note, *models.Pagination, error) {
	notes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// ListForStudent returns only the notes the student may read.
func (s *NoteService) ListForStudent(ctx context.Context, studentID string, filter models.NoteFilter) ([]models.Note, *models.Pagination, error) {
	notes, total, err := s.repo.ListVisible(ctx, studentID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notes")
	}
	return notes, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one note without an access check. Admin use only.
func (s *NoteService) Get(ctx context.Context, id string) (*models.Note, error) {
	note, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "note not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	return note, nil
}

// GetForStudent returns one note after passing the visibility predicate.
func (s *NoteService) GetForStudent(ctx context.Context, studentID, noteID string) (*models.Note, error) {
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, studentID, note); err != nil {
		return nil, err
	}
	return note, nil
}

// checkAccess implements the note visibility predicate for students. A
// failed check must leave no trace, so this never writes.
func (s *NoteService) checkAccess(ctx context.Context, studentID string, note *models.Note) error {
	if note.IsGeneral() {
		return nil
	}
	if note.AssignedStudentID != nil && *note.AssignedStudentID == studentID {
		return nil
	}
	if note.Visibility == models.VisibilityModule && note.ModuleID != nil {
		enrolled, err := s.enrollments.IsEnrolled(ctx, studentID, *note.ModuleID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check enrollment")
		}
		if enrolled {
			return nil
		}
	}
	if note.Visibility == models.VisibilitySpecialite && note.SpecialityID != nil {
		specs, err := s.enrollments.ListEnrolledSpecialities(ctx, studentID)
		if err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrolled specialities")
		}
		for _, id := range specs {
			if id == *note.SpecialityID {
				return nil
			}
		}
	}
	return appErrors.Clone(appErrors.ErrAccessDenied, "you do not have access to this note")
}

// allowed upload content types sniffed from the blob itself.
func sniffNoteMime(data []byte) (string, error) {
	detected := http.DetectContentType(data)
	switch {
	case detected == "application/pdf":
		return detected, nil
	case detected == "image/jpeg", detected == "image/png":
		return detected, nil
	default:
		return "", appErrors.Clone(appErrors.ErrUpload, "only PDF, JPEG and PNG files are accepted")
	}
}

// Upload validates and stores the blob, then creates the note record.
func (s *NoteService) Upload(ctx context.Context, uploaderID string, req UploadNoteRequest) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid note payload")
	}
	if err := validateNoteScope(req.Visibility, req.ModuleID, req.SpecialityID, req.AssignedStudentID); err != nil {
		return nil, err
	}
	if int64(len(req.Data)) > s.maxFileSize {
		return nil, appErrors.Clone(appErrors.ErrUpload, "file exceeds the maximum allowed size")
	}

	mimeType, err := sniffNoteMime(req.Data)
	if err != nil {
		return nil, err
	}

	storedName := storage.StoredName(storage.CategoryNotes, req.Filename)
	relPath := filepath.ToSlash(filepath.Join(storage.CategoryNotes, storedName))
	if _, err := s.store.Save(relPath, req.Data); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to store file")
	}

	note := &models.Note{
		ModuleID:          req.ModuleID,
		SpecialityID:      req.SpecialityID,
		UploaderID:        uploaderID,
		AssignedStudentID: req.AssignedStudentID,
		Title:             req.Title,
		Description:       req.Description,
		Filename:          storage.SanitizeFilename(req.Filename),
		StoredFilename:    storedName,
		FilePath:          relPath,
		MimeType:          mimeType,
		FileSize:          int64(len(req.Data)),
		Visibility:        req.Visibility,
	}
	if err := s.repo.Create(ctx, note); err != nil {
		if delErr := s.store.Delete(relPath); delErr != nil {
			s.logger.Warn("failed to remove orphan blob", zap.String("path", relPath), zap.Error(delErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create note")
	}
	return note, nil
}

// BulkUploadResult reports the outcome for one file of a bulk upload.
type BulkUploadResult struct {
	Filename string       `json:"filename"`
	Note     *models.Note `json:"note,omitempty"`
	Error    string       `json:"error,omitempty"`
}

// BulkUpload stores several notes in one call. Files are processed
// independently, a failed file never blocks the rest.
func (s *NoteService) BulkUpload(ctx context.Context, uploaderID string, reqs []UploadNoteRequest) []BulkUploadResult {
	results := make([]BulkUploadResult, 0, len(reqs))
	for _, req := range reqs {
		result := BulkUploadResult{Filename: req.Filename}
		note, err := s.Upload(ctx, uploaderID, req)
		if err != nil {
			result.Error = appErrors.FromError(err).Message
		} else {
			result.Note = note
		}
		results = append(results, result)
	}
	return results
}

// AssignToStudent points a note at a single student. Passing nil clears the
// assignment.
func (s *NoteService) AssignToStudent(ctx context.Context, noteID string, studentID *string) (*models.Note, error) {
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	note.AssignedStudentID = studentID
	if err := s.repo.Update(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign note")
	}
	return note, nil
}

// Update modifies note metadata and optionally replaces the stored file.
func (s *NoteService) Update(ctx context.Context, id string, req UpdateNoteRequest) (*models.Note, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid note payload")
	}
	if err := validateNoteScope(req.Visibility, req.ModuleID, req.SpecialityID, req.AssignedStudentID); err != nil {
		return nil, err
	}

	note, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	oldPath := ""
	if len(req.Data) > 0 {
		if int64(len(req.Data)) > s.maxFileSize {
			return nil, appErrors.Clone(appErrors.ErrUpload, "file exceeds the maximum allowed size")
		}
		mimeType, err := sniffNoteMime(req.Data)
		if err != nil {
			return nil, err
		}
		storedName := storage.StoredName(storage.CategoryNotes, req.Filename)
		relPath := filepath.ToSlash(filepath.Join(storage.CategoryNotes, storedName))
		if _, err := s.store.Save(relPath, req.Data); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrUpload.Code, appErrors.ErrUpload.Status, "failed to store file")
		}
		oldPath = note.FilePath
		note.Filename = storage.SanitizeFilename(req.Filename)
		note.StoredFilename = storedName
		note.FilePath = relPath
		note.MimeType = mimeType
		note.FileSize = int64(len(req.Data))
	}

	note.Title = req.Title
	note.Description = req.Description
	note.ModuleID = req.ModuleID
	note.SpecialityID = req.SpecialityID
	note.AssignedStudentID = req.AssignedStudentID
	note.Visibility = req.Visibility

	if err := s.repo.Update(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update note")
	}
	if oldPath != "" {
		if err := s.store.Delete(oldPath); err != nil {
			s.logger.Warn("failed to remove replaced blob", zap.String("path", oldPath), zap.Error(err))
		}
	}
	return note, nil
}

// Delete removes the note record and its blob.
func (s *NoteService) Delete(ctx context.Context, id string) error {
	note, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete note")
	}
	if err := s.store.Delete(note.FilePath); err != nil {
		s.logger.Warn("failed to remove note blob", zap.String("path", note.FilePath), zap.Error(err))
	}
	return nil
}

// Serve resolves a note blob for an admin without recording anything.
func (s *NoteService) Serve(ctx context.Context, noteID string) (*ServedNote, error) {
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if !s.store.Exists(note.FilePath) {
		return nil, appErrors.Clone(appErrors.ErrFileNotFound, "stored file is missing")
	}
	return &ServedNote{Note: note, Path: s.store.Path(note.FilePath)}, nil
}

// ServeForStudent resolves a note blob for a student. The access check runs
// first and a denied request records nothing. A download (as opposed to an
// inline preview) appends one log row and bumps the counter.
func (s *NoteService) ServeForStudent(ctx context.Context, studentID, noteID string, download bool, ip, userAgent string) (*ServedNote, error) {
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAccess(ctx, studentID, note); err != nil {
		return nil, err
	}
	if !s.store.Exists(note.FilePath) {
		return nil, appErrors.Clone(appErrors.ErrFileNotFound, "stored file is missing")
	}
	if download {
		// Every granted download must leave its audit row; without one the
		// file is not served.
		if err := s.repo.RecordDownload(ctx, &models.DownloadLog{
			NoteID:    note.ID,
			StudentID: studentID,
			IPAddress: ip,
			UserAgent: userAgent,
		}); err != nil {
			s.logger.Error("failed to record download", zap.String("note_id", note.ID), zap.Error(err))
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record download")
		}
		note.DownloadCount++
	}
	return &ServedNote{Note: note, Path: s.store.Path(note.FilePath)}, nil
}

// SignedURL issues a short-lived token for browser-native preview elements.
func (s *NoteService) SignedURL(ctx context.Context, studentID, noteID string) (string, time.Time, error) {
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return "", time.Time{}, err
	}
	if studentID != "" {
		if err := s.checkAccess(ctx, studentID, note); err != nil {
			return "", time.Time{}, err
		}
	}
	token, expiresAt, err := s.signer.Generate(note.ID, note.FilePath)
	if err != nil {
		return "", time.Time{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign url")
	}
	return token, expiresAt, nil
}

// ResolveSignedToken validates a serve token and resolves the referenced
// note blob.
func (s *NoteService) ResolveSignedToken(ctx context.Context, token string) (*ServedNote, error) {
	noteID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthenticated, "invalid or expired file token")
	}
	note, err := s.Get(ctx, noteID)
	if err != nil {
		return nil, err
	}
	if note.FilePath != relPath || !s.store.Exists(note.FilePath) {
		return nil, appErrors.Clone(appErrors.ErrFileNotFound, "stored file is missing")
	}
	return &ServedNote{Note: note, Path: s.store.Path(note.FilePath)}, nil
}

// Stats summarises download activity for one note.
func (s *NoteService) Stats(ctx context.Context, noteID string) (*models.NoteStats, error) {
	if _, err := s.Get(ctx, noteID); err != nil {
		return nil, err
	}
	stats, err := s.repo.Stats(ctx, noteID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note stats")
	}
	return stats, nil
}

func validateNoteScope(visibility models.NoteVisibility, moduleID, specialityID, assignedStudentID *string) error {
	// A note with no scope at all is a general note, readable by every
	// student, and only the specialite visibility may be unscoped.
	if moduleID == nil && specialityID == nil && assignedStudentID == nil {
		if visibility != models.VisibilitySpecialite {
			return appErrors.Clone(appErrors.ErrValidation, "a note without module, speciality or assigned student must use specialite visibility")
		}
		return nil
	}
	switch visibility {
	case models.VisibilityPrivate:
		if assignedStudentID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "private notes need an assigned student")
		}
	case models.VisibilityModule:
		if moduleID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "module notes need a module")
		}
	case models.VisibilitySpecialite:
		if specialityID == nil {
			return appErrors.Clone(appErrors.ErrValidation, "speciality notes need a speciality")
		}
	}
	return nil
}
