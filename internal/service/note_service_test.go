package service

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
	"github.com/ifpm-dz/ifpm-api/pkg/storage"
)

var pdfBlob = []byte("%PDF-1.4 minimal test document body")

type mockNoteRepo struct {
	items       map[string]*models.Note
	nextID      int
	downloads   []models.DownloadLog
	deleted     []string
	downloadErr error
}

func newMockNoteRepo() *mockNoteRepo {
	return &mockNoteRepo{items: map[string]*models.Note{}}
}

func (m *mockNoteRepo) List(ctx context.Context, filter models.NoteFilter) ([]models.Note, int, error) {
	out := make([]models.Note, 0, len(m.items))
	for _, n := range m.items {
		out = append(out, *n)
	}
	return out, len(out), nil
}

func (m *mockNoteRepo) ListVisible(ctx context.Context, studentID string, filter models.NoteFilter) ([]models.Note, int, error) {
	return nil, 0, nil
}

func (m *mockNoteRepo) FindByID(ctx context.Context, id string) (*models.Note, error) {
	if n, ok := m.items[id]; ok {
		cp := *n
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNoteRepo) Create(ctx context.Context, note *models.Note) error {
	m.nextID++
	if note.ID == "" {
		note.ID = "note-" + strconv.Itoa(m.nextID)
	}
	cp := *note
	m.items[note.ID] = &cp
	return nil
}

func (m *mockNoteRepo) Update(ctx context.Context, note *models.Note) error {
	cp := *note
	m.items[note.ID] = &cp
	return nil
}

func (m *mockNoteRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func (m *mockNoteRepo) RecordDownload(ctx context.Context, log *models.DownloadLog) error {
	if m.downloadErr != nil {
		return m.downloadErr
	}
	m.downloads = append(m.downloads, *log)
	return nil
}

func (m *mockNoteRepo) Stats(ctx context.Context, noteID string) (*models.NoteStats, error) {
	return &models.NoteStats{NoteID: noteID, DownloadCount: len(m.downloads)}, nil
}

func (m *mockNoteRepo) ListDownloadsByStudent(ctx context.Context, studentID string, limit int) ([]models.DownloadLog, error) {
	return m.downloads, nil
}

type mockEnrollments struct {
	modules      map[string]bool // "student|module"
	specialities map[string][]string
}

func (m *mockEnrollments) IsEnrolled(ctx context.Context, studentID, moduleID string) (bool, error) {
	return m.modules[studentID+"|"+moduleID], nil
}

func (m *mockEnrollments) ListEnrolledSpecialities(ctx context.Context, studentID string) ([]string, error) {
	return m.specialities[studentID], nil
}

type memBlobStore struct {
	blobs   map[string][]byte
	deleted []string
}

func newMemBlobStore() *memBlobStore { return &memBlobStore{blobs: map[string][]byte{}} }

func (m *memBlobStore) Save(relPath string, data []byte) (string, error) {
	m.blobs[relPath] = data
	return relPath, nil
}

func (m *memBlobStore) Exists(relPath string) bool {
	_, ok := m.blobs[relPath]
	return ok
}

func (m *memBlobStore) Delete(relPath string) error {
	m.deleted = append(m.deleted, relPath)
	delete(m.blobs, relPath)
	return nil
}

func (m *memBlobStore) Path(relPath string) string { return "/storage/" + relPath }

func newTestNoteService(repo *mockNoteRepo, enrollments *mockEnrollments, store *memBlobStore) *NoteService {
	if enrollments == nil {
		enrollments = &mockEnrollments{modules: map[string]bool{}, specialities: map[string][]string{}}
	}
	signer := storage.NewSignedURLSigner("test-secret", time.Minute*10)
	return NewNoteService(repo, enrollments, store, signer, 1<<20, NewValidator(), nil)
}

func uploadPDF(t *testing.T, svc *NoteService, req UploadNoteRequest) *models.Note {
	t.Helper()
	if req.Filename == "" {
		req.Filename = "cours.pdf"
	}
	if req.Data == nil {
		req.Data = pdfBlob
	}
	if req.Visibility == "" {
		req.Visibility = models.VisibilitySpecialite
	}
	if req.Title == "" {
		req.Title = "Cours"
	}
	note, err := svc.Upload(context.Background(), "admin-1", req)
	require.NoError(t, err)
	return note
}

func TestNoteServiceUpload(t *testing.T) {
	repo := newMockNoteRepo()
	store := newMemBlobStore()
	svc := newTestNoteService(repo, nil, store)

	note := uploadPDF(t, svc, UploadNoteRequest{Title: "Cours Anatomie", Filename: "Cours Anatomie.pdf"})
	assert.Equal(t, "application/pdf", note.MimeType)
	assert.Equal(t, "Cours_Anatomie.pdf", note.Filename)
	assert.Equal(t, int64(len(pdfBlob)), note.FileSize)
	assert.True(t, store.Exists(note.FilePath))
	assert.Equal(t, "admin-1", note.UploaderID)
	assert.True(t, note.IsGeneral())
}

func TestNoteServiceUploadRejectsUnknownType(t *testing.T) {
	svc := newTestNoteService(newMockNoteRepo(), nil, newMemBlobStore())

	_, err := svc.Upload(context.Background(), "admin-1", UploadNoteRequest{
		Title:      "Archive",
		Filename:   "archive.zip",
		Data:       []byte("PK\x03\x04 not a supported file"),
		Visibility: models.VisibilitySpecialite,
	})
	require.Error(t, err)
	assert.Equal(t, "UPLOAD_ERROR", appErrors.FromError(err).Code)
}

func TestNoteServiceUploadRejectsOversizedFile(t *testing.T) {
	repo := newMockNoteRepo()
	signer := storage.NewSignedURLSigner("test-secret", time.Minute)
	svc := NewNoteService(repo, &mockEnrollments{}, newMemBlobStore(), signer, 8, NewValidator(), nil)

	_, err := svc.Upload(context.Background(), "admin-1", UploadNoteRequest{
		Title:      "Big",
		Filename:   "big.pdf",
		Data:       pdfBlob,
		Visibility: models.VisibilitySpecialite,
	})
	require.Error(t, err)
	assert.Equal(t, "UPLOAD_ERROR", appErrors.FromError(err).Code)
	assert.Empty(t, repo.items)
}

func TestNoteServiceUploadScopeRules(t *testing.T) {
	svc := newTestNoteService(newMockNoteRepo(), nil, newMemBlobStore())
	moduleID := "m1"

	// Private visibility with a module but no assigned student is invalid.
	_, err := svc.Upload(context.Background(), "admin-1", UploadNoteRequest{
		Title:      "Private",
		Filename:   "p.pdf",
		Data:       pdfBlob,
		Visibility: models.VisibilityPrivate,
		ModuleID:   &moduleID,
	})
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)

	// Module visibility without a module is invalid once any scope is set.
	student := "s1"
	_, err = svc.Upload(context.Background(), "admin-1", UploadNoteRequest{
		Title:             "Module",
		Filename:          "m.pdf",
		Data:              pdfBlob,
		Visibility:        models.VisibilityModule,
		AssignedStudentID: &student,
	})
	require.Error(t, err)

	// A note with no scope at all must use specialite visibility; anything
	// else would be unreadable by its owner yet general-looking.
	for _, visibility := range []models.NoteVisibility{models.VisibilityPrivate, models.VisibilityModule} {
		_, err = svc.Upload(context.Background(), "admin-1", UploadNoteRequest{
			Title:      "Sans portee",
			Filename:   "sans.pdf",
			Data:       pdfBlob,
			Visibility: visibility,
		})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
	}
}

func TestNoteServiceVisibilityPredicate(t *testing.T) {
	moduleID := "mod-1"
	specID := "spec-1"
	assignedID := "s-assigned"

	enrollments := &mockEnrollments{
		modules:      map[string]bool{"s-enrolled|mod-1": true},
		specialities: map[string][]string{"s-spec": {"spec-1"}},
	}

	cases := []struct {
		name    string
		note    models.Note
		student string
		allowed bool
	}{
		{"general note visible to everyone", models.Note{Visibility: models.VisibilitySpecialite}, "s-random", true},
		{"unscoped private note hidden from everyone", models.Note{Visibility: models.VisibilityPrivate}, "s-random", false},
		{"unscoped module note hidden from everyone", models.Note{Visibility: models.VisibilityModule}, "s-enrolled", false},
		{"assigned student sees private note", models.Note{Visibility: models.VisibilityPrivate, AssignedStudentID: &assignedID}, "s-assigned", true},
		{"other student denied private note", models.Note{Visibility: models.VisibilityPrivate, AssignedStudentID: &assignedID}, "s-random", false},
		{"enrolled student sees module note", models.Note{Visibility: models.VisibilityModule, ModuleID: &moduleID}, "s-enrolled", true},
		{"unenrolled student denied module note", models.Note{Visibility: models.VisibilityModule, ModuleID: &moduleID}, "s-random", false},
		{"speciality member sees speciality note", models.Note{Visibility: models.VisibilitySpecialite, SpecialityID: &specID}, "s-spec", true},
		{"outsider denied speciality note", models.Note{Visibility: models.VisibilitySpecialite, SpecialityID: &specID}, "s-random", false},
		{"assignment overrides module scope", models.Note{Visibility: models.VisibilityModule, ModuleID: &moduleID, AssignedStudentID: &assignedID}, "s-assigned", true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newMockNoteRepo()
			store := newMemBlobStore()
			svc := newTestNoteService(repo, enrollments, store)

			note := tc.note
			note.ID = "n1"
			note.FilePath = "notes/n1.pdf"
			repo.items["n1"] = &note
			store.blobs[note.FilePath] = pdfBlob

			_, err := svc.GetForStudent(context.Background(), tc.student, "n1")
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, "ACCESS_DENIED", appErrors.FromError(err).Code)
			}
		})
	}
}

func TestNoteServiceDeniedDownloadLeavesNoTrace(t *testing.T) {
	repo := newMockNoteRepo()
	store := newMemBlobStore()
	enrollments := &mockEnrollments{modules: map[string]bool{}, specialities: map[string][]string{}}
	svc := newTestNoteService(repo, enrollments, store)

	moduleID := "mod-1"
	repo.items["n1"] = &models.Note{ID: "n1", Visibility: models.VisibilityModule, ModuleID: &moduleID, FilePath: "notes/n1.pdf"}
	store.blobs["notes/n1.pdf"] = pdfBlob

	_, err := svc.ServeForStudent(context.Background(), "s-random", "n1", true, "10.0.0.1", "test")
	require.Error(t, err)
	assert.Equal(t, "ACCESS_DENIED", appErrors.FromError(err).Code)
	assert.Empty(t, repo.downloads)
	assert.Equal(t, 0, repo.items["n1"].DownloadCount)
}

func TestNoteServiceServeForStudentRecordsDownloadsOnly(t *testing.T) {
	repo := newMockNoteRepo()
	store := newMemBlobStore()
	svc := newTestNoteService(repo, nil, store)

	repo.items["n1"] = &models.Note{ID: "n1", Visibility: models.VisibilitySpecialite, FilePath: "notes/n1.pdf"}
	store.blobs["notes/n1.pdf"] = pdfBlob

	// Inline preview records nothing.
	served, err := svc.ServeForStudent(context.Background(), "s1", "n1", false, "10.0.0.1", "test")
	require.NoError(t, err)
	assert.Equal(t, "/storage/notes/n1.pdf", served.Path)
	assert.Empty(t, repo.downloads)

	served, err = svc.ServeForStudent(context.Background(), "s1", "n1", true, "10.0.0.1", "test")
	require.NoError(t, err)
	require.Len(t, repo.downloads, 1)
	assert.Equal(t, "n1", repo.downloads[0].NoteID)
	assert.Equal(t, "s1", repo.downloads[0].StudentID)
	assert.Equal(t, 1, served.Note.DownloadCount)
}

func TestNoteServiceDownloadFailsWhenAuditWriteFails(t *testing.T) {
	repo := newMockNoteRepo()
	store := newMemBlobStore()
	svc := newTestNoteService(repo, nil, store)

	repo.items["n1"] = &models.Note{ID: "n1", Visibility: models.VisibilitySpecialite, FilePath: "notes/n1.pdf"}
	store.blobs["notes/n1.pdf"] = pdfBlob
	repo.downloadErr = errors.New("connection reset")

	_, err := svc.ServeForStudent(context.Background(), "s1", "n1", true, "10.0.0.1", "test")
	require.Error(t, err)
	assert.Equal(t, "INTERNAL_ERROR", appErrors.FromError(err).Code)

	// An inline preview needs no audit row, so it still works.
	served, err := svc.ServeForStudent(context.Background(), "s1", "n1", false, "10.0.0.1", "test")
	require.NoError(t, err)
	assert.Equal(t, "/storage/notes/n1.pdf", served.Path)
}

func TestNoteServiceServeMissingBlob(t *testing.T) {
	repo := newMockNoteRepo()
	svc := newTestNoteService(repo, nil, newMemBlobStore())

	repo.items["n1"] = &models.Note{ID: "n1", Visibility: models.VisibilitySpecialite, FilePath: "notes/gone.pdf"}

	_, err := svc.Serve(context.Background(), "n1")
	require.Error(t, err)
	assert.Equal(t, "FILE_NOT_FOUND", appErrors.FromError(err).Code)
}

func TestNoteServiceSignedURLRoundTrip(t *testing.T) {
	repo := newMockNoteRepo()
	store := newMemBlobStore()
	svc := newTestNoteService(repo, nil, store)

	note := uploadPDF(t, svc, UploadNoteRequest{})

	token, expiresAt, err := svc.SignedURL(context.Background(), "s1", note.ID)
	require.NoError(t, err)
	assert.True(t, expiresAt.After(time.Now()))

	served, err := svc.ResolveSignedToken(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, note.ID, served.Note.ID)

	_, err = svc.ResolveSignedToken(context.Background(), token+"x")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHENTICATED", appErrors.FromError(err).Code)
}

func TestNoteServiceSignedTokenStaleAfterReplace(t *testing.T) {
	repo := newMockNoteRepo()
	store := newMemBlobStore()
	svc := newTestNoteService(repo, nil, store)

	note := uploadPDF(t, svc, UploadNoteRequest{})
	token, _, err := svc.SignedURL(context.Background(), "", note.ID)
	require.NoError(t, err)

	// Replacing the file moves the blob, old tokens must stop working.
	_, err = svc.Update(context.Background(), note.ID, UpdateNoteRequest{
		Title:      "Cours v2",
		Visibility: models.VisibilitySpecialite,
		Filename:   "cours-v2.pdf",
		Data:       pdfBlob,
	})
	require.NoError(t, err)

	_, err = svc.ResolveSignedToken(context.Background(), token)
	require.Error(t, err)
}

func TestNoteServiceBulkUploadPartialFailure(t *testing.T) {
	repo := newMockNoteRepo()
	svc := newTestNoteService(repo, nil, newMemBlobStore())

	results := svc.BulkUpload(context.Background(), "admin-1", []UploadNoteRequest{
		{Title: "Bon", Filename: "bon.pdf", Data: pdfBlob, Visibility: models.VisibilitySpecialite},
		{Title: "Mauvais", Filename: "mauvais.zip", Data: []byte("PK\x03\x04zip"), Visibility: models.VisibilitySpecialite},
	})
	require.Len(t, results, 2)
	assert.NotNil(t, results[0].Note)
	assert.Empty(t, results[0].Error)
	assert.Nil(t, results[1].Note)
	assert.NotEmpty(t, results[1].Error)
	assert.Len(t, repo.items, 1)
}

func TestNoteServiceAssignToStudent(t *testing.T) {
	repo := newMockNoteRepo()
	svc := newTestNoteService(repo, nil, newMemBlobStore())

	note := uploadPDF(t, svc, UploadNoteRequest{})
	student := "s1"

	assigned, err := svc.AssignToStudent(context.Background(), note.ID, &student)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedStudentID)
	assert.Equal(t, "s1", *assigned.AssignedStudentID)

	cleared, err := svc.AssignToStudent(context.Background(), note.ID, nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedStudentID)
}

func TestNoteServiceDeleteRemovesBlob(t *testing.T) {
	repo := newMockNoteRepo()
	store := newMemBlobStore()
	svc := newTestNoteService(repo, nil, store)

	note := uploadPDF(t, svc, UploadNoteRequest{})
	require.NoError(t, svc.Delete(context.Background(), note.ID))
	assert.Contains(t, repo.deleted, note.ID)
	assert.False(t, store.Exists(note.FilePath))
}
