package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockSemesterRepo struct {
	items    map[string]*models.Semester
	planning map[string]bool
	seq      int
}

func newMockSemesterRepo() *mockSemesterRepo {
	return &mockSemesterRepo{items: map[string]*models.Semester{}, planning: map[string]bool{}}
}

func (m *mockSemesterRepo) List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error) {
	var out []models.Semester
	for _, semester := range m.items {
		if filter.YearID != "" && semester.YearID != filter.YearID {
			continue
		}
		out = append(out, *semester)
	}
	return out, len(out), nil
}

func (m *mockSemesterRepo) FindByID(ctx context.Context, id string) (*models.Semester, error) {
	semester, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *semester
	return &copied, nil
}

func (m *mockSemesterRepo) ExistsNumber(ctx context.Context, yearID string, semesterNumber int, excludeID string) (bool, error) {
	for id, semester := range m.items {
		if id == excludeID {
			continue
		}
		if semester.YearID == yearID && semester.SemesterNumber == semesterNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSemesterRepo) HasPlanning(ctx context.Context, id string) (bool, error) {
	return m.planning[id], nil
}

func (m *mockSemesterRepo) Create(ctx context.Context, semester *models.Semester) error {
	m.seq++
	semester.ID = fmt.Sprintf("s%d", m.seq)
	copied := *semester
	m.items[semester.ID] = &copied
	return nil
}

func (m *mockSemesterRepo) Update(ctx context.Context, semester *models.Semester) error {
	copied := *semester
	m.items[semester.ID] = &copied
	return nil
}

func (m *mockSemesterRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func newTestSemesterService(repo *mockSemesterRepo, yearIDs ...string) *SemesterService {
	years := newMockYearRepo()
	for i, id := range yearIDs {
		years.items[id] = &models.Year{ID: id, SpecialityID: "sp1", YearNumber: i + 1}
	}
	return NewSemesterService(repo, years, nil, nil)
}

func semesterRequest(yearID string, number int) CreateSemesterRequest {
	return CreateSemesterRequest{
		YearID:         yearID,
		SemesterNumber: number,
		Name:           models.LocalizedText{Fr: fmt.Sprintf("Semestre %d", number)},
		StartDate:      time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC),
		EndDate:        time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		AcademicYear:   "2025-2026",
	}
}

func TestSemesterServiceCreate(t *testing.T) {
	repo := newMockSemesterRepo()
	svc := newTestSemesterService(repo, "y1")

	semester, err := svc.Create(context.Background(), semesterRequest("y1", 1))
	require.NoError(t, err)
	assert.NotEmpty(t, semester.ID)
	assert.Equal(t, "2025-2026", semester.AcademicYear)
	assert.True(t, semester.IsActive)
}

func TestSemesterServiceCreateRejectsInvertedDates(t *testing.T) {
	svc := newTestSemesterService(newMockSemesterRepo(), "y1")

	req := semesterRequest("y1", 1)
	req.StartDate, req.EndDate = req.EndDate, req.StartDate
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestSemesterServiceCreateUnknownYear(t *testing.T) {
	svc := newTestSemesterService(newMockSemesterRepo(), "y1")

	_, err := svc.Create(context.Background(), semesterRequest("y9", 1))
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestSemesterServiceDuplicateNumberScopedToYear(t *testing.T) {
	repo := newMockSemesterRepo()
	svc := newTestSemesterService(repo, "y1", "y2")
	ctx := context.Background()

	_, err := svc.Create(ctx, semesterRequest("y1", 1))
	require.NoError(t, err)

	_, err = svc.Create(ctx, semesterRequest("y1", 1))
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_SEMESTER", appErrors.FromError(err).Code)

	// Semester 1 of another year does not collide.
	_, err = svc.Create(ctx, semesterRequest("y2", 1))
	assert.NoError(t, err)
}

func TestSemesterServiceUpdateKeepsOwnNumber(t *testing.T) {
	repo := newMockSemesterRepo()
	svc := newTestSemesterService(repo, "y1")
	ctx := context.Background()

	semester, err := svc.Create(ctx, semesterRequest("y1", 2))
	require.NoError(t, err)

	req := semesterRequest("y1", 2)
	req.AcademicYear = "2026-2027"
	updated, err := svc.Update(ctx, semester.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "2026-2027", updated.AcademicYear)
}

func TestSemesterServiceDeleteBlockedWithPlanning(t *testing.T) {
	repo := newMockSemesterRepo()
	svc := newTestSemesterService(repo, "y1")
	ctx := context.Background()

	semester, err := svc.Create(ctx, semesterRequest("y1", 1))
	require.NoError(t, err)
	repo.planning[semester.ID] = true

	err = svc.Delete(ctx, semester.ID)
	require.Error(t, err)
	assert.Equal(t, "HAS_PLANNING", appErrors.FromError(err).Code)

	repo.planning[semester.ID] = false
	require.NoError(t, svc.Delete(ctx, semester.ID))
}
