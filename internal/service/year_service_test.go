package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockYearRepo struct {
	items        map[string]*models.Year
	studentCount map[string]int
	seq          int
}

func newMockYearRepo() *mockYearRepo {
	return &mockYearRepo{items: map[string]*models.Year{}, studentCount: map[string]int{}}
}

func (m *mockYearRepo) List(ctx context.Context, filter models.YearFilter) ([]models.Year, int, error) {
	var out []models.Year
	for _, year := range m.items {
		if filter.SpecialityID != "" && year.SpecialityID != filter.SpecialityID {
			continue
		}
		out = append(out, *year)
	}
	return out, len(out), nil
}

func (m *mockYearRepo) FindByID(ctx context.Context, id string) (*models.Year, error) {
	year, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *year
	return &copied, nil
}

func (m *mockYearRepo) ExistsNumber(ctx context.Context, specialityID string, yearNumber int, excludeID string) (bool, error) {
	for id, year := range m.items {
		if id == excludeID {
			continue
		}
		if year.SpecialityID == specialityID && year.YearNumber == yearNumber {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockYearRepo) CountStudents(ctx context.Context, id string) (int, error) {
	return m.studentCount[id], nil
}

func (m *mockYearRepo) Create(ctx context.Context, year *models.Year) error {
	m.seq++
	year.ID = fmt.Sprintf("y%d", m.seq)
	copied := *year
	m.items[year.ID] = &copied
	return nil
}

func (m *mockYearRepo) Update(ctx context.Context, year *models.Year) error {
	copied := *year
	m.items[year.ID] = &copied
	return nil
}

func (m *mockYearRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type mockSpecialityRepo struct {
	items map[string]*models.Speciality
}

func newMockSpecialityRepo(ids ...string) *mockSpecialityRepo {
	m := &mockSpecialityRepo{items: map[string]*models.Speciality{}}
	for _, id := range ids {
		m.items[id] = &models.Speciality{ID: id, Name: models.LocalizedText{Fr: "Spécialité " + id}, IsActive: true}
	}
	return m
}

func (m *mockSpecialityRepo) List(ctx context.Context, filter models.SpecialityFilter) ([]models.SpecialityDetail, int, error) {
	var out []models.SpecialityDetail
	for _, sp := range m.items {
		out = append(out, models.SpecialityDetail{Speciality: *sp})
	}
	return out, len(out), nil
}

func (m *mockSpecialityRepo) FindByID(ctx context.Context, id string) (*models.Speciality, error) {
	sp, ok := m.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return sp, nil
}

func (m *mockSpecialityRepo) ExistsSlug(ctx context.Context, slug, excludeID string) (bool, error) {
	for id, sp := range m.items {
		if id != excludeID && sp.Slug == slug {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSpecialityRepo) Create(ctx context.Context, speciality *models.Speciality) error {
	m.items[speciality.ID] = speciality
	return nil
}

func (m *mockSpecialityRepo) Update(ctx context.Context, speciality *models.Speciality) error {
	m.items[speciality.ID] = speciality
	return nil
}

func (m *mockSpecialityRepo) Delete(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

func yearRequest(specialityID string, number int) CreateYearRequest {
	return CreateYearRequest{
		SpecialityID: specialityID,
		YearNumber:   number,
		Name:         models.LocalizedText{Fr: fmt.Sprintf("%de année", number)},
	}
}

func TestYearServiceCreate(t *testing.T) {
	repo := newMockYearRepo()
	svc := NewYearService(repo, newMockSpecialityRepo("sp1"), nil, nil)

	year, err := svc.Create(context.Background(), yearRequest("sp1", 1))
	require.NoError(t, err)
	assert.NotEmpty(t, year.ID)
	assert.True(t, year.IsActive, "years default to active")
}

func TestYearServiceCreateUnknownSpeciality(t *testing.T) {
	svc := NewYearService(newMockYearRepo(), newMockSpecialityRepo("sp1"), nil, nil)

	_, err := svc.Create(context.Background(), yearRequest("sp9", 1))
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestYearServiceDuplicateNumberScopedToSpeciality(t *testing.T) {
	repo := newMockYearRepo()
	svc := NewYearService(repo, newMockSpecialityRepo("sp1", "sp2"), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, yearRequest("sp1", 2))
	require.NoError(t, err)

	_, err = svc.Create(ctx, yearRequest("sp1", 2))
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_YEAR", appErrors.FromError(err).Code)

	_, err = svc.Create(ctx, yearRequest("sp2", 2))
	assert.NoError(t, err, "same number in another speciality is allowed")
}

func TestYearServiceUpdateKeepsOwnNumber(t *testing.T) {
	repo := newMockYearRepo()
	svc := NewYearService(repo, newMockSpecialityRepo("sp1"), nil, nil)
	ctx := context.Background()

	year, err := svc.Create(ctx, yearRequest("sp1", 3))
	require.NoError(t, err)

	req := yearRequest("sp1", 3)
	req.Name = models.LocalizedText{Fr: "Troisième année"}
	updated, err := svc.Update(ctx, year.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "Troisième année", updated.Name.Fr)
}

func TestYearServiceDeleteBlockedWithStudents(t *testing.T) {
	repo := newMockYearRepo()
	svc := NewYearService(repo, newMockSpecialityRepo("sp1"), nil, nil)
	ctx := context.Background()

	year, err := svc.Create(ctx, yearRequest("sp1", 1))
	require.NoError(t, err)
	repo.studentCount[year.ID] = 12

	err = svc.Delete(ctx, year.ID)
	require.Error(t, err)
	assert.Equal(t, "HAS_STUDENTS", appErrors.FromError(err).Code)

	repo.studentCount[year.ID] = 0
	require.NoError(t, svc.Delete(ctx, year.ID))
	_, err = svc.Get(ctx, year.ID)
	assert.Error(t, err)
}
