package service

import (
	"context"
	"database/sql"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockPlanningRepo struct {
	plannings map[string]*models.Planning
	items     map[string]*models.PlanningItem
	nextID    int
}

func newMockPlanningRepo() *mockPlanningRepo {
	return &mockPlanningRepo{plannings: map[string]*models.Planning{}, items: map[string]*models.PlanningItem{}}
}

func (m *mockPlanningRepo) List(ctx context.Context, filter models.PlanningFilter) ([]models.Planning, int, error) {
	out := make([]models.Planning, 0, len(m.plannings))
	for _, p := range m.plannings {
		out = append(out, *p)
	}
	return out, len(out), nil
}

func (m *mockPlanningRepo) FindByID(ctx context.Context, id string) (*models.Planning, error) {
	if p, ok := m.plannings[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlanningRepo) FindBySemester(ctx context.Context, semesterID string) (*models.Planning, error) {
	for _, p := range m.plannings {
		if p.SemesterID == semesterID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlanningRepo) FindPublishedBySemester(ctx context.Context, semesterID string) (*models.Planning, error) {
	for _, p := range m.plannings {
		if p.SemesterID == semesterID && p.IsPublished {
			cp := *p
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlanningRepo) ExistsForSemester(ctx context.Context, semesterID, excludeID string) (bool, error) {
	for id, p := range m.plannings {
		if p.SemesterID == semesterID && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockPlanningRepo) Create(ctx context.Context, planning *models.Planning) error {
	m.nextID++
	if planning.ID == "" {
		planning.ID = "p" + strconv.Itoa(m.nextID)
	}
	cp := *planning
	m.plannings[planning.ID] = &cp
	return nil
}

func (m *mockPlanningRepo) Update(ctx context.Context, planning *models.Planning) error {
	cp := *planning
	m.plannings[planning.ID] = &cp
	return nil
}

func (m *mockPlanningRepo) SetPublished(ctx context.Context, id string, published bool) error {
	if p, ok := m.plannings[id]; ok {
		p.IsPublished = published
	}
	return nil
}

func (m *mockPlanningRepo) Delete(ctx context.Context, id string) error {
	delete(m.plannings, id)
	return nil
}

func (m *mockPlanningRepo) ListItems(ctx context.Context, planningID, groupID string) ([]models.PlanningItemDetail, error) {
	return nil, nil
}

func (m *mockPlanningRepo) FindItemByID(ctx context.Context, id string) (*models.PlanningItem, error) {
	if item, ok := m.items[id]; ok {
		cp := *item
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlanningRepo) CreateItem(ctx context.Context, item *models.PlanningItem) error {
	m.nextID++
	if item.ID == "" {
		item.ID = "it" + strconv.Itoa(m.nextID)
	}
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockPlanningRepo) UpdateItem(ctx context.Context, item *models.PlanningItem) error {
	cp := *item
	m.items[item.ID] = &cp
	return nil
}

func (m *mockPlanningRepo) DeleteItem(ctx context.Context, id string) error {
	delete(m.items, id)
	return nil
}

type mockPlanningModules struct{ ids map[string]bool }

func (m *mockPlanningModules) List(ctx context.Context, filter models.ModuleFilter) ([]models.Module, int, error) {
	return nil, 0, nil
}

func (m *mockPlanningModules) FindByID(ctx context.Context, id string) (*models.Module, error) {
	if m.ids[id] {
		return &models.Module{ID: id}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockPlanningModules) ExistsCode(ctx context.Context, specialityID, code, excludeID string) (bool, error) {
	return false, nil
}

func (m *mockPlanningModules) Create(ctx context.Context, module *models.Module) error { return nil }

func (m *mockPlanningModules) Update(ctx context.Context, module *models.Module) error { return nil }

func (m *mockPlanningModules) Delete(ctx context.Context, id string) error { return nil }

func (m *mockPlanningModules) ListYearAssignments(ctx context.Context, moduleID string) ([]models.ModuleYearAssignment, error) {
	return nil, nil
}

func (m *mockPlanningModules) ReplaceYearAssignments(ctx context.Context, moduleID string, assignments []models.ModuleYearAssignment) error {
	return nil
}

func (m *mockPlanningModules) ReplaceEnrollments(ctx context.Context, studentID string, moduleIDs []string) error {
	return nil
}

func (m *mockPlanningModules) IsEnrolled(ctx context.Context, studentID, moduleID string) (bool, error) {
	return false, nil
}

func (m *mockPlanningModules) ListByStudent(ctx context.Context, studentID string) ([]models.Module, error) {
	return nil, nil
}

func (m *mockPlanningModules) ListEnrolledSpecialities(ctx context.Context, studentID string) ([]string, error) {
	return nil, nil
}

func newPlanningFixture() (*mockPlanningRepo, *PlanningService) {
	repo := newMockPlanningRepo()
	repo.plannings["p1"] = &models.Planning{ID: "p1", SemesterID: "s1", AcademicYear: "2025-2026"}
	semesters := newMockSemesterRepo()
	semesters.items["s1"] = &models.Semester{ID: "s1", YearID: "y1", SemesterNumber: 1, IsActive: true}
	modules := &mockPlanningModules{ids: map[string]bool{"m1": true}}
	svc := NewPlanningService(repo, semesters, modules, newMemBlobStore(), NewValidator(), nil)
	return repo, svc
}

func slotRequest() PlanningItemRequest {
	return PlanningItemRequest{
		ModuleID:   "m1",
		DayOfWeek:  1,
		StartTime:  "08:30",
		EndTime:    "10:00",
		CourseType: models.CourseTypeCours,
	}
}

func TestPlanningServiceAddItem(t *testing.T) {
	repo, svc := newPlanningFixture()

	item, err := svc.AddItem(context.Background(), "p1", slotRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.Equal(t, "p1", item.PlanningID)
	assert.Equal(t, "08:30", item.StartTime)
	require.Contains(t, repo.items, item.ID)
}

func TestPlanningServiceAddItemNormalizesTimes(t *testing.T) {
	_, svc := newPlanningFixture()

	req := slotRequest()
	req.StartTime = "9:00"
	req.EndTime = "10:00"

	item, err := svc.AddItem(context.Background(), "p1", req)
	require.NoError(t, err)
	assert.Equal(t, "09:00", item.StartTime, "times must be stored zero padded so SQL ordering is chronological")
	assert.Equal(t, "10:00", item.EndTime)
}

func TestPlanningServiceAddItemRejectsMalformedTimes(t *testing.T) {
	_, svc := newPlanningFixture()

	for _, tc := range []struct{ start, end string }{
		{"99:99", "10:00"},
		{"08:00", "25:61"},
		{"morning", "10:00"},
	} {
		req := slotRequest()
		req.StartTime = tc.start
		req.EndTime = tc.end
		_, err := svc.AddItem(context.Background(), "p1", req)
		require.Error(t, err, "start=%s end=%s", tc.start, tc.end)
		assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
	}
}

func TestPlanningServiceAddItemRejectsInvertedRange(t *testing.T) {
	_, svc := newPlanningFixture()

	req := slotRequest()
	req.StartTime = "14:00"
	req.EndTime = "09:00"
	_, err := svc.AddItem(context.Background(), "p1", req)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)

	req.EndTime = "14:00"
	_, err = svc.AddItem(context.Background(), "p1", req)
	require.Error(t, err)
	assert.Equal(t, "VALIDATION_ERROR", appErrors.FromError(err).Code)
}

func TestPlanningServiceAddItemUnknownModule(t *testing.T) {
	_, svc := newPlanningFixture()

	req := slotRequest()
	req.ModuleID = "ghost"
	_, err := svc.AddItem(context.Background(), "p1", req)
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestPlanningServiceUpdateItemNormalizesTimes(t *testing.T) {
	repo, svc := newPlanningFixture()
	repo.items["it1"] = &models.PlanningItem{ID: "it1", PlanningID: "p1", ModuleID: "m1", DayOfWeek: 2, StartTime: "08:00", EndTime: "09:30", CourseType: models.CourseTypeCours}

	req := slotRequest()
	req.DayOfWeek = 3
	req.StartTime = "8:15"
	req.EndTime = "9:45"

	item, err := svc.UpdateItem(context.Background(), "it1", req)
	require.NoError(t, err)
	assert.Equal(t, 3, item.DayOfWeek)
	assert.Equal(t, "08:15", item.StartTime)
	assert.Equal(t, "09:45", item.EndTime)
}
