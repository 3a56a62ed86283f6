package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockScheduleUsers struct{ users map[string]*models.User }

func (m *mockScheduleUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

type mockPlanningReader struct {
	published map[string]*models.Planning
	items     map[string][]models.PlanningItemDetail

	itemGroupIDs []string
}

func (m *mockPlanningReader) FindPublishedBySemester(ctx context.Context, semesterID string) (*models.Planning, error) {
	planning, ok := m.published[semesterID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return planning, nil
}

func (m *mockPlanningReader) ListItems(ctx context.Context, planningID, groupID string) ([]models.PlanningItemDetail, error) {
	m.itemGroupIDs = append(m.itemGroupIDs, groupID)
	return m.items[planningID], nil
}

type mockScheduleImages struct{ active map[string]*models.ScheduleImage }

func (m *mockScheduleImages) FindActiveBySemester(ctx context.Context, semesterID string) (*models.ScheduleImage, error) {
	image, ok := m.active[semesterID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return image, nil
}

func newScheduleFixture() (*mockScheduleUsers, *mockSemesterRepo, *mockPlanningReader, *mockScheduleImages, *ScheduleService) {
	yearID := "y1"
	groupID := "g1"
	users := &mockScheduleUsers{users: map[string]*models.User{
		"u1": {ID: "u1", Role: models.RoleStudent, YearID: &yearID, GroupID: &groupID},
		"u2": {ID: "u2", Role: models.RoleStudent},
	}}
	semesters := newMockSemesterRepo()
	semesters.items["s1"] = &models.Semester{ID: "s1", YearID: "y1", SemesterNumber: 1, IsActive: true}
	plannings := &mockPlanningReader{published: map[string]*models.Planning{}, items: map[string][]models.PlanningItemDetail{}}
	images := &mockScheduleImages{active: map[string]*models.ScheduleImage{}}
	svc := NewScheduleService(users, semesters, plannings, images, nil)
	return users, semesters, plannings, images, svc
}

func TestScheduleServiceForStudent(t *testing.T) {
	_, _, plannings, images, svc := newScheduleFixture()
	plannings.published["s1"] = &models.Planning{ID: "p1", SemesterID: "s1", IsPublished: true}
	plannings.items["p1"] = []models.PlanningItemDetail{
		{ModuleCode: "ANAT-101"},
		{ModuleCode: "PHARM-201"},
	}
	images.active["s1"] = &models.ScheduleImage{ID: "img1", SemesterID: "s1", IsActive: true}

	schedule, err := svc.ForStudent(context.Background(), "u1", "")
	require.NoError(t, err)
	require.NotNil(t, schedule.Semester)
	assert.Equal(t, "s1", schedule.Semester.ID)
	require.NotNil(t, schedule.Planning)
	assert.Len(t, schedule.Items, 2)
	require.NotNil(t, schedule.ScheduleImage)
	assert.Equal(t, []string{"g1"}, plannings.itemGroupIDs, "items must be filtered to the student's group")
}

func TestScheduleServiceNoPublishedPlanning(t *testing.T) {
	_, _, _, images, svc := newScheduleFixture()
	images.active["s1"] = &models.ScheduleImage{ID: "img1", SemesterID: "s1", IsActive: true}

	schedule, err := svc.ForStudent(context.Background(), "u1", "")
	require.NoError(t, err)
	assert.Nil(t, schedule.Planning)
	assert.Empty(t, schedule.Items)
	require.NotNil(t, schedule.ScheduleImage, "the scanned image still covers the semester")
}

func TestScheduleServiceNothingPublished(t *testing.T) {
	_, _, _, _, svc := newScheduleFixture()

	schedule, err := svc.ForStudent(context.Background(), "u1", "")
	require.NoError(t, err)
	require.NotNil(t, schedule.Semester)
	assert.Nil(t, schedule.Planning)
	assert.Nil(t, schedule.ScheduleImage)
	assert.NotNil(t, schedule.Items, "items must encode as an empty array, not null")
}

func TestScheduleServiceStudentWithoutYear(t *testing.T) {
	_, _, _, _, svc := newScheduleFixture()

	schedule, err := svc.ForStudent(context.Background(), "u2", "")
	require.NoError(t, err)
	assert.Nil(t, schedule.Semester)
	assert.Empty(t, schedule.Items)
}

func TestScheduleServiceExplicitSemester(t *testing.T) {
	_, semesters, plannings, _, svc := newScheduleFixture()
	semesters.items["s2"] = &models.Semester{ID: "s2", YearID: "y1", SemesterNumber: 2, IsActive: true}
	plannings.published["s2"] = &models.Planning{ID: "p2", SemesterID: "s2", IsPublished: true}

	schedule, err := svc.ForStudent(context.Background(), "u1", "s2")
	require.NoError(t, err)
	require.NotNil(t, schedule.Semester)
	assert.Equal(t, "s2", schedule.Semester.ID)
	require.NotNil(t, schedule.Planning)
	assert.Equal(t, "p2", schedule.Planning.ID)
}

func TestScheduleServiceExplicitSemesterOutsideOwnYear(t *testing.T) {
	_, semesters, _, _, svc := newScheduleFixture()
	semesters.items["s3"] = &models.Semester{ID: "s3", YearID: "y2", SemesterNumber: 1, IsActive: true}

	_, err := svc.ForStudent(context.Background(), "u1", "s3")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)

	// A student with no year cannot claim any semester explicitly.
	_, err = svc.ForStudent(context.Background(), "u2", "s1")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestScheduleServiceUnknownSemester(t *testing.T) {
	_, _, _, _, svc := newScheduleFixture()

	_, err := svc.ForStudent(context.Background(), "u1", "s9")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}

func TestScheduleServiceUnknownStudent(t *testing.T) {
	_, _, _, _, svc := newScheduleFixture()

	_, err := svc.ForStudent(context.Background(), "ghost", "")
	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", appErrors.FromError(err).Code)
}
