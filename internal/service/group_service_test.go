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

type mockGroupRepo struct {
	items        map[string]*models.Group
	nameIndex    map[string]string
	studentCount map[string]int
	deleted      []string
}

func newMockGroupRepo() *mockGroupRepo {
	return &mockGroupRepo{
		items:        map[string]*models.Group{},
		nameIndex:    map[string]string{},
		studentCount: map[string]int{},
	}
}

func groupNameKey(specialityID, yearID, name string) string {
	return fmt.Sprintf("%s|%s|%s", specialityID, yearID, name)
}

func (m *mockGroupRepo) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error) {
	return nil, 0, nil
}

func (m *mockGroupRepo) FindByID(ctx context.Context, id string) (*models.Group, error) {
	if g, ok := m.items[id]; ok {
		cp := *g
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockGroupRepo) ExistsName(ctx context.Context, specialityID, yearID, name, excludeID string) (bool, error) {
	owner, ok := m.nameIndex[groupNameKey(specialityID, yearID, name)]
	return ok && owner != excludeID, nil
}

func (m *mockGroupRepo) CountStudents(ctx context.Context, id string) (int, error) {
	return m.studentCount[id], nil
}

func (m *mockGroupRepo) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = "generated"
	}
	cp := *group
	m.items[group.ID] = &cp
	m.nameIndex[groupNameKey(group.SpecialityID, group.YearID, group.Name)] = group.ID
	return nil
}

func (m *mockGroupRepo) Update(ctx context.Context, group *models.Group) error {
	cp := *group
	m.items[group.ID] = &cp
	return nil
}

func (m *mockGroupRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.items, id)
	return nil
}

func TestGroupServiceCreateDerivesCode(t *testing.T) {
	repo := newMockGroupRepo()
	svc := NewGroupService(repo, nil, nil)

	group, err := svc.Create(context.Background(), CreateGroupRequest{
		SpecialityID: "sp1",
		YearID:       "y2",
		Name:         "A",
	})
	require.NoError(t, err)
	assert.Equal(t, "SPECsp1-Yy2-A", group.Code)
	assert.True(t, group.IsActive)
}

func TestGroupServiceCreateDuplicateScopedToYear(t *testing.T) {
	repo := newMockGroupRepo()
	repo.nameIndex[groupNameKey("sp1", "y2", "A")] = "other"
	svc := NewGroupService(repo, nil, nil)

	_, err := svc.Create(context.Background(), CreateGroupRequest{
		SpecialityID: "sp1", YearID: "y2", Name: "A",
	})
	require.Error(t, err)
	assert.Equal(t, "DUPLICATE_GROUP", appErrors.FromError(err).Code)

	// The same name under a different year is fine.
	_, err = svc.Create(context.Background(), CreateGroupRequest{
		SpecialityID: "sp1", YearID: "y3", Name: "A",
	})
	require.NoError(t, err)
}

func TestGroupServiceUpdateRederivesCode(t *testing.T) {
	repo := newMockGroupRepo()
	repo.items["g1"] = &models.Group{ID: "g1", SpecialityID: "sp1", YearID: "y2", Name: "A", Code: "SPECsp1-Yy2-A"}
	svc := NewGroupService(repo, nil, nil)

	group, err := svc.Update(context.Background(), "g1", UpdateGroupRequest{
		SpecialityID: "sp1", YearID: "y2", Name: "B",
	})
	require.NoError(t, err)
	assert.Equal(t, "SPECsp1-Yy2-B", group.Code)
}

func TestGroupServiceDeleteBlockedWithStudents(t *testing.T) {
	repo := newMockGroupRepo()
	repo.items["g1"] = &models.Group{ID: "g1", SpecialityID: "sp1", YearID: "y2", Name: "A"}
	repo.studentCount["g1"] = 3
	svc := NewGroupService(repo, nil, nil)

	err := svc.Delete(context.Background(), "g1")
	require.Error(t, err)
	assert.Equal(t, "HAS_STUDENTS", appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)

	repo.studentCount["g1"] = 0
	require.NoError(t, svc.Delete(context.Background(), "g1"))
	assert.Equal(t, []string{"g1"}, repo.deleted)
}
