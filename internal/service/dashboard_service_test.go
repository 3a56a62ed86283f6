package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type mockDashboardRepo struct {
	counts       models.AdminDashboard
	series       []models.DownloadPoint
	top          []models.TopNote
	visibleNotes int

	countsCalls int
	seriesDays  []int
	topLimits   []int
}

func (m *mockDashboardRepo) AdminCounts(ctx context.Context) (*models.AdminDashboard, error) {
	m.countsCalls++
	counts := m.counts
	return &counts, nil
}

func (m *mockDashboardRepo) DownloadSeries(ctx context.Context, days int) ([]models.DownloadPoint, error) {
	m.seriesDays = append(m.seriesDays, days)
	return m.series, nil
}

func (m *mockDashboardRepo) TopNotes(ctx context.Context, limit int) ([]models.TopNote, error) {
	m.topLimits = append(m.topLimits, limit)
	return m.top, nil
}

func (m *mockDashboardRepo) CountVisibleNotes(ctx context.Context, studentID string) (int, error) {
	return m.visibleNotes, nil
}

// memCache mirrors the Redis cache repository: values are stored as JSON so
// Get exercises the same unmarshal path production code relies on.
type memCache struct {
	entries  map[string][]byte
	ttls     map[string]time.Duration
	patterns []string
}

func newMemCache() *memCache {
	return &memCache{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	c.ttls[key] = ttl
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.patterns = append(c.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
		}
	}
	return nil
}

type mockDashboardUsers struct {
	users  map[string]*models.User
	years  map[string]*models.YearSummary
	groups map[string]*models.GroupSummary
}

func (m *mockDashboardUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
	}
	return user, nil
}

func (m *mockDashboardUsers) YearSummaryByID(ctx context.Context, id string) (*models.YearSummary, error) {
	year, ok := m.years[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "year not found")
	}
	return year, nil
}

func (m *mockDashboardUsers) GroupSummaryByID(ctx context.Context, id string) (*models.GroupSummary, error) {
	group, ok := m.groups[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
	}
	return group, nil
}

type mockDashboardModules struct{ modules []models.Module }

func (m *mockDashboardModules) ListByStudent(ctx context.Context, studentID string) ([]models.Module, error) {
	return m.modules, nil
}

func newTestDashboardService(repo *mockDashboardRepo, cache *memCache) *DashboardService {
	users := &mockDashboardUsers{
		users:  map[string]*models.User{},
		years:  map[string]*models.YearSummary{},
		groups: map[string]*models.GroupSummary{},
	}
	return NewDashboardService(repo, cache, users, &mockDashboardModules{}, &mockDownloadReader{}, time.Minute, nil)
}

func TestDashboardServiceAdminCachesSnapshot(t *testing.T) {
	repo := &mockDashboardRepo{counts: models.AdminDashboard{
		TotalStudents:  120,
		ActiveStudents: 95,
		TotalNotes:     340,
		TotalDownloads: 4812,
	}}
	cache := newMemCache()
	svc := newTestDashboardService(repo, cache)
	ctx := context.Background()

	first, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, first.TotalStudents)
	assert.Equal(t, 1, repo.countsCalls)
	assert.Equal(t, time.Minute, cache.ttls["dashboard:admin"])

	repo.counts.TotalStudents = 999

	second, err := svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 120, second.TotalStudents, "cached snapshot must be served")
	assert.Equal(t, 1, repo.countsCalls, "repo must not be queried on a cache hit")
}

func TestDashboardServiceAdminCacheMissFallsThrough(t *testing.T) {
	repo := &mockDashboardRepo{counts: models.AdminDashboard{TotalFilieres: 4}}
	cache := newMemCache()
	svc := newTestDashboardService(repo, cache)

	got, err := svc.Admin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, got.TotalFilieres)
	assert.Contains(t, cache.entries, "dashboard:admin")
}

func TestDashboardServiceAnalyticsClampsParams(t *testing.T) {
	repo := &mockDashboardRepo{
		series: []models.DownloadPoint{{Count: 3}},
		top:    []models.TopNote{{NoteID: "n1", Title: "Anatomie", DownloadCount: 42}},
	}
	svc := newTestDashboardService(repo, newMemCache())
	ctx := context.Background()

	cases := []struct {
		days, top         int
		wantDays, wantTop int
	}{
		{0, 0, 30, 10},
		{-5, -1, 30, 10},
		{400, 80, 30, 10},
		{90, 25, 90, 25},
	}
	for i, tc := range cases {
		got, err := svc.DownloadAnalytics(ctx, tc.days, tc.top)
		require.NoError(t, err)
		assert.Len(t, got.TopNotes, 1)
		assert.Equal(t, tc.wantDays, repo.seriesDays[i])
		assert.Equal(t, tc.wantTop, repo.topLimits[i])
	}
}

func TestDashboardServiceAnalyticsCachedPerWindow(t *testing.T) {
	repo := &mockDashboardRepo{series: []models.DownloadPoint{{Count: 7}}}
	cache := newMemCache()
	svc := newTestDashboardService(repo, cache)
	ctx := context.Background()

	_, err := svc.DownloadAnalytics(ctx, 7, 5)
	require.NoError(t, err)
	_, err = svc.DownloadAnalytics(ctx, 7, 5)
	require.NoError(t, err)
	assert.Len(t, repo.seriesDays, 1, "second identical request must hit the cache")

	_, err = svc.DownloadAnalytics(ctx, 30, 5)
	require.NoError(t, err)
	assert.Len(t, repo.seriesDays, 2, "a different window is a different cache key")
	assert.Contains(t, cache.entries, "dashboard:analytics:7:5")
	assert.Contains(t, cache.entries, "dashboard:analytics:30:5")
}

func TestDashboardServiceStudent(t *testing.T) {
	yearID := "y2"
	groupID := "g1"
	repo := &mockDashboardRepo{visibleNotes: 17}
	cache := newMemCache()
	users := &mockDashboardUsers{
		users: map[string]*models.User{
			"u1": {ID: "u1", Role: models.RoleStudent, YearID: &yearID, GroupID: &groupID},
		},
		years:  map[string]*models.YearSummary{"y2": {ID: "y2", YearNumber: 2}},
		groups: map[string]*models.GroupSummary{"g1": {ID: "g1", Name: "A", Code: "SPECsp1-Y2-A"}},
	}
	modules := &mockDashboardModules{modules: []models.Module{{ID: "m1", Code: "ANAT-101"}}}
	downloads := &mockDownloadReader{logs: []models.DownloadLog{
		{ID: "d1", NoteID: "n1", StudentID: "u1"},
		{ID: "d2", NoteID: "n2", StudentID: "u1"},
	}}
	svc := NewDashboardService(repo, cache, users, modules, downloads, time.Minute, nil)

	got, err := svc.Student(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 17, got.AccessibleNotes)
	assert.Len(t, got.Modules, 1)
	assert.Len(t, got.RecentDownloads, 2)
	require.NotNil(t, got.Year)
	assert.Equal(t, 2, got.Year.YearNumber)
	require.NotNil(t, got.Group)
	assert.Equal(t, "SPECsp1-Y2-A", got.Group.Code)
	assert.Empty(t, cache.entries, "student dashboards are never cached")
}

func TestDashboardServiceStudentWithoutGroup(t *testing.T) {
	repo := &mockDashboardRepo{}
	users := &mockDashboardUsers{
		users:  map[string]*models.User{"u1": {ID: "u1", Role: models.RoleStudent}},
		years:  map[string]*models.YearSummary{},
		groups: map[string]*models.GroupSummary{},
	}
	svc := NewDashboardService(repo, newMemCache(), users, &mockDashboardModules{}, &mockDownloadReader{}, time.Minute, nil)

	got, err := svc.Student(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, got.Year)
	assert.Nil(t, got.Group)
}

func TestDashboardServiceInvalidateAdmin(t *testing.T) {
	repo := &mockDashboardRepo{}
	cache := newMemCache()
	svc := newTestDashboardService(repo, cache)
	ctx := context.Background()

	_, err := svc.Admin(ctx)
	require.NoError(t, err)
	_, err = svc.DownloadAnalytics(ctx, 7, 5)
	require.NoError(t, err)
	require.NotEmpty(t, cache.entries)

	svc.InvalidateAdmin(ctx)
	assert.Empty(t, cache.entries)
	assert.Equal(t, []string{"dashboard:*"}, cache.patterns)

	_, err = svc.Admin(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.countsCalls, "invalidation must force a recount")
}
