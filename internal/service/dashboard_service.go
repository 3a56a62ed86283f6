package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type dashboardRepository interface {
	AdminCounts(ctx context.Context) (*models.AdminDashboard, error)
	DownloadSeries(ctx context.Context, days int) ([]models.DownloadPoint, error)
	TopNotes(ctx context.Context, limit int) ([]models.TopNote, error)
	CountVisibleNotes(ctx context.Context, studentID string) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type dashboardStudentReader interface {
	YearSummaryByID(ctx context.Context, id string) (*models.YearSummary, error)
	GroupSummaryByID(ctx context.Context, id string) (*models.GroupSummary, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type dashboardModuleReader interface {
	ListByStudent(ctx context.Context, studentID string) ([]models.Module, error)
}

const (
	adminDashboardCacheKey    = "dashboard:admin"
	downloadAnalyticsCacheKey = "dashboard:analytics:%d:%d"
)

// DashboardService serves aggregated statistics. Admin snapshots are cached
// in Redis since they scan several tables.
type DashboardService struct {
	repo      dashboardRepository
	cache     dashboardCache
	users     dashboardStudentReader
	modules   dashboardModuleReader
	downloads studentDownloadReader
	cacheTTL  time.Duration
	logger    *zap.Logger
}

// NewDashboardService constructs DashboardService.
func NewDashboardService(repo dashboardRepository, cache dashboardCache, users dashboardStudentReader, modules dashboardModuleReader, downloads studentDownloadReader, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		repo:      repo,
		cache:     cache,
		users:     users,
		modules:   modules,
		downloads: downloads,
		cacheTTL:  cacheTTL,
		logger:    logger,
	}
}

// Admin returns the admin counter snapshot, served from cache when fresh.
func (s *DashboardService) Admin(ctx context.Context) (*models.AdminDashboard, error) {
	var cached models.AdminDashboard
	if err := s.cache.Get(ctx, adminDashboardCacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("dashboard cache read failed", zap.Error(err))
	}

	counts, err := s.repo.AdminCounts(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard counts")
	}
	if err := s.cache.Set(ctx, adminDashboardCacheKey, counts, s.cacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.Error(err))
	}
	return counts, nil
}

// DownloadAnalytics returns the daily download series and top notes.
func (s *DashboardService) DownloadAnalytics(ctx context.Context, days, topLimit int) (*models.DownloadAnalytics, error) {
	if days <= 0 || days > 365 {
		days = 30
	}
	if topLimit <= 0 || topLimit > 50 {
		topLimit = 10
	}

	key := fmt.Sprintf(downloadAnalyticsCacheKey, days, topLimit)
	var cached models.DownloadAnalytics
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("analytics cache read failed", zap.Error(err))
	}

	daily, err := s.repo.DownloadSeries(ctx, days)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load download series")
	}
	top, err := s.repo.TopNotes(ctx, topLimit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load top notes")
	}

	analytics := &models.DownloadAnalytics{Daily: daily, TopNotes: top}
	if err := s.cache.Set(ctx, key, analytics, s.cacheTTL); err != nil {
		s.logger.Warn("analytics cache write failed", zap.Error(err))
	}
	return analytics, nil
}

// Student builds the student home payload. It is computed per caller and
// never cached.
func (s *DashboardService) Student(ctx context.Context, studentID string) (*models.StudentDashboard, error) {
	user, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	modules, err := s.modules.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load modules")
	}
	visible, err := s.repo.CountVisibleNotes(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notes")
	}
	recent, err := s.downloads.ListDownloadsByStudent(ctx, studentID, 10)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load downloads")
	}

	dashboard := &models.StudentDashboard{
		Modules:         modules,
		AccessibleNotes: visible,
		RecentDownloads: recent,
	}
	if user.YearID != nil {
		if year, err := s.users.YearSummaryByID(ctx, *user.YearID); err == nil {
			dashboard.Year = year
		}
	}
	if user.GroupID != nil {
		if group, err := s.users.GroupSummaryByID(ctx, *user.GroupID); err == nil {
			dashboard.Group = group
		}
	}
	return dashboard, nil
}

// InvalidateAdmin drops cached admin snapshots after counter-changing writes.
func (s *DashboardService) InvalidateAdmin(ctx context.Context) {
	type patternDeleter interface {
		DeleteByPattern(ctx context.Context, pattern string) error
	}
	if deleter, ok := s.cache.(patternDeleter); ok {
		if err := deleter.DeleteByPattern(ctx, "dashboard:*"); err != nil {
			s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
		}
	}
}
