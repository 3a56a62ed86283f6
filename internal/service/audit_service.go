package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type auditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, int, error)
}

// AuditService records and lists the admin action trail. Recording failures
// are logged and swallowed so they never break the action itself.
type AuditService struct {
	repo   auditRepository
	logger *zap.Logger
}

// NewAuditService constructs AuditService.
func NewAuditService(repo auditRepository, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{repo: repo, logger: logger}
}

// Record persists one audit entry best-effort.
func (s *AuditService) Record(ctx context.Context, entry *models.AuditLog) {
	if err := s.repo.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit entry",
			zap.String("action", entry.Action),
			zap.String("resource", entry.Resource),
			zap.Error(err))
	}
}

// List returns a filtered page of audit entries.
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.repo.ListAuditLogs(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	return logs, paginationFor(filter.Page, filter.PageSize, total), nil
}
