package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type groupRepository interface {
	List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ExistsName(ctx context.Context, specialityID, yearID, name, excludeID string) (bool, error)
	CountStudents(ctx context.Context, id string) (int, error)
	Create(ctx context.Context, group *models.Group) error
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
}

// CreateGroupRequest captures the creation payload. The code is derived, not
// provided.
type CreateGroupRequest struct {
	SpecialityID string `json:"speciality_id" validate:"required"`
	YearID       string `json:"year_id" validate:"required"`
	Name         string `json:"name" validate:"required"`
	Capacity     *int   `json:"capacity" validate:"omitempty,min=1"`
	IsActive     *bool  `json:"is_active"`
}

// UpdateGroupRequest modifies group fields.
type UpdateGroupRequest = CreateGroupRequest

// GroupService coordinates student group operations.
type GroupService struct {
	repo      groupRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs GroupService.
func NewGroupService(repo groupRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if validate == nil {
		validate = NewValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, validator: validate, logger: logger}
}

// GroupCode derives the unique group code from its scope and name.
func GroupCode(specialityID, yearID, name string) string {
	return fmt.Sprintf("SPEC%s-Y%s-%s", specialityID, yearID, name)
}

// List returns groups with student counts.
func (s *GroupService) List(ctx context.Context, filter models.GroupFilter) ([]models.GroupDetail, *models.Pagination, error) {
	groups, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, paginationFor(filter.Page, filter.PageSize, total), nil
}

// Get returns one group.
func (s *GroupService) Get(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

// Create adds a group. The name must be unique within the speciality and
// year pair.
func (s *GroupService) Create(ctx context.Context, req CreateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid group payload")
	}

	exists, err := s.repo.ExistsName(ctx, req.SpecialityID, req.YearID, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrDuplicateGroup, "a group with this name already exists for the year")
	}

	group := &models.Group{
		SpecialityID: req.SpecialityID,
		YearID:       req.YearID,
		Name:         req.Name,
		Code:         GroupCode(req.SpecialityID, req.YearID, req.Name),
		Capacity:     req.Capacity,
		IsActive:     boolOrDefault(req.IsActive, true),
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}
	return group, nil
}

// Update modifies an existing group and re-derives its code.
func (s *GroupService) Update(ctx context.Context, id string, req UpdateGroupRequest) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Validation(err, "invalid group payload")
	}

	group, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.SpecialityID != group.SpecialityID || req.YearID != group.YearID || req.Name != group.Name {
		exists, err := s.repo.ExistsName(ctx, req.SpecialityID, req.YearID, req.Name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check group name")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrDuplicateGroup, "a group with this name already exists for the year")
		}
	}

	group.SpecialityID = req.SpecialityID
	group.YearID = req.YearID
	group.Name = req.Name
	group.Code = GroupCode(req.SpecialityID, req.YearID, req.Name)
	group.Capacity = req.Capacity
	if req.IsActive != nil {
		group.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}
	return group, nil
}

// Delete removes a group. Deletion is blocked while students are assigned
// to it.
func (s *GroupService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	count, err := s.repo.CountStudents(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if count > 0 {
		return appErrors.Clone(appErrors.ErrHasStudents, "group still has students assigned")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}
	return nil
}
