package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/ifpm-dz/ifpm-api/internal/models"
	appErrors "github.com/ifpm-dz/ifpm-api/pkg/errors"
)

type scheduleUserReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type scheduleSemesterReader interface {
	List(ctx context.Context, filter models.SemesterFilter) ([]models.Semester, int, error)
	FindByID(ctx context.Context, id string) (*models.Semester, error)
}

type schedulePlanningReader interface {
	FindPublishedBySemester(ctx context.Context, semesterID string) (*models.Planning, error)
	ListItems(ctx context.Context, planningID, groupID string) ([]models.PlanningItemDetail, error)
}

type scheduleImageReader interface {
	FindActiveBySemester(ctx context.Context, semesterID string) (*models.ScheduleImage, error)
}

// ScheduleService assembles the student-facing timetable: the published
// planning filtered to the student's group, plus the active scanned image,
// either of which may be absent.
type ScheduleService struct {
	users     scheduleUserReader
	semesters scheduleSemesterReader
	plannings schedulePlanningReader
	images    scheduleImageReader
	logger    *zap.Logger
}

// NewScheduleService constructs ScheduleService.
func NewScheduleService(users scheduleUserReader, semesters scheduleSemesterReader, plannings schedulePlanningReader, images scheduleImageReader, logger *zap.Logger) *ScheduleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ScheduleService{users: users, semesters: semesters, plannings: plannings, images: images, logger: logger}
}

// ForStudent returns the schedule of one semester for the student. When
// semesterID is empty the first active semester of the student's year is
// used.
func (s *ScheduleService) ForStudent(ctx context.Context, studentID, semesterID string) (*models.StudentSchedule, error) {
	student, err := s.users.FindByID(ctx, studentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	semester, err := s.resolveSemester(ctx, student, semesterID)
	if err != nil {
		return nil, err
	}
	schedule := &models.StudentSchedule{Semester: semester, Items: []models.PlanningItemDetail{}}
	if semester == nil {
		return schedule, nil
	}

	groupID := ""
	if student.GroupID != nil {
		groupID = *student.GroupID
	}

	planning, err := s.plannings.FindPublishedBySemester(ctx, semester.ID)
	switch {
	case err == nil:
		items, err := s.plannings.ListItems(ctx, planning.ID, groupID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list planning items")
		}
		schedule.Planning = planning
		schedule.Items = items
	case errors.Is(err, sql.ErrNoRows):
		// No published planning; the scanned image may still cover it.
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load planning")
	}

	image, err := s.images.FindActiveBySemester(ctx, semester.ID)
	switch {
	case err == nil:
		schedule.ScheduleImage = image
	case errors.Is(err, sql.ErrNoRows):
	default:
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule image")
	}

	return schedule, nil
}

func (s *ScheduleService) resolveSemester(ctx context.Context, student *models.User, semesterID string) (*models.Semester, error) {
	if semesterID != "" {
		semester, err := s.semesters.FindByID(ctx, semesterID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load semester")
		}
		// Students only see semesters of their own study year.
		if student.YearID == nil || semester.YearID != *student.YearID {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "semester not found")
		}
		return semester, nil
	}
	if student.YearID == nil {
		return nil, nil
	}
	active := true
	semesters, _, err := s.semesters.List(ctx, models.SemesterFilter{YearID: *student.YearID, IsActive: &active, PageSize: 1})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list semesters")
	}
	if len(semesters) == 0 {
		return nil, nil
	}
	return &semesters[0], nil
}
