package models

import "time"

// CourseType classifies a planning slot.
type CourseType string

const (
	CourseTypeCours  CourseType = "cours"
	CourseTypeTD     CourseType = "td"
	CourseTypeTP     CourseType = "tp"
	CourseTypeExamen CourseType = "examen"
)

// Planning is the structured weekly timetable for one semester (unique
// semester FK). Students only see published plannings.
type Planning struct {
	ID           string    `db:"id" json:"id"`
	SemesterID   string    `db:"semester_id" json:"semester_id"`
	AcademicYear string    `db:"academic_year" json:"academic_year"`
	ImagePath    *string   `db:"image_path" json:"image_path,omitempty"`
	IsPublished  bool      `db:"is_published" json:"is_published"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// PlanningItem is one weekly slot (day 1-7, start < end, optionally scoped
// to a group).
type PlanningItem struct {
	ID           string     `db:"id" json:"id"`
	PlanningID   string     `db:"planning_id" json:"planning_id"`
	ModuleID     string     `db:"module_id" json:"module_id"`
	GroupID      *string    `db:"group_id" json:"group_id,omitempty"`
	DayOfWeek    int        `db:"day_of_week" json:"day_of_week"`
	StartTime    string     `db:"start_time" json:"start_time"`
	EndTime      string     `db:"end_time" json:"end_time"`
	Room         *string    `db:"room" json:"room,omitempty"`
	TeacherName  *string    `db:"teacher_name" json:"teacher_name,omitempty"`
	TeacherEmail *string    `db:"teacher_email" json:"teacher_email,omitempty"`
	CourseType   CourseType `db:"course_type" json:"course_type"`
	Order        int        `db:"display_order" json:"order"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updated_at"`
}

// PlanningItemDetail joins the module title for timetable rendering.
type PlanningItemDetail struct {
	PlanningItem
	ModuleTitle LocalizedText `db:"module_title" json:"module_title"`
	ModuleCode  string        `db:"module_code" json:"module_code"`
}

// PlanningFilter captures list filters.
type PlanningFilter struct {
	SemesterID   string
	AcademicYear string
	IsPublished  *bool
	Page         int
	PageSize     int
}

// ScheduleImage is a scanned timetable picture, the non-structured
// alternative to Planning. One active image per semester.
type ScheduleImage struct {
	ID               string    `db:"id" json:"id"`
	SemesterID       string    `db:"semester_id" json:"semester_id"`
	ImagePath        string    `db:"image_path" json:"image_path"`
	OriginalFilename string    `db:"original_filename" json:"original_filename"`
	UploadedBy       string    `db:"uploaded_by" json:"uploaded_by"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}

/// StudentSchedule is the student-facing read model: the union of the
// published structured planning and the active schedule image, either of
// which may be absent.
type StudentSchedule struct {
	Semester      *Semester            `json:"semester"`
	Planning      *Planning            `json:"planning"`
	Items         []PlanningItemDetail `json:"items"`
	ScheduleImage *ScheduleImage       `json:"schedule_image,omitempty"`
}
