package dto

import (
	"time"

	"github.com/noah-isme/course-planner-api/internal/models"
)

// CreateClassRequest registers a class for the authenticated teacher.
type CreateClassRequest struct {
	Name  string  `json:"name" validate:"required,max=120"`
	Grade *string `json:"grade" validate:"omitempty,max=32"`
}

// CreateSubjectRequest registers a subject for the authenticated teacher.
type CreateSubjectRequest struct {
	Name        string  `json:"name" validate:"required,max=120"`
	Description *string `json:"description" validate:"omitempty,max=2000"`
}

// CreateLessonRequest adds a lesson to a subject.
type CreateLessonRequest struct {
	Label       string  `json:"label" validate:"required,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Duration    int     `json:"duration" validate:"min=0,max=1440"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
}

// PatchLessonRequest carries optional lesson changes; nil fields are left as stored.
type PatchLessonRequest struct {
	Label       *string `json:"label" validate:"omitempty,min=1,max=200"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	Duration    *int    `json:"duration" validate:"omitempty,min=0,max=1440"`
	Order       *int    `json:"order" validate:"omitempty,min=0"`
}

// CreateCourseProgressRequest pairs a class with a subject.
type CreateCourseProgressRequest struct {
	ClassID           string                         `json:"class_id" validate:"required"`
	SubjectID         string                         `json:"subject_id" validate:"required"`
	Status            *models.CourseProgressStatus   `json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold"`
	RecurringSchedule []models.RecurringScheduleSlot `json:"recurring_schedule" validate:"omitempty,dive"`
}

// PatchCourseProgressRequest carries optional course progress changes.
type PatchCourseProgressRequest struct {
	Status            *models.CourseProgressStatus   `json:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold"`
	RecurringSchedule []models.RecurringScheduleSlot `json:"recurring_schedule" validate:"omitempty,dive"`
	AutoScheduled     *bool                          `json:"auto_scheduled"`
}

// CourseProgressQuery filters the course progress listing.
type CourseProgressQuery struct {
	Status string `form:"status" validate:"omitempty,oneof=not_started in_progress completed on_hold"`
}

// UpdateScheduleRequest replaces the recurring schedule of a course.
type UpdateScheduleRequest struct {
	RecurringSchedule []models.RecurringScheduleSlot `json:"recurring_schedule" validate:"dive"`
}

// CreateLessonProgressRequest schedules a lesson manually.
type CreateLessonProgressRequest struct {
	LessonID          string     `json:"lesson_id" validate:"required"`
	Status            *string    `json:"status" validate:"omitempty,max=32"`
	ScheduledDate     *time.Time `json:"scheduled_date"`
	ScheduledDuration *int       `json:"scheduled_duration" validate:"omitempty,min=1,max=1440"`
}

// PatchLessonProgressRequest carries optional lesson progress changes.
type PatchLessonProgressRequest struct {
	Status            *string    `json:"status" validate:"omitempty,max=32"`
	ScheduledDate     *time.Time `json:"scheduled_date"`
	ScheduledDuration *int       `json:"scheduled_duration" validate:"omitempty,min=1,max=1440"`
}

// AddCommentRequest appends a note to a lesson occurrence.
type AddCommentRequest struct {
	Title       *string `json:"title" validate:"omitempty,max=200"`
	Description string  `json:"description" validate:"required,max=4000"`
}
