package dto

import "github.com/noah-isme/course-planner-api/internal/models"

// Long lesson handling modes.
const (
	HandleLongLessonsSplit          = "split"
	HandleLongLessonsReduceDuration = "reduce_duration"
)

// Conflict types reported by the conflict check.
const (
	ConflictTypeSelf        = "SELF"
	ConflictTypeCrossCourse = "CROSS_COURSE"
	ConflictTypeInvalidSlot = "INVALID_SLOT"
)

// ConflictCheckRequest carries candidate slots for a course.
type ConflictCheckRequest struct {
	Slots []models.RecurringScheduleSlot `json:"slots" validate:"dive"`
}

// ScheduleConflict describes one overlap between candidate slots or with another course.
type ScheduleConflict struct {
	Conflict                    bool                         `json:"conflict"`
	Type                        string                       `json:"type"`
	Message                     string                       `json:"message"`
	Slot                        models.RecurringScheduleSlot `json:"slot"`
	SlotIndex                   int                          `json:"slot_index"`
	ConflictingCourseProgressID *string                      `json:"conflicting_course_progress_id,omitempty"`
}

// ConflictCheckResponse wraps the detected conflicts.
type ConflictCheckResponse struct {
	HasConflicts bool               `json:"has_conflicts"`
	Conflicts    []ScheduleConflict `json:"conflicts"`
}

// GenerateScheduleOptions tunes lesson placement.
type GenerateScheduleOptions struct {
	HandleLongLessons  string `json:"handle_long_lessons" validate:"omitempty,oneof=split reduce_duration"`
	RegenerateExisting bool   `json:"regenerate_existing"`
}

// Mode returns the effective long lesson mode.
func (o GenerateScheduleOptions) Mode() string {
	if o.HandleLongLessons == "" {
		return HandleLongLessonsSplit
	}
	return o.HandleLongLessons
}

// GenerateScheduleResponse summarises a generation run.
type GenerateScheduleResponse struct {
	Success   bool     `json:"success"`
	Generated int      `json:"generated"`
	Warnings  []string `json:"warnings"`
}
