package models

import (
	"database/sql/driver"
	"time"
)

// CourseProgressStatus tracks the lifecycle of a class/subject pairing.
type CourseProgressStatus string

const (
	CourseProgressNotStarted CourseProgressStatus = "not_started"
	CourseProgressInProgress CourseProgressStatus = "in_progress"
	CourseProgressCompleted  CourseProgressStatus = "completed"
	CourseProgressOnHold     CourseProgressStatus = "on_hold"
)

// SlotDateLayout is the calendar date format of RecurringScheduleSlot.StartDate.
const SlotDateLayout = "2006-01-02"

// RecurringScheduleSlot is one weekly teaching block. DayOfWeek is ISO (1=Monday..7=Sunday).
type RecurringScheduleSlot struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=1,max=7"`
	StartHour int    `json:"start_hour" validate:"min=0,max=23"`
	EndHour   int    `json:"end_hour" validate:"min=0,max=23"`
	StartDate string `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Valid reports whether the slot has positive capacity.
func (s RecurringScheduleSlot) Valid() bool {
	return s.EndHour > s.StartHour
}

// RecurringSchedule is stored as a JSONB array in insertion order.
type RecurringSchedule []RecurringScheduleSlot

// Value implements driver.Valuer.
func (r RecurringSchedule) Value() (driver.Value, error) {
	if r == nil {
		return "[]", nil
	}
	return jsonValue([]RecurringScheduleSlot(r))
}

// Scan implements sql.Scanner.
func (r *RecurringSchedule) Scan(src interface{}) error {
	return scanJSON(src, (*[]RecurringScheduleSlot)(r))
}

// CourseProgress pairs one class with one subject for one teacher.
type CourseProgress struct {
	ID                string               `db:"id" json:"id"`
	UserID            string               `db:"user_id" json:"user_id"`
	ClassID           string               `db:"class_id" json:"class_id"`
	SubjectID         string               `db:"subject_id" json:"subject_id"`
	Status            CourseProgressStatus `db:"status" json:"status"`
	RecurringSchedule RecurringSchedule    `db:"recurring_schedule" json:"recurring_schedule"`
	AutoScheduled     bool                 `db:"auto_scheduled" json:"auto_scheduled"`
	CreatedAt         time.Time            `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time            `db:"updated_at" json:"updated_at"`
}

// CourseProgressFilter narrows course progress listings.
type CourseProgressFilter struct {
	UserID    string
	Status    CourseProgressStatus
	ExcludeID string
}
