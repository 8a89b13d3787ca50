package models

import (
	"database/sql/driver"
	"time"
)

// Well-known lesson progress statuses. Other values are stored as given.
const (
	LessonProgressNotStarted = "not_started"
	LessonProgressScheduled  = "scheduled"
	LessonProgressInProgress = "in_progress"
	LessonProgressCompleted  = "completed"
)

// LessonComment is a note attached to a lesson occurrence.
type LessonComment struct {
	Title       *string   `json:"title,omitempty"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// LessonComments is stored as a JSONB array.
type LessonComments []LessonComment

// Value implements driver.Valuer.
func (c LessonComments) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	return jsonValue([]LessonComment(c))
}

// Scan implements sql.Scanner.
func (c *LessonComments) Scan(src interface{}) error {
	return scanJSON(src, (*[]LessonComment)(c))
}

// LessonProgress is one scheduled or completed occurrence of a lesson in a course.
type LessonProgress struct {
	ID                string         `db:"id" json:"id"`
	LessonID          string         `db:"lesson_id" json:"lesson_id"`
	CourseProgressID  string         `db:"course_progress_id" json:"course_progress_id"`
	Status            string         `db:"status" json:"status"`
	ScheduledDate     *time.Time     `db:"scheduled_date" json:"scheduled_date,omitempty"`
	ScheduledDuration *int           `db:"scheduled_duration" json:"scheduled_duration,omitempty"`
	CompletedAt       *time.Time     `db:"completed_at" json:"completed_at,omitempty"`
	Comments          LessonComments `db:"comments" json:"comments"`
	CreatedAt         time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at" json:"updated_at"`
}

// LessonProgressSchedule is the write set of a scheduler placement.
type LessonProgressSchedule struct {
	Status            string
	ScheduledDate     time.Time
	ScheduledDuration int
}
