package models

import "time"

// DefaultLessonDurationMinutes applies when a lesson has no positive duration.
const DefaultLessonDurationMinutes = 60

// Lesson is a unit of subject content.
type Lesson struct {
	ID          string    `db:"id" json:"id"`
	UserID      string    `db:"user_id" json:"user_id"`
	SubjectID   string    `db:"subject_id" json:"subject_id"`
	Label       string    `db:"label" json:"label"`
	Description *string   `db:"description" json:"description,omitempty"`
	Duration    int       `db:"duration" json:"duration"`
	Order       *int      `db:"lesson_order" json:"order,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// DurationMinutes returns the usable duration of the lesson.
func (l Lesson) DurationMinutes() int {
	if l.Duration <= 0 {
		return DefaultLessonDurationMinutes
	}
	return l.Duration
}
