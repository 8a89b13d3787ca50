package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const lessonProgressColumns = `id, lesson_id, course_progress_id, status, scheduled_date, scheduled_duration, completed_at, comments, created_at, updated_at`

// LessonProgressRepository persists lesson occurrences.
type LessonProgressRepository struct {
	db *sqlx.DB
}

// NewLessonProgressRepository constructs the repository.
func NewLessonProgressRepository(db *sqlx.DB) *LessonProgressRepository {
	return &LessonProgressRepository{db: db}
}

// FindByID returns a lesson progress by id.
func (r *LessonProgressRepository) FindByID(ctx context.Context, id string) (*models.LessonProgress, error) {
	query := `SELECT ` + lessonProgressColumns + ` FROM lesson_progress WHERE id = $1`
	var lp models.LessonProgress
	if err := r.db.GetContext(ctx, &lp, query, id); err != nil {
		return nil, err
	}
	return &lp, nil
}

// ListByCourse returns a course's occurrences in calendar order, unscheduled ones last.
func (r *LessonProgressRepository) ListByCourse(ctx context.Context, courseProgressID string) ([]models.LessonProgress, error) {
	query := `SELECT ` + lessonProgressColumns + ` FROM lesson_progress WHERE course_progress_id = $1 ORDER BY scheduled_date ASC NULLS LAST, created_at ASC, id ASC`
	var items []models.LessonProgress
	if err := r.db.SelectContext(ctx, &items, query, courseProgressID); err != nil {
		return nil, fmt.Errorf("list lesson progress: %w", err)
	}
	return items, nil
}

// FindByLesson returns the first occurrence of a lesson within a course.
func (r *LessonProgressRepository) FindByLesson(ctx context.Context, courseProgressID, lessonID string) (*models.LessonProgress, error) {
	query := `SELECT ` + lessonProgressColumns + ` FROM lesson_progress WHERE course_progress_id = $1 AND lesson_id = $2 ORDER BY created_at ASC LIMIT 1`
	var lp models.LessonProgress
	if err := r.db.GetContext(ctx, &lp, query, courseProgressID, lessonID); err != nil {
		return nil, err
	}
	return &lp, nil
}

// Create persists a new lesson progress.
func (r *LessonProgressRepository) Create(ctx context.Context, lp *models.LessonProgress) error {
	if lp.ID == "" {
		lp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if lp.CreatedAt.IsZero() {
		lp.CreatedAt = now
	}
	lp.UpdatedAt = now
	if lp.Comments == nil {
		lp.Comments = models.LessonComments{}
	}

	const query = `INSERT INTO lesson_progress (id, lesson_id, course_progress_id, status, scheduled_date, scheduled_duration, completed_at, comments, created_at, updated_at)
		VALUES (:id, :lesson_id, :course_progress_id, :status, :scheduled_date, :scheduled_duration, :completed_at, :comments, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, lp); err != nil {
		return fmt.Errorf("create lesson progress: %w", err)
	}
	return nil
}

// Update writes every mutable field of a lesson progress.
func (r *LessonProgressRepository) Update(ctx context.Context, lp *models.LessonProgress) error {
	lp.UpdatedAt = time.Now().UTC()
	const query = `UPDATE lesson_progress SET status = :status, scheduled_date = :scheduled_date, scheduled_duration = :scheduled_duration,
		completed_at = :completed_at, comments = :comments, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, lp); err != nil {
		return fmt.Errorf("update lesson progress: %w", err)
	}
	return nil
}

// UpdateSchedule moves an existing occurrence to a new placement.
func (r *LessonProgressRepository) UpdateSchedule(ctx context.Context, id string, schedule models.LessonProgressSchedule) error {
	const query = `UPDATE lesson_progress SET status = $2, scheduled_date = $3, scheduled_duration = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, schedule.Status, schedule.ScheduledDate, schedule.ScheduledDuration, time.Now().UTC()); err != nil {
		return fmt.Errorf("update lesson progress schedule: %w", err)
	}
	return nil
}

// DeleteByStatus removes every occurrence of a course with the given status.
func (r *LessonProgressRepository) DeleteByStatus(ctx context.Context, courseProgressID, status string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM lesson_progress WHERE course_progress_id = $1 AND status = $2`, courseProgressID, status)
	if err != nil {
		return 0, fmt.Errorf("delete lesson progress by status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete lesson progress by status: %w", err)
	}
	return affected, nil
}

// Delete removes a lesson progress.
func (r *LessonProgressRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM lesson_progress WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson progress: %w", err)
	}
	return nil
}
