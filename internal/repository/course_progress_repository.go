package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/course-planner-api/internal/models"
)

const courseProgressColumns = `id, user_id, class_id, subject_id, status, recurring_schedule, auto_scheduled, created_at, updated_at`

// CourseProgressRepository persists class/subject pairings and their weekly schedule.
type CourseProgressRepository struct {
	db *sqlx.DB
}

// NewCourseProgressRepository constructs the repository.
func NewCourseProgressRepository(db *sqlx.DB) *CourseProgressRepository {
	return &CourseProgressRepository{db: db}
}

// FindByID returns a course progress by id without any ownership filtering.
func (r *CourseProgressRepository) FindByID(ctx context.Context, id string) (*models.CourseProgress, error) {
	query := `SELECT ` + courseProgressColumns + ` FROM course_progress WHERE id = $1`
	var cp models.CourseProgress
	if err := r.db.GetContext(ctx, &cp, query, id); err != nil {
		return nil, err
	}
	return &cp, nil
}

// List returns course progress rows matching the filter, oldest first.
func (r *CourseProgressRepository) List(ctx context.Context, filter models.CourseProgressFilter) ([]models.CourseProgress, error) {
	var conditions []string
	var args []interface{}

	if filter.UserID != "" {
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)+1))
		args = append(args, filter.UserID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.ExcludeID != "" {
		conditions = append(conditions, fmt.Sprintf("id <> $%d", len(args)+1))
		args = append(args, filter.ExcludeID)
	}

	query := `SELECT ` + courseProgressColumns + ` FROM course_progress`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at ASC, id ASC"

	var items []models.CourseProgress
	if err := r.db.SelectContext(ctx, &items, query, args...); err != nil {
		return nil, fmt.Errorf("list course progress: %w", err)
	}
	return items, nil
}

// ExistsForPair reports whether the teacher already paired the class with the subject.
func (r *CourseProgressRepository) ExistsForPair(ctx context.Context, userID, classID, subjectID string) (bool, error) {
	const query = `SELECT 1 FROM course_progress WHERE user_id = $1 AND class_id = $2 AND subject_id = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, userID, classID, subjectID); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check course progress pair: %w", err)
	}
	return true, nil
}

// Create persists a new course progress.
func (r *CourseProgressRepository) Create(ctx context.Context, cp *models.CourseProgress) error {
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = now
	}
	cp.UpdatedAt = now
	if cp.RecurringSchedule == nil {
		cp.RecurringSchedule = models.RecurringSchedule{}
	}

	const query = `INSERT INTO course_progress (id, user_id, class_id, subject_id, status, recurring_schedule, auto_scheduled, created_at, updated_at)
		VALUES (:id, :user_id, :class_id, :subject_id, :status, :recurring_schedule, :auto_scheduled, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cp); err != nil {
		return fmt.Errorf("create course progress: %w", err)
	}
	return nil
}

// Update writes the mutable fields of a course progress.
func (r *CourseProgressRepository) Update(ctx context.Context, cp *models.CourseProgress) error {
	cp.UpdatedAt = time.Now().UTC()
	const query = `UPDATE course_progress SET status = :status, recurring_schedule = :recurring_schedule, auto_scheduled = :auto_scheduled, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, cp); err != nil {
		return fmt.Errorf("update course progress: %w", err)
	}
	return nil
}

// MarkAutoScheduled flags the course as generated.
func (r *CourseProgressRepository) MarkAutoScheduled(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE course_progress SET auto_scheduled = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, at.UTC()); err != nil {
		return fmt.Errorf("mark course progress auto scheduled: %w", err)
	}
	return nil
}

// DeleteCascade removes the course progress after all of its lesson progress rows.
func (r *CourseProgressRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete course progress: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM lesson_progress WHERE course_progress_id = $1`, id); err != nil {
		return fmt.Errorf("delete lesson progress for course: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM course_progress WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete course progress: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete course progress: %w", err)
	}
	return nil
}
