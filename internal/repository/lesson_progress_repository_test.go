package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/models"
)

var lessonProgressRowColumns = []string{"id", "lesson_id", "course_progress_id", "status", "scheduled_date", "scheduled_duration", "completed_at", "comments", "created_at", "updated_at"}

func TestLessonProgressRepositoryListByCourse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	now := time.Now()
	scheduled := time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(lessonProgressRowColumns).
		AddRow("lp-1", "lesson-1", "cp-1", "scheduled", scheduled, 60, nil, []byte(`[{"description":"bring rulers","created_at":"2025-01-01T00:00:00Z","updated_at":"2025-01-01T00:00:00Z"}]`), now, now).
		AddRow("lp-2", "lesson-2", "cp-1", "not_started", nil, nil, nil, []byte(`[]`), now, now)
	mock.ExpectQuery(regexp.QuoteMeta("FROM lesson_progress WHERE course_progress_id = $1 ORDER BY scheduled_date ASC NULLS LAST")).
		WithArgs("cp-1").
		WillReturnRows(rows)

	items, err := repo.ListByCourse(context.Background(), "cp-1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.NotNil(t, items[0].ScheduledDate)
	assert.True(t, items[0].ScheduledDate.Equal(scheduled))
	assert.Equal(t, 60, *items[0].ScheduledDuration)
	require.Len(t, items[0].Comments, 1)
	assert.Equal(t, "bring rulers", items[0].Comments[0].Description)
	assert.Nil(t, items[1].ScheduledDate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonProgressRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	date := time.Date(2025, 1, 6, 8, 30, 0, 0, time.UTC)
	duration := 30
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO lesson_progress")).
		WithArgs(sqlmock.AnyArg(), "lesson-1", "cp-1", "scheduled", date, int64(duration), nil, "[]", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	lp := &models.LessonProgress{LessonID: "lesson-1", CourseProgressID: "cp-1", Status: models.LessonProgressScheduled, ScheduledDate: &date, ScheduledDuration: &duration}
	require.NoError(t, repo.Create(context.Background(), lp))
	assert.NotEmpty(t, lp.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonProgressRepositoryUpdateSchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	date := time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE lesson_progress SET status = $2, scheduled_date = $3, scheduled_duration = $4")).
		WithArgs("lp-1", "scheduled", date, 45, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateSchedule(context.Background(), "lp-1", models.LessonProgressSchedule{Status: "scheduled", ScheduledDate: date, ScheduledDuration: 45})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLessonProgressRepositoryDeleteByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLessonProgressRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM lesson_progress WHERE course_progress_id = $1 AND status = $2")).
		WithArgs("cp-1", "scheduled").
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := repo.DeleteByStatus(context.Background(), "cp-1", models.LessonProgressScheduled)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
