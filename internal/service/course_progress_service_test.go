package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

func newCourseProgressFixture() (*CourseProgressService, *memCourseRepo) {
	repo := newMemCourseRepo(models.CourseProgress{ID: "cp-1", UserID: "teacher-1", ClassID: "class-1", SubjectID: "subject-1", Status: models.CourseProgressNotStarted})
	classes := newMemClassRepo(
		models.Class{ID: "class-1", UserID: "teacher-1", Name: "7A"},
		models.Class{ID: "class-2", UserID: "teacher-1", Name: "7B"},
		models.Class{ID: "class-x", UserID: "teacher-2", Name: "8C"},
	)
	subjects := newMemSubjectRepo(models.Subject{ID: "subject-1", UserID: "teacher-1", Name: "Math"})
	return NewCourseProgressService(repo, classes, subjects, nil, nil), repo
}

func TestCourseProgressCreate(t *testing.T) {
	svc, repo := newCourseProgressFixture()

	cp, err := svc.Create(context.Background(), "teacher-1", dto.CreateCourseProgressRequest{
		ClassID:           "class-2",
		SubjectID:         "subject-1",
		RecurringSchedule: []models.RecurringScheduleSlot{{DayOfWeek: 1, StartHour: 8, EndHour: 10, StartDate: "2025-01-06"}},
	})
	require.NoError(t, err)

	assert.Equal(t, models.CourseProgressNotStarted, cp.Status)
	assert.Equal(t, "teacher-1", cp.UserID)
	assert.Len(t, repo.items, 2)
	assert.Len(t, repo.items[cp.ID].RecurringSchedule, 1)
}

func TestCourseProgressCreateRejectsDuplicatePair(t *testing.T) {
	svc, _ := newCourseProgressFixture()

	_, err := svc.Create(context.Background(), "teacher-1", dto.CreateCourseProgressRequest{ClassID: "class-1", SubjectID: "subject-1"})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRequest)
}

func TestCourseProgressCreateRequiresOwnedClassAndSubject(t *testing.T) {
	svc, _ := newCourseProgressFixture()

	_, err := svc.Create(context.Background(), "teacher-1", dto.CreateCourseProgressRequest{ClassID: "class-x", SubjectID: "subject-1"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = svc.Create(context.Background(), "teacher-1", dto.CreateCourseProgressRequest{ClassID: "class-2", SubjectID: "nope"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestCourseProgressCreateValidatesSlots(t *testing.T) {
	svc, _ := newCourseProgressFixture()

	_, err := svc.Create(context.Background(), "teacher-1", dto.CreateCourseProgressRequest{
		ClassID:           "class-2",
		SubjectID:         "subject-1",
		RecurringSchedule: []models.RecurringScheduleSlot{{DayOfWeek: 8, StartHour: 8, EndHour: 9}},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)

	_, err = svc.Create(context.Background(), "teacher-1", dto.CreateCourseProgressRequest{
		ClassID:           "class-2",
		SubjectID:         "subject-1",
		RecurringSchedule: []models.RecurringScheduleSlot{{DayOfWeek: 1, StartHour: 8, EndHour: 9, StartDate: "06/01/2025"}},
	})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestCourseProgressOwnershipHidesOtherTeachers(t *testing.T) {
	svc, repo := newCourseProgressFixture()
	ctx := context.Background()

	_, err := svc.Get(ctx, "teacher-2", "cp-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	status := models.CourseProgressCompleted
	_, err = svc.Patch(ctx, "teacher-2", "cp-1", dto.PatchCourseProgressRequest{Status: &status})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Equal(t, models.CourseProgressNotStarted, repo.items["cp-1"].Status)

	err = svc.Delete(ctx, "teacher-2", "cp-1")
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, repo.deleted)

	_, errMissing := svc.Get(ctx, "teacher-1", "missing")
	assert.Equal(t, appErrors.FromError(err).Message, appErrors.FromError(errMissing).Message)
}

func TestCourseProgressOwnershipWrapsStoreFailure(t *testing.T) {
	svc, repo := newCourseProgressFixture()
	repo.findErr = errors.New("connection refused")

	_, err := svc.Get(context.Background(), "teacher-1", "cp-1")
	assert.ErrorIs(t, err, appErrors.ErrStore)
}

func TestCourseProgressPatchAndUpdateSchedule(t *testing.T) {
	svc, repo := newCourseProgressFixture()
	ctx := context.Background()

	status := models.CourseProgressInProgress
	auto := true
	cp, err := svc.Patch(ctx, "teacher-1", "cp-1", dto.PatchCourseProgressRequest{Status: &status, AutoScheduled: &auto})
	require.NoError(t, err)
	assert.Equal(t, models.CourseProgressInProgress, cp.Status)
	assert.True(t, repo.items["cp-1"].AutoScheduled)

	cp, err = svc.UpdateSchedule(ctx, "teacher-1", "cp-1", dto.UpdateScheduleRequest{RecurringSchedule: []models.RecurringScheduleSlot{
		{DayOfWeek: 2, StartHour: 10, EndHour: 12},
	}})
	require.NoError(t, err)
	require.Len(t, cp.RecurringSchedule, 1)
	assert.Equal(t, models.CourseProgressInProgress, repo.items["cp-1"].Status)

	cp, err = svc.UpdateSchedule(ctx, "teacher-1", "cp-1", dto.UpdateScheduleRequest{})
	require.NoError(t, err)
	assert.Empty(t, cp.RecurringSchedule)
}

func TestCourseProgressPatchStoreError(t *testing.T) {
	svc, repo := newCourseProgressFixture()
	repo.updateErr = errors.New("deadlock")

	status := models.CourseProgressOnHold
	_, err := svc.Patch(context.Background(), "teacher-1", "cp-1", dto.PatchCourseProgressRequest{Status: &status})
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStore.Code, appErr.Code)
	assert.Equal(t, "failed to update course progress", appErr.Message)
}

func TestCourseProgressDeleteCascades(t *testing.T) {
	svc, repo := newCourseProgressFixture()

	require.NoError(t, svc.Delete(context.Background(), "teacher-1", "cp-1"))
	assert.Equal(t, []string{"cp-1"}, repo.deleted)
}

func TestCourseProgressListFiltersByStatus(t *testing.T) {
	svc, repo := newCourseProgressFixture()
	repo.items["cp-2"] = &models.CourseProgress{ID: "cp-2", UserID: "teacher-1", Status: models.CourseProgressCompleted}
	repo.items["cp-3"] = &models.CourseProgress{ID: "cp-3", UserID: "teacher-2", Status: models.CourseProgressCompleted}

	items, err := svc.List(context.Background(), "teacher-1", dto.CourseProgressQuery{Status: "completed"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "cp-2", items[0].ID)

	_, err = svc.List(context.Background(), "teacher-1", dto.CourseProgressQuery{Status: "archived"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
