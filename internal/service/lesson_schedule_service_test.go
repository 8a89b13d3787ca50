package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/lock"
)

type scheduleFixture struct {
	courses  *memCourseRepo
	subjects *memSubjectRepo
	lessons  *memLessonRepo
	progress *memProgressRepo
	locker   *lock.LocalLocker
	svc      *LessonScheduleService
}

func newScheduleFixture(schedule []models.RecurringScheduleSlot, lessons ...models.Lesson) *scheduleFixture {
	f := &scheduleFixture{
		courses: newMemCourseRepo(models.CourseProgress{
			ID:                "cp-1",
			UserID:            "teacher-1",
			ClassID:           "class-1",
			SubjectID:         "subject-1",
			Status:            models.CourseProgressInProgress,
			RecurringSchedule: schedule,
		}),
		subjects: newMemSubjectRepo(models.Subject{ID: "subject-1", UserID: "teacher-1", Name: "Math"}),
		lessons:  &memLessonRepo{},
		progress: &memProgressRepo{},
		locker:   lock.NewLocalLocker(),
	}
	for _, l := range lessons {
		l.SubjectID = "subject-1"
		l.UserID = "teacher-1"
		f.lessons.items = append(f.lessons.items, l)
	}
	clock := func() time.Time { return wednesdayMorning }
	f.svc = NewLessonScheduleService(f.courses, f.subjects, f.lessons, f.progress, f.locker, NewMetricsService(), clock, LessonScheduleConfig{}, nil, nil)
	return f
}

type placed struct {
	LessonID string
	At       time.Time
	Minutes  int
}

func (f *scheduleFixture) placements() []placed {
	var out []placed
	for _, lp := range f.progress.items {
		p := placed{LessonID: lp.LessonID}
		if lp.ScheduledDate != nil {
			p.At = *lp.ScheduledDate
		}
		if lp.ScheduledDuration != nil {
			p.Minutes = *lp.ScheduledDuration
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].At.Before(out[j].At) })
	return out
}

func TestGeneratePacksSingleLesson(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 10), models.Lesson{ID: "l1", Label: "Fractions", Duration: 120})

	res, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 1, res.Generated)
	assert.Empty(t, res.Warnings)
	require.Len(t, f.progress.items, 1)
	lp := f.progress.items[0]
	assert.Equal(t, models.LessonProgressScheduled, lp.Status)
	assert.Equal(t, 120, *lp.ScheduledDuration)
	assert.Equal(t, time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), *lp.ScheduledDate)
	assert.Contains(t, f.courses.marked, "cp-1")
	assert.True(t, f.courses.items["cp-1"].AutoScheduled)
}

func TestGenerateSplitsAcrossWeeks(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Label: "Geometry", Duration: 90})

	res, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{HandleLongLessons: dto.HandleLongLessonsSplit})
	require.NoError(t, err)

	assert.Equal(t, 2, res.Generated)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "split")
	assert.Equal(t, []placed{
		{LessonID: "l1", At: time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), Minutes: 60},
		{LessonID: "l1", At: time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC), Minutes: 30},
	}, f.placements())
}

func TestGenerateReducesDuration(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Label: "Geometry", Duration: 90})

	res, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{HandleLongLessons: dto.HandleLongLessonsReduceDuration})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Generated)
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "reduced")
	require.Len(t, f.progress.items, 1)
	assert.Equal(t, 60, *f.progress.items[0].ScheduledDuration)
}

func TestGenerateRegenerateIsIdempotent(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 10),
		models.Lesson{ID: "l1", Duration: 45, Order: intPtr(1)},
		models.Lesson{ID: "l2", Duration: 90, Order: intPtr(2)},
		models.Lesson{ID: "l3", Duration: 60, Order: intPtr(3)},
	)
	opts := dto.GenerateScheduleOptions{RegenerateExisting: true}

	first, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", opts)
	require.NoError(t, err)
	before := f.placements()

	second, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", opts)
	require.NoError(t, err)

	assert.Equal(t, first.Generated, second.Generated)
	assert.Equal(t, before, f.placements())
	assert.Len(t, f.progress.items, first.Generated)
}

func TestGenerateLeavesFuturePlacementsUntouched(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9),
		models.Lesson{ID: "l1", Duration: 60, Order: intPtr(1)},
		models.Lesson{ID: "l2", Duration: 60, Order: intPtr(2)},
	)
	future := time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)
	duration := 60
	f.progress.items = append(f.progress.items, models.LessonProgress{
		ID: "manual", LessonID: "l1", CourseProgressID: "cp-1", Status: models.LessonProgressScheduled,
		ScheduledDate: &future, ScheduledDuration: &duration,
	})

	res, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Generated)
	assert.NotContains(t, f.progress.updatedIDs, "manual")
	manual, err := f.progress.FindByID(context.Background(), "manual")
	require.NoError(t, err)
	assert.Equal(t, future, *manual.ScheduledDate)

	lp, err := f.progress.FindByLesson(context.Background(), "cp-1", "l2")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), *lp.ScheduledDate)
}

func TestGenerateUpdatesPastPlacementInPlace(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Duration: 60})
	past := time.Date(2024, 11, 4, 8, 0, 0, 0, time.UTC)
	f.progress.items = append(f.progress.items, models.LessonProgress{ID: "old", LessonID: "l1", CourseProgressID: "cp-1", Status: models.LessonProgressScheduled, ScheduledDate: &past})

	res, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Generated)
	assert.Equal(t, []string{"old"}, f.progress.updatedIDs)
	require.Len(t, f.progress.items, 1)
	assert.Equal(t, time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), *f.progress.items[0].ScheduledDate)
}

func TestGenerateKeepsLessonWithFutureFragment(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9),
		models.Lesson{ID: "l1", Duration: 90, Order: intPtr(1)},
		models.Lesson{ID: "l2", Duration: 60, Order: intPtr(2)},
	)
	past := time.Date(2024, 12, 2, 8, 0, 0, 0, time.UTC)
	future := time.Date(2025, 1, 13, 8, 0, 0, 0, time.UTC)
	f.progress.items = append(f.progress.items,
		models.LessonProgress{ID: "frag-1", LessonID: "l1", CourseProgressID: "cp-1", Status: models.LessonProgressScheduled, ScheduledDate: &past},
		models.LessonProgress{ID: "frag-2", LessonID: "l1", CourseProgressID: "cp-1", Status: models.LessonProgressScheduled, ScheduledDate: &future},
	)

	res, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Generated)
	assert.Empty(t, f.progress.updatedIDs)
	require.Len(t, f.progress.items, 3)
	lp, err := f.progress.FindByLesson(context.Background(), "cp-1", "l2")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 1, 6, 8, 0, 0, 0, time.UTC), *lp.ScheduledDate)
}

func TestOwnershipCheckedBeforePayload(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Duration: 60})

	_, err := f.svc.Generate(context.Background(), "teacher-2", "cp-1", dto.GenerateScheduleOptions{HandleLongLessons: "squash"})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	badSlots := dto.ConflictCheckRequest{Slots: []models.RecurringScheduleSlot{{DayOfWeek: 9, StartHour: 8, EndHour: 9}}}
	_, err = f.svc.CheckConflicts(context.Background(), "teacher-2", "cp-1", badSlots)
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.CheckConflicts(context.Background(), "teacher-1", "cp-1", badSlots)
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGenerateOwnershipIsNotFound(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Duration: 60})

	_, err := f.svc.Generate(context.Background(), "teacher-2", "cp-1", dto.GenerateScheduleOptions{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.Generate(context.Background(), "teacher-1", "missing", dto.GenerateScheduleOptions{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)

	_, err = f.svc.CheckConflicts(context.Background(), "teacher-2", "cp-1", dto.ConflictCheckRequest{})
	assert.ErrorIs(t, err, appErrors.ErrNotFound)
	assert.Empty(t, f.progress.items)
}

func TestGenerateRequiresScheduleAndLessons(t *testing.T) {
	f := newScheduleFixture(nil, models.Lesson{ID: "l1", Duration: 60})
	_, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRequest)

	f = newScheduleFixture(mondaySlot(8, 9))
	_, err = f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	assert.ErrorIs(t, err, appErrors.ErrInvalidRequest)
}

func TestGenerateWithOnlyInvalidSlotsWarnsEveryLesson(t *testing.T) {
	f := newScheduleFixture(
		[]models.RecurringScheduleSlot{{DayOfWeek: 1, StartHour: 10, EndHour: 8}},
		models.Lesson{ID: "l1", Label: "One", Duration: 60},
		models.Lesson{ID: "l2", Label: "Two", Duration: 60},
	)

	res, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Generated)
	assert.Empty(t, f.progress.items)
	insufficient := 0
	for _, w := range res.Warnings {
		if strings.Contains(w, "Insufficient available slots") {
			insufficient++
		}
	}
	assert.Equal(t, 2, insufficient)
	assert.Contains(t, res.Warnings[0], "ignored")
}

func TestGenerateRejectsUnknownMode(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Duration: 60})
	_, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{HandleLongLessons: "squash"})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestGenerateFailsFastWhenLocked(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Duration: 60})
	release, err := f.locker.Acquire(context.Background(), "course-progress:cp-1", time.Minute)
	require.NoError(t, err)
	defer release(context.Background())

	_, err = f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	assert.ErrorIs(t, err, appErrors.ErrConflict)
	assert.Empty(t, f.progress.items)
}

func TestGenerateReleasesLockAfterRun(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9), models.Lesson{ID: "l1", Duration: 60})
	_, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{RegenerateExisting: true})
	require.NoError(t, err)
	_, err = f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{RegenerateExisting: true})
	require.NoError(t, err)
}

func TestGenerateAbortsOnStoreError(t *testing.T) {
	f := newScheduleFixture(mondaySlot(8, 9),
		models.Lesson{ID: "l1", Duration: 60, Order: intPtr(1)},
		models.Lesson{ID: "l2", Duration: 60, Order: intPtr(2)},
		models.Lesson{ID: "l3", Duration: 60, Order: intPtr(3)},
	)
	f.progress.createErr = errors.New("connection reset")
	f.progress.failOnWrite = 2

	_, err := f.svc.Generate(context.Background(), "teacher-1", "cp-1", dto.GenerateScheduleOptions{})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrStore.Code, appErr.Code)
	assert.Equal(t, "failed to save lesson schedule", appErr.Message)
	assert.Len(t, f.progress.items, 1)
	assert.NotContains(t, f.courses.marked, "cp-1")
}

func TestCheckConflictsSelfAndCrossCourse(t *testing.T) {
	f := newScheduleFixture(nil)
	f.courses.items["cp-2"] = &models.CourseProgress{
		ID: "cp-2", UserID: "teacher-1", SubjectID: "subject-2", Status: models.CourseProgressInProgress,
		RecurringSchedule: models.RecurringSchedule{{DayOfWeek: 2, StartHour: 13, EndHour: 15}},
	}
	f.courses.items["cp-3"] = &models.CourseProgress{
		ID: "cp-3", UserID: "teacher-1", SubjectID: "subject-2", Status: models.CourseProgressCompleted,
		RecurringSchedule: models.RecurringSchedule{{DayOfWeek: 2, StartHour: 13, EndHour: 15}},
	}
	f.courses.items["cp-4"] = &models.CourseProgress{
		ID: "cp-4", UserID: "teacher-9", SubjectID: "subject-2", Status: models.CourseProgressInProgress,
		RecurringSchedule: models.RecurringSchedule{{DayOfWeek: 2, StartHour: 13, EndHour: 15}},
	}
	f.subjects.items["subject-2"] = models.Subject{ID: "subject-2", UserID: "teacher-1", Name: "Physics"}

	conflicts, err := f.svc.CheckConflicts(context.Background(), "teacher-1", "cp-1", dto.ConflictCheckRequest{Slots: []models.RecurringScheduleSlot{
		{DayOfWeek: 1, StartHour: 8, EndHour: 10},
		{DayOfWeek: 1, StartHour: 9, EndHour: 11},
		{DayOfWeek: 2, StartHour: 14, EndHour: 16},
	}})
	require.NoError(t, err)

	require.Len(t, conflicts, 2)
	assert.Equal(t, dto.ConflictTypeSelf, conflicts[0].Type)
	assert.Equal(t, dto.ConflictTypeCrossCourse, conflicts[1].Type)
	assert.Equal(t, "cp-2", *conflicts[1].ConflictingCourseProgressID)
	assert.Contains(t, conflicts[1].Message, "Physics")
	assert.Equal(t, 2, conflicts[1].SlotIndex)
}

func TestCheckConflictsNoFalsePositives(t *testing.T) {
	f := newScheduleFixture(nil)

	conflicts, err := f.svc.CheckConflicts(context.Background(), "teacher-1", "cp-1", dto.ConflictCheckRequest{Slots: []models.RecurringScheduleSlot{
		{DayOfWeek: 1, StartHour: 8, EndHour: 9},
		{DayOfWeek: 1, StartHour: 9, EndHour: 10},
		{DayOfWeek: 2, StartHour: 8, EndHour: 9},
	}})
	require.NoError(t, err)
	assert.NotNil(t, conflicts)
	assert.Empty(t, conflicts)
}

func TestCheckConflictsDegradesWhenLookupFails(t *testing.T) {
	f := newScheduleFixture(nil)
	f.courses.listErr = errors.New("timeout")

	conflicts, err := f.svc.CheckConflicts(context.Background(), "teacher-1", "cp-1", dto.ConflictCheckRequest{Slots: []models.RecurringScheduleSlot{
		{DayOfWeek: 1, StartHour: 8, EndHour: 10},
		{DayOfWeek: 1, StartHour: 9, EndHour: 11},
	}})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Equal(t, dto.ConflictTypeSelf, conflicts[0].Type)
}

func TestCheckConflictsFallsBackWhenSubjectMissing(t *testing.T) {
	f := newScheduleFixture(nil)
	f.courses.items["cp-2"] = &models.CourseProgress{
		ID: "cp-2", UserID: "teacher-1", SubjectID: "gone", Status: models.CourseProgressNotStarted,
		RecurringSchedule: models.RecurringSchedule{{DayOfWeek: 5, StartHour: 8, EndHour: 9}},
	}

	conflicts, err := f.svc.CheckConflicts(context.Background(), "teacher-1", "cp-1", dto.ConflictCheckRequest{Slots: []models.RecurringScheduleSlot{
		{DayOfWeek: 5, StartHour: 8, EndHour: 9},
	}})
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	assert.Contains(t, conflicts[0].Message, "another course")
}
