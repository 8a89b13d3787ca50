package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/lock"
)

// Clock returns the current time.
type Clock func() time.Time

type scheduleCourseRepository interface {
	courseProgressFinder
	List(ctx context.Context, filter models.CourseProgressFilter) ([]models.CourseProgress, error)
	MarkAutoScheduled(ctx context.Context, id string, at time.Time) error
}

type scheduleLessonRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error)
}

type scheduleProgressRepository interface {
	ListByCourse(ctx context.Context, courseProgressID string) ([]models.LessonProgress, error)
	Create(ctx context.Context, lp *models.LessonProgress) error
	UpdateSchedule(ctx context.Context, id string, schedule models.LessonProgressSchedule) error
	DeleteByStatus(ctx context.Context, courseProgressID, status string) (int64, error)
}

// LessonScheduleConfig tunes projection and locking.
type LessonScheduleConfig struct {
	MaxWeeks int
	LockTTL  time.Duration
}

// LessonScheduleService detects schedule conflicts and packs lessons into recurring slots.
type LessonScheduleService struct {
	courses   scheduleCourseRepository
	subjects  subjectFinder
	lessons   scheduleLessonRepository
	progress  scheduleProgressRepository
	locker    lock.Locker
	metrics   *MetricsService
	clock     Clock
	cfg       LessonScheduleConfig
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonScheduleService constructs the service. A nil locker falls back to an in-process one.
func NewLessonScheduleService(
	courses scheduleCourseRepository,
	subjects subjectFinder,
	lessons scheduleLessonRepository,
	progress scheduleProgressRepository,
	locker lock.Locker,
	metrics *MetricsService,
	clock Clock,
	cfg LessonScheduleConfig,
	validate *validator.Validate,
	logger *zap.Logger,
) *LessonScheduleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if locker == nil {
		locker = lock.NewLocalLocker()
	}
	if clock == nil {
		clock = time.Now
	}
	if cfg.MaxWeeks <= 0 {
		cfg.MaxWeeks = DefaultProjectionWeeks
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	return &LessonScheduleService{
		courses:   courses,
		subjects:  subjects,
		lessons:   lessons,
		progress:  progress,
		locker:    locker,
		metrics:   metrics,
		clock:     clock,
		cfg:       cfg,
		validator: validate,
		logger:    logger,
	}
}

// CheckConflicts reports overlaps within the candidate slots and against the teacher's other courses.
// Failures while loading other courses are logged and the conflicts found so far are returned.
func (s *LessonScheduleService) CheckConflicts(ctx context.Context, teacherID, courseProgressID string, req dto.ConflictCheckRequest) ([]dto.ScheduleConflict, error) {
	if _, err := verifyCourseOwnership(ctx, s.courses, s.logger, teacherID, courseProgressID); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid conflict check payload")
	}

	conflicts := []dto.ScheduleConflict{}
	conflicts = append(conflicts, InvalidSlotConflicts(req.Slots)...)
	conflicts = append(conflicts, SelfConflicts(req.Slots)...)
	defer func() {
		for _, c := range conflicts {
			s.metrics.RecordConflict(c.Type)
		}
	}()

	others, err := s.courses.List(ctx, models.CourseProgressFilter{UserID: teacherID, ExcludeID: courseProgressID})
	if err != nil {
		s.logger.Warn("cross-course conflict lookup failed", zap.String("course_progress_id", courseProgressID), zap.Error(err))
		return conflicts, nil
	}

	names := map[string]string{}
	for _, other := range others {
		if other.Status == models.CourseProgressCompleted || len(other.RecurringSchedule) == 0 {
			continue
		}
		name, ok := names[other.SubjectID]
		if !ok {
			subject, err := s.subjects.FindByID(ctx, other.SubjectID)
			if err != nil {
				s.logger.Warn("failed to resolve subject name for conflict", zap.String("subject_id", other.SubjectID), zap.Error(err))
			} else {
				name = subject.Name
			}
			names[other.SubjectID] = name
		}
		conflicts = append(conflicts, CrossCourseConflicts(req.Slots, other, name)...)
	}
	return conflicts, nil
}

// Generate places the subject's lessons onto the course's recurring slots.
func (s *LessonScheduleService) Generate(ctx context.Context, teacherID, courseProgressID string, opts dto.GenerateScheduleOptions) (*dto.GenerateScheduleResponse, error) {
	started := s.clock()

	cp, err := verifyCourseOwnership(ctx, s.courses, s.logger, teacherID, courseProgressID)
	if err != nil {
		return nil, err
	}
	if err := s.validator.Struct(opts); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation options")
	}
	if len(cp.RecurringSchedule) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "course progress has no recurring schedule")
	}

	release, err := s.locker.Acquire(ctx, "course-progress:"+cp.ID, s.cfg.LockTTL)
	if err != nil {
		if errors.Is(err, lock.ErrLocked) {
			s.metrics.RecordScheduleGeneration(GenerationOutcomeLocked, 0, 0, 0)
			return nil, appErrors.Clone(appErrors.ErrConflict, "schedule generation already running for this course")
		}
		s.logger.Error("failed to acquire schedule lock", zap.String("course_progress_id", cp.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire schedule lock")
	}
	defer func() {
		// Released on a fresh context so a cancelled request still frees the key.
		if err := release(context.Background()); err != nil {
			s.logger.Warn("failed to release schedule lock", zap.String("course_progress_id", cp.ID), zap.Error(err))
		}
	}()

	result, err := s.generate(ctx, cp, opts)
	elapsed := s.clock().Sub(started)
	if err != nil {
		s.metrics.RecordScheduleGeneration(GenerationOutcomeFailed, 0, 0, elapsed)
		return nil, err
	}
	s.metrics.RecordScheduleGeneration(GenerationOutcomeSuccess, result.Generated, len(result.Warnings), elapsed)
	s.logger.Info("lesson schedule generated",
		zap.String("course_progress_id", cp.ID),
		zap.Int("generated", result.Generated),
		zap.Int("warnings", len(result.Warnings)),
		zap.Bool("regenerate_existing", opts.RegenerateExisting),
	)
	return result, nil
}

func (s *LessonScheduleService) generate(ctx context.Context, cp *models.CourseProgress, opts dto.GenerateScheduleOptions) (*dto.GenerateScheduleResponse, error) {
	lessons, err := s.lessons.ListBySubject(ctx, cp.SubjectID)
	if err != nil {
		s.logger.Error("failed to load lessons", zap.String("subject_id", cp.SubjectID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load lessons")
	}
	if len(lessons) == 0 {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "subject has no lessons to schedule")
	}
	lessons = sortLessons(lessons)

	warnings := []string{}
	for i, slot := range cp.RecurringSchedule {
		if !slot.Valid() {
			warnings = append(warnings, fmt.Sprintf("Slot %d on %s ignored: end hour must be after start hour", i+1, dayName(slot.DayOfWeek)))
		}
	}

	now := s.clock()
	occurrences := GenerateScheduleDates(cp.RecurringSchedule, totalLessonMinutes(lessons), now, s.cfg.MaxWeeks)

	var existing map[string]models.LessonProgress
	if opts.RegenerateExisting {
		removed, err := s.progress.DeleteByStatus(ctx, cp.ID, models.LessonProgressScheduled)
		if err != nil {
			s.logger.Error("failed to clear scheduled lessons", zap.String("course_progress_id", cp.ID), zap.Error(err))
			return nil, appErrors.StoreFailure(err, "failed to clear scheduled lessons")
		}
		s.logger.Debug("cleared scheduled lessons", zap.String("course_progress_id", cp.ID), zap.Int64("removed", removed))
	} else {
		stored, err := s.progress.ListByCourse(ctx, cp.ID)
		if err != nil {
			s.logger.Error("failed to load lesson progress", zap.String("course_progress_id", cp.ID), zap.Error(err))
			return nil, appErrors.StoreFailure(err, "failed to load lesson progress")
		}
		existing = indexExistingProgress(stored, now)
	}

	plan := planLessonPlacements(lessons, occurrences, existing, opts.Mode(), now)
	warnings = append(warnings, plan.Warnings...)

	generated := 0
	for _, p := range plan.Placements {
		if err := s.applyPlacement(ctx, cp.ID, p); err != nil {
			s.logger.Error("lesson schedule generation aborted",
				zap.String("course_progress_id", cp.ID),
				zap.String("lesson_id", p.LessonID),
				zap.Int("applied", generated),
				zap.Int("planned", len(plan.Placements)),
				zap.Error(err),
			)
			return nil, appErrors.StoreFailure(err, "failed to save lesson schedule")
		}
		generated++
	}

	if err := s.courses.MarkAutoScheduled(ctx, cp.ID, s.clock()); err != nil {
		s.logger.Error("failed to mark course progress auto scheduled", zap.String("course_progress_id", cp.ID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to update course progress")
	}

	return &dto.GenerateScheduleResponse{Success: true, Generated: generated, Warnings: warnings}, nil
}

func (s *LessonScheduleService) applyPlacement(ctx context.Context, courseProgressID string, p lessonPlacement) error {
	if p.ExistingID != "" {
		return s.progress.UpdateSchedule(ctx, p.ExistingID, models.LessonProgressSchedule{
			Status:            models.LessonProgressScheduled,
			ScheduledDate:     p.ScheduledDate,
			ScheduledDuration: p.DurationMinutes,
		})
	}
	date := p.ScheduledDate
	duration := p.DurationMinutes
	return s.progress.Create(ctx, &models.LessonProgress{
		LessonID:          p.LessonID,
		CourseProgressID:  courseProgressID,
		Status:            models.LessonProgressScheduled,
		ScheduledDate:     &date,
		ScheduledDuration: &duration,
		Comments:          models.LessonComments{},
	})
}
