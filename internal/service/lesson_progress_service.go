package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type lessonProgressRepository interface {
	FindByID(ctx context.Context, id string) (*models.LessonProgress, error)
	ListByCourse(ctx context.Context, courseProgressID string) ([]models.LessonProgress, error)
	FindByLesson(ctx context.Context, courseProgressID, lessonID string) (*models.LessonProgress, error)
	Create(ctx context.Context, lp *models.LessonProgress) error
	Update(ctx context.Context, lp *models.LessonProgress) error
	Delete(ctx context.Context, id string) error
}

type lessonFinder interface {
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
}

// LessonProgressService manages manual lesson occurrences of a course.
type LessonProgressService struct {
	courses   courseProgressFinder
	lessons   lessonFinder
	repo      lessonProgressRepository
	clock     Clock
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonProgressService constructs the service.
func NewLessonProgressService(courses courseProgressFinder, lessons lessonFinder, repo lessonProgressRepository, clock Clock, validate *validator.Validate, logger *zap.Logger) *LessonProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock = time.Now
	}
	return &LessonProgressService{courses: courses, lessons: lessons, repo: repo, clock: clock, validator: validate, logger: logger}
}

// List returns the course's occurrences in calendar order.
func (s *LessonProgressService) List(ctx context.Context, teacherID, courseProgressID string) ([]models.LessonProgress, error) {
	if _, err := verifyCourseOwnership(ctx, s.courses, s.logger, teacherID, courseProgressID); err != nil {
		return nil, err
	}
	items, err := s.repo.ListByCourse(ctx, courseProgressID)
	if err != nil {
		s.logger.Error("failed to list lesson progress", zap.String("course_progress_id", courseProgressID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to list lesson progress")
	}
	if items == nil {
		items = []models.LessonProgress{}
	}
	return items, nil
}

// Create schedules one lesson manually. A lesson may only be tracked once per course.
func (s *LessonProgressService) Create(ctx context.Context, teacherID, courseProgressID string, req dto.CreateLessonProgressRequest) (*models.LessonProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson progress payload")
	}
	cp, err := verifyCourseOwnership(ctx, s.courses, s.logger, teacherID, courseProgressID)
	if err != nil {
		return nil, err
	}

	lesson, err := s.lessons.FindByID(ctx, req.LessonID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("failed to load lesson", zap.String("lesson_id", req.LessonID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load lesson")
	}
	if lesson == nil || lesson.UserID != teacherID || lesson.SubjectID != cp.SubjectID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}

	existing, err := s.repo.FindByLesson(ctx, courseProgressID, req.LessonID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("failed to check lesson progress", zap.String("lesson_id", req.LessonID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to create lesson progress")
	}
	if existing != nil {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "lesson is already tracked in this course")
	}

	lp := &models.LessonProgress{
		LessonID:          req.LessonID,
		CourseProgressID:  courseProgressID,
		Status:            models.LessonProgressNotStarted,
		ScheduledDate:     req.ScheduledDate,
		ScheduledDuration: req.ScheduledDuration,
		Comments:          models.LessonComments{},
	}
	if req.ScheduledDate != nil {
		lp.Status = models.LessonProgressScheduled
		if lp.ScheduledDuration == nil {
			d := lesson.DurationMinutes()
			lp.ScheduledDuration = &d
		}
	}
	if req.Status != nil {
		lp.Status = strings.TrimSpace(*req.Status)
	}
	if lp.Status == models.LessonProgressCompleted {
		now := s.clock()
		lp.CompletedAt = &now
	}

	if err := s.repo.Create(ctx, lp); err != nil {
		s.logger.Error("failed to create lesson progress", zap.String("course_progress_id", courseProgressID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to create lesson progress")
	}
	return lp, nil
}

// Patch applies the non-nil fields of req. Moving to completed stamps completed_at.
func (s *LessonProgressService) Patch(ctx context.Context, teacherID, courseProgressID, progressID string, req dto.PatchLessonProgressRequest) (*models.LessonProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson progress payload")
	}
	lp, err := s.load(ctx, teacherID, courseProgressID, progressID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		status := strings.TrimSpace(*req.Status)
		switch {
		case status == models.LessonProgressCompleted && lp.Status != models.LessonProgressCompleted:
			now := s.clock()
			lp.CompletedAt = &now
		case status != models.LessonProgressCompleted:
			lp.CompletedAt = nil
		}
		lp.Status = status
	}
	if req.ScheduledDate != nil {
		lp.ScheduledDate = req.ScheduledDate
	}
	if req.ScheduledDuration != nil {
		lp.ScheduledDuration = req.ScheduledDuration
	}

	if err := s.repo.Update(ctx, lp); err != nil {
		s.logger.Error("failed to update lesson progress", zap.String("lesson_progress_id", progressID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to update lesson progress")
	}
	return lp, nil
}

// AddComment appends a timestamped comment.
func (s *LessonProgressService) AddComment(ctx context.Context, teacherID, courseProgressID, progressID string, req dto.AddCommentRequest) (*models.LessonProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid comment payload")
	}
	lp, err := s.load(ctx, teacherID, courseProgressID, progressID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	lp.Comments = append(lp.Comments, models.LessonComment{
		Title:       req.Title,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err := s.repo.Update(ctx, lp); err != nil {
		s.logger.Error("failed to add lesson comment", zap.String("lesson_progress_id", progressID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to add comment")
	}
	return lp, nil
}

// Delete removes an occurrence.
func (s *LessonProgressService) Delete(ctx context.Context, teacherID, courseProgressID, progressID string) error {
	if _, err := s.load(ctx, teacherID, courseProgressID, progressID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, progressID); err != nil {
		s.logger.Error("failed to delete lesson progress", zap.String("lesson_progress_id", progressID), zap.Error(err))
		return appErrors.StoreFailure(err, "failed to delete lesson progress")
	}
	return nil
}

func (s *LessonProgressService) load(ctx context.Context, teacherID, courseProgressID, progressID string) (*models.LessonProgress, error) {
	if _, err := verifyCourseOwnership(ctx, s.courses, s.logger, teacherID, courseProgressID); err != nil {
		return nil, err
	}
	lp, err := s.repo.FindByID(ctx, progressID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson progress not found")
		}
		s.logger.Error("failed to load lesson progress", zap.String("lesson_progress_id", progressID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load lesson progress")
	}
	if lp.CourseProgressID != courseProgressID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson progress not found")
	}
	return lp, nil
}
