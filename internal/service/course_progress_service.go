package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type courseProgressFinder interface {
	FindByID(ctx context.Context, id string) (*models.CourseProgress, error)
}

type courseProgressRepository interface {
	courseProgressFinder
	List(ctx context.Context, filter models.CourseProgressFilter) ([]models.CourseProgress, error)
	ExistsForPair(ctx context.Context, userID, classID, subjectID string) (bool, error)
	Create(ctx context.Context, cp *models.CourseProgress) error
	Update(ctx context.Context, cp *models.CourseProgress) error
	DeleteCascade(ctx context.Context, id string) error
}

type classFinder interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type subjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
}

// verifyCourseOwnership loads a course progress and hides it from anyone but its owner.
func verifyCourseOwnership(ctx context.Context, repo courseProgressFinder, logger *zap.Logger, teacherID, courseProgressID string) (*models.CourseProgress, error) {
	cp, err := repo.FindByID(ctx, courseProgressID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course progress not found")
		}
		logger.Error("failed to load course progress", zap.String("course_progress_id", courseProgressID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load course progress")
	}
	if cp.UserID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course progress not found")
	}
	return cp, nil
}

// CourseProgressService manages class/subject pairings and their recurring schedules.
type CourseProgressService struct {
	repo      courseProgressRepository
	classes   classFinder
	subjects  subjectFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseProgressService constructs the service.
func NewCourseProgressService(repo courseProgressRepository, classes classFinder, subjects subjectFinder, validate *validator.Validate, logger *zap.Logger) *CourseProgressService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseProgressService{
		repo:      repo,
		classes:   classes,
		subjects:  subjects,
		validator: validate,
		logger:    logger,
	}
}

// VerifyOwnership returns the course progress when it belongs to the teacher.
func (s *CourseProgressService) VerifyOwnership(ctx context.Context, teacherID, courseProgressID string) (*models.CourseProgress, error) {
	return verifyCourseOwnership(ctx, s.repo, s.logger, teacherID, courseProgressID)
}

// Get is an alias of VerifyOwnership for read endpoints.
func (s *CourseProgressService) Get(ctx context.Context, teacherID, courseProgressID string) (*models.CourseProgress, error) {
	return s.VerifyOwnership(ctx, teacherID, courseProgressID)
}

// List returns the teacher's course progress, optionally filtered by status.
func (s *CourseProgressService) List(ctx context.Context, teacherID string, query dto.CourseProgressQuery) ([]models.CourseProgress, error) {
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course progress filter")
	}
	items, err := s.repo.List(ctx, models.CourseProgressFilter{UserID: teacherID, Status: models.CourseProgressStatus(query.Status)})
	if err != nil {
		s.logger.Error("failed to list course progress", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to list course progress")
	}
	if items == nil {
		items = []models.CourseProgress{}
	}
	return items, nil
}

// Create pairs one of the teacher's classes with one of their subjects.
func (s *CourseProgressService) Create(ctx context.Context, teacherID string, req dto.CreateCourseProgressRequest) (*models.CourseProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course progress payload")
	}

	class, err := s.classes.FindByID(ctx, req.ClassID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("failed to load class", zap.String("class_id", req.ClassID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load class")
	}
	if class == nil || class.UserID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
	}

	subject, err := s.subjects.FindByID(ctx, req.SubjectID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		s.logger.Error("failed to load subject", zap.String("subject_id", req.SubjectID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load subject")
	}
	if subject == nil || subject.UserID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}

	exists, err := s.repo.ExistsForPair(ctx, teacherID, req.ClassID, req.SubjectID)
	if err != nil {
		s.logger.Error("failed to check course progress pair", zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to create course progress")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrInvalidRequest, "course progress already exists for this class and subject")
	}

	cp := &models.CourseProgress{
		UserID:            teacherID,
		ClassID:           req.ClassID,
		SubjectID:         req.SubjectID,
		Status:            models.CourseProgressNotStarted,
		RecurringSchedule: models.RecurringSchedule(req.RecurringSchedule),
	}
	if req.Status != nil {
		cp.Status = *req.Status
	}
	if err := s.repo.Create(ctx, cp); err != nil {
		s.logger.Error("failed to create course progress", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to create course progress")
	}
	return cp, nil
}

// Patch applies the non-nil fields of req.
func (s *CourseProgressService) Patch(ctx context.Context, teacherID, courseProgressID string, req dto.PatchCourseProgressRequest) (*models.CourseProgress, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course progress payload")
	}
	cp, err := s.VerifyOwnership(ctx, teacherID, courseProgressID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		cp.Status = *req.Status
	}
	if req.RecurringSchedule != nil {
		cp.RecurringSchedule = models.RecurringSchedule(req.RecurringSchedule)
	}
	if req.AutoScheduled != nil {
		cp.AutoScheduled = *req.AutoScheduled
	}

	if err := s.repo.Update(ctx, cp); err != nil {
		s.logger.Error("failed to update course progress", zap.String("course_progress_id", courseProgressID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to update course progress")
	}
	return cp, nil
}

// UpdateSchedule replaces the recurring schedule. It never triggers conflict checks or generation.
func (s *CourseProgressService) UpdateSchedule(ctx context.Context, teacherID, courseProgressID string, req dto.UpdateScheduleRequest) (*models.CourseProgress, error) {
	schedule := req.RecurringSchedule
	if schedule == nil {
		schedule = []models.RecurringScheduleSlot{}
	}
	return s.Patch(ctx, teacherID, courseProgressID, dto.PatchCourseProgressRequest{RecurringSchedule: schedule})
}

// Delete removes the course progress and every lesson progress attached to it.
func (s *CourseProgressService) Delete(ctx context.Context, teacherID, courseProgressID string) error {
	if _, err := s.VerifyOwnership(ctx, teacherID, courseProgressID); err != nil {
		return err
	}
	if err := s.repo.DeleteCascade(ctx, courseProgressID); err != nil {
		s.logger.Error("failed to delete course progress", zap.String("course_progress_id", courseProgressID), zap.Error(err))
		return appErrors.StoreFailure(err, "failed to delete course progress")
	}
	return nil
}
