package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type lessonRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error)
	FindByID(ctx context.Context, id string) (*models.Lesson, error)
	ExistsByLabel(ctx context.Context, subjectID, label, excludeID string) (bool, error)
	Create(ctx context.Context, lesson *models.Lesson) error
	Update(ctx context.Context, lesson *models.Lesson) error
	Delete(ctx context.Context, id string) error
}

// LessonService manages lessons within a teacher's subjects.
type LessonService struct {
	repo      lessonRepository
	subjects  subjectFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewLessonService constructs the service.
func NewLessonService(repo lessonRepository, subjects subjectFinder, validate *validator.Validate, logger *zap.Logger) *LessonService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LessonService{repo: repo, subjects: subjects, validator: validate, logger: logger}
}

func (s *LessonService) ownedSubject(ctx context.Context, teacherID, subjectID string) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		s.logger.Error("failed to load subject", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load subject")
	}
	if subject.UserID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
	}
	return subject, nil
}

// ListBySubject returns the subject's lessons in teaching order.
func (s *LessonService) ListBySubject(ctx context.Context, teacherID, subjectID string) ([]models.Lesson, error) {
	if _, err := s.ownedSubject(ctx, teacherID, subjectID); err != nil {
		return nil, err
	}
	lessons, err := s.repo.ListBySubject(ctx, subjectID)
	if err != nil {
		s.logger.Error("failed to list lessons", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to list lessons")
	}
	if lessons == nil {
		lessons = []models.Lesson{}
	}
	return lessons, nil
}

// Get returns a lesson owned by the teacher.
func (s *LessonService) Get(ctx context.Context, teacherID, lessonID string) (*models.Lesson, error) {
	lesson, err := s.repo.FindByID(ctx, lessonID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
		}
		s.logger.Error("failed to load lesson", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to load lesson")
	}
	if lesson.UserID != teacherID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "lesson not found")
	}
	return lesson, nil
}

// Create adds a lesson. Labels are unique per subject regardless of case.
func (s *LessonService) Create(ctx context.Context, teacherID, subjectID string, req dto.CreateLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	if _, err := s.ownedSubject(ctx, teacherID, subjectID); err != nil {
		return nil, err
	}

	label := strings.TrimSpace(req.Label)
	if err := s.ensureUniqueLabel(ctx, subjectID, label, ""); err != nil {
		return nil, err
	}

	lesson := &models.Lesson{
		UserID:      teacherID,
		SubjectID:   subjectID,
		Label:       label,
		Description: req.Description,
		Duration:    req.Duration,
		Order:       req.Order,
	}
	if lesson.Duration <= 0 {
		lesson.Duration = models.DefaultLessonDurationMinutes
	}
	if err := s.repo.Create(ctx, lesson); err != nil {
		s.logger.Error("failed to create lesson", zap.String("subject_id", subjectID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to create lesson")
	}
	return lesson, nil
}

// Patch applies the non-nil fields of req.
func (s *LessonService) Patch(ctx context.Context, teacherID, lessonID string, req dto.PatchLessonRequest) (*models.Lesson, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid lesson payload")
	}
	lesson, err := s.Get(ctx, teacherID, lessonID)
	if err != nil {
		return nil, err
	}

	if req.Label != nil {
		label := strings.TrimSpace(*req.Label)
		if !strings.EqualFold(label, lesson.Label) {
			if err := s.ensureUniqueLabel(ctx, lesson.SubjectID, label, lesson.ID); err != nil {
				return nil, err
			}
		}
		lesson.Label = label
	}
	if req.Description != nil {
		lesson.Description = req.Description
	}
	if req.Duration != nil {
		lesson.Duration = *req.Duration
	}
	if req.Order != nil {
		lesson.Order = req.Order
	}

	if err := s.repo.Update(ctx, lesson); err != nil {
		s.logger.Error("failed to update lesson", zap.String("lesson_id", lessonID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to update lesson")
	}
	return lesson, nil
}

// Delete removes a lesson together with its occurrences.
func (s *LessonService) Delete(ctx context.Context, teacherID, lessonID string) error {
	if _, err := s.Get(ctx, teacherID, lessonID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, lessonID); err != nil {
		s.logger.Error("failed to delete lesson", zap.String("lesson_id", lessonID), zap.Error(err))
		return appErrors.StoreFailure(err, "failed to delete lesson")
	}
	return nil
}

func (s *LessonService) ensureUniqueLabel(ctx context.Context, subjectID, label, excludeID string) error {
	exists, err := s.repo.ExistsByLabel(ctx, subjectID, label, excludeID)
	if err != nil {
		s.logger.Error("failed to check lesson label", zap.String("subject_id", subjectID), zap.Error(err))
		return appErrors.StoreFailure(err, "failed to check lesson label")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrInvalidRequest, "lesson label already exists in this subject")
	}
	return nil
}
