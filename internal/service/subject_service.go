package service

import (
	"context"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
)

type subjectRepository interface {
	subjectFinder
	ListByUser(ctx context.Context, userID string) ([]models.Subject, error)
	Create(ctx context.Context, subject *models.Subject) error
}

// SubjectService handles subject workflows.
type SubjectService struct {
	repo      subjectRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSubjectService creates a new subject service.
func NewSubjectService(repo subjectRepository, validate *validator.Validate, logger *zap.Logger) *SubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubjectService{repo: repo, validator: validate, logger: logger}
}

// List returns the teacher's subjects.
func (s *SubjectService) List(ctx context.Context, teacherID string) ([]models.Subject, error) {
	subjects, err := s.repo.ListByUser(ctx, teacherID)
	if err != nil {
		s.logger.Error("failed to list subjects", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to list subjects")
	}
	if subjects == nil {
		subjects = []models.Subject{}
	}
	return subjects, nil
}

// Create registers a subject owned by the teacher.
func (s *SubjectService) Create(ctx context.Context, teacherID string, req dto.CreateSubjectRequest) (*models.Subject, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid subject payload")
	}
	subject := &models.Subject{UserID: teacherID, Name: strings.TrimSpace(req.Name), Description: req.Description}
	if err := s.repo.Create(ctx, subject); err != nil {
		s.logger.Error("failed to create subject", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to create subject")
	}
	return subject, nil
}
