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

type classRepository interface {
	ListByUser(ctx context.Context, userID string) ([]models.Class, error)
	Create(ctx context.Context, class *models.Class) error
}

// ClassService coordinates class operations.
type ClassService struct {
	repo      classRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassService constructs the service.
func NewClassService(repo classRepository, validate *validator.Validate, logger *zap.Logger) *ClassService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassService{repo: repo, validator: validate, logger: logger}
}

// List returns the teacher's classes.
func (s *ClassService) List(ctx context.Context, teacherID string) ([]models.Class, error) {
	classes, err := s.repo.ListByUser(ctx, teacherID)
	if err != nil {
		s.logger.Error("failed to list classes", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to list classes")
	}
	if classes == nil {
		classes = []models.Class{}
	}
	return classes, nil
}

// Create registers a class owned by the teacher.
func (s *ClassService) Create(ctx context.Context, teacherID string, req dto.CreateClassRequest) (*models.Class, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class payload")
	}
	class := &models.Class{UserID: teacherID, Name: strings.TrimSpace(req.Name)}
	if req.Grade != nil {
		class.Grade = strings.TrimSpace(*req.Grade)
	}
	if err := s.repo.Create(ctx, class); err != nil {
		s.logger.Error("failed to create class", zap.String("teacher_id", teacherID), zap.Error(err))
		return nil, appErrors.StoreFailure(err, "failed to create class")
	}
	return class, nil
}
