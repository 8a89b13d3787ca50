package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/course-planner-api/internal/models"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/export"
)

type exportLessonRepository interface {
	ListBySubject(ctx context.Context, subjectID string) ([]models.Lesson, error)
}

type exportProgressRepository interface {
	ListByCourse(ctx context.Context, courseProgressID string) ([]models.LessonProgress, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

var scheduleExportHeaders = []string{"Date", "Start", "Duration (min)", "Lesson", "Status"}

// ExportService renders a course's lesson timetable as CSV or PDF.
type ExportService struct {
	courses  courseProgressFinder
	classes  classFinder
	subjects subjectFinder
	lessons  exportLessonRepository
	progress exportProgressRepository
	logger   *zap.Logger
}

// NewExportService constructs an ExportService.
func NewExportService(courses courseProgressFinder, classes classFinder, subjects subjectFinder, lessons exportLessonRepository, progress exportProgressRepository, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{courses: courses, classes: classes, subjects: subjects, lessons: lessons, progress: progress, logger: logger}
}

// ExportSchedule renders the lesson progress of a course owned by the teacher.
func (s *ExportService) ExportSchedule(ctx context.Context, teacherID, courseProgressID, format string) (*ExportFile, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv or pdf")
	}
	cp, err := verifyCourseOwnership(ctx, s.courses, s.logger, teacherID, courseProgressID)
	if err != nil {
		return nil, err
	}

	data, err := s.buildDataset(ctx, cp)
	if err != nil {
		return nil, err
	}
	payload, err := export.Render(f, data)
	if err != nil {
		s.logger.Error("failed to render schedule export", zap.String("course_progress_id", cp.ID), zap.String("format", string(f)), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render export")
	}
	return &ExportFile{
		Filename:    fmt.Sprintf("%s-schedule.%s", sanitizeFilename(data.Title), f),
		ContentType: f.ContentType(),
		Payload:     payload,
	}, nil
}

func (s *ExportService) buildDataset(ctx context.Context, cp *models.CourseProgress) (export.Dataset, error) {
	subjectName, className := cp.SubjectID, cp.ClassID
	if subject, err := s.subjects.FindByID(ctx, cp.SubjectID); err == nil {
		subjectName = subject.Name
	} else {
		s.logger.Warn("failed to resolve subject for export", zap.String("subject_id", cp.SubjectID), zap.Error(err))
	}
	if class, err := s.classes.FindByID(ctx, cp.ClassID); err == nil {
		className = class.Name
	} else {
		s.logger.Warn("failed to resolve class for export", zap.String("class_id", cp.ClassID), zap.Error(err))
	}

	lessons, err := s.lessons.ListBySubject(ctx, cp.SubjectID)
	if err != nil {
		s.logger.Error("failed to load lessons for export", zap.String("subject_id", cp.SubjectID), zap.Error(err))
		return export.Dataset{}, appErrors.StoreFailure(err, "failed to load lessons")
	}
	labels := make(map[string]string, len(lessons))
	for _, l := range lessons {
		labels[l.ID] = l.Label
	}

	items, err := s.progress.ListByCourse(ctx, cp.ID)
	if err != nil {
		s.logger.Error("failed to load lesson progress for export", zap.String("course_progress_id", cp.ID), zap.Error(err))
		return export.Dataset{}, appErrors.StoreFailure(err, "failed to load lesson progress")
	}

	rows := make([]map[string]string, 0, len(items))
	for _, lp := range items {
		row := map[string]string{
			"Lesson": labels[lp.LessonID],
			"Status": lp.Status,
		}
		if row["Lesson"] == "" {
			row["Lesson"] = lp.LessonID
		}
		if lp.ScheduledDate != nil {
			row["Date"] = lp.ScheduledDate.Format(models.SlotDateLayout)
			row["Start"] = lp.ScheduledDate.Format("15:04")
		}
		if lp.ScheduledDuration != nil {
			row["Duration (min)"] = strconv.Itoa(*lp.ScheduledDuration)
		}
		rows = append(rows, row)
	}

	return export.Dataset{
		Title:   fmt.Sprintf("%s - %s", subjectName, className),
		Headers: scheduleExportHeaders,
		Rows:    rows,
	}, nil
}

func sanitizeFilename(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	var b strings.Builder
	lastDash := false
	for _, r := range raw {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash && b.Len() > 0 {
			b.WriteByte('-')
			lastDash = true
		}
	}
	out := strings.TrimSuffix(b.String(), "-")
	if out == "" {
		return "course"
	}
	return out
}
