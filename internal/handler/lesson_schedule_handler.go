package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/service"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/response"
)

type lessonScheduler interface {
	CheckConflicts(ctx context.Context, teacherID, courseProgressID string, req dto.ConflictCheckRequest) ([]dto.ScheduleConflict, error)
	Generate(ctx context.Context, teacherID, courseProgressID string, opts dto.GenerateScheduleOptions) (*dto.GenerateScheduleResponse, error)
}

type scheduleExporter interface {
	ExportSchedule(ctx context.Context, teacherID, courseProgressID, format string) (*service.ExportFile, error)
}

// LessonScheduleHandler exposes conflict checks, generation and export for a course.
type LessonScheduleHandler struct {
	scheduler lessonScheduler
	exporter  scheduleExporter
}

// NewLessonScheduleHandler constructs the handler.
func NewLessonScheduleHandler(scheduler *service.LessonScheduleService, exporter *service.ExportService) *LessonScheduleHandler {
	return &LessonScheduleHandler{scheduler: scheduler, exporter: exporter}
}

// CheckConflicts godoc
// @Summary Check candidate slots for conflicts
// @Description Reports overlaps among the candidate slots and with the teacher's other active courses. Never blocks a save.
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Course progress ID"
// @Param payload body dto.ConflictCheckRequest true "Candidate slots"
// @Success 200 {object} response.Envelope
// @Router /course-progress/{id}/schedule/conflicts [post]
func (h *LessonScheduleHandler) CheckConflicts(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var req dto.ConflictCheckRequest
	if !bindJSON(c, &req, "invalid conflict check payload") {
		return
	}
	conflicts, err := h.scheduler.CheckConflicts(c.Request.Context(), teacher, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.ConflictCheckResponse{HasConflicts: len(conflicts) > 0, Conflicts: conflicts}, nil)
}

// Generate godoc
// @Summary Generate lesson progress from the recurring schedule
// @Tags Scheduling
// @Accept json
// @Produce json
// @Param id path string true "Course progress ID"
// @Param payload body dto.GenerateScheduleOptions false "Generation options"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 429 {object} response.Envelope
// @Router /course-progress/{id}/schedule/generate [post]
func (h *LessonScheduleHandler) Generate(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var opts dto.GenerateScheduleOptions
	if c.Request.ContentLength != 0 {
		// An empty body selects the defaults.
		if err := c.ShouldBindJSON(&opts); err != nil && !errors.Is(err, io.EOF) {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation options"))
			return
		}
	}
	result, err := h.scheduler.Generate(c.Request.Context(), teacher, c.Param("id"), opts)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Export godoc
// @Summary Download the lesson timetable
// @Tags Scheduling
// @Produce text/csv
// @Produce application/pdf
// @Param id path string true "Course progress ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Router /course-progress/{id}/schedule/export [get]
func (h *LessonScheduleHandler) Export(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	file, err := h.exporter.ExportSchedule(c.Request.Context(), teacher, c.Param("id"), c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
