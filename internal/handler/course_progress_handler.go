package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/service"
	appErrors "github.com/noah-isme/course-planner-api/pkg/errors"
	"github.com/noah-isme/course-planner-api/pkg/response"
)

type courseProgressService interface {
	List(ctx context.Context, teacherID string, query dto.CourseProgressQuery) ([]models.CourseProgress, error)
	Get(ctx context.Context, teacherID, courseProgressID string) (*models.CourseProgress, error)
	Create(ctx context.Context, teacherID string, req dto.CreateCourseProgressRequest) (*models.CourseProgress, error)
	Patch(ctx context.Context, teacherID, courseProgressID string, req dto.PatchCourseProgressRequest) (*models.CourseProgress, error)
	UpdateSchedule(ctx context.Context, teacherID, courseProgressID string, req dto.UpdateScheduleRequest) (*models.CourseProgress, error)
	Delete(ctx context.Context, teacherID, courseProgressID string) error
}

// CourseProgressHandler exposes course progress endpoints.
type CourseProgressHandler struct {
	service courseProgressService
}

// NewCourseProgressHandler constructs the handler.
func NewCourseProgressHandler(svc *service.CourseProgressService) *CourseProgressHandler {
	return &CourseProgressHandler{service: svc}
}

// List godoc
// @Summary List course progress
// @Tags CourseProgress
// @Produce json
// @Param status query string false "Filter by status"
// @Success 200 {object} response.Envelope
// @Router /course-progress [get]
func (h *CourseProgressHandler) List(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var query dto.CourseProgressQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid query parameters"))
		return
	}
	items, err := h.service.List(c.Request.Context(), teacher, query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Pair a class with a subject
// @Tags CourseProgress
// @Accept json
// @Produce json
// @Param payload body dto.CreateCourseProgressRequest true "Course progress payload"
// @Success 201 {object} response.Envelope
// @Router /course-progress [post]
func (h *CourseProgressHandler) Create(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var req dto.CreateCourseProgressRequest
	if !bindJSON(c, &req, "invalid course progress payload") {
		return
	}
	cp, err := h.service.Create(c.Request.Context(), teacher, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cp)
}

// Get godoc
// @Summary Get course progress
// @Tags CourseProgress
// @Produce json
// @Param id path string true "Course progress ID"
// @Success 200 {object} response.Envelope
// @Router /course-progress/{id} [get]
func (h *CourseProgressHandler) Get(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	cp, err := h.service.Get(c.Request.Context(), teacher, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cp, nil)
}

// Patch godoc
// @Summary Update course progress fields
// @Tags CourseProgress
// @Accept json
// @Produce json
// @Param id path string true "Course progress ID"
// @Param payload body dto.PatchCourseProgressRequest true "Course progress changes"
// @Success 200 {object} response.Envelope
// @Router /course-progress/{id} [patch]
func (h *CourseProgressHandler) Patch(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var req dto.PatchCourseProgressRequest
	if !bindJSON(c, &req, "invalid course progress payload") {
		return
	}
	cp, err := h.service.Patch(c.Request.Context(), teacher, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cp, nil)
}

// UpdateSchedule godoc
// @Summary Replace the recurring weekly schedule
// @Description Saves the schedule as given. Conflict checks and lesson generation are separate calls.
// @Tags CourseProgress
// @Accept json
// @Produce json
// @Param id path string true "Course progress ID"
// @Param payload body dto.UpdateScheduleRequest true "Recurring schedule"
// @Success 200 {object} response.Envelope
// @Router /course-progress/{id}/schedule [put]
func (h *CourseProgressHandler) UpdateSchedule(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var req dto.UpdateScheduleRequest
	if !bindJSON(c, &req, "invalid schedule payload") {
		return
	}
	cp, err := h.service.UpdateSchedule(c.Request.Context(), teacher, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cp, nil)
}

// Delete godoc
// @Summary Delete course progress and its lesson progress
// @Tags CourseProgress
// @Param id path string true "Course progress ID"
// @Success 204
// @Router /course-progress/{id} [delete]
func (h *CourseProgressHandler) Delete(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), teacher, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
