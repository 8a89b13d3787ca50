package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-planner-api/internal/dto"
	"github.com/noah-isme/course-planner-api/internal/models"
	"github.com/noah-isme/course-planner-api/internal/service"
	"github.com/noah-isme/course-planner-api/pkg/response"
)

type lessonProgressService interface {
	List(ctx context.Context, teacherID, courseProgressID string) ([]models.LessonProgress, error)
	Create(ctx context.Context, teacherID, courseProgressID string, req dto.CreateLessonProgressRequest) (*models.LessonProgress, error)
	Patch(ctx context.Context, teacherID, courseProgressID, progressID string, req dto.PatchLessonProgressRequest) (*models.LessonProgress, error)
	AddComment(ctx context.Context, teacherID, courseProgressID, progressID string, req dto.AddCommentRequest) (*models.LessonProgress, error)
	Delete(ctx context.Context, teacherID, courseProgressID, progressID string) error
}

// LessonProgressHandler exposes lesson occurrences of a course.
type LessonProgressHandler struct {
	service lessonProgressService
}

// NewLessonProgressHandler constructs the handler.
func NewLessonProgressHandler(svc *service.LessonProgressService) *LessonProgressHandler {
	return &LessonProgressHandler{service: svc}
}

// List godoc
// @Summary List lesson progress of a course
// @Tags LessonProgress
// @Produce json
// @Param id path string true "Course progress ID"
// @Success 200 {object} response.Envelope
// @Router /course-progress/{id}/lessons [get]
func (h *LessonProgressHandler) List(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	items, err := h.service.List(c.Request.Context(), teacher, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}

// Create godoc
// @Summary Schedule a lesson manually
// @Tags LessonProgress
// @Accept json
// @Produce json
// @Param id path string true "Course progress ID"
// @Param payload body dto.CreateLessonProgressRequest true "Lesson progress payload"
// @Success 201 {object} response.Envelope
// @Router /course-progress/{id}/lessons [post]
func (h *LessonProgressHandler) Create(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var req dto.CreateLessonProgressRequest
	if !bindJSON(c, &req, "invalid lesson progress payload") {
		return
	}
	lp, err := h.service.Create(c.Request.Context(), teacher, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lp)
}

// Patch godoc
// @Summary Update a lesson occurrence
// @Tags LessonProgress
// @Accept json
// @Produce json
// @Param id path string true "Course progress ID"
// @Param progressId path string true "Lesson progress ID"
// @Param payload body dto.PatchLessonProgressRequest true "Lesson progress changes"
// @Success 200 {object} response.Envelope
// @Router /course-progress/{id}/lessons/{progressId} [patch]
func (h *LessonProgressHandler) Patch(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var req dto.PatchLessonProgressRequest
	if !bindJSON(c, &req, "invalid lesson progress payload") {
		return
	}
	lp, err := h.service.Patch(c.Request.Context(), teacher, c.Param("id"), c.Param("progressId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lp, nil)
}

// AddComment godoc
// @Summary Add a comment to a lesson occurrence
// @Tags LessonProgress
// @Accept json
// @Produce json
// @Param id path string true "Course progress ID"
// @Param progressId path string true "Lesson progress ID"
// @Param payload body dto.AddCommentRequest true "Comment"
// @Success 201 {object} response.Envelope
// @Router /course-progress/{id}/lessons/{progressId}/comments [post]
func (h *LessonProgressHandler) AddComment(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	var req dto.AddCommentRequest
	if !bindJSON(c, &req, "invalid comment payload") {
		return
	}
	lp, err := h.service.AddComment(c.Request.Context(), teacher, c.Param("id"), c.Param("progressId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, lp)
}

// Delete godoc
// @Summary Delete a lesson occurrence
// @Tags LessonProgress
// @Param id path string true "Course progress ID"
// @Param progressId path string true "Lesson progress ID"
// @Success 204
// @Router /course-progress/{id}/lessons/{progressId} [delete]
func (h *LessonProgressHandler) Delete(c *gin.Context) {
	teacher, ok := teacherID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), teacher, c.Param("id"), c.Param("progressId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
