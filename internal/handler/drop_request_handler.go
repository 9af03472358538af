package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type dropRequestService interface {
	Request(ctx context.Context, student models.Identity, courseID int64) (*models.DropRequest, error)
	Approve(ctx context.Context, id, reviewerID string) (*models.DropRequest, error)
	Reject(ctx context.Context, id, reviewerID string) (*models.DropRequest, error)
	Get(ctx context.Context, id string) (*models.DropRequest, error)
	List(ctx context.Context, filter models.DropRequestFilter) ([]models.DropRequest, error)
	PendingFor(ctx context.Context, studentID string) ([]models.DropRequest, error)
	HistoryFor(ctx context.Context, studentID string) ([]models.DropRequest, error)
}

// DropRequestHandler exposes the drop request workflow.
type DropRequestHandler struct {
	service dropRequestService
}

// NewDropRequestHandler constructs a DropRequestHandler.
func NewDropRequestHandler(service dropRequestService) *DropRequestHandler {
	return &DropRequestHandler{service: service}
}

// Create godoc
// @Summary Request to drop a registered course
// @Tags Drop Requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.DropCourseRequest true "Course to drop"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /me/drop-requests [post]
func (h *DropRequestHandler) Create(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.DropCourseRequest
	if !bindPayload(c, &req, "invalid drop request payload") {
		return
	}
	request, err := h.service.Request(c.Request.Context(), identity, req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// Mine godoc
// @Summary List the caller's drop requests
// @Tags Drop Requests
// @Produce json
// @Security BearerAuth
// @Param state query string false "pending, history or all"
// @Success 200 {object} response.Envelope
// @Router /me/drop-requests [get]
func (h *DropRequestHandler) Mine(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	ctx := c.Request.Context()
	var requests []models.DropRequest
	switch strings.ToLower(c.Query("state")) {
	case "pending":
		requests, err = h.service.PendingFor(ctx, identity.UserID)
	case "history":
		requests, err = h.service.HistoryFor(ctx, identity.UserID)
	case "", "all":
		requests, err = h.service.List(ctx, models.DropRequestFilter{StudentID: identity.UserID})
	default:
		err = appErrors.Clone(appErrors.ErrValidation, "state must be pending, history or all")
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// List godoc
// @Summary List drop requests
// @Tags Drop Requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses"
// @Param student_id query string false "Student ID"
// @Param course_id query int false "Course ID"
// @Success 200 {object} response.Envelope
// @Router /drop-requests [get]
func (h *DropRequestHandler) List(c *gin.Context) {
	filter := models.DropRequestFilter{StudentID: c.Query("student_id")}
	if raw := c.Query("course_id"); raw != "" {
		courseID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course_id"))
			return
		}
		filter.CourseID = courseID
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			status, ok := models.ParseDropRequestStatus(strings.ToLower(strings.TrimSpace(part)))
			if !ok {
				response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid status "+part))
				return
			}
			filter.Status = append(filter.Status, status)
		}
	}
	requests, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Get godoc
// @Summary Get a drop request
// @Tags Drop Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Drop request ID"
// @Success 200 {object} response.Envelope
// @Router /drop-requests/{id} [get]
func (h *DropRequestHandler) Get(c *gin.Context) {
	request, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}

// Approve godoc
// @Summary Approve a pending drop request
// @Description Removes the course from the requesting student's registrations.
// @Tags Drop Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Drop request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /drop-requests/{id}/approve [post]
func (h *DropRequestHandler) Approve(c *gin.Context) {
	h.resolve(c, h.service.Approve)
}

// Reject godoc
// @Summary Reject a pending drop request
// @Tags Drop Requests
// @Produce json
// @Security BearerAuth
// @Param id path string true "Drop request ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /drop-requests/{id}/reject [post]
func (h *DropRequestHandler) Reject(c *gin.Context) {
	h.resolve(c, h.service.Reject)
}

func (h *DropRequestHandler) resolve(c *gin.Context, transition func(ctx context.Context, id, reviewerID string) (*models.DropRequest, error)) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	request, err := transition(c.Request.Context(), c.Param("id"), identity.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, request, nil)
}
