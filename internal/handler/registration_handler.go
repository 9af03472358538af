package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/internal/service"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type enrollmentService interface {
	Register(ctx context.Context, studentID string, courseID int64) (*models.ScheduleSummary, error)
	CheckConflict(ctx context.Context, studentID string, courseID int64) (*models.ConflictResult, error)
	Catalog(ctx context.Context, studentID string, filter models.CatalogFilter) ([]models.CatalogEntry, *models.Pagination, error)
}

type registrationService interface {
	Summary(ctx context.Context, studentID string) (*models.ScheduleSummary, error)
	Unregister(ctx context.Context, studentID string, courseID int64) (*models.ScheduleSummary, error)
}

type scheduleService interface {
	Timetable(ctx context.Context, studentID string) (*models.Timetable, error)
	Export(ctx context.Context, studentID, format string) (*service.ExportFile, error)
}

// RegistrationHandler exposes the signed-in student's registration endpoints.
type RegistrationHandler struct {
	enrollment    enrollmentService
	registrations registrationService
	schedule      scheduleService
}

// NewRegistrationHandler constructs a RegistrationHandler.
func NewRegistrationHandler(enrollment enrollmentService, registrations registrationService, schedule scheduleService) *RegistrationHandler {
	return &RegistrationHandler{enrollment: enrollment, registrations: registrations, schedule: schedule}
}

// Catalog godoc
// @Summary Browse the catalog with registration and conflict flags
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param search query string false "Match against code, name or instructor"
// @Param day query string false "Monday..Friday"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /me/catalog [get]
func (h *RegistrationHandler) Catalog(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	filter, err := catalogFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	entries, pagination, err := h.enrollment.Catalog(c.Request.Context(), identity.UserID, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, pagination)
}

// List godoc
// @Summary List registered courses with total credits
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/registrations [get]
func (h *RegistrationHandler) List(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.registrations.Summary(c.Request.Context(), identity.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Register godoc
// @Summary Register for a course
// @Tags Registrations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.RegisterCourseRequest true "Course to register"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /me/registrations [post]
func (h *RegistrationHandler) Register(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	var req dto.RegisterCourseRequest
	if !bindPayload(c, &req, "invalid registration payload") {
		return
	}
	summary, err := h.enrollment.Register(c.Request.Context(), identity.UserID, req.CourseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, summary)
}

// Unregister godoc
// @Summary Unregister from a course
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /me/registrations/{courseId} [delete]
func (h *RegistrationHandler) Unregister(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courseID, err := int64Param(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	summary, err := h.registrations.Unregister(c.Request.Context(), identity.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Conflict godoc
// @Summary Probe whether registering a course would conflict
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Param courseId path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /me/registrations/{courseId}/conflict [get]
func (h *RegistrationHandler) Conflict(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courseID, err := int64Param(c, "courseId")
	if err != nil {
		response.Error(c, err)
		return
	}
	result, err := h.enrollment.CheckConflict(c.Request.Context(), identity.UserID, courseID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Timetable godoc
// @Summary Weekly timetable of registered courses
// @Tags Registrations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/timetable [get]
func (h *RegistrationHandler) Timetable(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	table, err := h.schedule.Timetable(c.Request.Context(), identity.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, table, nil)
}

// Export godoc
// @Summary Download the weekly timetable
// @Tags Registrations
// @Produce text/csv,application/pdf
// @Security BearerAuth
// @Param format query string false "csv or pdf"
// @Success 200 {file} file
// @Router /me/timetable/export [get]
func (h *RegistrationHandler) Export(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	file, err := h.schedule.Export(c.Request.Context(), identity.UserID, c.Query("format"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Data)
}
