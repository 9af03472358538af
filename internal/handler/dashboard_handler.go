package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/models"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type dashboardService interface {
	Admin(ctx context.Context) (*models.Dashboard, error)
	Student(ctx context.Context, studentID string) (*models.StudentDashboard, error)
}

// DashboardHandler serves the administrator and student overviews.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a DashboardHandler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Admin godoc
// @Summary Catalog totals, courses per day and drop request counts
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Admin(c *gin.Context) {
	dashboard, err := h.service.Admin(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}

// Student godoc
// @Summary Registered load of the calling student
// @Tags Dashboard
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me/dashboard [get]
func (h *DashboardHandler) Student(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	dashboard, err := h.service.Student(c.Request.Context(), identity.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dashboard, nil)
}
