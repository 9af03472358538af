package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

type authService interface {
	StartSession(ctx context.Context, req dto.CreateSessionRequest) (*models.Session, error)
	EndSession(identity models.Identity)
}

// AuthHandler exposes the session stub.
type AuthHandler struct {
	service authService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(service authService) *AuthHandler {
	return &AuthHandler{service: service}
}

// Login godoc
// @Summary Start a session
// @Description Issues a token for the asserted role. Credentials are not checked.
// @Tags Auth
// @Accept json
// @Produce json
// @Param payload body dto.CreateSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /auth/session [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	session, err := h.service.StartSession(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, session)
}

// Logout godoc
// @Summary End the current session
// @Tags Auth
// @Security BearerAuth
// @Success 204
// @Router /auth/session [delete]
func (h *AuthHandler) Logout(c *gin.Context) {
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	h.service.EndSession(identity)
	response.NoContent(c)
}
