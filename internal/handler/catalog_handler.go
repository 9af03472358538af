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

type catalogService interface {
	List(ctx context.Context, filter models.CatalogFilter) ([]models.Course, *models.Pagination, error)
	Get(ctx context.Context, id int64) (*models.Course, error)
	Add(ctx context.Context, draft dto.CourseDraft) (*models.Course, error)
	Update(ctx context.Context, id int64, draft dto.CourseDraft) (*models.Course, error)
	Delete(ctx context.Context, id int64, actorID string) error
}

// CatalogHandler exposes catalog endpoints.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs a CatalogHandler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// List godoc
// @Summary List catalog courses
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param search query string false "Match against code, name or instructor"
// @Param day query string false "Monday..Friday"
// @Param page query int false "Page"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /catalog [get]
func (h *CatalogHandler) List(c *gin.Context) {
	filter, err := catalogFilterFromQuery(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	courses, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, pagination)
}

// Get godoc
// @Summary Get a catalog course
// @Tags Catalog
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 200 {object} response.Envelope
// @Router /catalog/{id} [get]
func (h *CatalogHandler) Get(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	course, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Create godoc
// @Summary Add a catalog course
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.CourseDraft true "Course payload"
// @Success 201 {object} response.Envelope
// @Router /catalog [post]
func (h *CatalogHandler) Create(c *gin.Context) {
	var draft dto.CourseDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Add(c.Request.Context(), draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, course)
}

// Update godoc
// @Summary Edit a catalog course
// @Tags Catalog
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Param payload body dto.CourseDraft true "Course payload"
// @Success 200 {object} response.Envelope
// @Router /catalog/{id} [put]
func (h *CatalogHandler) Update(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	var draft dto.CourseDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid course payload"))
		return
	}
	course, err := h.service.Update(c.Request.Context(), id, draft)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, course, nil)
}

// Delete godoc
// @Summary Delete a catalog course
// @Description Evicts the course from every registration and cancels pending drop requests for it.
// @Tags Catalog
// @Security BearerAuth
// @Param id path int true "Course ID"
// @Success 204
// @Router /catalog/{id} [delete]
func (h *CatalogHandler) Delete(c *gin.Context) {
	id, err := int64Param(c, "id")
	if err != nil {
		response.Error(c, err)
		return
	}
	identity, err := identityFromContext(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	if err := h.service.Delete(c.Request.Context(), id, identity.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
