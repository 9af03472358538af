package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/response"
)

var payloadValidator = dto.NewValidator()

// bindPayload decodes the JSON body into dest and checks its validate tags. It writes the
// validation error and returns false when the payload is unusable.
func bindPayload(c *gin.Context, dest interface{}, message string) bool {
	err := c.ShouldBindJSON(dest)
	if err == nil {
		err = payloadValidator.Struct(dest)
	}
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message))
		return false
	}
	return true
}

func identityFromContext(c *gin.Context) (models.Identity, error) {
	claims := middleware.Claims(c)
	if claims == nil {
		return models.Identity{}, appErrors.ErrUnauthorized
	}
	return claims.Identity(), nil
}

func int64Param(c *gin.Context, name string) (int64, error) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "invalid "+name)
	}
	return id, nil
}

func catalogFilterFromQuery(c *gin.Context) (models.CatalogFilter, error) {
	filter := models.CatalogFilter{Search: c.Query("search")}
	if raw := strings.TrimSpace(c.Query("day")); raw != "" {
		day, ok := models.ParseWeekday(raw)
		if !ok {
			return filter, appErrors.Clone(appErrors.ErrValidation, "day must be Monday through Friday")
		}
		filter.Day = day
	}
	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid page")
		}
		filter.Page = page
	}
	if raw := c.Query("page_size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil {
			return filter, appErrors.Clone(appErrors.ErrValidation, "invalid page_size")
		}
		filter.PageSize = size
	}
	return filter, nil
}
