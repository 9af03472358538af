package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/dto"
	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
)

type fakeCatalogService struct {
	lastDraft dto.CourseDraft
	lastActor string
	updateErr error
}

func (f *fakeCatalogService) List(context.Context, models.CatalogFilter) ([]models.Course, *models.Pagination, error) {
	return []models.Course{cs101}, &models.Pagination{Page: 1, PageSize: 50, TotalCount: 1}, nil
}

func (f *fakeCatalogService) Get(_ context.Context, id int64) (*models.Course, error) {
	if id != cs101.ID {
		return nil, appErrors.ErrNotFound
	}
	course := cs101
	return &course, nil
}

func (f *fakeCatalogService) Add(_ context.Context, draft dto.CourseDraft) (*models.Course, error) {
	f.lastDraft = draft
	course := draft.ToCourse(11)
	return &course, nil
}

func (f *fakeCatalogService) Update(_ context.Context, id int64, draft dto.CourseDraft) (*models.Course, error) {
	f.lastDraft = draft
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	course := draft.ToCourse(id)
	return &course, nil
}

func (f *fakeCatalogService) Delete(_ context.Context, _ int64, actorID string) error {
	f.lastActor = actorID
	return nil
}

const draftPayload = `{"code":"BIO101","name":"Biology","instructor":"Dr. Lane","credits":3,"day":"Friday","startTime":"13:00","endTime":"14:30"}`

func TestCatalogHandlerList(t *testing.T) {
	h := NewCatalogHandler(&fakeCatalogService{})
	c, rec := newTestContext(http.MethodGet, "/catalog", "", studentClaims)

	h.List(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var courses []models.Course
	decodeData(t, rec, &courses)
	require.Len(t, courses, 1)
	assert.Equal(t, "CS101", courses[0].Code)
}

func TestCatalogHandlerGet(t *testing.T) {
	h := NewCatalogHandler(&fakeCatalogService{})

	c, rec := newTestContext(http.MethodGet, "/catalog/1", "", studentClaims)
	h.Get(withParam(c, "id", "1"))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, rec = newTestContext(http.MethodGet, "/catalog/0", "", studentClaims)
	h.Get(withParam(c, "id", "0"))
	requireErrorCode(t, rec, http.StatusBadRequest, appErrors.ErrValidation.Code)

	c, rec = newTestContext(http.MethodGet, "/catalog/42", "", studentClaims)
	h.Get(withParam(c, "id", "42"))
	requireErrorCode(t, rec, http.StatusNotFound, appErrors.ErrNotFound.Code)
}

func TestCatalogHandlerCreate(t *testing.T) {
	svc := &fakeCatalogService{}
	h := NewCatalogHandler(svc)
	c, rec := newTestContext(http.MethodPost, "/catalog", draftPayload, adminClaims)

	h.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "BIO101", svc.lastDraft.Code)
	var course models.Course
	decodeData(t, rec, &course)
	assert.Equal(t, int64(11), course.ID)
	assert.Equal(t, models.Friday, course.Day)

	c, rec = newTestContext(http.MethodPost, "/catalog", `{"credits":"three"}`, adminClaims)
	h.Create(c)
	requireErrorCode(t, rec, http.StatusBadRequest, appErrors.ErrValidation.Code)
}

func TestCatalogHandlerUpdateConflict(t *testing.T) {
	svc := &fakeCatalogService{updateErr: appErrors.Clone(appErrors.ErrTimeConflict, "time conflict with MATH201 on Monday")}
	h := NewCatalogHandler(svc)
	c, rec := newTestContext(http.MethodPut, "/catalog/1", draftPayload, adminClaims)

	h.Update(withParam(c, "id", "1"))

	requireErrorCode(t, rec, http.StatusConflict, appErrors.ErrTimeConflict.Code)
}

func TestCatalogHandlerDeleteRecordsActor(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &fakeCatalogService{}
	h := NewCatalogHandler(svc)

	router := gin.New()
	router.DELETE("/catalog/:id", func(c *gin.Context) {
		c.Set(middleware.ContextUserKey, adminClaims)
		h.Delete(c)
	})
	req, _ := http.NewRequest(http.MethodDelete, "/catalog/1", nil)
	resp := performRequest(router, req)

	assert.Equal(t, http.StatusNoContent, resp.Code)
	assert.Equal(t, "a1", svc.lastActor)
}
