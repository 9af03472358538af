package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/models"
	appErrors "github.com/noah-isme/course-registration-api/pkg/errors"
	"github.com/noah-isme/course-registration-api/pkg/logger"
)

type stubValidator struct {
	claims map[string]*models.IdentityClaims
}

func (s stubValidator) ValidateToken(token string) (*models.IdentityClaims, error) {
	if claims, ok := s.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Wrap(errors.New("bad signature"), appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
}

func newRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	validator := stubValidator{claims: map[string]*models.IdentityClaims{
		"student-token": {UserID: "s1", Name: "Ana", Role: models.RoleStudent},
		"admin-token":   {UserID: "a1", Name: "Ops", Role: models.RoleAdmin},
	}}
	r := gin.New()
	r.GET("/", JWT(validator), RequireRoles(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": Claims(c).UserID, "subject": c.GetString(logger.SubjectKey)})
	})
	return r
}

func call(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error.Code
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	r := newRouter(models.RoleStudent)

	rec := call(r, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, rec))

	rec = call(r, "Token student-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(r, "Bearer forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestJWTAndRolesAllowMatchingRole(t *testing.T) {
	r := newRouter(models.RoleStudent)

	rec := call(r, "Bearer student-token")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"s1","subject":"STUDENT:s1"}`, rec.Body.String())

	rec = call(r, "bearer admin-token")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RequireRoles(models.RoleAdmin), func(c *gin.Context) { c.Status(http.StatusOK) })
	assert.Equal(t, http.StatusUnauthorized, call(r, "").Code)
}

type observed struct {
	method, path string
	status       int
}

type recordingObserver struct {
	mu   sync.Mutex
	seen []observed
}

func (o *recordingObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, observed{method, path, status})
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	observer := &recordingObserver{}
	r := gin.New()
	r.Use(Metrics(observer))
	r.GET("/catalog/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/catalog/42", nil))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))

	assert.Equal(t, []observed{
		{http.MethodGet, "/catalog/:id", http.StatusOK},
		{http.MethodGet, "unmatched", http.StatusNotFound},
	}, observer.seen)
}
