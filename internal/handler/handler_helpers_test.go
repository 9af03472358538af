package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/course-registration-api/internal/middleware"
	"github.com/noah-isme/course-registration-api/internal/models"
)

type responseEnvelope struct {
	Data       json.RawMessage        `json:"data"`
	Error      *responseError         `json:"error"`
	Pagination *models.Pagination     `json:"pagination"`
	Meta       map[string]interface{} `json:"meta"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	studentClaims = &models.IdentityClaims{UserID: "s1", Name: "Ana Putri", Role: models.RoleStudent}
	adminClaims   = &models.IdentityClaims{UserID: "a1", Name: "Registrar", Role: models.RoleAdmin}
)

// newTestContext builds a gin context for direct handler calls. claims may be nil.
func newTestContext(method, target, body string, claims *models.IdentityClaims) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func withParam(c *gin.Context, key, value string) *gin.Context {
	c.Params = append(c.Params, gin.Param{Key: key, Value: value})
	return c
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) responseEnvelope {
	t.Helper()
	var envelope responseEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	return envelope
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, dest interface{}) {
	t.Helper()
	envelope := decodeEnvelope(t, rec)
	require.Nil(t, envelope.Error)
	require.NoError(t, json.Unmarshal(envelope.Data, dest))
}

func requireErrorCode(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	require.Equal(t, status, rec.Code, rec.Body.String())
	envelope := decodeEnvelope(t, rec)
	require.NotNil(t, envelope.Error)
	require.Equal(t, code, envelope.Error.Code)
}

func performRequest(router *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}
