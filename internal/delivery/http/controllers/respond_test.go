package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/service/progress"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"hierarchy", &progress.HierarchyError{Err: app_errors.QueryFailedf("relation missing")}, http.StatusBadGateway},
		{"backend unavailable", app_errors.ErrBackendUnavailable, http.StatusServiceUnavailable},
		{"search disabled", app_errors.ErrSearchDisabled, http.StatusServiceUnavailable},
		{"not authenticated", app_errors.ErrNotAuthenticated, http.StatusUnauthorized},
		{"wrapped expired", fmt.Errorf("refresh: %w", app_errors.ErrTokenExpired), http.StatusUnauthorized},
		{"user exists", app_errors.ErrUserExists, http.StatusConflict},
		{"not found", app_errors.ErrNotFound, http.StatusNotFound},
		{"invalid input", fmt.Errorf("%w: title is required", app_errors.ErrInvalidInput), http.StatusBadRequest},
		{"file size", app_errors.ErrFileSize, http.StatusRequestEntityTooLarge},
		{"query failed", app_errors.QueryFailedf("permission denied for table courses"), http.StatusBadGateway},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Status(tt.err))
		})
	}
}

func respond(t *testing.T, err error) (int, map[string]string) {
	t.Helper()
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	Error(c, logger.Discard(), err)

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, c.Errors, 1)
	return w.Code, body
}

func TestError_PassesBackendMessageThrough(t *testing.T) {
	code, body := respond(t, fmt.Errorf("list courses: %w", app_errors.QueryFailedf("permission denied for table courses")))
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "permission denied for table courses", body["error"])
}

func TestError_HierarchyKind(t *testing.T) {
	code, body := respond(t, &progress.HierarchyError{Err: app_errors.QueryFailedf("relation \"modules\" does not exist")})
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Equal(t, "relation \"modules\" does not exist", body["error"])
	assert.Equal(t, "aggregation", body["kind"])
}

func TestError_HidesUnexpected(t *testing.T) {
	code, body := respond(t, errors.New("dial tcp: secret host"))
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "internal error", body["error"])
}

func TestParamID(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Params = gin.Params{{Key: "course_id", Value: "  "}}

	_, ok := ParamID(c, "course_id")
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid course_id")

	c.Params = gin.Params{{Key: "course_id", Value: "42"}}
	id, ok := ParamID(c, "course_id")
	assert.True(t, ok)
	assert.Equal(t, "42", id.String())
}
