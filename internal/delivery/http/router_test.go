package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	delivery "github.com/kena741/zuluskills-admin/internal/delivery/http"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/mail"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/service"
	"github.com/kena741/zuluskills-admin/internal/service/analytics"
	"github.com/kena741/zuluskills-admin/internal/service/auth"
	"github.com/kena741/zuluskills-admin/internal/service/course"
	"github.com/kena741/zuluskills-admin/internal/service/lesson"
	"github.com/kena741/zuluskills-admin/internal/service/progress"
	"github.com/kena741/zuluskills-admin/internal/service/student"
	"github.com/kena741/zuluskills-admin/internal/storage"
	"github.com/kena741/zuluskills-admin/internal/storage/memory"
	"github.com/kena741/zuluskills-admin/internal/storage/repo"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newEngine(t *testing.T, store storage.RowStore, backend string) *gin.Engine {
	t.Helper()
	log := logger.Discard()
	repos := repo.New(store, nil)
	jwtManager := auth.NewJWTManager("test-secret", "zuluskills", 15*time.Minute, time.Hour)

	u := service.Collection{
		AuthService: auth.NewAuthService(log, jwtManager, repos.Users, repos.Students, memory.NewTokenStore(nil),
			mail.NewConsoleSender(log, ""), auth.LinkOptions{TTL: time.Minute, RedirectURL: "http://localhost:3000/login"}),
		CourseService: course.NewCourseService(log, repos.Courses, repos.Modules, repos.Progress, nil),
		LessonService: lesson.NewLessonService(log, lesson.Repos{
			Courses:     repos.Courses,
			Modules:     repos.Modules,
			Lessons:     repos.Lessons,
			Resources:   repos.Resources,
			ModuleTests: repos.ModuleTests,
			Progress:    repos.Progress,
		}),
		StudentService:   student.NewStudentService(log, repos.Students, nil),
		ProgressService:  progress.NewProgressService(log, progress.PolicyInProgress, repos.Progress, repos.Courses, repos.Modules),
		AnalyticsService: analytics.NewAnalyticsService(log, analytics.Options{TopCourses: 5, WindowDays: 7}, repos.Students, repos.Courses, repos.Lessons, repos.Modules, repos.Progress),
	}
	return delivery.InitRoutes(log, u, delivery.Options{
		Features: controllers.Features{Backend: backend},
		Now:      func() time.Time { return time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC) },
	})
}

func seededStore(t *testing.T) *memory.RowStore {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.Seed(storage.TableCourses, storage.Values{"id": "c1", "slug": "intro-to-go", "title": "Intro to Go"}))
	require.NoError(t, s.Seed(storage.TableModules, storage.Values{"id": "m1", "course_id": "c1", "title": "Basics", "ordinal": 1}))
	require.NoError(t, s.Seed(storage.TableLessons,
		storage.Values{"id": "l1", "module_id": "m1", "title": "Hello", "ordinal": 1},
		storage.Values{"id": "l2", "module_id": "m1", "title": "Types", "ordinal": 2},
	))
	return s
}

func do(t *testing.T, r *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func signIn(t *testing.T, r *gin.Engine, email string) models.Session {
	t.Helper()
	creds := map[string]string{"email": email, "password": "hunter22"}
	w := do(t, r, http.MethodPost, "/v1/auth/register", "", creds)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	w = do(t, r, http.MethodPost, "/v1/auth/login", "", creds)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.Session](t, w)
}

func TestStatus(t *testing.T) {
	r := newEngine(t, memory.New(), "demo")
	w := do(t, r, http.MethodGet, "/v1/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"Available","features":{"backend":"demo","search":false,"avatars":false}}`, w.Body.String())
}

func TestUnavailableBackend(t *testing.T) {
	r := newEngine(t, storage.Unavailable(), "unavailable")

	w := do(t, r, http.MethodGet, "/v1/courses", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "backend not configured")
}

func TestCourseQueries(t *testing.T) {
	r := newEngine(t, seededStore(t), "demo")

	w := do(t, r, http.MethodGet, "/v1/courses?search=go", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Courses []models.Course `json:"courses"`
	}](t, w)
	require.Len(t, list.Courses, 1)
	assert.Equal(t, "Intro to Go", list.Courses[0].Title)

	w = do(t, r, http.MethodGet, "/v1/courses/slug/intro-to-go", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, r, http.MethodGet, "/v1/courses/missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodGet, "/v1/courses?sort=oldest", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Without an index the search filters the course list.
	w = do(t, r, http.MethodGet, "/v1/courses/search?q=go", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	found := decode[struct {
		Courses []models.Course `json:"courses"`
		Total   int             `json:"total"`
	}](t, w)
	assert.Equal(t, 1, found.Total)
}

func TestStudentProgressFlow(t *testing.T) {
	r := newEngine(t, seededStore(t), "demo")
	session := signIn(t, r, "ann@example.com")

	w := do(t, r, http.MethodGet, "/v1/me/progress", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = do(t, r, http.MethodPost, "/v1/courses/c1/start", session.AccessToken, nil)
	require.Less(t, w.Code, 300, w.Body.String())

	w = do(t, r, http.MethodPost, "/v1/lessons/l1/progress", session.AccessToken, map[string]bool{"completed": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, r, http.MethodPost, "/v1/lessons/l2/progress", session.AccessToken, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, r, http.MethodGet, "/v1/me/progress", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	report := decode[progress.Report](t, w)
	require.Len(t, report.Courses, 1)
	assert.Equal(t, "Intro to Go", report.Courses[0].Title)
	assert.Equal(t, 2, report.Courses[0].TotalLessons)
	assert.Equal(t, 1, report.Courses[0].CompletedLessons)
	assert.Equal(t, 50, report.Courses[0].Percent)

	w = do(t, r, http.MethodGet, "/v1/admin/dashboard", session.AccessToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestAdminRoutes(t *testing.T) {
	store := seededStore(t)
	r := newEngine(t, store, "demo")
	session := signIn(t, r, "root@example.com")

	_, err := store.Update(context.Background(), storage.TableUsers, storage.Values{"role": models.AdminRole}, storage.Eq("id", session.User.ID.String()))
	require.NoError(t, err)
	// Roles are read from the access token, so sign in again.
	w := do(t, r, http.MethodPost, "/v1/auth/login", "", map[string]string{"email": "root@example.com", "password": "hunter22"})
	require.Equal(t, http.StatusOK, w.Code)
	session = decode[models.Session](t, w)
	require.Equal(t, models.AdminRole, session.User.Role)

	w = do(t, r, http.MethodGet, "/v1/admin/dashboard", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	dash := decode[analytics.Dashboard](t, w)
	assert.Equal(t, 1, dash.Courses)
	assert.Equal(t, 2, dash.Lessons)
	assert.Equal(t, 1, dash.Students)
	assert.Len(t, dash.Daily, 7)

	w = do(t, r, http.MethodPost, "/v1/admin/courses", session.AccessToken, map[string]string{"title": "Rust for Gophers"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[models.Course](t, w)
	assert.Equal(t, "rust-for-gophers", created.Slug)

	w = do(t, r, http.MethodPost, "/v1/admin/courses/reindex", session.AccessToken, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	w = do(t, r, http.MethodGet, "/v1/admin/students", session.AccessToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "root@example.com")
}
