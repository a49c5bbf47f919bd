package lesson

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage"
	"github.com/kena741/zuluskills-admin/internal/storage/memory"
	"github.com/kena741/zuluskills-admin/internal/storage/repo"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

var now = time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*LessonService, *repo.Repositories) {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.Seed(storage.TableCourses,
		storage.Values{"id": "c1", "slug": "go", "title": "Go", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"},
	))
	require.NoError(t, s.Seed(storage.TableModules,
		storage.Values{"id": "m1", "course_id": "c1", "title": "One", "ordinal": 1, "created_at": "2024-01-01T00:00:00Z"},
		storage.Values{"id": "m2", "course_id": "c1", "title": "Two", "ordinal": 4, "created_at": "2024-01-01T00:00:00Z"},
	))
	require.NoError(t, s.Seed(storage.TableLessons,
		storage.Values{"id": "l1", "module_id": "m1", "title": "Hello", "ordinal": 1, "created_at": "2024-01-01T00:00:00Z"},
		storage.Values{"id": "l2", "module_id": "m1", "title": "Types", "ordinal": 3, "created_at": "2024-01-01T00:00:00Z"},
	))

	r := repo.New(s, func() time.Time { return now })
	return NewLessonService(logger.Discard(), Repos{
		Courses:     r.Courses,
		Modules:     r.Modules,
		Lessons:     r.Lessons,
		Resources:   r.Resources,
		ModuleTests: r.ModuleTests,
		Progress:    r.Progress,
	}), r
}

func ptr[T any](v T) *T { return &v }

func TestCreateModule_AppendsToCourse(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	m, err := svc.CreateModule(ctx, models.NewModule{CourseID: "c1", Title: "Three"})
	require.NoError(t, err)
	assert.Equal(t, 5, m.Ordinal)

	m, err = svc.CreateModule(ctx, models.NewModule{CourseID: "c1", Title: "First", Ordinal: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Ordinal)

	_, err = svc.CreateModule(ctx, models.NewModule{CourseID: "missing", Title: "x"})
	assert.ErrorIs(t, err, app_errors.ErrNotFound)
}

func TestCreateLesson_AppendsToModule(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	l, err := svc.CreateLesson(ctx, models.NewLesson{ModuleID: "m1", Title: "Funcs", DurationSeconds: ptr(61)})
	require.NoError(t, err)
	assert.Equal(t, 4, l.Ordinal)
	minutes, ok := l.DurationMinutes()
	assert.True(t, ok)
	assert.Equal(t, 2, minutes)

	l, err = svc.CreateLesson(ctx, models.NewLesson{ModuleID: "m2", Title: "Only"})
	require.NoError(t, err)
	assert.Equal(t, 1, l.Ordinal)

	lessons, err := svc.LessonsByModule(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, lessons, 3)
	assert.Equal(t, "Funcs", lessons[2].Title)

	_, err = svc.CreateLesson(ctx, models.NewLesson{ModuleID: "missing", Title: "x"})
	assert.ErrorIs(t, err, app_errors.ErrNotFound)

	_, err = svc.LessonsByModule(ctx, "missing")
	assert.ErrorIs(t, err, app_errors.ErrNotFound)
}

func TestUpdateLessonAndModule(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	l, err := svc.UpdateLesson(ctx, "l1", models.LessonUpdate{VideoURL: ptr("https://youtu.be/x")})
	require.NoError(t, err)
	assert.Equal(t, models.LessonTypeVideo, l.Type())

	_, err = svc.UpdateLesson(ctx, "l1", models.LessonUpdate{})
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)

	_, err = svc.UpdateLesson(ctx, "missing", models.LessonUpdate{Title: ptr("x")})
	assert.ErrorIs(t, err, app_errors.ErrNotFound)

	m, err := svc.UpdateModule(ctx, "m2", models.ModuleUpdate{Title: ptr("Second")})
	require.NoError(t, err)
	assert.Equal(t, "Second", m.Title)
}

func TestLessonsByIDs(t *testing.T) {
	svc, _ := newService(t)
	lessons, err := svc.LessonsByIDs(context.Background(), []models.ID{"l2", "nope", "l1", "l2"})
	require.NoError(t, err)
	require.Len(t, lessons, 2)
	assert.Equal(t, "Types", lessons[0].Title)
	assert.Equal(t, "Hello", lessons[1].Title)
}

func TestResourcesAndModuleTests(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	yt := models.ResourceYouTube
	res, err := svc.CreateResource(ctx, models.NewLessonResource{LessonID: "l1", Title: "Talk", URL: ptr("https://youtu.be/y"), ResourceType: &yt})
	require.NoError(t, err)

	bad := models.ResourceType("podcast")
	_, err = svc.UpdateResource(ctx, res.ID, models.LessonResourceUpdate{ResourceType: &bad})
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)

	_, err = svc.CreateResource(ctx, models.NewLessonResource{LessonID: "missing", Title: "x"})
	assert.ErrorIs(t, err, app_errors.ErrNotFound)

	resources, err := svc.LessonResources(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, resources, 1)
	assert.Equal(t, "Talk", resources[0].Title)

	_, err = svc.CreateModuleTest(ctx, models.NewModuleTest{ModuleID: "m1", Title: "Quiz"})
	require.NoError(t, err)
	_, err = svc.CreateModuleTest(ctx, models.NewModuleTest{ModuleID: "missing", Title: "Quiz"})
	assert.ErrorIs(t, err, app_errors.ErrNotFound)

	tests, err := svc.ModuleTests(ctx, "m1")
	require.NoError(t, err)
	assert.Len(t, tests, 1)
}

func TestMarkLessonProgress(t *testing.T) {
	svc, r := newService(t)
	ctx := context.Background()

	_, err := svc.MarkLessonProgress(ctx, "", "l1", true)
	assert.ErrorIs(t, err, app_errors.ErrNotAuthenticated)

	_, err = svc.MarkLessonProgress(ctx, "u1", "missing", true)
	assert.ErrorIs(t, err, app_errors.ErrNotFound)

	p, err := svc.MarkLessonProgress(ctx, "u1", "l1", true)
	require.NoError(t, err)
	require.NotNil(t, p.CompletedAt)
	assert.True(t, p.CompletedAt.Equal(now))

	_, err = svc.MarkLessonProgress(ctx, "u1", "l2", true)
	require.NoError(t, err)
	_, err = svc.MarkLessonProgress(ctx, "u1", "l2", false)
	require.NoError(t, err)

	flags, err := r.Progress.LessonFlags(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"l1": true, "l2": false}, flags)
}
