package course

import (
	"context"
	"errors"
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

type fakeSearch struct {
	indexed map[string]models.Course
	hits    []models.ID
	err     error
}

func (f *fakeSearch) Index(_ context.Context, c models.Course) error {
	if f.indexed == nil {
		f.indexed = map[string]models.Course{}
	}
	f.indexed[c.Key()] = c
	return f.err
}

func (f *fakeSearch) Search(context.Context, string, int) ([]models.ID, error) {
	return f.hits, f.err
}

func (f *fakeSearch) Count(context.Context, string) (int, error) {
	return len(f.hits) + 10, f.err
}

func ptr[T any](v T) *T { return &v }

func seed(t *testing.T) *repo.Repositories {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.Seed(storage.TableCourses,
		storage.Values{"id": "c1", "slug": "intro-go", "title": "intro to Go", "description": "basics", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"},
		storage.Values{"id": "c2", "slug": "advanced", "title": "Advanced Rust", "description": "ownership and GO-routines", "created_at": "2024-03-01T00:00:00Z", "updated_at": "2024-03-01T00:00:00Z"},
		storage.Values{"id": "c3", "slug": "sql", "title": "SQL", "created_at": "2024-02-01T00:00:00Z", "updated_at": "2024-02-01T00:00:00Z"},
	))
	require.NoError(t, s.Seed(storage.TableModules,
		storage.Values{"id": "m1", "course_id": "c1", "title": "Basics", "ordinal": 1, "created_at": "2024-01-01T00:00:00Z"},
	))
	return repo.New(s, func() time.Time { return time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC) })
}

func newService(r *repo.Repositories, search searchRepo) *CourseService {
	return NewCourseService(logger.Discard(), r.Courses, r.Modules, r.Progress, search)
}

func titles(courses []models.Course) []string {
	out := make([]string, 0, len(courses))
	for _, c := range courses {
		out = append(out, c.Title)
	}
	return out
}

func TestListCourses(t *testing.T) {
	svc := newService(seed(t), nil)
	ctx := context.Background()

	tests := []struct {
		name  string
		query ListQuery
		want  []string
	}{
		{"latest", ListQuery{}, []string{"Advanced Rust", "SQL", "intro to Go"}},
		{"title", ListQuery{Sort: SortTitle}, []string{"Advanced Rust", "intro to Go", "SQL"}},
		{"search title and description", ListQuery{Search: "go", Sort: SortTitle}, []string{"Advanced Rust", "intro to Go"}},
		{"search slug", ListQuery{Search: "SQL"}, []string{"SQL"}},
		{"no match", ListQuery{Search: "haskell"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.ListCourses(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, titles(got))
		})
	}
}

func TestParseSortOrder(t *testing.T) {
	o, err := ParseSortOrder("")
	require.NoError(t, err)
	assert.Equal(t, SortLatest, o)

	o, err = ParseSortOrder("Title")
	require.NoError(t, err)
	assert.Equal(t, SortTitle, o)

	_, err = ParseSortOrder("stars")
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)
}

func TestSearchCourses_UsesIndexOrder(t *testing.T) {
	search := &fakeSearch{hits: []models.ID{"c3", "missing", "c1"}}
	svc := newService(seed(t), search)

	got, total, err := svc.SearchCourses(context.Background(), "anything", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL", "intro to Go"}, titles(got))
	assert.Equal(t, 13, total)
}

func TestSearchCourses_FallsBackWhenIndexFails(t *testing.T) {
	svc := newService(seed(t), &fakeSearch{err: errors.New("cluster down")})

	got, total, err := svc.SearchCourses(context.Background(), "rust", 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"Advanced Rust"}, titles(got))
	assert.Equal(t, 1, total)

	_, _, err = svc.SearchCourses(context.Background(), "  ", 5)
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)
}

func TestSearchCourses_WithoutIndex(t *testing.T) {
	svc := newService(seed(t), nil)
	got, total, err := svc.SearchCourses(context.Background(), "o", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.Equal(t, 2, total)
}

func TestCourseByID(t *testing.T) {
	svc := newService(seed(t), nil)
	ctx := context.Background()

	c, err := svc.CourseByID(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, c.Modules, 1)

	_, err = svc.CourseByID(ctx, "nope")
	assert.ErrorIs(t, err, app_errors.ErrNotFound)

	c, err = svc.CourseBySlug(ctx, "sql")
	require.NoError(t, err)
	assert.Equal(t, "SQL", c.Title)

	_, err = svc.CourseBySlug(ctx, "nope")
	assert.ErrorIs(t, err, app_errors.ErrNotFound)
}

func TestCreateAndUpdateCourse_Reindex(t *testing.T) {
	search := &fakeSearch{}
	svc := newService(seed(t), search)
	ctx := context.Background()

	created, err := svc.CreateCourse(ctx, models.NewCourse{Title: "Go Concurrency!"})
	require.NoError(t, err)
	assert.Equal(t, "go-concurrency", created.Slug)
	assert.Contains(t, search.indexed, created.Key())

	_, err = svc.UpdateCourse(ctx, created.ID, models.CourseUpdate{})
	assert.ErrorIs(t, err, app_errors.ErrInvalidInput)

	updated, err := svc.UpdateCourse(ctx, created.ID, models.CourseUpdate{Title: ptr("Go Concurrency")})
	require.NoError(t, err)
	assert.Equal(t, "Go Concurrency", search.indexed[updated.Key()].Title)

	n, err := svc.Reindex(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	_, err = newService(seed(t), nil).Reindex(ctx)
	assert.ErrorIs(t, err, app_errors.ErrSearchDisabled)
}

func TestCreateCourse_IndexFailureIsNotFatal(t *testing.T) {
	svc := newService(seed(t), &fakeSearch{err: errors.New("cluster down")})
	_, err := svc.CreateCourse(context.Background(), models.NewCourse{Title: "Kotlin"})
	assert.NoError(t, err)
}

func TestStartCourseAndUserCourses(t *testing.T) {
	r := seed(t)
	svc := newService(r, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.StartCourse(ctx, "", "c1"), app_errors.ErrNotAuthenticated)
	assert.ErrorIs(t, svc.StartCourse(ctx, "u1", "nope"), app_errors.ErrNotFound)

	require.NoError(t, svc.StartCourse(ctx, "u1", "c1"))
	require.NoError(t, svc.StartCourse(ctx, "u1", "c1"))
	require.NoError(t, svc.CompleteCourse(ctx, "u1", "c3", true))

	courses, err := svc.UserCourses(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"SQL", "intro to Go"}, titles(courses))

	statuses, err := r.Progress.CourseStatuses(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, statuses["c3"])
	assert.Equal(t, models.StatusStarted, statuses["c1"])
}
