package progress

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

// failingStore fails selects on one table.
type failingStore struct {
	storage.RowStore
	table string
	err   error
}

func (s *failingStore) Select(ctx context.Context, q storage.Query) ([]storage.Row, error) {
	if q.Table == s.table {
		return nil, s.err
	}
	return s.RowStore.Select(ctx, q)
}

func seed(t *testing.T) *memory.RowStore {
	t.Helper()
	s := memory.New()
	require.NoError(t, s.Seed(storage.TableCourses,
		storage.Values{"id": "C1", "slug": "go", "title": "Go Basics", "created_at": "2024-01-01T00:00:00Z", "updated_at": "2024-01-01T00:00:00Z"},
	))
	require.NoError(t, s.Seed(storage.TableModules,
		storage.Values{"id": "M1", "course_id": "C1", "title": "One", "ordinal": 1, "created_at": "2024-01-01T00:00:00Z"},
		storage.Values{"id": "M2", "course_id": "C1", "title": "Two", "ordinal": 2, "created_at": "2024-01-01T00:00:00Z"},
	))
	require.NoError(t, s.Seed(storage.TableLessons,
		storage.Values{"id": "L1", "module_id": "M1", "title": "Hello", "ordinal": 1, "created_at": "2024-01-01T00:00:00Z"},
		storage.Values{"id": "L2", "module_id": "M1", "title": "Types", "ordinal": 2, "created_at": "2024-01-01T00:00:00Z"},
		storage.Values{"id": "L3", "module_id": "M2", "title": "Funcs", "ordinal": 1, "created_at": "2024-01-01T00:00:00Z"},
	))
	require.NoError(t, s.Seed(storage.TableCourseProgress,
		storage.Values{"user_id": "U1", "course_id": "C1", "completed": false, "started_at": "2024-01-05T00:00:00Z"},
	))
	require.NoError(t, s.Seed(storage.TableLessonProgress,
		storage.Values{"user_id": "U1", "lesson_id": "L1", "completed": true, "completed_at": "2024-01-06T00:00:00Z"},
		storage.Values{"user_id": "U2", "lesson_id": "L2", "completed": true, "completed_at": "2024-01-06T00:00:00Z"},
	))
	return s
}

func newService(store storage.RowStore) *ProgressService {
	return newServiceWithPolicy(store, PolicyInProgress)
}

func newServiceWithPolicy(store storage.RowStore, policy StatusPolicy) *ProgressService {
	r := repo.New(store, func() time.Time { return time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC) })
	return NewProgressService(logger.Discard(), policy, r.Progress, r.Courses, r.Modules)
}

func TestStudentReport(t *testing.T) {
	svc := newService(seed(t))

	report, err := svc.StudentReport(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, report.Courses, 1)

	c := report.Courses[0]
	assert.Equal(t, "Go Basics", c.Title)
	assert.Equal(t, 3, c.TotalLessons)
	assert.Equal(t, 1, c.CompletedLessons)
	assert.Equal(t, 33, c.Percent)
	assert.Equal(t, 1, report.Summary.Courses)
}

func TestStudentReport_NoCourses(t *testing.T) {
	svc := newService(seed(t))

	report, err := svc.StudentReport(context.Background(), "U2")
	require.NoError(t, err)
	assert.Empty(t, report.Courses)
	assert.Equal(t, Summary{}, report.Summary)
}

func TestStudentReport_HierarchyFailure(t *testing.T) {
	store := &failingStore{
		RowStore: seed(t),
		table:    storage.TableModules,
		err:      app_errors.QueryFailed(errors.New("network error")),
	}
	svc := newService(store)

	report, err := svc.StudentReport(context.Background(), "U1")
	assert.Nil(t, report)

	var herr *HierarchyError
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "network error", herr.Error())
	assert.True(t, app_errors.IsQueryFailed(err))
}

func TestStudentReport_ProgressFailure(t *testing.T) {
	store := &failingStore{
		RowStore: seed(t),
		table:    storage.TableLessonProgress,
		err:      app_errors.QueryFailed(errors.New("boom")),
	}
	svc := newService(store)

	_, err := svc.StudentReport(context.Background(), "U1")
	require.Error(t, err)
	var herr *HierarchyError
	assert.False(t, errors.As(err, &herr))
	assert.Equal(t, "boom", app_errors.Message(err))
}

func TestStudentReport_Unavailable(t *testing.T) {
	svc := newService(storage.Unavailable())

	_, err := svc.StudentReport(context.Background(), "U1")
	assert.ErrorIs(t, err, app_errors.ErrBackendUnavailable)
}

func TestStudentReport_StatusPolicy(t *testing.T) {
	ctx := context.Background()
	store := seed(t)
	require.NoError(t, store.Seed(storage.TableLessonProgress,
		storage.Values{"user_id": "U1", "lesson_id": "L2", "completed": true, "completed_at": "2024-01-07T00:00:00Z"},
		storage.Values{"user_id": "U1", "lesson_id": "L3", "completed": true, "completed_at": "2024-01-08T00:00:00Z"},
	))

	tests := []struct {
		policy StatusPolicy
		want   models.CourseStatus
	}{
		{PolicyInProgress, models.StatusInProgress},
		{PolicyDerived, models.StatusCompleted},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			report, err := newServiceWithPolicy(store, tt.policy).StudentReport(ctx, "U1")
			require.NoError(t, err)
			require.Len(t, report.Courses, 1)
			assert.Equal(t, 100, report.Courses[0].Percent)
			assert.Equal(t, tt.want, report.Courses[0].Status)
		})
	}
}

func TestStudentReport_DerivedNeedsEveryLesson(t *testing.T) {
	report, err := newServiceWithPolicy(seed(t), PolicyDerived).StudentReport(context.Background(), "U1")
	require.NoError(t, err)
	require.Len(t, report.Courses, 1)
	assert.Equal(t, 33, report.Courses[0].Percent)
	assert.Equal(t, models.StatusInProgress, report.Courses[0].Status)
}
