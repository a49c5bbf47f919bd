package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/kena741/zuluskills-admin/internal/cache"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage"
)

// ProgressRepo reads and upserts user_course_progress and
// user_lesson_progress rows. Rows are never deleted here.
type ProgressRepo struct {
	store   storage.RowStore
	now     Clock
	courses *cache.Collection[models.CourseProgress]
	lessons *cache.Collection[models.LessonProgress]
}

func NewProgressRepo(store storage.RowStore, now Clock) *ProgressRepo {
	return &ProgressRepo{
		store:   store,
		now:     now,
		courses: cache.New[models.CourseProgress](),
		lessons: cache.New[models.LessonProgress](),
	}
}

var (
	courseProgressKey = storage.Conflict{Columns: []string{"user_id", "course_id"}}
	lessonProgressKey = storage.Conflict{Columns: []string{"user_id", "lesson_id"}}
)

// StartCourse records that the user started the course. An existing row is
// left untouched.
func (r *ProgressRepo) StartCourse(ctx context.Context, userID, courseID models.ID) error {
	conflict := courseProgressKey
	conflict.IgnoreDuplicates = true
	err := r.store.Upsert(ctx, storage.TableCourseProgress, storage.Values{
		"user_id":    userID.Key(),
		"course_id":  courseID.Key(),
		"completed":  false,
		"started_at": r.now().UTC(),
	}, conflict)
	if err != nil {
		return fmt.Errorf("start course %s: %w", courseID, err)
	}
	return nil
}

func (r *ProgressRepo) CompleteCourse(ctx context.Context, userID, courseID models.ID, completed bool) error {
	err := r.store.Upsert(ctx, storage.TableCourseProgress, storage.Values{
		"user_id":   userID.Key(),
		"course_id": courseID.Key(),
		"completed": completed,
	}, courseProgressKey)
	if err != nil {
		return fmt.Errorf("complete course %s: %w", courseID, err)
	}
	return nil
}

// MarkLesson upserts the lesson flag. completed_at is set when completed
// and cleared otherwise.
func (r *ProgressRepo) MarkLesson(ctx context.Context, userID, lessonID models.ID, completed bool) (*models.LessonProgress, error) {
	var completedAt *time.Time
	if completed {
		t := r.now().UTC()
		completedAt = &t
	}
	err := r.store.Upsert(ctx, storage.TableLessonProgress, storage.Values{
		"user_id":      userID.Key(),
		"lesson_id":    lessonID.Key(),
		"completed":    completed,
		"completed_at": completedAt,
	}, lessonProgressKey)
	if err != nil {
		return nil, fmt.Errorf("mark lesson %s: %w", lessonID, err)
	}
	p := models.LessonProgress{UserID: userID, LessonID: lessonID, Completed: completed, CompletedAt: completedAt}
	r.lessons.Merge(p)
	return &p, nil
}

func (r *ProgressRepo) CourseRows(ctx context.Context, userID models.ID, courseIDs ...models.ID) ([]models.CourseProgress, error) {
	q := storage.Query{
		Table:   storage.TableCourseProgress,
		Filters: []storage.Filter{storage.Eq("user_id", userID.Key())},
		Order:   []storage.Order{storage.Desc("started_at")},
	}
	if len(courseIDs) > 0 {
		q.Filters = append(q.Filters, storage.In("course_id", models.UniqueKeys(courseIDs)))
	}
	rows, err := selectAll[models.CourseProgress](ctx, r.store, q)
	if err != nil {
		return nil, fmt.Errorf("fetch course progress: %w", err)
	}
	r.courses.Merge(rows...)
	return rows, nil
}

// CourseStatuses maps course key to the recorded status for one user:
// StatusCompleted or StatusStarted.
func (r *ProgressRepo) CourseStatuses(ctx context.Context, userID models.ID, courseIDs ...models.ID) (map[string]models.CourseStatus, error) {
	rows, err := r.CourseRows(ctx, userID, courseIDs...)
	if err != nil {
		return nil, err
	}
	out := make(map[string]models.CourseStatus, len(rows))
	for _, p := range rows {
		out[p.CourseID.Key()] = p.Recorded()
	}
	return out, nil
}

// LessonFlags maps lesson key to completion for one user.
func (r *ProgressRepo) LessonFlags(ctx context.Context, userID models.ID, lessonIDs ...models.ID) (map[string]bool, error) {
	q := storage.Query{
		Table:   storage.TableLessonProgress,
		Filters: []storage.Filter{storage.Eq("user_id", userID.Key())},
	}
	if len(lessonIDs) > 0 {
		q.Filters = append(q.Filters, storage.In("lesson_id", models.UniqueKeys(lessonIDs)))
	}
	rows, err := selectAll[models.LessonProgress](ctx, r.store, q)
	if err != nil {
		return nil, fmt.Errorf("fetch lesson progress: %w", err)
	}
	r.lessons.Merge(rows...)

	out := make(map[string]bool, len(rows))
	for _, p := range rows {
		out[p.LessonID.Key()] = p.Completed
	}
	return out, nil
}

func completedSince(since time.Time) []storage.Filter {
	return []storage.Filter{storage.Eq("completed", true), storage.Gte("completed_at", since.UTC())}
}

// CompletionsSince lists completed lesson rows with completed_at >= since.
func (r *ProgressRepo) CompletionsSince(ctx context.Context, since time.Time) ([]models.LessonProgress, error) {
	rows, err := selectAll[models.LessonProgress](ctx, r.store, storage.Query{
		Table:   storage.TableLessonProgress,
		Columns: []string{"user_id", "lesson_id", "completed", "completed_at"},
		Filters: completedSince(since),
		Order:   []storage.Order{storage.Asc("completed_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch completions: %w", err)
	}
	return rows, nil
}

func (r *ProgressRepo) CountCompletionsSince(ctx context.Context, since time.Time) (int, error) {
	n, err := r.store.Count(ctx, storage.TableLessonProgress, completedSince(since)...)
	if err != nil {
		return 0, fmt.Errorf("count completions: %w", err)
	}
	return n, nil
}
