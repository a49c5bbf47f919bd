package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/cache"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage"
)

type LessonRepo struct {
	store storage.RowStore
	cache *cache.Collection[models.Lesson]
}

func NewLessonRepo(store storage.RowStore) *LessonRepo {
	return &LessonRepo{store: store, cache: cache.New[models.Lesson]()}
}

var lessonOrder = []storage.Order{storage.Asc("ordinal"), storage.Asc("created_at")}

func (r *LessonRepo) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, storage.TableLessons)
	if err != nil {
		return 0, fmt.Errorf("count lessons: %w", err)
	}
	return n, nil
}

// FetchByModules reads the lessons of the given modules, ordinal first and
// creation time second. No ids means no query.
func (r *LessonRepo) FetchByModules(ctx context.Context, moduleIDs []models.ID) ([]models.Lesson, error) {
	keys := models.UniqueKeys(moduleIDs)
	if len(keys) == 0 {
		return []models.Lesson{}, nil
	}
	lessons, err := selectAll[models.Lesson](ctx, r.store, storage.Query{
		Table:   storage.TableLessons,
		Filters: []storage.Filter{storage.In("module_id", keys)},
		Order:   lessonOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("fetch lessons: %w", err)
	}
	r.cache.Merge(lessons...)
	return lessons, nil
}

// FetchByIDs returns lessons in the order of ids. Unknown ids are skipped.
func (r *LessonRepo) FetchByIDs(ctx context.Context, ids []models.ID) ([]models.Lesson, error) {
	keys := models.UniqueKeys(ids)
	if len(keys) == 0 {
		return []models.Lesson{}, nil
	}
	lessons, err := selectAll[models.Lesson](ctx, r.store, storage.Query{
		Table:   storage.TableLessons,
		Filters: []storage.Filter{storage.In("id", keys)},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch lessons: %w", err)
	}
	r.cache.Merge(lessons...)

	byKey := make(map[string]models.Lesson, len(lessons))
	for _, l := range lessons {
		byKey[l.Key()] = l
	}
	out := make([]models.Lesson, 0, len(lessons))
	for _, k := range keys {
		if l, ok := byKey[k]; ok {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *LessonRepo) FetchByID(ctx context.Context, id models.ID) (*models.Lesson, error) {
	lesson, err := selectOne[models.Lesson](ctx, r.store, storage.TableLessons, byID(id))
	if err != nil {
		return nil, fmt.Errorf("fetch lesson %s: %w", id, err)
	}
	if lesson != nil {
		r.cache.Merge(*lesson)
	}
	return lesson, nil
}

func (r *LessonRepo) Create(ctx context.Context, in models.NewLesson) (*models.Lesson, error) {
	if in.ModuleID.IsZero() {
		return nil, fmt.Errorf("%w: module_id is required", app_errors.ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrInvalidInput)
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: duration_seconds must not be negative", app_errors.ErrInvalidInput)
	}

	values := storage.Values{"module_id": in.ModuleID.Key(), "title": title, "ordinal": in.Ordinal}
	setIf(values, "slug", in.Slug)
	setIf(values, "content", in.Content)
	setIf(values, "video_url", in.VideoURL)
	setIf(values, "duration_seconds", in.DurationSeconds)

	row, err := r.store.Insert(ctx, storage.TableLessons, values)
	if err != nil {
		return nil, fmt.Errorf("create lesson: %w", err)
	}
	lesson, err := storage.DecodeOne[models.Lesson](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(lesson)
	return &lesson, nil
}

func (r *LessonRepo) Update(ctx context.Context, id models.ID, in models.LessonUpdate) (*models.Lesson, error) {
	if in.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", app_errors.ErrInvalidInput)
	}
	if in.DurationSeconds != nil && *in.DurationSeconds < 0 {
		return nil, fmt.Errorf("%w: duration_seconds must not be negative", app_errors.ErrInvalidInput)
	}
	values := storage.Values{}
	setIf(values, "title", in.Title)
	setIf(values, "slug", in.Slug)
	setIf(values, "ordinal", in.Ordinal)
	setIf(values, "content", in.Content)
	setIf(values, "video_url", in.VideoURL)
	setIf(values, "duration_seconds", in.DurationSeconds)

	row, err := r.store.Update(ctx, storage.TableLessons, values, byID(id))
	if err != nil {
		return nil, fmt.Errorf("update lesson %s: %w", id, err)
	}
	lesson, err := storage.DecodeOne[models.Lesson](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(lesson)
	return &lesson, nil
}

func (r *LessonRepo) Cached() []models.Lesson {
	return r.cache.All()
}
