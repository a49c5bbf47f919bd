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

type ModuleRepo struct {
	store   storage.RowStore
	lessons *LessonRepo
	cache   *cache.Collection[models.Module]
}

func NewModuleRepo(store storage.RowStore, lessons *LessonRepo) *ModuleRepo {
	return &ModuleRepo{store: store, lessons: lessons, cache: cache.New[models.Module]()}
}

// FetchAll reads every module of every course.
func (r *ModuleRepo) FetchAll(ctx context.Context) ([]models.Module, error) {
	return r.fetch(ctx)
}

func (r *ModuleRepo) FetchByCourse(ctx context.Context, courseID models.ID) ([]models.Module, error) {
	return r.fetch(ctx, storage.Eq("course_id", courseID.Key()))
}

func (r *ModuleRepo) FetchByCourses(ctx context.Context, courseIDs []models.ID) ([]models.Module, error) {
	keys := models.UniqueKeys(courseIDs)
	if len(keys) == 0 {
		return []models.Module{}, nil
	}
	return r.fetch(ctx, storage.In("course_id", keys))
}

func (r *ModuleRepo) FetchByID(ctx context.Context, id models.ID) (*models.Module, error) {
	modules, err := r.fetch(ctx, byID(id))
	if err != nil {
		return nil, err
	}
	if len(modules) == 0 {
		return nil, nil
	}
	return &modules[0], nil
}

// fetch reads modules in display order and attaches their lessons with a
// single batched lesson query.
func (r *ModuleRepo) fetch(ctx context.Context, filters ...storage.Filter) ([]models.Module, error) {
	modules, err := selectAll[models.Module](ctx, r.store, storage.Query{
		Table:   storage.TableModules,
		Filters: filters,
		Order:   []storage.Order{storage.Asc("ordinal"), storage.Asc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch modules: %w", err)
	}

	ids := make([]models.ID, 0, len(modules))
	for _, m := range modules {
		ids = append(ids, m.ID)
	}
	lessons, err := r.lessons.FetchByModules(ctx, ids)
	if err != nil {
		return nil, err
	}

	lessonsByModule := make(map[string][]models.Lesson, len(modules))
	for _, l := range lessons {
		k := l.ModuleID.Key()
		lessonsByModule[k] = append(lessonsByModule[k], l)
	}
	for i := range modules {
		modules[i].Lessons = lessonsByModule[modules[i].Key()]
		if modules[i].Lessons == nil {
			modules[i].Lessons = []models.Lesson{}
		}
	}

	r.cache.Merge(modules...)
	return modules, nil
}

func (r *ModuleRepo) Create(ctx context.Context, in models.NewModule) (*models.Module, error) {
	if in.CourseID.IsZero() {
		return nil, fmt.Errorf("%w: course_id is required", app_errors.ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrInvalidInput)
	}

	values := storage.Values{"course_id": in.CourseID.Key(), "title": title, "ordinal": in.Ordinal}
	setIf(values, "description", in.Description)

	row, err := r.store.Insert(ctx, storage.TableModules, values)
	if err != nil {
		return nil, fmt.Errorf("create module: %w", err)
	}
	module, err := storage.DecodeOne[models.Module](row)
	if err != nil {
		return nil, err
	}
	module.Lessons = []models.Lesson{}
	r.cache.Merge(module)
	return &module, nil
}

func (r *ModuleRepo) Update(ctx context.Context, id models.ID, in models.ModuleUpdate) (*models.Module, error) {
	if in.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", app_errors.ErrInvalidInput)
	}
	values := storage.Values{}
	setIf(values, "title", in.Title)
	setIf(values, "description", in.Description)
	setIf(values, "ordinal", in.Ordinal)

	row, err := r.store.Update(ctx, storage.TableModules, values, byID(id))
	if err != nil {
		return nil, fmt.Errorf("update module %s: %w", id, err)
	}
	module, err := storage.DecodeOne[models.Module](row)
	if err != nil {
		return nil, err
	}
	if prev, ok := r.cache.Get(module.Key()); ok {
		module.Lessons = prev.Lessons
		r.cache.Merge(module)
		return &module, nil
	}

	// Not loaded yet: read the lessons so the result is complete. The row is
	// already written, so a failed lesson read leaves Lessons nil and the
	// module out of the cache rather than failing the update.
	lessons, err := r.lessons.FetchByModules(ctx, []models.ID{module.ID})
	if err != nil {
		return &module, nil
	}
	module.Lessons = lessons
	r.cache.Merge(module)
	return &module, nil
}

// Cached returns the loaded modules in display order.
func (r *ModuleRepo) Cached() []models.Module {
	return r.cache.Sorted(func(a, b models.Module) bool {
		if a.Ordinal != b.Ordinal {
			return a.Ordinal < b.Ordinal
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
}
