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

type ResourceRepo struct {
	store storage.RowStore
	cache *cache.Collection[models.LessonResource]
}

func NewResourceRepo(store storage.RowStore) *ResourceRepo {
	return &ResourceRepo{store: store, cache: cache.New[models.LessonResource]()}
}

func (r *ResourceRepo) FetchByLesson(ctx context.Context, lessonID models.ID) ([]models.LessonResource, error) {
	resources, err := selectAll[models.LessonResource](ctx, r.store, storage.Query{
		Table:   storage.TableLessonResources,
		Filters: []storage.Filter{storage.Eq("lesson_id", lessonID.Key())},
		Order:   []storage.Order{storage.Asc("created_at")},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch resources: %w", err)
	}
	r.cache.Merge(resources...)
	return resources, nil
}

func checkResourceType(t *models.ResourceType) error {
	if t != nil && !t.Valid() {
		return fmt.Errorf("%w: resource_type must be website or youtube", app_errors.ErrInvalidInput)
	}
	return nil
}

func (r *ResourceRepo) Create(ctx context.Context, in models.NewLessonResource) (*models.LessonResource, error) {
	if in.LessonID.IsZero() {
		return nil, fmt.Errorf("%w: lesson_id is required", app_errors.ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrInvalidInput)
	}
	if err := checkResourceType(in.ResourceType); err != nil {
		return nil, err
	}

	values := storage.Values{"lesson_id": in.LessonID.Key(), "title": title}
	setIf(values, "url", in.URL)
	setIf(values, "resource_type", in.ResourceType)

	row, err := r.store.Insert(ctx, storage.TableLessonResources, values)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}
	res, err := storage.DecodeOne[models.LessonResource](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(res)
	return &res, nil
}

func (r *ResourceRepo) Update(ctx context.Context, id models.ID, in models.LessonResourceUpdate) (*models.LessonResource, error) {
	if in.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", app_errors.ErrInvalidInput)
	}
	if err := checkResourceType(in.ResourceType); err != nil {
		return nil, err
	}
	values := storage.Values{}
	setIf(values, "title", in.Title)
	setIf(values, "url", in.URL)
	setIf(values, "resource_type", in.ResourceType)

	row, err := r.store.Update(ctx, storage.TableLessonResources, values, byID(id))
	if err != nil {
		return nil, fmt.Errorf("update resource %s: %w", id, err)
	}
	res, err := storage.DecodeOne[models.LessonResource](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(res)
	return &res, nil
}

type ModuleTestRepo struct {
	store storage.RowStore
	cache *cache.Collection[models.ModuleTest]
}

func NewModuleTestRepo(store storage.RowStore) *ModuleTestRepo {
	return &ModuleTestRepo{store: store, cache: cache.New[models.ModuleTest]()}
}

func (r *ModuleTestRepo) FetchByModule(ctx context.Context, moduleID models.ID) ([]models.ModuleTest, error) {
	tests, err := selectAll[models.ModuleTest](ctx, r.store, storage.Query{
		Table:   storage.TableModuleTests,
		Filters: []storage.Filter{storage.Eq("module_id", moduleID.Key())},
		Order:   []storage.Order{storage.Asc("title")},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch module tests: %w", err)
	}
	r.cache.Merge(tests...)
	return tests, nil
}

func (r *ModuleTestRepo) Create(ctx context.Context, in models.NewModuleTest) (*models.ModuleTest, error) {
	if in.ModuleID.IsZero() {
		return nil, fmt.Errorf("%w: module_id is required", app_errors.ErrInvalidInput)
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrInvalidInput)
	}

	values := storage.Values{"module_id": in.ModuleID.Key(), "title": title}
	setIf(values, "description", in.Description)

	row, err := r.store.Insert(ctx, storage.TableModuleTests, values)
	if err != nil {
		return nil, fmt.Errorf("create module test: %w", err)
	}
	test, err := storage.DecodeOne[models.ModuleTest](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(test)
	return &test, nil
}
