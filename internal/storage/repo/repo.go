// Package repo holds the entity repositories. Each one wraps a
// storage.RowStore, decodes rows into models and keeps an id-keyed cache
// that is merged only after a fetch succeeds.
package repo

import (
	"context"
	"time"

	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage"
)

type Clock func() time.Time

// Repositories bundles every repository over one store.
type Repositories struct {
	Courses     *CourseRepo
	Modules     *ModuleRepo
	Lessons     *LessonRepo
	Resources   *ResourceRepo
	ModuleTests *ModuleTestRepo
	Students    *StudentRepo
	Progress    *ProgressRepo
	Users       *UserRepo
}

func New(store storage.RowStore, now Clock) *Repositories {
	if now == nil {
		now = time.Now
	}
	lessons := NewLessonRepo(store)
	modules := NewModuleRepo(store, lessons)
	return &Repositories{
		Courses:     NewCourseRepo(store, modules, now),
		Modules:     modules,
		Lessons:     lessons,
		Resources:   NewResourceRepo(store),
		ModuleTests: NewModuleTestRepo(store),
		Students:    NewStudentRepo(store),
		Progress:    NewProgressRepo(store, now),
		Users:       NewUserRepo(store),
	}
}

func setIf[T any](v storage.Values, col string, p *T) {
	if p != nil {
		v[col] = *p
	}
}

func selectAll[T any](ctx context.Context, store storage.RowStore, q storage.Query) ([]T, error) {
	rows, err := store.Select(ctx, q)
	if err != nil {
		return nil, err
	}
	return storage.Decode[T](rows)
}

// selectOne returns nil when nothing matched.
func selectOne[T any](ctx context.Context, store storage.RowStore, table string, filters ...storage.Filter) (*T, error) {
	items, err := selectAll[T](ctx, store, storage.Query{Table: table, Filters: filters, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return &items[0], nil
}

func byID(id models.ID) storage.Filter {
	return storage.Eq("id", id.Key())
}
