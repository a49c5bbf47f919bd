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

type CourseFilter struct {
	IDs []models.ID
}

type CourseRepo struct {
	store   storage.RowStore
	modules *ModuleRepo
	now     Clock
	cache   *cache.Collection[models.Course]
}

func NewCourseRepo(store storage.RowStore, modules *ModuleRepo, now Clock) *CourseRepo {
	return &CourseRepo{store: store, modules: modules, now: now, cache: cache.New[models.Course]()}
}

// FetchAll returns courses newest first. With filter.IDs set only those
// courses are read; an empty id list reads nothing.
func (r *CourseRepo) FetchAll(ctx context.Context, filter *CourseFilter) ([]models.Course, error) {
	q := storage.Query{
		Table: storage.TableCourses,
		Order: []storage.Order{storage.Desc("created_at")},
	}
	if filter != nil {
		keys := models.UniqueKeys(filter.IDs)
		if len(keys) == 0 {
			return []models.Course{}, nil
		}
		q.Filters = append(q.Filters, storage.In("id", keys))
	}

	courses, err := selectAll[models.Course](ctx, r.store, q)
	if err != nil {
		return nil, fmt.Errorf("fetch courses: %w", err)
	}
	r.cache.Merge(courses...)
	return courses, nil
}

func (r *CourseRepo) Count(ctx context.Context) (int, error) {
	n, err := r.store.Count(ctx, storage.TableCourses)
	if err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return n, nil
}

// FetchUserCourses returns the courses the user has a progress row for,
// newest first.
func (r *CourseRepo) FetchUserCourses(ctx context.Context, userID models.ID) ([]models.Course, error) {
	rows, err := selectAll[models.CourseProgress](ctx, r.store, storage.Query{
		Table:   storage.TableCourseProgress,
		Columns: []string{"course_id"},
		Filters: []storage.Filter{storage.Eq("user_id", userID.Key())},
	})
	if err != nil {
		return nil, fmt.Errorf("fetch user courses: %w", err)
	}
	ids := make([]models.ID, 0, len(rows))
	for _, p := range rows {
		ids = append(ids, p.CourseID)
	}
	return r.FetchAll(ctx, &CourseFilter{IDs: ids})
}

// FetchByID returns the course with its modules and their lessons, or nil
// when there is no such course.
func (r *CourseRepo) FetchByID(ctx context.Context, id models.ID) (*models.Course, error) {
	course, err := selectOne[models.Course](ctx, r.store, storage.TableCourses, byID(id))
	if err != nil {
		return nil, fmt.Errorf("fetch course %s: %w", id, err)
	}
	return r.withModules(ctx, course)
}

func (r *CourseRepo) FetchBySlug(ctx context.Context, slug string) (*models.Course, error) {
	course, err := selectOne[models.Course](ctx, r.store, storage.TableCourses, storage.Eq("slug", slug))
	if err != nil {
		return nil, fmt.Errorf("fetch course %q: %w", slug, err)
	}
	return r.withModules(ctx, course)
}

func (r *CourseRepo) withModules(ctx context.Context, course *models.Course) (*models.Course, error) {
	if course == nil {
		return nil, nil
	}
	modules, err := r.modules.FetchByCourse(ctx, course.ID)
	if err != nil {
		return nil, err
	}
	course.Modules = modules
	r.cache.Merge(*course)
	return course, nil
}

func (r *CourseRepo) Create(ctx context.Context, in models.NewCourse) (*models.Course, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", app_errors.ErrInvalidInput)
	}
	slug := strings.TrimSpace(in.Slug)
	if slug == "" {
		slug = models.Slugify(title)
	}
	if slug == "" {
		return nil, fmt.Errorf("%w: slug is empty", app_errors.ErrInvalidInput)
	}

	values := storage.Values{"title": title, "slug": slug}
	setIf(values, "description", in.Description)

	row, err := r.store.Insert(ctx, storage.TableCourses, values)
	if err != nil {
		return nil, fmt.Errorf("create course: %w", err)
	}
	course, err := storage.DecodeOne[models.Course](row)
	if err != nil {
		return nil, err
	}
	r.cache.Merge(course)
	return &course, nil
}

// Update applies the non-nil fields of in and stamps updated_at.
func (r *CourseRepo) Update(ctx context.Context, id models.ID, in models.CourseUpdate) (*models.Course, error) {
	values := storage.Values{"updated_at": r.now().UTC()}
	setIf(values, "title", in.Title)
	setIf(values, "slug", in.Slug)
	setIf(values, "description", in.Description)

	row, err := r.store.Update(ctx, storage.TableCourses, values, byID(id))
	if err != nil {
		return nil, fmt.Errorf("update course %s: %w", id, err)
	}
	course, err := storage.DecodeOne[models.Course](row)
	if err != nil {
		return nil, err
	}
	if prev, ok := r.cache.Get(course.Key()); ok {
		course.Modules = prev.Modules
	}
	r.cache.Merge(course)
	return &course, nil
}

// Cached returns the courses loaded so far.
func (r *CourseRepo) Cached() []models.Course {
	return r.cache.All()
}
