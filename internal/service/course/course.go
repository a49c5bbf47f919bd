package course

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage/repo"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type courseRepo interface {
	FetchAll(ctx context.Context, filter *repo.CourseFilter) ([]models.Course, error)
	FetchByID(ctx context.Context, id models.ID) (*models.Course, error)
	FetchBySlug(ctx context.Context, slug string) (*models.Course, error)
	FetchUserCourses(ctx context.Context, userID models.ID) ([]models.Course, error)
	Create(ctx context.Context, in models.NewCourse) (*models.Course, error)
	Update(ctx context.Context, id models.ID, in models.CourseUpdate) (*models.Course, error)
}

type moduleRepo interface {
	FetchByCourse(ctx context.Context, courseID models.ID) ([]models.Module, error)
}

type progressRepo interface {
	StartCourse(ctx context.Context, userID, courseID models.ID) error
	CompleteCourse(ctx context.Context, userID, courseID models.ID, completed bool) error
}

type searchRepo interface {
	Index(ctx context.Context, course models.Course) error
	Search(ctx context.Context, query string, size int) ([]models.ID, error)
	Count(ctx context.Context, query string) (int, error)
}

type CourseService struct {
	log        logger.Log
	courseRepo courseRepo
	moduleRepo moduleRepo
	progress   progressRepo
	searchRepo searchRepo
}

// NewCourseService builds the catalog service. searchRepo may be nil, in
// which case search falls back to filtering the course list.
func NewCourseService(log logger.Log, courseRepo courseRepo, moduleRepo moduleRepo, progress progressRepo, searchRepo searchRepo) *CourseService {
	return &CourseService{
		log:        log,
		courseRepo: courseRepo,
		moduleRepo: moduleRepo,
		progress:   progress,
		searchRepo: searchRepo,
	}
}

type SortOrder string

const (
	SortLatest SortOrder = "latest"
	SortTitle  SortOrder = "title"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortLatest:
		return SortLatest, nil
	case SortTitle:
		return SortTitle, nil
	}
	return "", fmt.Errorf("%w: unknown sort %q", app_errors.ErrInvalidInput, s)
}

type ListQuery struct {
	Search string
	Sort   SortOrder
}

// FilterCourses keeps courses whose title, slug or description contains
// term, ignoring case. An empty term keeps everything.
func FilterCourses(courses []models.Course, term string) []models.Course {
	term = strings.ToLower(strings.TrimSpace(term))
	out := make([]models.Course, 0, len(courses))
	for _, c := range courses {
		if term == "" || matches(c, term) {
			out = append(out, c)
		}
	}
	return out
}

func matches(c models.Course, term string) bool {
	if strings.Contains(strings.ToLower(c.Title), term) || strings.Contains(strings.ToLower(c.Slug), term) {
		return true
	}
	return c.Description != nil && strings.Contains(strings.ToLower(*c.Description), term)
}

// SortCourses orders in place: newest first for SortLatest, by collated
// title for SortTitle.
func SortCourses(courses []models.Course, order SortOrder) {
	if order == SortTitle {
		coll := collate.New(language.Und, collate.IgnoreCase)
		sort.SliceStable(courses, func(i, j int) bool {
			return coll.CompareString(courses[i].Title, courses[j].Title) < 0
		})
		return
	}
	sort.SliceStable(courses, func(i, j int) bool {
		return courses[i].CreatedAt.After(courses[j].CreatedAt)
	})
}

func (s *CourseService) ListCourses(ctx context.Context, q ListQuery) ([]models.Course, error) {
	courses, err := s.courseRepo.FetchAll(ctx, nil)
	if err != nil {
		return nil, err
	}
	courses = FilterCourses(courses, q.Search)
	SortCourses(courses, q.Sort)
	return courses, nil
}

// SearchCourses returns up to size courses matching query and the total
// number of matches. The search index is used when configured and healthy.
func (s *CourseService) SearchCourses(ctx context.Context, query string, size int) ([]models.Course, int, error) {
	if strings.TrimSpace(query) == "" {
		return nil, 0, fmt.Errorf("%w: empty query", app_errors.ErrInvalidInput)
	}
	if size <= 0 {
		size = 10
	}

	if s.searchRepo != nil {
		courses, total, err := s.searchIndexed(ctx, query, size)
		if err == nil {
			return courses, total, nil
		}
		s.log.ErrorErr("course search index failed, filtering instead", err, "query", query)
	}

	courses, err := s.ListCourses(ctx, ListQuery{Search: query, Sort: SortTitle})
	if err != nil {
		return nil, 0, err
	}
	total := len(courses)
	if len(courses) > size {
		courses = courses[:size]
	}
	return courses, total, nil
}

func (s *CourseService) searchIndexed(ctx context.Context, query string, size int) ([]models.Course, int, error) {
	ids, err := s.searchRepo.Search(ctx, query, size)
	if err != nil {
		return nil, 0, err
	}
	if len(ids) == 0 {
		return []models.Course{}, 0, nil
	}
	total, err := s.searchRepo.Count(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	found, err := s.courseRepo.FetchAll(ctx, &repo.CourseFilter{IDs: ids})
	if err != nil {
		return nil, 0, err
	}
	byKey := make(map[string]models.Course, len(found))
	for _, c := range found {
		byKey[c.Key()] = c
	}
	courses := make([]models.Course, 0, len(ids))
	for _, id := range ids {
		if c, ok := byKey[id.Key()]; ok {
			courses = append(courses, c)
		}
	}
	return courses, total, nil
}

func (s *CourseService) CourseByID(ctx context.Context, id models.ID) (*models.Course, error) {
	course, err := s.courseRepo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("course %s: %w", id, app_errors.ErrNotFound)
	}
	return course, nil
}

func (s *CourseService) CourseBySlug(ctx context.Context, slug string) (*models.Course, error) {
	course, err := s.courseRepo.FetchBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("course %q: %w", slug, app_errors.ErrNotFound)
	}
	return course, nil
}

func (s *CourseService) CourseModules(ctx context.Context, courseID models.ID) ([]models.Module, error) {
	return s.moduleRepo.FetchByCourse(ctx, courseID)
}

func (s *CourseService) UserCourses(ctx context.Context, userID models.ID) ([]models.Course, error) {
	return s.courseRepo.FetchUserCourses(ctx, userID)
}
