package progress

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage/repo"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type progressRepo interface {
	CourseStatuses(ctx context.Context, userID models.ID, courseIDs ...models.ID) (map[string]models.CourseStatus, error)
	LessonFlags(ctx context.Context, userID models.ID, lessonIDs ...models.ID) (map[string]bool, error)
}

type courseRepo interface {
	FetchAll(ctx context.Context, filter *repo.CourseFilter) ([]models.Course, error)
}

type moduleRepo interface {
	FetchByCourses(ctx context.Context, courseIDs []models.ID) ([]models.Module, error)
}

// HierarchyError means the course tree behind a report could not be read.
// It is kept apart from an empty report so callers never show it as zero
// progress. Error returns the backend message unchanged.
type HierarchyError struct {
	Err error
}

func (e *HierarchyError) Error() string {
	return app_errors.Message(e.Err)
}

func (e *HierarchyError) Unwrap() error {
	return e.Err
}

type Report struct {
	StudentID models.ID      `json:"studentId"`
	Courses   []CourseReport `json:"courses"`
	Summary   Summary        `json:"summary"`
}

type ProgressService struct {
	log      logger.Log
	policy   StatusPolicy
	progress progressRepo
	courses  courseRepo
	modules  moduleRepo
}

func NewProgressService(l logger.Log, policy StatusPolicy, p progressRepo, c courseRepo, m moduleRepo) *ProgressService {
	return &ProgressService{
		log:      l,
		policy:   policy,
		progress: p,
		courses:  c,
		modules:  m,
	}
}

// StudentReport loads a full snapshot for one student and aggregates it.
// Nothing is computed until every input has arrived.
func (s *ProgressService) StudentReport(ctx context.Context, studentID models.ID) (*Report, error) {
	var in Input

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		m, err := s.progress.CourseStatuses(gctx, studentID)
		in.CourseProgress = m
		return err
	})
	g.Go(func() error {
		m, err := s.progress.LessonFlags(gctx, studentID)
		in.LessonProgress = m
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := &Report{StudentID: studentID, Courses: []CourseReport{}}
	if len(in.CourseProgress) == 0 {
		return report, nil
	}

	h, err := s.hierarchy(ctx, in.CourseProgress)
	if err != nil {
		s.log.ErrorErr("failed to load course hierarchy", err, "student_id", studentID.String())
		return nil, &HierarchyError{Err: err}
	}
	in.Hierarchy = h

	report.Courses = Aggregate(in, s.policy)
	report.Summary = Summarize(report.Courses)
	return report, nil
}

func (s *ProgressService) hierarchy(ctx context.Context, courseProgress map[string]models.CourseStatus) (Hierarchy, error) {
	ids := make([]models.ID, 0, len(courseProgress))
	for k := range courseProgress {
		ids = append(ids, models.ID(k))
	}

	var h Hierarchy
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		courses, err := s.courses.FetchAll(gctx, &repo.CourseFilter{IDs: ids})
		h.Courses = courses
		return err
	})
	g.Go(func() error {
		modules, err := s.modules.FetchByCourses(gctx, ids)
		h.Modules = modules
		return err
	})
	if err := g.Wait(); err != nil {
		return Hierarchy{}, err
	}
	return h, nil
}
