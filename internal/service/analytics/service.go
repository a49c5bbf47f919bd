package analytics

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/storage/repo"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type counter interface {
	Count(ctx context.Context) (int, error)
}

type courseRepo interface {
	counter
	FetchAll(ctx context.Context, filter *repo.CourseFilter) ([]models.Course, error)
}

type moduleRepo interface {
	FetchAll(ctx context.Context) ([]models.Module, error)
}

type progressRepo interface {
	CompletionsSince(ctx context.Context, since time.Time) ([]models.LessonProgress, error)
	CountCompletionsSince(ctx context.Context, since time.Time) (int, error)
}

type Options struct {
	TopCourses int
	WindowDays int
}

type Dashboard struct {
	Students          int             `json:"students"`
	Courses           int             `json:"courses"`
	Lessons           int             `json:"lessons"`
	CompletionsWindow int             `json:"completionsLastWeek"`
	TopCourses        []CourseLessons `json:"topCourses"`
	Daily             []DayCount      `json:"daily"`
}

type AnalyticsService struct {
	log      logger.Log
	opts     Options
	students counter
	courses  courseRepo
	lessons  counter
	modules  moduleRepo
	progress progressRepo
}

func NewAnalyticsService(l logger.Log, opts Options, students counter, courses courseRepo, lessons counter, modules moduleRepo, progress progressRepo) *AnalyticsService {
	if opts.TopCourses <= 0 {
		opts.TopCourses = DefaultTopCourses
	}
	if opts.WindowDays <= 0 {
		opts.WindowDays = DefaultWindowDays
	}
	return &AnalyticsService{
		log:      l,
		opts:     opts,
		students: students,
		courses:  courses,
		lessons:  lessons,
		modules:  modules,
		progress: progress,
	}
}

// Dashboard issues every read at once and waits for all of them. Each
// goroutine owns its own field of the result.
func (s *AnalyticsService) Dashboard(ctx context.Context, now time.Time) (*Dashboard, error) {
	since := WindowStart(now, s.opts.WindowDays)

	var (
		d       Dashboard
		courses []models.Course
		modules []models.Module
		events  []models.LessonProgress
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		d.Students, err = s.students.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Courses, err = s.courses.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.Lessons, err = s.lessons.Count(gctx)
		return err
	})
	g.Go(func() (err error) {
		d.CompletionsWindow, err = s.progress.CountCompletionsSince(gctx, since)
		return err
	})
	g.Go(func() (err error) {
		courses, err = s.courses.FetchAll(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		modules, err = s.modules.FetchAll(gctx)
		return err
	})
	g.Go(func() (err error) {
		events, err = s.progress.CompletionsSince(gctx, since)
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.ErrorErr("failed to load dashboard", err)
		return nil, err
	}

	var lessons []models.Lesson
	for _, m := range modules {
		lessons = append(lessons, m.Lessons...)
	}
	d.TopCourses = TopCoursesByLessons(courses, modules, lessons, s.opts.TopCourses)

	times := make([]time.Time, 0, len(events))
	for _, e := range events {
		if e.CompletedAt != nil {
			times = append(times, *e.CompletedAt)
		}
	}
	d.Daily = DailyHistogram(times, now, s.opts.WindowDays)

	s.log.Debug("dashboard computed", "students", d.Students, "courses", d.Courses, "completions", d.CompletionsWindow)
	return &d, nil
}
