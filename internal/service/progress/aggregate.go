package progress

import (
	"fmt"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/kena741/zuluskills-admin/internal/models"
)

// StatusPolicy decides the status of a course whose progress row is not
// marked completed (StatusStarted, or any unrecognized value).
type StatusPolicy string

const (
	// PolicyInProgress reports such courses as in-progress.
	PolicyInProgress StatusPolicy = "in-progress"
	// PolicyDerived reports completed when every lesson is done and the
	// course has at least one lesson, in-progress otherwise.
	PolicyDerived StatusPolicy = "derived"
)

func ParseStatusPolicy(s string) (StatusPolicy, error) {
	switch StatusPolicy(s) {
	case "", PolicyInProgress:
		return PolicyInProgress, nil
	case PolicyDerived:
		return PolicyDerived, nil
	}
	return "", fmt.Errorf("unknown status policy %q", s)
}

type LessonItem struct {
	ID    models.ID `json:"id"`
	Title string    `json:"title"`
}

type CourseReport struct {
	CourseID          models.ID           `json:"id"`
	Title             string              `json:"title"`
	TotalLessons      int                 `json:"totalLessons"`
	CompletedLessons  int                 `json:"completedLessons"`
	InProgressLessons int                 `json:"inProgressLessons"`
	Percent           int                 `json:"percent"`
	Status            models.CourseStatus `json:"status"`
	CompletedItems    []LessonItem        `json:"completedLessonItems"`
	InProgressItems   []LessonItem        `json:"inProgressLessonItems"`
}

// Hierarchy is the course -> module -> lesson tree. Lessons may be given
// flat, nested in modules, or both.
type Hierarchy struct {
	Courses []models.Course
	Modules []models.Module
	Lessons []models.Lesson
}

// Input is one student's snapshot. Maps are keyed by models.ID.Key.
type Input struct {
	CourseProgress map[string]models.CourseStatus
	LessonProgress map[string]bool
	Hierarchy      Hierarchy
}

// Aggregate builds one report per course present in CourseProgress. It is
// a pure function of its input; callers rerun it whenever any input changes.
func Aggregate(in Input, policy StatusPolicy) []CourseReport {
	if len(in.CourseProgress) == 0 {
		return []CourseReport{}
	}

	titleByCourse := make(map[string]string, len(in.Hierarchy.Courses))
	for _, c := range in.Hierarchy.Courses {
		titleByCourse[c.Key()] = c.Title
	}

	modulesByCourse := make(map[string][]string)
	lessonsByModule := make(map[string][]string)
	lessonTitle := make(map[string]string)
	seenLesson := make(map[string]bool)

	addLesson := func(l models.Lesson) {
		k := l.Key()
		if k == "" || seenLesson[k] {
			return
		}
		seenLesson[k] = true
		mk := l.ModuleID.Key()
		lessonsByModule[mk] = append(lessonsByModule[mk], k)
		if l.Title != "" {
			lessonTitle[k] = l.Title
		}
	}

	for _, m := range in.Hierarchy.Modules {
		ck := m.CourseID.Key()
		modulesByCourse[ck] = append(modulesByCourse[ck], m.Key())
		for _, l := range m.Lessons {
			addLesson(l)
		}
	}
	for _, l := range in.Hierarchy.Lessons {
		addLesson(l)
	}

	reports := make([]CourseReport, 0, len(in.CourseProgress))
	for courseKey, status := range in.CourseProgress {
		r := CourseReport{
			CourseID:        models.ID(courseKey),
			CompletedItems:  []LessonItem{},
			InProgressItems: []LessonItem{},
		}
		if title, ok := titleByCourse[courseKey]; ok {
			r.Title = title
		} else {
			r.Title = "Course " + courseKey
		}

		var lessonKeys []string
		inCourse := make(map[string]bool)
		for _, mk := range modulesByCourse[courseKey] {
			for _, lk := range lessonsByModule[mk] {
				if inCourse[lk] {
					continue
				}
				inCourse[lk] = true
				lessonKeys = append(lessonKeys, lk)
			}
		}

		for _, lk := range lessonKeys {
			title, ok := lessonTitle[lk]
			if !ok {
				title = "Lesson " + lk
			}
			item := LessonItem{ID: models.ID(lk), Title: title}
			if in.LessonProgress[lk] {
				r.CompletedItems = append(r.CompletedItems, item)
			} else {
				r.InProgressItems = append(r.InProgressItems, item)
			}
		}

		r.TotalLessons = len(lessonKeys)
		r.CompletedLessons = len(r.CompletedItems)
		r.InProgressLessons = max(0, r.TotalLessons-r.CompletedLessons)
		r.Percent = Percent(r.CompletedLessons, r.TotalLessons)
		r.Status = resolveStatus(status, r, policy)

		reports = append(reports, r)
	}

	sortReports(reports)
	return reports
}

func resolveStatus(s models.CourseStatus, r CourseReport, policy StatusPolicy) models.CourseStatus {
	if s == models.StatusCompleted {
		return s
	}
	if policy == PolicyDerived && r.TotalLessons > 0 && r.CompletedLessons == r.TotalLessons {
		return models.StatusCompleted
	}
	return models.StatusInProgress
}

// Percent is 100*part/total rounded half up, 0 when total is 0.
func Percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	part = min(max(part, 0), total)
	return (200*part + total) / (2 * total)
}

// sortReports puts completed courses first, then orders by title using a
// locale-aware collation. Equal titles fall back to the course key so the
// output does not depend on map iteration.
func sortReports(reports []CourseReport) {
	coll := collate.New(language.Und)
	sort.SliceStable(reports, func(i, j int) bool {
		a, b := reports[i], reports[j]
		if a.Status != b.Status {
			return a.Status == models.StatusCompleted
		}
		if c := coll.CompareString(a.Title, b.Title); c != 0 {
			return c < 0
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.CourseID.Key() < b.CourseID.Key()
	})
}

type Summary struct {
	Courses           int `json:"courses"`
	CompletedCourses  int `json:"completedCourses"`
	InProgressCourses int `json:"inProgressCourses"`
	LessonsCompleted  int `json:"lessonsCompleted"`
	LessonsTotal      int `json:"lessonsTotal"`
	Percent           int `json:"percent"`
}

func Summarize(reports []CourseReport) Summary {
	var s Summary
	for _, r := range reports {
		s.Courses++
		if r.Status == models.StatusCompleted {
			s.CompletedCourses++
		} else {
			s.InProgressCourses++
		}
		s.LessonsCompleted += r.CompletedLessons
		s.LessonsTotal += r.TotalLessons
	}
	s.Percent = Percent(s.LessonsCompleted, s.LessonsTotal)
	return s
}
