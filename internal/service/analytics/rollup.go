package analytics

import (
	"sort"
	"time"

	"github.com/kena741/zuluskills-admin/internal/models"
)

const (
	DefaultTopCourses = 5
	DefaultWindowDays = 7

	dayLayout = "2006-01-02"
)

type CourseLessons struct {
	CourseID models.ID `json:"id"`
	Title    string    `json:"title"`
	Lessons  int       `json:"lessons"`
}

type DayCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// TopCoursesByLessons ranks courses by how many lessons their modules hold,
// most first, and keeps at most n. Ties keep the order of courses.
func TopCoursesByLessons(courses []models.Course, modules []models.Module, lessons []models.Lesson, n int) []CourseLessons {
	modulesByCourse := make(map[string][]string)
	for _, m := range modules {
		ck := m.CourseID.Key()
		modulesByCourse[ck] = append(modulesByCourse[ck], m.Key())
	}

	lessonCount := make(map[string]int)
	seen := make(map[string]bool, len(lessons))
	for _, l := range lessons {
		if seen[l.Key()] {
			continue
		}
		seen[l.Key()] = true
		lessonCount[l.ModuleID.Key()]++
	}

	ranked := make([]CourseLessons, 0, len(courses))
	for _, c := range courses {
		total := 0
		for _, mk := range modulesByCourse[c.Key()] {
			total += lessonCount[mk]
		}
		ranked = append(ranked, CourseLessons{CourseID: c.ID, Title: c.Title, Lessons: total})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Lessons > ranked[j].Lessons
	})
	if n < 0 {
		n = 0
	}
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// WindowStart is midnight, in now's location, of the first day of a window
// of the given number of calendar days that ends today.
func WindowStart(now time.Time, days int) time.Time {
	if days < 1 {
		days = 1
	}
	y, m, d := now.Date()
	return time.Date(y, m, d-(days-1), 0, 0, 0, 0, now.Location())
}

// DailyHistogram buckets completion times per calendar day over the window
// ending today. Every day of the window is present, oldest first. Events
// outside the window are dropped.
func DailyHistogram(events []time.Time, now time.Time, days int) []DayCount {
	start := WindowStart(now, days)

	out := make([]DayCount, 0, max(days, 1))
	index := make(map[string]int, cap(out))
	for d := start; !d.After(now); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		index[key] = len(out)
		out = append(out, DayCount{Date: key})
	}

	for _, e := range events {
		i, ok := index[e.In(now.Location()).Format(dayLayout)]
		if !ok {
			continue
		}
		out[i].Count++
	}
	return out
}
