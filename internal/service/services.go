package service

import (
	"github.com/kena741/zuluskills-admin/internal/service/analytics"
	"github.com/kena741/zuluskills-admin/internal/service/auth"
	"github.com/kena741/zuluskills-admin/internal/service/course"
	"github.com/kena741/zuluskills-admin/internal/service/lesson"
	"github.com/kena741/zuluskills-admin/internal/service/progress"
	"github.com/kena741/zuluskills-admin/internal/service/student"
)

type Collection struct {
	*auth.AuthService
	*course.CourseService
	*lesson.LessonService
	*student.StudentService
	*progress.ProgressService
	*analytics.AnalyticsService
}
