package storage

import (
	"slices"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
)

const (
	TableCourses         = "courses"
	TableModules         = "modules"
	TableLessons         = "lessons"
	TableLessonResources = "lesson_resources"
	TableModuleTests     = "module_tests"
	TableProfiles        = "profiles"
	TableCourseProgress  = "user_course_progress"
	TableLessonProgress  = "user_lesson_progress"
	TableUsers           = "users"
)

// Schema lists every table and column the row store accepts. Identifiers
// are interpolated into SQL, so nothing outside this list is allowed.
var Schema = map[string][]string{
	TableCourses:         {"id", "slug", "title", "description", "created_at", "updated_at"},
	TableModules:         {"id", "course_id", "title", "description", "ordinal", "created_at"},
	TableLessons:         {"id", "module_id", "title", "slug", "ordinal", "content", "video_url", "duration_seconds", "created_at"},
	TableLessonResources: {"id", "lesson_id", "title", "url", "resource_type", "created_at"},
	TableModuleTests:     {"id", "module_id", "title", "description"},
	TableProfiles:        {"id", "display_name", "first_name", "last_name", "email", "avatar_url", "created_at"},
	TableCourseProgress:  {"user_id", "course_id", "completed", "started_at"},
	TableLessonProgress:  {"user_id", "lesson_id", "completed", "completed_at"},
	TableUsers:           {"id", "email", "password_hash", "role", "created_at"},
}

// TableHasID reports whether the table's rows carry their own id column.
func TableHasID(table string) bool {
	return slices.Contains(Schema[table], "id")
}

func CheckColumns(table string, cols ...string) error {
	known, ok := Schema[table]
	if !ok {
		return app_errors.QueryFailedf("unknown table %q", table)
	}
	for _, c := range cols {
		if !slices.Contains(known, c) {
			return app_errors.QueryFailedf("unknown column %s.%s", table, c)
		}
	}
	return nil
}
