package course

import (
	"context"
	"fmt"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
)

func (s *CourseService) CreateCourse(ctx context.Context, in models.NewCourse) (*models.Course, error) {
	course, err := s.courseRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.index(ctx, *course)
	return course, nil
}

func (s *CourseService) UpdateCourse(ctx context.Context, id models.ID, in models.CourseUpdate) (*models.Course, error) {
	if in.Empty() {
		return nil, fmt.Errorf("%w: nothing to update", app_errors.ErrInvalidInput)
	}
	course, err := s.courseRepo.Update(ctx, id, in)
	if err != nil {
		return nil, err
	}
	s.index(ctx, *course)
	return course, nil
}

// index keeps the search index in step. The row store stays the source of
// truth, so a failed index write is only logged.
func (s *CourseService) index(ctx context.Context, course models.Course) {
	if s.searchRepo == nil {
		return
	}
	if err := s.searchRepo.Index(ctx, course); err != nil {
		s.log.ErrorErr("error indexing course", err, "course_id", course.ID.String())
	}
}

// Reindex writes every course to the search index.
func (s *CourseService) Reindex(ctx context.Context) (int, error) {
	if s.searchRepo == nil {
		return 0, app_errors.ErrSearchDisabled
	}
	courses, err := s.courseRepo.FetchAll(ctx, nil)
	if err != nil {
		return 0, err
	}
	for _, c := range courses {
		if err := s.searchRepo.Index(ctx, c); err != nil {
			return 0, fmt.Errorf("reindex course %s: %w", c.ID, err)
		}
	}
	s.log.Info("courses reindexed", "count", len(courses))
	return len(courses), nil
}

// StartCourse records that user started the course. Starting twice is a no-op.
func (s *CourseService) StartCourse(ctx context.Context, userID, courseID models.ID) error {
	if userID.IsZero() {
		return app_errors.ErrNotAuthenticated
	}
	if _, err := s.CourseByID(ctx, courseID); err != nil {
		return err
	}
	return s.progress.StartCourse(ctx, userID, courseID)
}

func (s *CourseService) CompleteCourse(ctx context.Context, userID, courseID models.ID, completed bool) error {
	if userID.IsZero() {
		return app_errors.ErrNotAuthenticated
	}
	if _, err := s.CourseByID(ctx, courseID); err != nil {
		return err
	}
	return s.progress.CompleteCourse(ctx, userID, courseID, completed)
}
