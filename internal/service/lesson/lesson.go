package lesson

import (
	"context"
	"fmt"

	"github.com/kena741/zuluskills-admin/internal/app_errors"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type courseRepo interface {
	FetchByID(ctx context.Context, id models.ID) (*models.Course, error)
}

type moduleRepo interface {
	FetchByID(ctx context.Context, id models.ID) (*models.Module, error)
	FetchByCourse(ctx context.Context, courseID models.ID) ([]models.Module, error)
	Create(ctx context.Context, in models.NewModule) (*models.Module, error)
	Update(ctx context.Context, id models.ID, in models.ModuleUpdate) (*models.Module, error)
}

type lessonRepo interface {
	FetchByID(ctx context.Context, id models.ID) (*models.Lesson, error)
	FetchByIDs(ctx context.Context, ids []models.ID) ([]models.Lesson, error)
	FetchByModules(ctx context.Context, moduleIDs []models.ID) ([]models.Lesson, error)
	Create(ctx context.Context, in models.NewLesson) (*models.Lesson, error)
	Update(ctx context.Context, id models.ID, in models.LessonUpdate) (*models.Lesson, error)
}

type resourceRepo interface {
	FetchByLesson(ctx context.Context, lessonID models.ID) ([]models.LessonResource, error)
	Create(ctx context.Context, in models.NewLessonResource) (*models.LessonResource, error)
	Update(ctx context.Context, id models.ID, in models.LessonResourceUpdate) (*models.LessonResource, error)
}

type moduleTestRepo interface {
	FetchByModule(ctx context.Context, moduleID models.ID) ([]models.ModuleTest, error)
	Create(ctx context.Context, in models.NewModuleTest) (*models.ModuleTest, error)
}

type progressRepo interface {
	MarkLesson(ctx context.Context, userID, lessonID models.ID, completed bool) (*models.LessonProgress, error)
}

type Repos struct {
	Courses     courseRepo
	Modules     moduleRepo
	Lessons     lessonRepo
	Resources   resourceRepo
	ModuleTests moduleTestRepo
	Progress    progressRepo
}

type LessonService struct {
	log         logger.Log
	courseRepo  courseRepo
	moduleRepo  moduleRepo
	lessonRepo  lessonRepo
	resources   resourceRepo
	moduleTests moduleTestRepo
	progress    progressRepo
}

func NewLessonService(l logger.Log, r Repos) *LessonService {
	return &LessonService{
		log:         l,
		courseRepo:  r.Courses,
		moduleRepo:  r.Modules,
		lessonRepo:  r.Lessons,
		resources:   r.Resources,
		moduleTests: r.ModuleTests,
		progress:    r.Progress,
	}
}

func (s *LessonService) ModuleByID(ctx context.Context, id models.ID) (*models.Module, error) {
	module, err := s.moduleRepo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if module == nil {
		return nil, fmt.Errorf("module %s: %w", id, app_errors.ErrNotFound)
	}
	return module, nil
}

// CreateModule appends the module to its course when no ordinal is given.
func (s *LessonService) CreateModule(ctx context.Context, in models.NewModule) (*models.Module, error) {
	course, err := s.courseRepo.FetchByID(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}
	if course == nil {
		return nil, fmt.Errorf("course %s: %w", in.CourseID, app_errors.ErrNotFound)
	}

	if in.Ordinal == 0 {
		maxOrder := 0
		for _, m := range course.Modules {
			maxOrder = max(maxOrder, m.Ordinal)
		}
		in.Ordinal = maxOrder + 1
	}

	module, err := s.moduleRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("module created", "module_id", module.ID.String(), "course_id", in.CourseID.String())
	return module, nil
}

func (s *LessonService) UpdateModule(ctx context.Context, id models.ID, in models.ModuleUpdate) (*models.Module, error) {
	return s.moduleRepo.Update(ctx, id, in)
}

func (s *LessonService) LessonByID(ctx context.Context, id models.ID) (*models.Lesson, error) {
	lesson, err := s.lessonRepo.FetchByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if lesson == nil {
		return nil, fmt.Errorf("lesson %s: %w", id, app_errors.ErrNotFound)
	}
	return lesson, nil
}

// LessonsByIDs returns the known lessons in the order asked for.
func (s *LessonService) LessonsByIDs(ctx context.Context, ids []models.ID) ([]models.Lesson, error) {
	return s.lessonRepo.FetchByIDs(ctx, ids)
}

func (s *LessonService) LessonsByModule(ctx context.Context, moduleID models.ID) ([]models.Lesson, error) {
	if _, err := s.ModuleByID(ctx, moduleID); err != nil {
		return nil, err
	}
	return s.lessonRepo.FetchByModules(ctx, []models.ID{moduleID})
}

// CreateLesson appends the lesson to its module when no ordinal is given.
func (s *LessonService) CreateLesson(ctx context.Context, in models.NewLesson) (*models.Lesson, error) {
	module, err := s.ModuleByID(ctx, in.ModuleID)
	if err != nil {
		return nil, err
	}

	if in.Ordinal == 0 {
		maxOrder := 0
		for _, l := range module.Lessons {
			maxOrder = max(maxOrder, l.Ordinal)
		}
		in.Ordinal = maxOrder + 1
	}

	lesson, err := s.lessonRepo.Create(ctx, in)
	if err != nil {
		return nil, err
	}
	s.log.Info("lesson created", "lesson_id", lesson.ID.String(), "module_id", in.ModuleID.String())
	return lesson, nil
}

func (s *LessonService) UpdateLesson(ctx context.Context, id models.ID, in models.LessonUpdate) (*models.Lesson, error) {
	return s.lessonRepo.Update(ctx, id, in)
}

func (s *LessonService) LessonResources(ctx context.Context, lessonID models.ID) ([]models.LessonResource, error) {
	return s.resources.FetchByLesson(ctx, lessonID)
}

func (s *LessonService) CreateResource(ctx context.Context, in models.NewLessonResource) (*models.LessonResource, error) {
	if _, err := s.LessonByID(ctx, in.LessonID); err != nil {
		return nil, err
	}
	return s.resources.Create(ctx, in)
}

func (s *LessonService) UpdateResource(ctx context.Context, id models.ID, in models.LessonResourceUpdate) (*models.LessonResource, error) {
	return s.resources.Update(ctx, id, in)
}

func (s *LessonService) ModuleTests(ctx context.Context, moduleID models.ID) ([]models.ModuleTest, error) {
	return s.moduleTests.FetchByModule(ctx, moduleID)
}

func (s *LessonService) CreateModuleTest(ctx context.Context, in models.NewModuleTest) (*models.ModuleTest, error) {
	if _, err := s.ModuleByID(ctx, in.ModuleID); err != nil {
		return nil, err
	}
	return s.moduleTests.Create(ctx, in)
}

// MarkLessonProgress sets the user's completion flag for a lesson.
func (s *LessonService) MarkLessonProgress(ctx context.Context, userID, lessonID models.ID, completed bool) (*models.LessonProgress, error) {
	if userID.IsZero() {
		return nil, app_errors.ErrNotAuthenticated
	}
	if _, err := s.LessonByID(ctx, lessonID); err != nil {
		return nil, err
	}
	return s.progress.MarkLesson(ctx, userID, lessonID, completed)
}
