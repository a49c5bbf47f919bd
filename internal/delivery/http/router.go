package http

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	authctl "github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/auth"
	coursectl "github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/course"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/dashboard"
	lessonctl "github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/lesson"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/middleware"
	studentctl "github.com/kena741/zuluskills-admin/internal/delivery/http/controllers/student"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/service"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

type Options struct {
	AllowOrigins []string
	Features     controllers.Features
	// Now feeds the dashboard window. Defaults to time.Now.
	Now func() time.Time
}

func InitRoutes(l logger.Log, u service.Collection, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	config := cors.Config{
		AllowOrigins:     opts.AllowOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(config.AllowOrigins) == 0 {
		config.AllowOrigins = []string{"http://localhost:3000"}
	}
	r.Use(cors.New(config))

	statusController := controllers.NewStatusHandler(opts.Features)
	authMiddleware := middleware.NewAuthMiddlewareProvider(l, u.AuthService)
	authController := authctl.NewAuthHandler(l, u.AuthService)
	courseQuery := coursectl.NewQueryHandler(l, u.CourseService)
	courseManagement := coursectl.NewManagementHandler(l, u.CourseService)
	enrollment := coursectl.NewEnrollmentHandler(l, u.CourseService)
	lessonContent := lessonctl.NewContentHandler(l, u.LessonService)
	lessonManagement := lessonctl.NewManagementHandler(l, u.LessonService)
	lessonProgress := lessonctl.NewProgressHandler(l, u.LessonService)
	students := studentctl.NewStudentHandler(l, u.StudentService, u.ProgressService)
	dashboardController := dashboard.NewDashboardHandler(l, u.AnalyticsService, opts.Now)

	signedIn := authMiddleware.AuthMiddleware

	v1 := r.Group("/v1", middleware.LoggingMiddleware(l))
	{
		v1.GET("/status", statusController.Status)

		auth := v1.Group("/auth")
		{
			auth.POST("/register", authController.Register)
			auth.POST("/login", authController.Login)
			auth.POST("/magic-link", authController.MagicLink)
			auth.POST("/magic-link/verify", authController.VerifyMagicLink)
			auth.POST("/refresh", authController.Refresh)
			auth.POST("/logout", signedIn, authController.Logout)
		}

		me := v1.Group("/me", signedIn)
		{
			me.GET("", authController.Me)
			me.GET("/profile", students.MyProfile)
			me.PATCH("/profile", students.UpdateMyProfile)
			me.PUT("/avatar", students.UploadMyAvatar)
			me.GET("/courses", enrollment.MyCourses)
			me.GET("/progress", students.MyProgress)
		}

		courses := v1.Group("/courses")
		{
			courses.GET("", courseQuery.ListCourses)
			courses.GET("/search", courseQuery.SearchCourses)
			courses.GET("/slug/:slug", courseQuery.CourseBySlug)
			courses.GET("/:course_id", courseQuery.CourseByID)
			courses.GET("/:course_id/modules", courseQuery.CourseModules)
			courses.POST("/:course_id/start", signedIn, enrollment.StartCourse)
			courses.POST("/:course_id/complete", signedIn, enrollment.CompleteCourse)
		}

		v1.GET("/modules/:module_id/tests", lessonContent.ModuleTests)

		lessons := v1.Group("/lessons")
		{
			lessons.GET("", lessonContent.LessonsByIDs)
			lessons.GET("/:lesson_id", lessonContent.LessonByID)
			lessons.GET("/:lesson_id/resources", lessonContent.LessonResources)
			lessons.POST("/:lesson_id/progress", signedIn, lessonProgress.MarkProgress)
		}

		admin := v1.Group("/admin", signedIn, middleware.RequireRoles(models.AdminRole))
		{
			admin.GET("/dashboard", dashboardController.Dashboard)

			admin.POST("/courses", courseManagement.CreateCourse)
			admin.PATCH("/courses/:course_id", courseManagement.UpdateCourse)
			admin.POST("/courses/reindex", courseManagement.Reindex)

			admin.POST("/modules", lessonManagement.CreateModule)
			admin.PATCH("/modules/:module_id", lessonManagement.UpdateModule)
			admin.POST("/module-tests", lessonManagement.CreateModuleTest)

			admin.POST("/lessons", lessonManagement.CreateLesson)
			admin.PATCH("/lessons/:lesson_id", lessonManagement.UpdateLesson)

			admin.POST("/resources", lessonManagement.CreateResource)
			admin.PATCH("/resources/:resource_id", lessonManagement.UpdateResource)

			admin.GET("/students", students.Roster)
			admin.GET("/students/:student_id", students.Student)
			admin.GET("/students/:student_id/progress", students.StudentProgress)
		}
	}
	return r
}
