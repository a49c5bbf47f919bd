package app

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kena741/zuluskills-admin/internal/app/server"
	"github.com/kena741/zuluskills-admin/internal/config"
	"github.com/kena741/zuluskills-admin/internal/delivery/http"
	"github.com/kena741/zuluskills-admin/internal/delivery/http/controllers"
	"github.com/kena741/zuluskills-admin/internal/mail"
	"github.com/kena741/zuluskills-admin/internal/models"
	"github.com/kena741/zuluskills-admin/internal/service"
	"github.com/kena741/zuluskills-admin/internal/service/analytics"
	"github.com/kena741/zuluskills-admin/internal/service/auth"
	"github.com/kena741/zuluskills-admin/internal/service/course"
	"github.com/kena741/zuluskills-admin/internal/service/lesson"
	"github.com/kena741/zuluskills-admin/internal/service/progress"
	"github.com/kena741/zuluskills-admin/internal/service/student"
	"github.com/kena741/zuluskills-admin/internal/storage"
	"github.com/kena741/zuluskills-admin/internal/storage/elastic"
	"github.com/kena741/zuluskills-admin/internal/storage/memory"
	"github.com/kena741/zuluskills-admin/internal/storage/minio_storage"
	"github.com/kena741/zuluskills-admin/internal/storage/postgres"
	"github.com/kena741/zuluskills-admin/internal/storage/redis_storage"
	"github.com/kena741/zuluskills-admin/internal/storage/repo"
	"github.com/kena741/zuluskills-admin/pkg/logger"
)

const (
	backendPostgres    = "postgres"
	backendDemo        = "demo"
	backendUnavailable = "unavailable"
)

type tokenStore interface {
	SaveRefresh(ctx context.Context, userID models.ID, token string, ttl time.Duration) error
	RefreshOwner(ctx context.Context, token string) (models.ID, error)
	DeleteUserTokens(ctx context.Context, userID models.ID) error
	SaveLink(ctx context.Context, token, email string, ttl time.Duration) error
	ConsumeLink(ctx context.Context, token string) (string, error)
}

func Run(cfg *config.Config) {
	log := logger.New(cfg.Env)
	log.Info("Starting with Env: " + cfg.Env)
	ctx := context.Background()

	policy, err := progress.ParseStatusPolicy(cfg.Progress.StatusPolicy)
	if err != nil {
		log.FatalErr("invalid progress.status_policy", err)
	}

	store, backend, closeStore := openStore(ctx, cfg, log)
	defer closeStore()
	repos := repo.New(store, nil)

	tokens, closeTokens := openTokens(ctx, cfg, log)
	defer closeTokens()

	search := openSearch(ctx, cfg, log)
	avatars := openAvatars(ctx, cfg, log)

	jwtManager := auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Issuer, cfg.JWT.AccessTTL, cfg.JWT.RefreshTTL)
	authService := auth.NewAuthService(log.With("service", "auth"), jwtManager, repos.Users, repos.Students, tokens, newMailer(cfg, log), auth.LinkOptions{
		TTL:         cfg.MagicLink.TTL,
		RedirectURL: cfg.MagicLink.RedirectURL,
	})
	authService.OnAuthStateChange(func(e auth.Event) {
		log.Info("auth state changed", "event", string(e.Type), "user_id", e.User.ID.String())
	})

	courseLog := log.With("service", "course")
	var courseService *course.CourseService
	if search != nil {
		courseService = course.NewCourseService(courseLog, repos.Courses, repos.Modules, repos.Progress, search)
	} else {
		courseService = course.NewCourseService(courseLog, repos.Courses, repos.Modules, repos.Progress, nil)
	}

	studentLog := log.With("service", "student")
	var studentService *student.StudentService
	if avatars != nil {
		studentService = student.NewStudentService(studentLog, repos.Students, avatars)
	} else {
		studentService = student.NewStudentService(studentLog, repos.Students, nil)
	}

	u := service.Collection{
		AuthService:   authService,
		CourseService: courseService,
		LessonService: lesson.NewLessonService(log.With("service", "lesson"), lesson.Repos{
			Courses:     repos.Courses,
			Modules:     repos.Modules,
			Lessons:     repos.Lessons,
			Resources:   repos.Resources,
			ModuleTests: repos.ModuleTests,
			Progress:    repos.Progress,
		}),
		StudentService:  studentService,
		ProgressService: progress.NewProgressService(log.With("service", "progress"), policy, repos.Progress, repos.Courses, repos.Modules),
		AnalyticsService: analytics.NewAnalyticsService(log.With("service", "analytics"), analytics.Options{
			TopCourses: cfg.Analytics.TopCourses,
			WindowDays: cfg.Analytics.WindowDays,
		}, repos.Students, repos.Courses, repos.Lessons, repos.Modules, repos.Progress),
	}

	if search != nil {
		if n, err := courseService.Reindex(ctx); err != nil {
			log.ErrorErr("initial course reindex failed", err)
		} else {
			log.Info("course search ready", "courses", n)
		}
	}

	r := http.InitRoutes(log, u, http.Options{
		AllowOrigins: cfg.CORS.AllowOrigins,
		Features: controllers.Features{
			Backend: backend,
			Search:  search != nil,
			Avatars: avatars != nil,
		},
	})

	srv := server.New(cfg.HTTPServer.Address, cfg.HTTPServer.Timeout, cfg.HTTPServer.IdleTimeout, r)
	srv.Start()
	log.Info("http server started", "address", cfg.HTTPServer.Address, "backend", backend)

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	select {
	case s := <-interrupt:
		log.Info("app signal: " + s.String())
	case err := <-srv.Notify():
		log.ErrorErr("http server stopped", err)
	}
	if err := srv.Shutdown(); err != nil {
		log.ErrorErr("http server shutdown", err)
	}
}

// openStore picks the row store: postgres when configured, otherwise a
// read-only fixture, otherwise a store that refuses every query.
func openStore(ctx context.Context, cfg *config.Config, log logger.Log) (storage.RowStore, string, func()) {
	switch {
	case cfg.Postgres.Enabled():
		opts := postgres.Options{
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			DBName:   cfg.Postgres.DBName,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.MaxConns,
		}
		if cfg.Postgres.Migrate {
			if err := postgres.Migrate(opts); err != nil {
				log.FatalErr("error migrating database", err)
			}
		}
		pg, err := postgres.NewPostgresPool(ctx, opts)
		if err != nil {
			log.FatalErr("error connecting to database", err)
		}
		return postgres.NewRowStore(pg.Pool), backendPostgres, pg.Close

	case cfg.Demo.FixturePath != "":
		s := memory.New(memory.ReadOnly())
		if err := s.LoadFixture(cfg.Demo.FixturePath); err != nil {
			log.FatalErr("error loading demo fixture", err, "path", cfg.Demo.FixturePath)
		}
		log.Warn("running on a read-only demo fixture", "path", cfg.Demo.FixturePath)
		return s, backendDemo, func() {}
	}

	log.Warn("no backend configured, every query will fail")
	return storage.Unavailable(), backendUnavailable, func() {}
}

func openTokens(ctx context.Context, cfg *config.Config, log logger.Log) (tokenStore, func()) {
	if cfg.Redis.URL == "" {
		log.Warn("redis is not configured, sessions are kept in memory")
		return memory.NewTokenStore(nil), func() {}
	}
	client, err := redis_storage.NewClient(ctx, cfg.Redis.URL)
	if err != nil {
		log.FatalErr("error connecting to redis", err)
	}
	return redis_storage.NewTokenStore(client), func() {
		if err := client.Close(); err != nil {
			log.ErrorErr("error closing redis", err)
		}
	}
}

func newMailer(cfg *config.Config, log logger.Log) mail.Sender {
	if cfg.Mail.Provider == config.MailSendgrid {
		if cfg.Mail.SendgridAPIKey == "" {
			log.Fatal("mail.sendgrid_api_key is required for the sendgrid provider")
		}
		return mail.NewSendgridSender(log.With("service", "mail"), cfg.Mail.SendgridAPIKey, cfg.Mail.FromName, cfg.Mail.FromAddress, cfg.Mail.SubjectPrefix)
	}
	return mail.NewConsoleSender(log.With("service", "mail"), cfg.Mail.SubjectPrefix)
}

// openSearch returns nil when elasticsearch is not configured or not reachable.
func openSearch(ctx context.Context, cfg *config.Config, log logger.Log) *elastic.CourseSearchRepo {
	if len(cfg.ES.Hosts) == 0 {
		return nil
	}
	client, err := elastic.NewElasticClient(cfg.ES.Password, cfg.ES.Hosts)
	if err != nil {
		log.ErrorErr("course search disabled", err)
		return nil
	}
	search := elastic.NewCourseSearchRepository(client, cfg.ES.Index)
	if err := search.CreateIndexIfNotExist(ctx); err != nil {
		log.ErrorErr("course search disabled", err)
		return nil
	}
	return search
}

// openAvatars returns nil when object storage is not configured or not reachable.
func openAvatars(ctx context.Context, cfg *config.Config, log logger.Log) *minio_storage.AvatarStorage {
	if cfg.Minio.Endpoint == "" {
		return nil
	}
	ms, err := minio_storage.NewMinioStorage(cfg.Minio.Endpoint, cfg.Minio.AccessKey, cfg.Minio.SecretKey, cfg.Minio.UseSSL)
	if err != nil {
		log.ErrorErr("avatar uploads disabled", err)
		return nil
	}
	bucket := cfg.Minio.Avatars()
	avatars, err := minio_storage.NewAvatarStorage(ctx, ms, bucket.Name, bucket.PresignTTL)
	if err != nil {
		log.ErrorErr("avatar uploads disabled", err)
		return nil
	}
	return avatars
}
