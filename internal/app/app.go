package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"reviewhub_backend/internal/auth"
	"reviewhub_backend/internal/config"
	"reviewhub_backend/internal/email"
	"reviewhub_backend/internal/handlers"
	"reviewhub_backend/internal/logger"
	"reviewhub_backend/internal/middleware"
	"reviewhub_backend/internal/models"
	"reviewhub_backend/internal/observability"
	"reviewhub_backend/internal/ratelimit"
	"reviewhub_backend/internal/repositories"
	"reviewhub_backend/internal/routes"
	"reviewhub_backend/internal/services"
	"reviewhub_backend/internal/storage"
	"reviewhub_backend/internal/upstream"
	"reviewhub_backend/internal/validator"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const shutdownTimeout = 15 * time.Second

// Dependencies lets callers (tests, the CLI) replace external collaborators.
// Nil fields are built from the configuration.
type Dependencies struct {
	AvatarHost storage.AvatarHost
	Catalog    services.CatalogSource
	ChatRelay  services.ChatRelay
	Feedback   services.FeedbackForwarder
	Notifier   email.Notifier
	Limiter    ratelimit.Limiter
	Metrics    *observability.Metrics
}

func Run() {
	cfg := config.MustLoad()
	logger.Init(cfg.Server.Env)
	defer logger.Sync()
	logger.Info("Logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing := observability.InitTracing(ctx, observability.TracingConfig{
		Enabled:     cfg.Telemetry.OTelEnabled,
		ServiceName: cfg.Telemetry.ServiceName,
		Environment: cfg.Server.Env,
		Exporter:    cfg.Telemetry.Exporter,
		Endpoint:    cfg.Telemetry.Endpoint,
		SampleRatio: cfg.Telemetry.SampleRatio,
	})

	gormDB, err := OpenDatabase(cfg)
	if err != nil {
		logger.Fatal("Database unavailable", "error", err)
	}
	if err := Migrate(gormDB); err != nil {
		logger.Fatal("Migration failed", "error", err)
	}

	deps := &Dependencies{}
	if cfg.Telemetry.MetricsEnabled {
		deps.Metrics = observability.NewMetrics()
	}
	ginRouter := SetupRouter(cfg, gormDB, deps)

	address := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              address,
		Handler:           ginRouter,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "address", address)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", "error", err)
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("Tracing shutdown failed", "error", err)
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		_ = sqlDB.Close()
	}
}

// OpenDatabase connects to Postgres, or to SQLite when the URL starts with
// sqlite:// (local development and the CLI).
func OpenDatabase(cfg *config.Config) (*gorm.DB, error) {
	gormCfg := &gorm.Config{
		Logger:  gormlogger.Default.LogMode(gormlogger.Warn),
		NowFunc: func() time.Time { return time.Now().UTC() },
	}
	if cfg.IsProduction() {
		gormCfg.Logger = gormlogger.Default.LogMode(gormlogger.Error)
	}

	dsn := cfg.Database.DSN
	var dialector gorm.Dialector
	if path, ok := strings.CutPrefix(dsn, "sqlite://"); ok {
		dialector = sqlite.Open(path)
	} else {
		dialector = postgres.Open(dsn)
	}

	logger.Info("Connecting to database...", "driver", dialector.Name())
	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get *sql.DB: %w", err)
	}
	if cfg.Database.MaxOpen > 0 {
		sqlDB.SetMaxOpenConns(cfg.Database.MaxOpen)
	}
	if cfg.Database.MaxIdle > 0 {
		sqlDB.SetMaxIdleConns(cfg.Database.MaxIdle)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	logger.Info("Database connected")
	return db, nil
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(models.All()...)
}

func SetupRouter(cfg *config.Config, gormDB *gorm.DB, deps *Dependencies) *gin.Engine {
	if deps == nil {
		deps = &Dependencies{}
	}

	serviceContainer := BuildServices(cfg, deps)
	appHandlers := initializeHandlers(cfg, serviceContainer)
	ginRouter := initializeGinRouter(cfg, gormDB, deps.Metrics)

	limiter := deps.Limiter
	if limiter == nil {
		limiter = buildLimiter(cfg)
	}

	routes.RegisterRoutes(ginRouter, appHandlers, routes.Gate{
		Verifier:   serviceContainer.AuthService,
		CookieName: cfg.Auth.CookieName,
	}, limiter)

	return ginRouter
}

// BuildServices wires repositories, external clients and services. Optional
// features whose settings are missing get nil collaborators and report a
// config error when used.
func BuildServices(cfg *config.Config, deps *Dependencies) *services.ServiceContainer {
	if deps == nil {
		deps = &Dependencies{}
	}

	reviewRepo := repositories.NewReviewRepository()
	courseRepo := repositories.NewCourseRepository()

	var avatars services.AvatarAssets
	if host := avatarHost(cfg, deps); host != nil {
		avatars = storage.NewAvatarManager(host, cfg.Media.MaxBytes, time.Duration(cfg.Media.TimeoutSec)*time.Second, deps.Metrics)
	}

	var catalog services.CatalogSource
	switch {
	case deps.Catalog != nil:
		catalog = deps.Catalog
	case cfg.RequireCatalog() == nil:
		catalog = upstream.NewCatalogClient(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, time.Duration(cfg.Catalog.TimeoutSec)*time.Second)
	default:
		logger.Warn("AI_BASE_URL not set, course sync disabled")
	}

	var relay services.ChatRelay
	switch {
	case deps.ChatRelay != nil:
		relay = deps.ChatRelay
	case cfg.RequireChat() == nil:
		client, err := upstream.NewChatClient(cfg.Chat.APIURL, cfg.Chat.Backend, time.Duration(cfg.Chat.TimeoutSec)*time.Second)
		if err != nil {
			logger.Warn("chat relay disabled", "error", err)
		} else {
			relay = client
		}
	}

	var feedback services.FeedbackForwarder = upstream.NewFeedbackClient(cfg.Chat.FeedbackURL, time.Duration(cfg.Chat.TimeoutSec)*time.Second)
	if deps.Feedback != nil {
		feedback = deps.Feedback
	}

	notifier := deps.Notifier
	if notifier == nil && cfg.MailEnabled() {
		notifier = email.NewSMTPNotifier(email.SMTPConfig{
			Host:      cfg.Email.SMTPHost,
			Port:      cfg.Email.SMTPPort,
			Username:  cfg.Email.SMTPUsername,
			Password:  cfg.Email.SMTPPassword,
			FromEmail: cfg.Email.FromEmail,
			NotifyTo:  splitAddresses(cfg.Email.NotifyTo),
		})
	}

	issuer := auth.NewSessionIssuer(cfg.Auth.SessionSecret, cfg.SessionTTL())

	return &services.ServiceContainer{
		CourseService: services.NewCourseService(courseRepo, catalog, deps.Metrics),
		ReviewService: services.NewReviewService(reviewRepo, courseRepo, avatars, notifier, validator.New(), deps.Metrics, cfg.Server.PublicBaseURL),
		ReportService: services.NewReportService(reviewRepo, avatars),
		AuthService: services.NewAuthService(services.AdminCredentials{
			Email:        cfg.Auth.AdminEmail,
			PasswordHash: cfg.Auth.AdminPasswordHash,
		}, issuer),
		ChatService:   services.NewChatService(relay, feedback, deps.Metrics),
		UploadService: services.NewUploadService(avatars),
	}
}

func avatarHost(cfg *config.Config, deps *Dependencies) storage.AvatarHost {
	if deps.AvatarHost != nil {
		return deps.AvatarHost
	}
	if err := cfg.RequireMedia(); err != nil {
		logger.Warn("avatar storage disabled", "reason", err.Error())
		return nil
	}
	host, err := storage.NewAvatarHost(storage.Config{
		Provider:      cfg.Media.Provider,
		CloudName:     cfg.Media.CloudName,
		APIKey:        cfg.Media.APIKey,
		APISecret:     cfg.Media.APISecret,
		Folder:        cfg.Media.Folder,
		Bucket:        cfg.Media.Bucket,
		Endpoint:      cfg.Media.Endpoint,
		AccessKey:     cfg.Media.AccessKey,
		SecretKey:     cfg.Media.SecretKey,
		PublicBaseURL: cfg.Media.PublicBaseURL,
		Timeout:       time.Duration(cfg.Media.TimeoutSec) * time.Second,
	})
	if err != nil {
		logger.Warn("avatar storage disabled", "error", err)
		return nil
	}
	logger.Info("Avatar storage initialized", "provider", cfg.Media.Provider)
	return host
}

func buildLimiter(cfg *config.Config) ratelimit.Limiter {
	if cfg.Redis.URL == "" {
		return ratelimit.Noop{}
	}
	limiter, err := ratelimit.NewFromURL(cfg.Redis.URL, cfg.Redis.PublicPostLimit, time.Duration(cfg.Redis.WindowSec)*time.Second)
	if err != nil {
		logger.Warn("REDIS_URL invalid, rate limiting disabled", "error", err)
		return ratelimit.Noop{}
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := limiter.Ping(ctx); err != nil {
		logger.Warn("redis unreachable at startup, limiter will fail open", "error", err)
	}
	return limiter
}

func initializeHandlers(cfg *config.Config, svc *services.ServiceContainer) *handlers.AppHandlers {
	baseHandler := handlers.NewBaseHandler(validator.New())

	return &handlers.AppHandlers{
		AuthHandler: handlers.NewAuthHandler(baseHandler, svc.AuthService, handlers.CookieConfig{
			Name:   cfg.Auth.CookieName,
			Secure: cfg.IsProduction(),
			MaxAge: int(cfg.SessionTTL().Seconds()),
		}),
		CourseHandler:      handlers.NewCourseHandler(baseHandler, svc.CourseService, cfg.Cron.Secret),
		ReviewHandler:      handlers.NewReviewHandler(baseHandler, svc.ReviewService, cfg.Media.MaxBytes),
		AdminReviewHandler: handlers.NewAdminReviewHandler(baseHandler, svc.ReviewService, svc.ReportService),
		UploadHandler:      handlers.NewUploadHandler(baseHandler, svc.UploadService, cfg.Media.MaxBytes),
		ChatHandler:        handlers.NewChatHandler(baseHandler, svc.ChatService),
	}
}

func initializeGinRouter(cfg *config.Config, db *gorm.DB, metrics *observability.Metrics) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if cfg.Telemetry.OTelEnabled {
		router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	}
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.CORSMiddleware(cfg.Server.CORSOrigins))
	router.Use(middleware.DBMiddleware(db))

	if metrics != nil {
		router.Use(middleware.MetricsMiddleware(metrics))
		router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	}
	return router
}

func splitAddresses(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
