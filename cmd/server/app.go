package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taskhub/taskhub-api/internal/config"
	"github.com/taskhub/taskhub-api/internal/events"
	"github.com/taskhub/taskhub-api/internal/job"
	"github.com/taskhub/taskhub-api/internal/platform/postgres"
	"github.com/taskhub/taskhub-api/internal/platform/redis"
	"github.com/taskhub/taskhub-api/internal/service"
	"github.com/taskhub/taskhub-api/internal/service/auth"
	"github.com/taskhub/taskhub-api/internal/store"
)

// Failed-login lockout parameters. Five bad attempts within the window
// lock the account for the remainder of the window.
const (
	loginLockoutAttempts = 5
	loginLockoutWindow   = time.Hour
)

// application holds all the shared application dependencies to simplify
// management and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	redisClient *goredis.Client

	// Stores (using interfaces for proper abstraction)
	userStore         store.UserStore
	workspaceStore    store.WorkspaceStore
	taskStore         store.TaskStore
	commentStore      store.CommentStore
	notificationStore store.NotificationStore
	auditStore        store.AuditStore
	jobStore          job.JobStore

	// Auth components
	jwtService       auth.JWTService
	passwordVerifier auth.PasswordVerifier
	loginLimiter     *redis.LoginLimiter
	tokenStore       *redis.TokenStore
	rateLimiter      *redis.RateLimiter

	// Service interfaces
	auditService        *service.AuditService
	userService         service.UserService
	workspaceService    service.WorkspaceService
	taskService         service.TaskService
	commentService      service.CommentService
	notificationService *service.NotificationService

	// Event system and background jobs
	eventEmitter events.EventEmitter
	jobRunner    *job.JobRunner
}

// newApplication creates a new application instance with all dependencies
// initialized. It accepts core dependencies like configuration, logger, and
// database connection that must be established before application
// initialization.
func newApplication(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	db *sql.DB,
) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.passwordVerifier = auth.NewBcryptVerifier()

	app.redisClient, err = redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize redis client: %w", err)
	}
	logger.Info("Redis connection established", "addr", cfg.Redis.Addr)

	app.loginLimiter = redis.NewLoginLimiter(
		app.redisClient,
		logger,
		loginLockoutAttempts,
		loginLockoutWindow,
	)
	app.tokenStore = redis.NewTokenStore(app.redisClient, logger)
	if cfg.Server.RateLimitPerMinute > 0 {
		app.rateLimiter = redis.NewRateLimiter(
			app.redisClient,
			logger,
			cfg.Server.RateLimitPerMinute,
			time.Minute,
		)
	}
	cache := redis.NewCache(app.redisClient, logger)

	// Stores
	app.userStore = postgres.NewPostgresUserStore(db, logger, cfg.Auth.BcryptCost)
	app.workspaceStore = postgres.NewPostgresWorkspaceStore(db, logger)
	app.taskStore = postgres.NewPostgresTaskStore(db, logger)
	app.commentStore = postgres.NewPostgresCommentStore(db, logger)
	app.notificationStore = postgres.NewPostgresNotificationStore(db, logger)
	app.auditStore = postgres.NewPostgresAuditStore(db, logger)
	app.jobStore = postgres.NewPostgresJobStore(db)

	// Event emitter and background job runner. The runner is started only
	// after the notification job factory exists, so recovery can rebuild
	// stored jobs into executable ones.
	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.jobRunner = job.NewJobRunner(app.jobStore, job.JobRunnerConfig{
		QueueSize:   cfg.Job.QueueSize,
		WorkerCount: cfg.Job.WorkerCount,
		StuckJobAge: time.Duration(cfg.Job.StuckJobAgeMinutes) * time.Minute,
	}, logger)

	// Services
	app.auditService = service.NewAuditService(app.auditStore, logger)
	app.userService = service.NewUserService(app.userStore, app.auditService, db, logger)
	app.workspaceService = service.NewWorkspaceService(
		app.workspaceStore,
		app.auditService,
		db,
		logger,
	)
	app.taskService = service.NewTaskService(
		app.taskStore,
		app.workspaceService,
		app.auditService,
		app.eventEmitter,
		db,
		logger,
	)
	app.commentService = service.NewCommentService(
		app.commentStore,
		app.taskStore,
		app.workspaceService,
		app.auditService,
		app.eventEmitter,
		db,
		logger,
	)
	app.notificationService = service.NewNotificationService(
		app.notificationStore,
		cache,
		logger,
	)

	// Wire emitted task and comment events into notification delivery jobs.
	jobFactory := job.NewNotificationDeliveryJobFactory(app.notificationService, logger)
	jobFactoryHandler := job.NewJobFactoryEventHandler(jobFactory, app.jobRunner, logger)

	if emitter, ok := app.eventEmitter.(*events.InMemoryEventEmitter); ok {
		emitter.RegisterHandler(jobFactoryHandler)
	} else {
		return nil, fmt.Errorf("unexpected event emitter type, cannot register job handler")
	}

	// Start also requeues jobs left unfinished by a previous process.
	app.jobRunner.SetRehydrator(jobFactory.RehydrateJob)
	if err := app.jobRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start job runner: %w", err)
	}

	if err := seedSuperuser(ctx, cfg, app.userStore, logger); err != nil {
		return nil, fmt.Errorf("failed to seed superuser: %w", err)
	}

	logger.Info("Application initialized successfully")
	return app, nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.jobRunner != nil {
		app.jobRunner.Stop()
	}

	if app.redisClient != nil {
		if err := app.redisClient.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
