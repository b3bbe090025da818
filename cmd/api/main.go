package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	_ "academy-portal/docs" // This is for Swagger
	"academy-portal/internal/auth"
	"academy-portal/internal/config"
	"academy-portal/internal/database"
	"academy-portal/internal/email"
	"academy-portal/internal/handlers"
	"academy-portal/internal/logger"
	"academy-portal/internal/middleware"
	"academy-portal/internal/notify"
	"academy-portal/internal/pdfexport"
	"academy-portal/internal/repository"
	"academy-portal/internal/scheduler"
	"academy-portal/internal/service"
	"academy-portal/internal/vault"
)

// @title Academy Portal API
// @version 1.0
// @description Backend API for the police academy portal: competitions, recruitment, training and personnel
// @termsOfService http://swagger.io/terms/

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger.Setup(logger.Config{Level: cfg.Log.Level, Pretty: cfg.App.IsDevelopment()})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Database connection established")

	migrator := database.NewMigrationExecutor(db.DB)
	if err := migrator.RunMigrations(ctx, cfg.Database.MigrationsPath); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Info("Database migrations completed")

	// Repositories
	userRepo := repository.NewUserRepository(db.DB)
	activityRepo := repository.NewActivityRepository(db.DB)
	competitionRepo := repository.NewCompetitionRepository(db.DB)
	applicationRepo := repository.NewApplicationRepository(db.DB)
	quizRepo := repository.NewQuizRepository(db.DB)
	trainingRepo := repository.NewTrainingRepository(db.DB)
	personnelRepo := repository.NewPersonnelRepository(db.DB)

	// Infrastructure
	tokens := auth.NewService(&cfg.JWT)
	notifier := notify.New(cfg.Webhook.URL, cfg.Webhook.Timeout)
	mailer := email.NewService(&cfg.Email)
	renderer := pdfexport.NewRenderer()

	health := handlers.NewHealthHandler(cfg.App.Version, db.HealthCheck)

	var sealer service.Sealer
	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(ctx, &cfg.Vault)
		if err != nil {
			return fmt.Errorf("failed to initialize vault: %w", err)
		}
		sealer = vaultClient
		health.With("vault", vaultClient.Health)
		slog.Info("Disciplinary reasons are sealed with Vault transit", "key", cfg.Vault.KeyName)
	}

	var limiter middleware.Limiter
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		limiter = middleware.NewRedisLimiter(rdb, "academy:ratelimit")
		health.With("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		slog.Info("Rate limiting backed by Redis", "addr", cfg.Redis.Addr)
	} else {
		memory := middleware.NewMemoryLimiter()
		go memory.Cleanup(ctx, time.Minute)
		limiter = memory
	}

	// Services
	activitySvc := service.NewActivityService(activityRepo)
	authSvc := service.NewAuthService(userRepo, tokens)
	competitionSvc := service.NewCompetitionService(competitionRepo, tokens, notifier, activitySvc, mailer)
	applicationSvc := service.NewApplicationService(applicationRepo, notifier, activitySvc)
	quizSvc := service.NewQuizService(quizRepo)
	trainingSvc := service.NewTrainingService(trainingRepo, activitySvc)
	personnelSvc := service.NewPersonnelService(personnelRepo, sealer, notifier, activitySvc)

	// Handlers
	handlerSet := &api{
		auth:         handlers.NewAuthHandler(authSvc),
		users:        handlers.NewUserHandler(authSvc, renderer),
		activity:     handlers.NewActivityHandler(activitySvc),
		competitions: handlers.NewCompetitionHandler(competitionSvc, renderer),
		applications: handlers.NewApplicationHandler(applicationSvc),
		quizzes:      handlers.NewQuizHandler(quizSvc),
		training:     handlers.NewTrainingHandler(trainingSvc, renderer),
		personnel:    handlers.NewPersonnelHandler(personnelSvc, renderer),
		health:       health,
	}

	authMw := middleware.NewAuthMiddleware(tokens)
	corsMw := middleware.NewCORSMiddleware(&cfg.CORS)
	proxies, err := middleware.ParseTrustedProxies(cfg.RateLimit.TrustedProxies)
	if err != nil {
		return err
	}
	mux := setupRoutes(cfg, handlerSet, authMw, limiter, proxies)

	// Apply global middleware
	var handler http.Handler = mux
	if cfg.RateLimit.Enabled {
		handler = middleware.RateLimit(limiter, middleware.KeyByIP("api", proxies), cfg.RateLimit.Requests, cfg.RateLimit.Duration)(handler)
	}
	handler = middleware.Logging(middleware.SecurityHeaders(corsMw.Handler(handler)))

	sched := scheduler.NewScheduler(competitionSvc, applicationSvc, notifier, &cfg.Scheduler)
	sched.Start()
	defer sched.Stop()

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.TimeoutRead,
		WriteTimeout: cfg.Server.TimeoutWrite,
		IdleTimeout:  cfg.Server.TimeoutIdle,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server starting", "addr", addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err, ok := <-serverErr:
		if ok {
			return fmt.Errorf("server failed to start: %w", err)
		}
	case <-ctx.Done():
	}

	slog.Info("Server shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	slog.Info("Server stopped")
	return nil
}
