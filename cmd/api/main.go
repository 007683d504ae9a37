package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/desaconnect/complaint-service/internal/api/http"
	"github.com/desaconnect/complaint-service/internal/api/http/handlers"
	"github.com/desaconnect/complaint-service/internal/auth"
	"github.com/desaconnect/complaint-service/internal/config"
	"github.com/desaconnect/complaint-service/internal/events"
	"github.com/desaconnect/complaint-service/internal/observability"
	"github.com/desaconnect/complaint-service/internal/persistence"
	"github.com/desaconnect/complaint-service/internal/repository"
	"github.com/desaconnect/complaint-service/internal/service"
	"github.com/desaconnect/complaint-service/internal/storage"
	"github.com/desaconnect/complaint-service/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	objectStore, err := storage.NewDiskStore(cfg.Storage)
	if err != nil {
		logger.Fatal("failed to init attachment store", zap.Error(err))
	}

	pool := pg.PoolHandle()
	submissionRepo := repository.NewSubmissionRepository(pool)
	adminRepo := repository.NewAdminRepository(pool)

	authorizer := auth.NewAuthorizer(adminRepo, cfg.Auth.CacheTTL(), logger)
	sessions := auth.NewSessionStore(redis.Client, cfg.Auth.SessionTTL())
	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	guard := auth.NewGuard(tokens, sessions, authorizer, cfg.Auth.LoginPath, cfg.Auth.ForbiddenLandingPath, logger)

	dispatcher := events.NewInMemoryDispatcher()

	submissionService := service.NewSubmissionService(service.SubmissionDependencies{
		SubmissionRepo: submissionRepo,
		ObjectStore:    objectStore,
		Dispatcher:     dispatcher,
		Logger:         logger,
		MaxUploadBytes: cfg.Storage.MaxUploadBytes,
	})
	statsService := service.NewStatsService(submissionRepo)
	rosterService := service.NewRosterService(service.RosterDependencies{
		AdminRepo:  adminRepo,
		Authorizer: authorizer,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Logger:     logger,
		BcryptCost: cfg.Auth.BcryptCost,
	})
	authService := service.NewAuthService(adminRepo, sessions, tokens)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{
		AppName:   cfg.App.Name,
		BodyLimit: int(cfg.Storage.MaxUploadBytes) + 1024*1024,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Submissions:      handlers.NewSubmissionsHandler(submissionService),
		AdminSubmissions: handlers.NewAdminSubmissionsHandler(submissionService),
		Stats:            handlers.NewStatsHandler(statsService),
		Roster:           handlers.NewRosterHandler(rosterService),
		Auth:             handlers.NewAuthHandler(authService),
		Guard:            guard,
		UploadDir:        cfg.Storage.UploadDir,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
