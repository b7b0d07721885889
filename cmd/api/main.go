package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/issue-tracker/internal/api/http"
	"github.com/spec-kit/issue-tracker/internal/api/http/handlers"
	"github.com/spec-kit/issue-tracker/internal/auth"
	"github.com/spec-kit/issue-tracker/internal/config"
	"github.com/spec-kit/issue-tracker/internal/domain"
	"github.com/spec-kit/issue-tracker/internal/events"
	"github.com/spec-kit/issue-tracker/internal/observability"
	"github.com/spec-kit/issue-tracker/internal/persistence"
	"github.com/spec-kit/issue-tracker/internal/repository"
	"github.com/spec-kit/issue-tracker/internal/service"
	"github.com/spec-kit/issue-tracker/internal/worker"
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

	redisConn := persistence.NewRedis(cfg.Redis, logger)
	defer redisConn.Close()

	store := repository.NewStore(pg.PoolHandle())
	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	tokens := auth.NewTokenManager(cfg.Auth, cfg.App.Name)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)

	authService := service.NewAuthService(store, tokens, hasher, cfg.Auth, logger)
	issueService := service.NewIssueService(service.IssueDependencies{
		Store:      store,
		Dispatcher: dispatcher,
		Logger:     logger,
	})
	projectService := service.NewProjectService(store, logger)
	teamService := service.NewTeamService(store, logger)
	notificationService := service.NewNotificationService(store, redisConn.Client, logger)
	notificationService.RegisterSubscribers(dispatcher)
	modeSwitchService := service.NewModeSwitchService(store, dispatcher, logger)
	adminService := service.NewAdminService(store, logger)

	janitor := worker.NewNotificationJanitor(store, time.Hour, 30*24*time.Hour, logger)
	janitor.Start()
	defer janitor.Stop()

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
			"postgres": pg,
			"redis":    redisConn,
		}),
		Users:         handlers.NewUsersHandler(authService),
		Projects:      handlers.NewProjectsHandler(projectService),
		Teams:         handlers.NewTeamsHandler(teamService),
		Issues:        handlers.NewIssuesHandler(issueService),
		Notifications: handlers.NewNotificationsHandler(notificationService),
		ModeSwitch:    handlers.NewModeSwitchHandler(modeSwitchService),
		Admin:         handlers.NewAdminHandler(adminService),

		Authenticate:     auth.Middleware(tokens, store.Users()),
		RequireAnyRole:   auth.RequireRole(httptransport.AnyRole...),
		RequireMaster:    auth.RequireMasterAdmin(),
		RequireAdminRole: auth.RequireRole(domain.RoleAdmin),
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
