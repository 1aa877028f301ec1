package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/field-ops/support-desk/internal/api/http"
	"github.com/field-ops/support-desk/internal/api/http/handlers"
	"github.com/field-ops/support-desk/internal/auth"
	"github.com/field-ops/support-desk/internal/config"
	"github.com/field-ops/support-desk/internal/events"
	"github.com/field-ops/support-desk/internal/observability"
	"github.com/field-ops/support-desk/internal/persistence"
	"github.com/field-ops/support-desk/internal/repository"
	"github.com/field-ops/support-desk/internal/scheduler"
	"github.com/field-ops/support-desk/internal/service"
	"github.com/field-ops/support-desk/internal/worker"
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

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	entityRepo := repository.NewEntityRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	securityRepo := repository.NewSecurityReportRepository(pool)
	weeklyRepo := repository.NewWeeklyReportRepository(pool)
	reportCache := persistence.NewWeeklyReportCache(redis)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes)
	authService := service.NewAuthService(userRepo, tokens)
	authMiddleware := auth.NewAuthMiddleware(tokens, userRepo)

	directoryService := service.NewDirectoryService(*cfg, entityRepo, userRepo, logger)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		EntityRepo: entityRepo,
		Dispatcher: dispatcher,
	})
	reportService := service.NewReportService(cfg.Report, service.ReportDependencies{
		SecurityRepo: securityRepo,
		WeeklyRepo:   weeklyRepo,
		EntityRepo:   entityRepo,
		Cache:        reportCache,
		Dispatcher:   dispatcher,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	if err := directoryService.Bootstrap(ctx); err != nil {
		logger.Fatal("bootstrap seed failed", zap.Error(err))
	}

	var weekly *scheduler.Weekly
	if cfg.Report.SchedulerEnabled {
		weekly = scheduler.NewWeekly(cfg.Report, scheduler.Dependencies{
			WeeklyRepo:   weeklyRepo,
			SecurityRepo: securityRepo,
			EntityRepo:   entityRepo,
			Cache:        reportCache,
			Dispatcher:   dispatcher,
			Metrics:      metrics,
			Logger:       logger,
		})
		weekly.Start(ctx)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	httptransport.RegisterMiddlewares(app, httptransport.MiddlewareConfig{
		Logger:      logger,
		Metrics:     metrics,
		Timeout:     cfg.App.RequestTimeout(),
		Development: cfg.App.IsDevelopment(),
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:          handlers.NewUsersHandler(authService, directoryService),
		Entities:       handlers.NewEntitiesHandler(directoryService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Reports:        handlers.NewReportsHandler(reportService, weekly),
		AuthMiddleware: authMiddleware,
		MetricsHandler: metrics.Handler(),
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if weekly != nil {
		weekly.Stop()
	}
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
