package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/hydrowatch/tank-service/internal/api/http"
	"github.com/hydrowatch/tank-service/internal/api/http/handlers"
	"github.com/hydrowatch/tank-service/internal/auth"
	"github.com/hydrowatch/tank-service/internal/config"
	"github.com/hydrowatch/tank-service/internal/detection"
	"github.com/hydrowatch/tank-service/internal/events"
	"github.com/hydrowatch/tank-service/internal/observability"
	"github.com/hydrowatch/tank-service/internal/persistence"
	"github.com/hydrowatch/tank-service/internal/repository"
	"github.com/hydrowatch/tank-service/internal/service"
	"github.com/hydrowatch/tank-service/internal/worker"
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

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	unitRepo := repository.NewUnitRepository(pool)
	tankRepo := repository.NewTankRepository(pool)
	readingRepo := repository.NewReadingRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)

	dispatcher := events.NewInMemoryDispatcher()
	metrics := observability.NewMetrics()

	authService := service.NewAuthService(*cfg, userRepo)
	detector := detection.NewDetector(cfg.Detection, ticketRepo, dispatcher)
	ingestService := service.NewIngestService(service.IngestDependencies{
		ReadingRepo: readingRepo,
		TankRepo:    tankRepo,
		Detector:    detector,
		Cache:       redis,
		Dispatcher:  dispatcher,
		Metrics:     metrics,
		Logger:      logger,
		Async:       cfg.Detection.Async,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo: ticketRepo,
		TankRepo:   tankRepo,
		Dispatcher: dispatcher,
	})
	unitService := service.NewUnitService(service.UnitDependencies{
		UnitRepo:    unitRepo,
		TankRepo:    tankRepo,
		ReadingRepo: readingRepo,
		Cache:       redis,
	})
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), userRepo)
	apiKeyMiddleware := auth.NewAPIKeyMiddleware(unitRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:           handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Users:            handlers.NewUsersHandler(authService),
		Readings:         handlers.NewReadingsHandler(ingestService, unitService),
		Tickets:          handlers.NewTicketsHandler(ticketService),
		Units:            handlers.NewUnitsHandler(unitService),
		AuthMiddleware:   authMiddleware,
		APIKeyMiddleware: apiKeyMiddleware,
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
