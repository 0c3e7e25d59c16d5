package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/locate-ticket-service/internal/api/http"
	"github.com/spec-kit/locate-ticket-service/internal/api/http/handlers"
	"github.com/spec-kit/locate-ticket-service/internal/auth"
	"github.com/spec-kit/locate-ticket-service/internal/config"
	"github.com/spec-kit/locate-ticket-service/internal/events"
	"github.com/spec-kit/locate-ticket-service/internal/ingest"
	"github.com/spec-kit/locate-ticket-service/internal/observability"
	"github.com/spec-kit/locate-ticket-service/internal/persistence"
	"github.com/spec-kit/locate-ticket-service/internal/repository"
	"github.com/spec-kit/locate-ticket-service/internal/service"
	"github.com/spec-kit/locate-ticket-service/internal/store"
	"github.com/spec-kit/locate-ticket-service/internal/worker"
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

	metrics := observability.NewMetrics()
	pingers := map[string]handlers.Pinger{}

	var docs store.Store
	switch cfg.Store.Driver {
	case "mongo":
		mongo, err := persistence.NewMongo(ctx, cfg.Mongo, logger)
		if err != nil {
			logger.Fatal("failed to connect mongodb", zap.Error(err))
		}
		defer mongo.Close(ctx)
		docs = store.NewMongoStore(mongo.Database)

	case "postgres":
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		defer pg.Close()

		if pg.PoolHandle() == nil {
			logger.Warn("no postgres pool; falling back to in-memory store")
			docs = store.NewMemoryStore()
			break
		}

		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		docs = store.NewPostgresStore(pg.PoolHandle())
		pingers["postgres"] = pg

	default:
		logger.Warn("using in-memory document store", zap.String("driver", cfg.Store.Driver))
		docs = store.NewMemoryStore()
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()
	pingers["redis"] = redis

	ticketRepo := repository.NewTicketRepository(docs)
	keyRepo := repository.NewAPIKeyRepository(docs)

	dispatcher := events.NewInMemoryDispatcher()
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	worker.StartNotificationWorker(notificationService)

	normalizer := ingest.NewNormalizer(docs, logger, cfg.Ingest.RawLogEnabled)
	ingestService := service.NewIngestService(service.IngestDependencies{
		Normalizer:      normalizer,
		TicketRepo:      ticketRepo,
		Dispatcher:      dispatcher,
		Logger:          logger,
		Metrics:         metrics,
		DefaultClientID: cfg.Ingest.DefaultClientID,
	})
	queryService := service.NewQueryService(ticketRepo, dispatcher)

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL())
	keyAuth := auth.NewAPIKeyMiddleware(keyRepo, tokens, redis, cfg.Auth.APIKeyCacheTTL(), logger)

	app := fiber.New(fiber.Config{CaseSensitive: true})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:  handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pingers, metrics),
		Receive: handlers.NewReceiveHandler(ingestService),
		Tickets: handlers.NewTicketsHandler(queryService),
		Session: handlers.NewSessionHandler(tokens),
		KeyAuth: keyAuth,
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
