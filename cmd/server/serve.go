package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cargarage/execution-service/internal/config"
	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/core/services"
	"github.com/cargarage/execution-service/internal/infrastructure/db"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"github.com/cargarage/execution-service/internal/infrastructure/messaging"
	"github.com/cargarage/execution-service/internal/infrastructure/metrics"
	"github.com/cargarage/execution-service/internal/infrastructure/scheduler"
	"github.com/cargarage/execution-service/internal/transport/events"
	transporthttp "github.com/cargarage/execution-service/internal/transport/http"
	"github.com/cargarage/execution-service/internal/transport/http/handlers"
	httpmw "github.com/cargarage/execution-service/internal/transport/http/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"gorm.io/gorm"
)

const shutdownTimeout = 30 * time.Second

type ServeCmd struct {
	SkipMigrations bool `help:"Do not run database migrations on startup."`
}

type runtime struct {
	app       *fiber.App
	database  *gorm.DB
	consumers []*messaging.SQSConsumer
	refresher *scheduler.StatusGaugeRefresher
	log       *logger.Logger
}

func (s *ServeCmd) Run(cli *CLI) error {
	cfg, err := cli.loadConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.Logger)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	database, err := db.NewConnection(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	log.Infow("database_connection_established", "driver", cfg.Database.Driver)

	if !s.SkipMigrations {
		if err := db.RunMigrations(database); err != nil {
			return fmt.Errorf("failed to run migrations: %w", err)
		}
		log.Info("database migrations completed")
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := assemble(rootCtx, cfg, database, log)
	if err != nil {
		_ = db.Close(database)
		return err
	}

	go func() {
		if err := rt.app.Listen(cfg.Server.Address()); err != nil {
			log.Errorw("server_listen_failed", "address", cfg.Server.Address(), "error", err)
			stop()
		}
	}()
	log.Infof("server started on %s", cfg.Server.Address())

	<-rootCtx.Done()
	rt.shutdown()
	return nil
}

func assemble(ctx context.Context, cfg *config.Config, database *gorm.DB, log *logger.Logger) (*runtime, error) {
	clock := ports.SystemClock{}
	repo := db.NewExecutionTaskRepository(database, log)

	var (
		executionMetrics ports.ExecutionMetrics = ports.NoopMetrics{}
		promMetrics      *metrics.Metrics
		metricsHandler   http.Handler
	)
	if cfg.Metrics.Enabled {
		promMetrics = metrics.NewMetrics()
		executionMetrics = promMetrics
		metricsHandler = promMetrics.Handler()
	}

	var (
		sink ports.EventSink
		hub  *messaging.EventHub
	)
	if cfg.Features.EnableEventStream {
		hub = messaging.NewEventHub()
		sink = hub
	}

	sqsClient, err := messaging.NewSQSClient(ctx, cfg.Messaging)
	if err != nil {
		return nil, err
	}

	publisher := messaging.NewSQSPublisher(messaging.SQSPublisherConfig{
		Client:                      sqsClient,
		ExecutionEventsQueueURL:     cfg.Messaging.Queues.ExecutionEvents,
		ExecutionCompletedQueueURL:  cfg.Messaging.Queues.ExecutionCompleted,
		ResourceUnavailableQueueURL: cfg.Messaging.Queues.ResourceUnavailable,
		MessageGroupID:              cfg.Messaging.MessageGroupID,
		Clock:                       clock,
		Sink:                        sink,
		Metrics:                     executionMetrics,
		Logger:                      log,
	})

	svcCfg := services.ExecutionTaskServiceConfig{
		Repository: repo,
		Publisher:  publisher,
		Clock:      clock,
		Metrics:    executionMetrics,
		Logger:     log,
	}
	creator := services.NewCreateExecutionTaskUseCase(svcCfg)
	failer := services.NewFailExecutionTaskUseCase(svcCfg)

	rt := &runtime{database: database, log: log}

	if cfg.Features.EnableConsumers {
		router := events.NewRouter(events.RouterConfig{
			Creator: creator,
			Failer:  failer,
			Metrics: executionMetrics,
			Logger:  log,
		})
		queues := map[string]string{
			"billing-events": cfg.Messaging.Queues.BillingEvents,
			"order-events":   cfg.Messaging.Queues.OrderEvents,
		}
		for name, queueURL := range queues {
			if queueURL == "" {
				log.Warnw("sqs_consumer_disabled", "consumer", name, "reason", "queue url not configured")
				continue
			}
			consumer := messaging.NewSQSConsumer(messaging.SQSConsumerConfig{
				Name:              name,
				Client:            sqsClient,
				QueueURL:          queueURL,
				Handler:           router,
				Workers:           cfg.Messaging.Workers,
				MaxMessages:       cfg.Messaging.MaxMessages,
				WaitTimeSeconds:   cfg.Messaging.WaitTimeSeconds,
				VisibilityTimeout: cfg.Messaging.VisibilityTimeout,
				Logger:            log,
			})
			consumer.Start(ctx)
			rt.consumers = append(rt.consumers, consumer)
		}
	}

	if promMetrics != nil {
		refresher, err := scheduler.NewStatusGaugeRefresher(scheduler.StatusGaugeConfig{
			Repository: repo,
			Gauge:      promMetrics,
			Schedule:   cfg.Metrics.RefreshSchedule,
			Logger:     log,
		})
		if err != nil {
			return nil, err
		}
		refresher.Start()
		rt.refresher = refresher
	}

	rt.app = newApp(cfg, log, clock)

	routerCfg := transporthttp.RouterConfig{
		Config:      cfg,
		Logger:      log,
		Clock:       clock,
		Creator:     creator,
		Updater:     services.NewUpdateExecutionTaskStatusUseCase(svcCfg),
		Failer:      failer,
		Finder:      services.NewFindExecutionTaskUseCase(svcCfg),
		Metrics:     metricsHandler,
		HealthCheck: func() error { return db.Ping(database) },
	}
	if hub != nil {
		routerCfg.Events = hub
	}
	transporthttp.SetupRoutes(rt.app, routerCfg)

	return rt, nil
}

func newApp(cfg *config.Config, log *logger.Logger, clock ports.Clock) *fiber.App {
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		IdleTimeout:           cfg.Server.IdleTimeout,
		ErrorHandler:          handlers.ErrorHandler(log, clock),
		DisableStartupMessage: true,
	})

	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	allowedOrigins := "http://localhost:3000"
	if len(cfg.Auth.AllowedOrigins) > 0 {
		allowedOrigins = strings.Join(cfg.Auth.AllowedOrigins, ",")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: allowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Admin-Token, " + cfg.Features.RequestIDHeader,
		AllowMethods: "GET, POST, HEAD, PUT, DELETE",
	}))

	app.Use(httpmw.RequestID(cfg.Features.RequestIDHeader))
	if cfg.Features.EnableRequestLogging {
		app.Use(httpmw.AccessLog(log))
	}

	return app
}

// shutdown stops intake first, then background work, then the database.
func (rt *runtime) shutdown() {
	rt.log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := rt.app.ShutdownWithContext(ctx); err != nil {
		rt.log.Errorf("server forced to shutdown: %v", err)
	}

	for _, consumer := range rt.consumers {
		consumer.Shutdown(shutdownTimeout)
	}

	if rt.refresher != nil {
		rt.refresher.Stop()
	}

	if err := db.Close(rt.database); err != nil {
		rt.log.Errorf("failed to close database connection: %v", err)
	}

	rt.log.Info("server exited gracefully")
}
