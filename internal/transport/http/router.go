package http

import (
	nethttp "net/http"

	"github.com/cargarage/execution-service/internal/config"
	"github.com/cargarage/execution-service/internal/core/ports"
	"github.com/cargarage/execution-service/internal/infrastructure/logger"
	"github.com/cargarage/execution-service/internal/transport/http/handlers"
	httpmw "github.com/cargarage/execution-service/internal/transport/http/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
)

type RouterConfig struct {
	Config  *config.Config
	Logger  *logger.Logger
	Clock   ports.Clock
	Creator ports.ExecutionTaskCreator
	Updater ports.ExecutionTaskStatusUpdater
	Failer  ports.ExecutionTaskFailer
	Finder  ports.ExecutionTaskFinder
	// Events is nil when the live event stream is disabled.
	Events handlers.EventSubscriber
	// Metrics is nil when metrics are disabled.
	Metrics     nethttp.Handler
	HealthCheck func() error
}

func SetupRoutes(app *fiber.App, cfg RouterConfig) {
	if cfg.Logger == nil {
		cfg.Logger = logger.NewNop()
	}

	taskHandler := handlers.NewExecutionTaskHandler(handlers.ExecutionTaskHandlerConfig{
		Creator: cfg.Creator,
		Updater: cfg.Updater,
		Failer:  cfg.Failer,
		Finder:  cfg.Finder,
		Clock:   cfg.Clock,
		Logger:  cfg.Logger,
	})
	healthHandler := handlers.NewHealthHandler(cfg.HealthCheck)

	app.Get("/health", healthHandler.Health)

	if cfg.Metrics != nil {
		metricsPath := cfg.Config.Metrics.Path
		if metricsPath == "" {
			metricsPath = "/metrics"
		}
		app.Get(metricsPath, adaptor.HTTPHandler(cfg.Metrics))
	}

	if cfg.Events != nil {
		streamHandler := handlers.NewEventStreamHandler(cfg.Events, cfg.Logger)
		app.Use("/ws", httpmw.AdminAuth(cfg.Config), func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				c.Locals("allowed", true)
				return c.Next()
			}
			return c.SendStatus(fiber.StatusUpgradeRequired)
		})
		app.Get("/ws/execution-events", websocket.New(streamHandler.Stream))
	}

	tasks := app.Group("/execution-tasks", httpmw.AdminAuth(cfg.Config))
	tasks.Post("/", taskHandler.CreateTask)
	tasks.Get("/", taskHandler.ListTasks)
	tasks.Get("/service-order/:serviceOrderId", taskHandler.GetTaskByServiceOrder)
	tasks.Get("/status/:status", taskHandler.ListTasksByStatus)
	tasks.Get("/:id/status", taskHandler.GetTaskStatus)
	tasks.Put("/:id/status", taskHandler.UpdateTaskStatus)
	tasks.Get("/:id", taskHandler.GetTask)
	tasks.Delete("/:id", taskHandler.FailTask)
}
