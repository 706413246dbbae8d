// Package main provides the Flowgrid API server implementation.
package main

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"go.opentelemetry.io/otel/trace"

	"github.com/flowgrid/flowgrid/pkg/credentials"
	"github.com/flowgrid/flowgrid/pkg/eventbus"
	"github.com/flowgrid/flowgrid/pkg/persistence"
	"github.com/flowgrid/flowgrid/pkg/registry"
	"github.com/flowgrid/flowgrid/pkg/web"
	"github.com/flowgrid/flowgrid/pkg/workflow"
)

type API struct {
	logger      *slog.Logger
	store       persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	validate    *validator.Validate
	coordinator *workflow.Coordinator
	dispatcher  *workflow.Dispatcher
}

func NewAPI(
	logger *slog.Logger,
	store persistence.Persistence,
	registry *registry.Registry,
	eventBus eventbus.EventBus,
	tracer trace.Tracer,
) *API {
	walker := workflow.NewWalker(logger, registry, credentials.NewResolver(store)).WithPublisher(eventBus)
	if tracer != nil {
		walker = walker.WithTracer(tracer)
	}
	coordinator := workflow.NewCoordinator(logger, store, eventBus, walker)
	dispatcher := workflow.NewDispatcher(logger, eventBus, store, coordinator)

	return &API{
		logger:      logger,
		store:       store,
		registry:    registry,
		eventBus:    eventBus,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		coordinator: coordinator,
		dispatcher:  dispatcher,
	}
}

// StartDispatcher begins consuming dispatched runs. With the in-memory event
// bus the API process is also the worker; with kafka other consumers may
// share the load.
func (a *API) StartDispatcher(ctx context.Context) error {
	return a.dispatcher.Start(ctx)
}

func (a *API) App() *fiber.App {
	handlers := web.NewAPIHandlers(a.store, a.coordinator, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Flowgrid API")
	})

	w := app.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Post("/", handlers.CreateWorkflow)
	w.Get("/:id", handlers.GetWorkflow)
	w.Delete("/:id", handlers.DeleteWorkflow)
	w.Post("/:id/activate", handlers.ActivateWorkflow)
	w.Post("/:id/run", handlers.RunWorkflow)

	app.Post("/webhooks/:id", handlers.WebhookRun)

	r := app.Group("/runs")
	r.Get("/:id", handlers.GetRun)
	r.Post("/:id/cancel", handlers.CancelRun)

	app.Post("/credentials", handlers.CreateCredential)
	app.Get("/node-kinds", handlers.GetNodeKinds)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}
