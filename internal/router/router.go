package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/examprep-api/internal/config"
	"github.com/noah-isme/examprep-api/internal/handler"
	"github.com/noah-isme/examprep-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	HealthHandler *handler.HealthHandler
	AuthHandler   *handler.AuthHandler
	ExamHandler   *handler.ExamHandler
	ResultHandler *handler.ResultHandler
	SeedHandler   *handler.SeedHandler
	Guards        handler.RouteGuards
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	app.Get("/metrics", observability.MetricsHandler())

	api := app.Group("/api", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	if deps.HealthHandler != nil {
		api.Get("/health", deps.HealthHandler.Check)
	}

	if deps.AuthHandler != nil {
		deps.AuthHandler.Register(api.Group("/auth"), deps.Guards)
	}

	if deps.ExamHandler != nil {
		deps.ExamHandler.Register(api.Group("/exams"), deps.Guards)
	}

	if deps.ResultHandler != nil {
		deps.ResultHandler.Register(api.Group("/results"), deps.Guards)
	}

	// Seed routes stay mounted so a disabled deployment answers 404 from the service.
	if deps.SeedHandler != nil {
		deps.SeedHandler.Register(api.Group("/seed"))
	}
}
