package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/vocalis-dev/vocalis-api/internal/config"
	"github.com/vocalis-dev/vocalis-api/internal/handler"
	"github.com/vocalis-dev/vocalis-api/internal/middleware"
	"github.com/vocalis-dev/vocalis-api/internal/observability"
	"github.com/vocalis-dev/vocalis-api/internal/service"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	InterviewService *service.InterviewService
	InterviewHandler *handler.InterviewHandler
	SpeechHandler    *handler.SpeechHandler
	ProctorHandler   *handler.ProctorHandler
	AdminHandler     *handler.AdminHandler
	JWTMiddleware    fiber.Handler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})

	api.Get("/health", handler.HealthCheck(cfg))
	if deps.InterviewService != nil {
		api.Get("/health/ai", handler.AIHealthCheck(deps.InterviewService))
	}
	app.Get("/metrics", observability.MetricsHandler())

	if deps.InterviewHandler != nil {
		candidates := api.Group("/candidates")
		deps.InterviewHandler.RegisterCandidates(candidates)

		interviews := api.Group("/interviews")
		deps.InterviewHandler.Register(interviews)

		if deps.ProctorHandler != nil {
			deps.ProctorHandler.Register(interviews)
		}
	}

	if deps.SpeechHandler != nil {
		speech := api.Group("/speech",
			middleware.RateLimit("speech", cfg.SpeechRateLimit, cfg.SpeechRateWindow))
		deps.SpeechHandler.Register(speech)
	}

	if deps.AdminHandler != nil {
		jwtMiddleware := deps.JWTMiddleware
		if jwtMiddleware == nil {
			jwtMiddleware = func(c *fiber.Ctx) error { return c.Next() }
		}
		admin := api.Group("/admin", jwtMiddleware)
		deps.AdminHandler.Register(admin)
	}
}
