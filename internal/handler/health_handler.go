package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/vocalis-dev/vocalis-api/internal/config"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/utils"
)

// HealthResponse represents the payload returned by the health endpoint.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Service     string    `json:"service"`
	Environment string    `json:"environment"`
}

// AIHealthResponse reports which AI providers are configured. It deliberately
// says nothing about key validity; that would require a billable call.
type AIHealthResponse struct {
	Providers map[string]bool `json:"providers"`
	Degraded  bool            `json:"degraded"`
}

// HealthCheck returns a handler that reports application health information.
func HealthCheck(cfg config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		payload := HealthResponse{
			Status:      "ok",
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
		}

		return utils.SendSuccess(c, "service healthy", payload)
	}
}

// AIHealthCheck returns a handler that reports AI provider availability. With
// zero configured providers the service still works on built-in fallbacks,
// which is what Degraded signals.
func AIHealthCheck(svc *service.InterviewService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		providers := svc.ProviderHealth()

		anyConfigured := false
		for _, ok := range providers {
			if ok {
				anyConfigured = true
				break
			}
		}

		payload := AIHealthResponse{
			Providers: providers,
			Degraded:  !anyConfigured,
		}
		return utils.SendSuccess(c, "ai provider status", payload)
	}
}
