package handler_test

import (
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis-api/internal/config"
	"github.com/vocalis-dev/vocalis-api/internal/handler"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/store"
)

func TestHealthCheck(t *testing.T) {
	cfg := config.Config{AppName: "Vocalis API", AppEnv: "test"}
	app := fiber.New()
	app.Get("/api/v1/health", handler.HealthCheck(cfg))

	resp := getPath(t, app, "/api/v1/health")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data handler.HealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Equal(t, "ok", payload.Data.Status)
	require.Equal(t, "Vocalis API", payload.Data.Service)
}

func TestAIHealthDegradedWithoutProviders(t *testing.T) {
	sessionStore := store.New(time.Hour, testLogger())
	scoring := service.NewScoringPipeline(nil, time.Second, testLogger())
	svc := service.NewInterviewService(sessionStore, service.Providers{ConfiguredKeys: map[string]bool{}}, scoring, validator.New(), nil, nil, nil, service.InterviewConfig{}, testLogger())

	app := fiber.New()
	app.Get("/api/v1/health/ai", handler.AIHealthCheck(svc))

	resp := getPath(t, app, "/api/v1/health/ai")
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data handler.AIHealthResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.True(t, payload.Data.Degraded)
	require.Empty(t, payload.Data.Providers)
}
