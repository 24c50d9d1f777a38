package handler_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/handler"
	"github.com/vocalis-dev/vocalis-api/internal/middleware"
	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/store"
)

const adminSecret = "test-admin-secret"

func newAdminApp(t *testing.T) (*fiber.App, *store.Store) {
	t.Helper()

	sessionStore := store.New(time.Hour, testLogger())
	scoring := service.NewScoringPipeline(nil, time.Second, testLogger())
	svc := service.NewInterviewService(sessionStore, service.Providers{}, scoring, validator.New(), nil, nil, nil, service.InterviewConfig{}, testLogger())

	app := fiber.New()
	admin := app.Group("/api/v1/admin", middleware.JWTProtected(adminSecret))
	handler.NewAdminHandler(svc, testLogger()).Register(admin)
	return app, sessionStore
}

func adminToken(t *testing.T, secret string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin-1",
		"role": "recruiter",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func adminGet(t *testing.T, app *fiber.App, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	return resp
}

func TestAdminRoutesRequireJWT(t *testing.T) {
	app, _ := newAdminApp(t)

	resp := adminGet(t, app, "/api/v1/admin/sessions", "")
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp = adminGet(t, app, "/api/v1/admin/sessions", adminToken(t, "wrong-secret"))
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestAdminListSessions(t *testing.T) {
	app, sessionStore := newAdminApp(t)

	sessionStore.AddCandidate(models.Candidate{ID: "cand-1", Name: "Ava", Domain: "nlp"})
	sessionStore.CreateSession(&models.Session{
		ID: "sess-1", CandidateID: "cand-1", Domain: "nlp",
		Questions: []string{"q1"}, Answers: make([]string, 1),
		State: models.StateReady, CreatedAt: time.Now().UTC(),
	})

	resp := adminGet(t, app, "/api/v1/admin/sessions", adminToken(t, adminSecret))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data []dto.SessionSummary `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Len(t, payload.Data, 1)
	require.Equal(t, "sess-1", payload.Data[0].SessionID)

	resp = adminGet(t, app, "/api/v1/admin/candidates/cand-1/sessions", adminToken(t, adminSecret))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp = adminGet(t, app, "/api/v1/admin/candidates/ghost/sessions", adminToken(t, adminSecret))
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}
