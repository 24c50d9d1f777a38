package handler_test

import (
	"net"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	gorillaws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/handler"
	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/store"
)

func newProctorApp(t *testing.T, maxViolations int) (*fiber.App, *store.Store, string) {
	t.Helper()

	sessionStore := store.New(time.Hour, testLogger())
	now := time.Now().UTC()
	session := &models.Session{
		ID:          "sess-proctor",
		CandidateID: "cand-proctor",
		Domain:      "nlp",
		Questions:   []string{"q1", "q2"},
		Answers:     make([]string, 2),
		State:       models.StateInProgress,
		StartedAt:   &now,
		CreatedAt:   now,
	}
	sessionStore.CreateSession(session)

	scoring := service.NewScoringPipeline(nil, time.Second, testLogger())
	interviewSvc := service.NewInterviewService(sessionStore, service.Providers{}, scoring, validator.New(), nil, nil, nil, service.InterviewConfig{}, testLogger())
	proctorSvc := service.NewProctorService(sessionStore, interviewSvc, service.ProctorConfig{
		AwayThreshold: 5 * time.Second,
		MaxViolations: maxViolations,
	}, testLogger())

	app := fiber.New()
	handler.NewProctorHandler(proctorSvc, testLogger()).Register(app.Group("/api/v1/interviews"))
	return app, sessionStore, session.ID
}

func reportEvent(t *testing.T, app *fiber.App, sessionID string, looking bool, at time.Time, index int) dto.AttentionEventResponse {
	t.Helper()
	resp := postJSON(t, app, "/api/v1/interviews/"+sessionID+"/attention", dto.AttentionEventRequest{
		Looking:       looking,
		QuestionIndex: index,
		ObservedAt:    &at,
	})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.AttentionEventResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	return payload.Data
}

func TestAttentionEndpointViolationFlow(t *testing.T) {
	app, sessionStore, sessionID := newProctorApp(t, 3)
	base := time.Now().Add(-time.Minute).UTC()

	resp := reportEvent(t, app, sessionID, false, base, 0)
	require.False(t, resp.NewViolation)

	resp = reportEvent(t, app, sessionID, true, base.Add(6*time.Second), 0)
	require.True(t, resp.NewViolation)
	require.Equal(t, 1, resp.ViolationCount)
	require.Equal(t, 3, resp.MaxViolations)
	require.False(t, resp.Terminated)

	session, err := sessionStore.Session(sessionID)
	require.NoError(t, err)
	require.Len(t, session.Violations, 1)
}

func TestAttentionEndpointTermination(t *testing.T) {
	app, sessionStore, sessionID := newProctorApp(t, 1)
	base := time.Now().Add(-time.Minute).UTC()

	reportEvent(t, app, sessionID, false, base, 1)
	resp := reportEvent(t, app, sessionID, true, base.Add(6*time.Second), 1)
	require.True(t, resp.Terminated)
	require.Equal(t, "terminated", resp.State)

	require.Eventually(t, func() bool {
		session, err := sessionStore.Session(sessionID)
		return err == nil && session.Result != nil
	}, 3*time.Second, 20*time.Millisecond)

	session, err := sessionStore.Session(sessionID)
	require.NoError(t, err)
	require.True(t, session.Result.Terminated)
}

func TestAttentionEndpointUnknownSession(t *testing.T) {
	app, _, _ := newProctorApp(t, 3)

	resp := postJSON(t, app, "/api/v1/interviews/missing/attention", dto.AttentionEventRequest{Looking: true})
	require.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestAttentionWebsocketStream(t *testing.T) {
	app, _, sessionID := newProctorApp(t, 3)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	defer app.Shutdown()

	url := "ws://" + ln.Addr().String() + "/api/v1/interviews/" + sessionID + "/attention/ws"

	var conn *gorillaws.Conn
	require.Eventually(t, func() bool {
		c, _, dialErr := gorillaws.DefaultDialer.Dial(url, nil)
		if dialErr != nil {
			return false
		}
		conn = c
		return true
	}, 3*time.Second, 50*time.Millisecond)
	defer conn.Close()

	base := time.Now().Add(-time.Minute).UTC()
	require.NoError(t, conn.WriteJSON(dto.AttentionEventRequest{Looking: false, QuestionIndex: 0, ObservedAt: &base}))

	var ack dto.AttentionEventResponse
	require.NoError(t, conn.ReadJSON(&ack))
	require.Equal(t, sessionID, ack.SessionID)
	require.False(t, ack.NewViolation)

	at := base.Add(6 * time.Second)
	require.NoError(t, conn.WriteJSON(dto.AttentionEventRequest{Looking: true, QuestionIndex: 0, ObservedAt: &at}))
	require.NoError(t, conn.ReadJSON(&ack))
	require.True(t, ack.NewViolation)
	require.Equal(t, 1, ack.ViolationCount)
}
