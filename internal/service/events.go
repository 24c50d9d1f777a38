package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/models"
)

const (
	subjectSessionSubmitted  = "vocalis.sessions.submitted"
	subjectSessionTerminated = "vocalis.sessions.terminated"
)

// sessionCompletedEvent is the wire payload published on session completion.
type sessionCompletedEvent struct {
	SessionID      string    `json:"session_id"`
	CandidateID    string    `json:"candidate_id"`
	Domain         string    `json:"domain"`
	State          string    `json:"state"`
	TotalScore     float64   `json:"total_score"`
	ViolationCount int       `json:"violation_count"`
	CompletedAt    time.Time `json:"completed_at"`
}

// NATSEvents publishes session lifecycle events to NATS so downstream
// consumers (ATS sync, notifications) can react without polling the API.
type NATSEvents struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewNATSEvents wraps an established NATS connection. A nil connection yields
// a publisher whose calls are no-ops, which keeps the wiring unconditional.
func NewNATSEvents(conn *nats.Conn, logger zerolog.Logger) *NATSEvents {
	return &NATSEvents{
		conn:   conn,
		logger: logger.With().Str("component", "lifecycle_events").Logger(),
	}
}

// SessionCompleted publishes the terminal session to the subject matching how
// it ended. Publishing is best effort; a broker outage never blocks scoring.
func (e *NATSEvents) SessionCompleted(ctx context.Context, session *models.Session) {
	if e.conn == nil || session.Result == nil {
		return
	}

	subject := subjectSessionSubmitted
	if session.State == models.StateTerminated {
		subject = subjectSessionTerminated
	}

	payload, err := json.Marshal(sessionCompletedEvent{
		SessionID:      session.ID,
		CandidateID:    session.CandidateID,
		Domain:         session.Domain,
		State:          string(session.State),
		TotalScore:     session.Result.TotalScore,
		ViolationCount: session.Result.ViolationCount,
		CompletedAt:    session.Result.CompletedAt,
	})
	if err != nil {
		return
	}

	if err := e.conn.Publish(subject, payload); err != nil {
		e.logger.Warn().Err(err).Str("subject", subject).Msg("lifecycle publish failed")
		return
	}
	e.logger.Debug().Str("subject", subject).Str("session_id", session.ID).Msg("lifecycle event published")
}
