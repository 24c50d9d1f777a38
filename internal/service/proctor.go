package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/internal/store"
)

// sessionFinisher scores a session the integrity monitor ended early.
type sessionFinisher interface {
	CompleteTerminated(ctx context.Context, sessionID string)
}

// ProctorConfig carries the attention policy tunables.
type ProctorConfig struct {
	// AwayThreshold is how long a continuous looking-away lapse may last
	// before it counts as a violation.
	AwayThreshold time.Duration
	// MaxViolations is the violation count at which the session terminates.
	MaxViolations int
}

// ProctorService tracks candidate attention events and enforces the
// violation policy. The away clock runs on server time between events, so a
// client that stops sending events while away cannot dodge a violation: the
// lapse is measured when the next event of any kind arrives.
type ProctorService struct {
	store    *store.Store
	finisher sessionFinisher
	cfg      ProctorConfig
	logger   zerolog.Logger
}

// NewProctorService constructs the attention monitor.
func NewProctorService(sessionStore *store.Store, finisher sessionFinisher, cfg ProctorConfig, logger zerolog.Logger) *ProctorService {
	if cfg.AwayThreshold <= 0 {
		cfg.AwayThreshold = 5 * time.Second
	}
	if cfg.MaxViolations <= 0 {
		cfg.MaxViolations = 3
	}
	return &ProctorService{
		store:    sessionStore,
		finisher: finisher,
		cfg:      cfg,
		logger:   logger.With().Str("component", "proctor_service").Logger(),
	}
}

// ReportAttention ingests one attention event and applies the violation
// policy. A lapse produces exactly one violation no matter how many events
// arrive while it continues; returning to the screen resets the clock.
// Reaching the violation limit terminates the session and kicks off scoring.
func (s *ProctorService) ReportAttention(ctx context.Context, sessionID string, event dto.AttentionEventRequest) (dto.AttentionEventResponse, error) {
	now := time.Now().UTC()
	if event.ObservedAt != nil && event.ObservedAt.Before(now) {
		now = event.ObservedAt.UTC()
	}

	newViolation := false
	terminated := false

	clone, err := s.store.Mutate(sessionID, func(sess *models.Session) error {
		if sess.State.Terminal() {
			return nil
		}

		// Evaluate the running lapse first, regardless of the event's
		// direction. A "looking" event that arrives after a long lapse still
		// carries the violation for the time already spent away.
		if sess.AwaySince != nil && !sess.AwayCounted && now.Sub(*sess.AwaySince) > s.cfg.AwayThreshold {
			sess.Violations = append(sess.Violations, models.Violation{
				QuestionIndex: event.QuestionIndex,
				OccurredAt:    now,
			})
			sess.AwayCounted = true
			newViolation = true
		}

		if event.Looking {
			sess.AwaySince = nil
			sess.AwayCounted = false
		} else if sess.AwaySince == nil {
			t := now
			sess.AwaySince = &t
		}

		if len(sess.Violations) >= s.cfg.MaxViolations && !sess.State.Terminal() {
			sess.State = models.StateTerminated
			t := now
			sess.SubmittedAt = &t
			terminated = true
		}
		return nil
	})
	if err != nil {
		return dto.AttentionEventResponse{}, err
	}

	if newViolation {
		s.logger.Warn().
			Str("session_id", sessionID).
			Int("violations", len(clone.Violations)).
			Int("question_index", event.QuestionIndex).
			Msg("attention violation recorded")
	}

	if terminated {
		s.logger.Warn().Str("session_id", sessionID).Msg("violation limit reached, terminating session")
		// Scoring runs off the request path; the terminated response should
		// not wait on grading providers.
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			defer cancel()
			s.finisher.CompleteTerminated(ctx, sessionID)
		}()
	}

	return dto.AttentionEventResponse{
		SessionID:      clone.ID,
		ViolationCount: len(clone.Violations),
		MaxViolations:  s.cfg.MaxViolations,
		NewViolation:   newViolation,
		Terminated:     terminated,
		State:          string(clone.State),
	}, nil
}
