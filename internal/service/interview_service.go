package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/internal/store"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

var (
	// ErrResultNotReady indicates the session has not finished scoring yet.
	ErrResultNotReady = errors.New("result not ready")
	// ErrAnswerCountMismatch indicates the answer list does not align with the questions.
	ErrAnswerCountMismatch = errors.New("answers array must match questions length")
	// ErrInvalidQuestionIndex indicates a per-question operation addressed a
	// question outside the session.
	ErrInvalidQuestionIndex = errors.New("question index out of range")
	// ErrSessionNotStartable indicates a start attempt on a session whose
	// questions are not ready yet.
	ErrSessionNotStartable = errors.New("session has no questions yet")
)

// ResultDelivery delivers a finished interview result to the candidate.
type ResultDelivery interface {
	Deliver(ctx context.Context, candidate models.Candidate, result models.InterviewResult) error
}

// SessionArchiver persists terminal sessions to durable storage.
type SessionArchiver interface {
	Archive(ctx context.Context, session *models.Session) error
}

// LifecycleEvents publishes session lifecycle notifications.
type LifecycleEvents interface {
	SessionCompleted(ctx context.Context, session *models.Session)
}

// InterviewConfig carries the tunables of the interview workflow.
type InterviewConfig struct {
	DefaultQuestionCount int
	MaxQuestionCount     int
	ProviderTimeout      time.Duration
}

// InterviewService drives the interview session lifecycle: candidate
// registration, question generation, the countdown, answer collection,
// submission, and result retrieval.
type InterviewService struct {
	store     *store.Store
	providers Providers
	scoring   *ScoringPipeline
	timers    *autoSubmitController
	validator *validator.Validate
	sanitizer *bluemonday.Policy
	archiver  SessionArchiver
	events    LifecycleEvents
	delivery  ResultDelivery
	cfg       InterviewConfig
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewInterviewService constructs the interview workflow service. archiver,
// events, and delivery may be nil; the corresponding side effects are skipped.
func NewInterviewService(sessionStore *store.Store, providers Providers, scoring *ScoringPipeline, validate *validator.Validate, archiver SessionArchiver, events LifecycleEvents, delivery ResultDelivery, cfg InterviewConfig, logger zerolog.Logger) *InterviewService {
	if cfg.DefaultQuestionCount <= 0 {
		cfg.DefaultQuestionCount = 3
	}
	if cfg.MaxQuestionCount <= 0 {
		cfg.MaxQuestionCount = 10
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 20 * time.Second
	}

	return &InterviewService{
		store:     sessionStore,
		providers: providers,
		scoring:   scoring,
		timers:    newAutoSubmitController(logger),
		validator: validate,
		sanitizer: bluemonday.StrictPolicy(),
		archiver:  archiver,
		events:    events,
		delivery:  delivery,
		cfg:       cfg,
		logger:    logger.With().Str("component", "interview_service").Logger(),
		tracer:    otel.Tracer("github.com/vocalis-dev/vocalis-api/internal/service/interview"),
	}
}

// RegisterCandidate mints a candidate id for the given registration.
func (s *InterviewService) RegisterCandidate(ctx context.Context, req dto.RegisterCandidateRequest) (dto.RegisterCandidateResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.RegisterCandidateResponse{}, err
	}

	candidate := models.Candidate{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.ToLower(strings.TrimSpace(req.Email)),
		Domain:    normalizeDomain(req.Domain),
		CreatedAt: time.Now().UTC(),
	}
	s.store.AddCandidate(candidate)

	s.logger.Info().Str("candidate_id", candidate.ID).Str("domain", candidate.Domain).Msg("candidate registered")

	return dto.RegisterCandidateResponse{
		CandidateID: candidate.ID,
		Name:        candidate.Name,
		Domain:      candidate.Domain,
	}, nil
}

// CreateInterview generates questions for the candidate and creates the
// session. The session is created first, then transitions to ready once the
// question chain has produced its (never empty) question list.
func (s *InterviewService) CreateInterview(parent context.Context, req dto.CreateInterviewRequest) (dto.CreateInterviewResponse, error) {
	ctx, span := s.tracer.Start(parent, "interview.create", trace.WithAttributes(
		attribute.String("domain", req.Domain),
		attribute.Int("num_questions", req.NumQuestions),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validation failed")
		return dto.CreateInterviewResponse{}, err
	}

	candidate, err := s.store.Candidate(req.CandidateID)
	if err != nil {
		span.SetStatus(codes.Error, "candidate not found")
		return dto.CreateInterviewResponse{}, err
	}

	domain := normalizeDomain(req.Domain)
	count := req.NumQuestions
	if count <= 0 {
		count = s.cfg.DefaultQuestionCount
	}
	if count > s.cfg.MaxQuestionCount {
		count = s.cfg.MaxQuestionCount
	}

	duration := req.DurationMinutes
	if duration < 0 {
		duration = 0
	}

	session := &models.Session{
		ID:              uuid.NewString(),
		CandidateID:     candidate.ID,
		Domain:          domain,
		State:           models.StateCreated,
		DurationMinutes: duration,
		CreatedAt:       time.Now().UTC(),
	}
	s.store.CreateSession(session)
	span.SetAttributes(attribute.String("session_id", session.ID))

	result := s.generateQuestions(ctx, domain, count)
	questions := cycleToCount(result.Value, count)

	clone, err := s.store.Mutate(session.ID, func(sess *models.Session) error {
		sess.Questions = questions
		sess.Answers = make([]string, len(questions))
		sess.QuestionMeta = result.Meta
		sess.State = models.StateReady
		return nil
	})
	if err != nil {
		span.RecordError(err)
		return dto.CreateInterviewResponse{}, err
	}

	s.logger.Info().
		Str("session_id", clone.ID).
		Str("domain", domain).
		Int("questions", len(questions)).
		Str("provider", result.Meta.Provider).
		Bool("fallback", result.Meta.Fallback).
		Msg("interview session created")

	return dto.CreateInterviewResponse{
		SessionID:       clone.ID,
		Domain:          clone.Domain,
		Questions:       clone.Questions,
		TotalQuestions:  len(clone.Questions),
		DurationMinutes: clone.DurationMinutes,
		QuestionMeta:    clone.QuestionMeta,
	}, nil
}

// Start transitions the session into the in-progress state and arms the
// auto-submit timer. Starting an already running session is a no-op that
// reports the live countdown, which is what a reloaded client needs.
func (s *InterviewService) Start(ctx context.Context, sessionID string) (dto.StartInterviewResponse, error) {
	clone, err := s.store.Mutate(sessionID, func(sess *models.Session) error {
		switch sess.State {
		case models.StateCreated:
			return ErrSessionNotStartable
		case models.StateReady:
			now := time.Now().UTC()
			sess.StartedAt = &now
			sess.State = models.StateInProgress
		}
		// InProgress and terminal states pass through unchanged.
		return nil
	})
	if err != nil {
		return dto.StartInterviewResponse{}, err
	}

	s.armAutoSubmit(clone)

	return dto.StartInterviewResponse{
		SessionID:        clone.ID,
		State:            string(clone.State),
		RemainingSeconds: clone.RemainingSeconds(time.Now()),
	}, nil
}

// Snapshot returns the reload-safe view of the session.
func (s *InterviewService) Snapshot(ctx context.Context, sessionID string) (dto.SessionSnapshot, error) {
	session, err := s.store.Session(sessionID)
	if err != nil {
		return dto.SessionSnapshot{}, err
	}

	return dto.SessionSnapshot{
		SessionID:        session.ID,
		CandidateID:      session.CandidateID,
		Domain:           session.Domain,
		State:            string(session.State),
		Questions:        session.Questions,
		Answers:          session.Answers,
		DurationMinutes:  session.DurationMinutes,
		RemainingSeconds: session.RemainingSeconds(time.Now()),
		ViolationCount:   len(session.Violations),
		StartedAt:        session.StartedAt,
	}, nil
}

// RecordAnswer stores one answer while the session runs. Recording against a
// ready session counts as the first client interaction and starts the timer.
// Terminal sessions absorb the write as a no-op so client retries stay cheap.
func (s *InterviewService) RecordAnswer(ctx context.Context, sessionID string, index int, answer string) (dto.RecordAnswerResponse, error) {
	sanitized := s.sanitize(answer)

	clone, err := s.store.Mutate(sessionID, func(sess *models.Session) error {
		if index < 0 || index >= len(sess.Questions) {
			return ErrInvalidQuestionIndex
		}
		if sess.State.Terminal() {
			return nil
		}
		if sess.State == models.StateReady {
			now := time.Now().UTC()
			sess.StartedAt = &now
			sess.State = models.StateInProgress
		}
		sess.Answers[index] = sanitized
		return nil
	})
	if err != nil {
		return dto.RecordAnswerResponse{}, err
	}

	s.armAutoSubmit(clone)

	return dto.RecordAnswerResponse{
		SessionID:     clone.ID,
		QuestionIndex: index,
		State:         string(clone.State),
	}, nil
}

// Submit finalises the session with the full answer set and returns the
// scored result. Exactly one submission wins the transition; concurrent and
// repeated submissions wait for, and return, the winner's result.
func (s *InterviewService) Submit(parent context.Context, sessionID string, answers []string) (dto.ResultResponse, error) {
	ctx, span := s.tracer.Start(parent, "interview.submit", trace.WithAttributes(
		attribute.String("session_id", sessionID),
	))
	defer span.End()

	sanitized := make([]string, len(answers))
	for i, answer := range answers {
		sanitized[i] = s.sanitize(answer)
	}

	won := false
	clone, err := s.store.Mutate(sessionID, func(sess *models.Session) error {
		if sess.State.Terminal() {
			return nil
		}
		if len(sanitized) != len(sess.Questions) {
			return ErrAnswerCountMismatch
		}
		now := time.Now().UTC()
		if sess.StartedAt == nil {
			sess.StartedAt = &now
		}
		copy(sess.Answers, sanitized)
		sess.State = models.StateSubmitted
		sess.SubmittedAt = &now
		won = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return dto.ResultResponse{}, err
	}

	if !won {
		// A previous submission, the timer, or the integrity monitor got
		// there first. Wait for that result instead of rescoring.
		session, err := s.store.AwaitResult(ctx, sessionID)
		if err != nil {
			return dto.ResultResponse{}, err
		}
		span.SetAttributes(attribute.Bool("already_complete", true))
		return dto.ResultResponse{Result: session.Result, AlreadyComplete: true}, nil
	}

	s.timers.cancel(sessionID)
	result := s.completeSession(ctx, clone)
	return dto.ResultResponse{Result: result}, nil
}

// Result returns the computed result. While scoring is still in flight for a
// terminal session it waits; for a session that is not finished it fails
// with ErrResultNotReady.
func (s *InterviewService) Result(ctx context.Context, sessionID string) (dto.ResultResponse, error) {
	session, err := s.store.Session(sessionID)
	if err != nil {
		return dto.ResultResponse{}, err
	}

	if session.Result != nil {
		return dto.ResultResponse{Result: session.Result, AlreadyComplete: true}, nil
	}
	if !session.State.Terminal() {
		return dto.ResultResponse{}, ErrResultNotReady
	}

	session, err = s.store.AwaitResult(ctx, sessionID)
	if err != nil {
		return dto.ResultResponse{}, err
	}
	return dto.ResultResponse{Result: session.Result, AlreadyComplete: true}, nil
}

// Preamble produces a short spoken lead-in for the given question index.
func (s *InterviewService) Preamble(parent context.Context, sessionID string, index int) (dto.PreambleResponse, error) {
	ctx, span := s.tracer.Start(parent, "interview.preamble")
	defer span.End()

	session, err := s.store.Session(sessionID)
	if err != nil {
		return dto.PreambleResponse{}, err
	}
	if index < 0 || index >= len(session.Questions) {
		return dto.PreambleResponse{}, ErrInvalidQuestionIndex
	}

	name := ""
	if candidate, err := s.store.Candidate(session.CandidateID); err == nil {
		name = candidate.Name
	}

	input := ai.PreambleInput{
		CandidateName:  name,
		Domain:         session.Domain,
		QuestionIndex:  index,
		TotalQuestions: len(session.Questions),
	}

	steps := make([]ai.Step[string], 0, len(s.providers.Preambles))
	for _, provider := range s.providers.Preambles {
		provider := provider
		steps = append(steps, ai.Step[string]{
			Provider: provider.Name,
			Call: func(ctx context.Context) (string, error) {
				return provider.Generator.GeneratePreamble(ctx, input)
			},
		})
	}

	chain := ai.NewChain("preamble", steps,
		func() string { return ai.TemplatePreamble(input) },
		s.logger,
		ai.WithAttemptTimeout[string](s.cfg.ProviderTimeout),
		ai.WithValidate[string](nonEmptyString),
	)
	result := chain.Invoke(ctx)

	return dto.PreambleResponse{Preamble: result.Value, Meta: result.Meta}, nil
}

// CompleteTerminated scores a session that the integrity monitor terminated.
// Whatever answers exist are graded; unanswered questions score the minimum.
func (s *InterviewService) CompleteTerminated(ctx context.Context, sessionID string) {
	s.timers.cancel(sessionID)

	session, err := s.store.Session(sessionID)
	if err != nil {
		s.logger.Warn().Err(err).Str("session_id", sessionID).Msg("terminated session vanished before scoring")
		return
	}
	if session.State != models.StateTerminated || session.Result != nil {
		return
	}

	s.completeSession(ctx, session)
}

// ListSessions returns admin summaries of every session, newest first.
func (s *InterviewService) ListSessions(ctx context.Context) []dto.SessionSummary {
	return summarize(s.store.List())
}

// ListCandidateSessions returns admin summaries of one candidate's sessions.
func (s *InterviewService) ListCandidateSessions(ctx context.Context, candidateID string) ([]dto.SessionSummary, error) {
	if _, err := s.store.Candidate(candidateID); err != nil {
		return nil, err
	}
	return summarize(s.store.ListByCandidate(candidateID)), nil
}

// ProviderHealth reports which provider keys are configured, without exposing
// secrets.
func (s *InterviewService) ProviderHealth() map[string]bool {
	health := make(map[string]bool, len(s.providers.ConfiguredKeys))
	for name, ok := range s.providers.ConfiguredKeys {
		health[name] = ok
	}
	return health
}

// autoSubmit fires when the countdown crosses zero. It shares the submission
// guard with Submit via the store transition, so at most one of them scores.
func (s *InterviewService) autoSubmit(sessionID string) {
	won := false
	clone, err := s.store.Mutate(sessionID, func(sess *models.Session) error {
		if sess.State != models.StateInProgress {
			return nil
		}
		now := time.Now().UTC()
		sess.State = models.StateSubmitted
		sess.SubmittedAt = &now
		won = true
		return nil
	})
	if err != nil || !won {
		return
	}

	s.logger.Info().Str("session_id", sessionID).Msg("countdown expired, auto-submitting")

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	s.completeSession(ctx, clone)
}

// completeSession runs the scoring pipeline for a session that just reached a
// terminal state, publishes the result, and fires the completion side effects.
func (s *InterviewService) completeSession(ctx context.Context, session *models.Session) *models.InterviewResult {
	result := s.scoring.Score(ctx, session)

	published, err := s.store.PublishResult(session.ID, result)
	if err != nil {
		s.logger.Error().Err(err).Str("session_id", session.ID).Msg("failed to publish result")
		return result
	}

	s.logger.Info().
		Str("session_id", session.ID).
		Float64("total_score", published.Result.TotalScore).
		Int("unanswered", published.Result.UnansweredCount).
		Bool("terminated", published.Result.Terminated).
		Msg("interview completed")

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, published); err != nil {
			s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("session archive failed")
		}
	}
	if s.events != nil {
		s.events.SessionCompleted(ctx, published)
	}
	if s.delivery != nil {
		if candidate, err := s.store.Candidate(published.CandidateID); err == nil {
			if err := s.delivery.Deliver(ctx, candidate, *published.Result); err != nil {
				s.logger.Warn().Err(err).Str("session_id", session.ID).Msg("result delivery failed")
			}
		}
	}

	return published.Result
}

func (s *InterviewService) armAutoSubmit(session *models.Session) {
	if session.State != models.StateInProgress {
		return
	}
	deadline, ok := session.Deadline()
	if !ok {
		return
	}
	id := session.ID
	s.timers.schedule(id, time.Until(deadline), func() { s.autoSubmit(id) })
}

func (s *InterviewService) generateQuestions(ctx context.Context, domain string, count int) ai.Result[[]string] {
	input := ai.QuestionInput{Domain: domain, Count: count}

	steps := make([]ai.Step[[]string], 0, len(s.providers.Questions))
	for _, provider := range s.providers.Questions {
		provider := provider
		steps = append(steps, ai.Step[[]string]{
			Provider: provider.Name,
			Call: func(ctx context.Context) ([]string, error) {
				return provider.Generator.GenerateQuestions(ctx, input)
			},
		})
	}

	chain := ai.NewChain("question_generation", steps,
		func() []string { return ai.BuiltinQuestions(domain, count) },
		s.logger,
		ai.WithAttemptTimeout[[]string](s.cfg.ProviderTimeout),
		ai.WithValidate[[]string](func(questions []string) error {
			if len(questions) == 0 {
				return fmt.Errorf("provider returned zero questions")
			}
			return nil
		}),
	)
	return chain.Invoke(ctx)
}

func (s *InterviewService) sanitize(answer string) string {
	return strings.TrimSpace(s.sanitizer.Sanitize(answer))
}

// cycleToCount pads or trims questions to exactly count entries, repeating
// the pool cyclically when it is too small.
func cycleToCount(questions []string, count int) []string {
	if count <= 0 || len(questions) == 0 {
		return questions
	}
	out := make([]string, count)
	for i := 0; i < count; i++ {
		out[i] = questions[i%len(questions)]
	}
	return out
}

func summarize(sessions []*models.Session) []dto.SessionSummary {
	summaries := make([]dto.SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summary := dto.SessionSummary{
			SessionID:       session.ID,
			CandidateID:     session.CandidateID,
			Domain:          session.Domain,
			State:           string(session.State),
			TotalQuestions:  len(session.Questions),
			ViolationCount:  len(session.Violations),
			CreatedAt:       session.CreatedAt,
			SubmittedAt:     session.SubmittedAt,
			DurationMinutes: session.DurationMinutes,
		}
		if session.Result != nil {
			score := session.Result.TotalScore
			summary.TotalScore = &score
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

func normalizeDomain(domain string) string {
	return strings.ToLower(strings.TrimSpace(domain))
}

func nonEmptyString(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("empty response")
	}
	return nil
}
