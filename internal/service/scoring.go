package service

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

const (
	// minScore is the deterministic score for unanswered questions.
	minScore = 0.0
	// unansweredFeedback marks blank answers explicitly instead of skipping them.
	unansweredFeedback = "Unanswered. No response was recorded for this question."
	// flaggedFeedbackSuffix annotates questions with attention violations.
	flaggedFeedbackSuffix = " Note: an attention violation was recorded while this question was active."
)

// ScoringPipeline grades every answer of a finished session and aggregates
// the per-question scores into a result. Individual questions are graded
// concurrently; the aggregate is only assembled after all of them complete.
type ScoringPipeline struct {
	graders []GradingProvider
	timeout time.Duration
	logger  zerolog.Logger
	tracer  trace.Tracer
}

// NewScoringPipeline constructs a scoring pipeline over the ordered grader list.
func NewScoringPipeline(graders []GradingProvider, timeout time.Duration, logger zerolog.Logger) *ScoringPipeline {
	return &ScoringPipeline{
		graders: graders,
		timeout: timeout,
		logger:  logger.With().Str("component", "scoring_pipeline").Logger(),
		tracer:  otel.Tracer("github.com/vocalis-dev/vocalis-api/internal/service/scoring"),
	}
}

// Score grades the session's answers and returns the aggregate result. It
// never fails: grading falls back to the pure heuristic scorer when every
// provider is down, and empty answers are scored deterministically without a
// provider call.
func (p *ScoringPipeline) Score(parent context.Context, session *models.Session) *models.InterviewResult {
	ctx, span := p.tracer.Start(parent, "scoring.score_session", trace.WithAttributes(
		attribute.String("session_id", session.ID),
		attribute.Int("questions", len(session.Questions)),
	))
	defer span.End()

	flagged := session.FlaggedQuestions()
	responses := make([]models.QuestionScore, len(session.Questions))

	g, gradeCtx := errgroup.WithContext(ctx)
	for i := range session.Questions {
		i := i
		g.Go(func() error {
			responses[i] = p.scoreOne(gradeCtx, session, i, flagged[i])
			return nil
		})
	}
	// Grading goroutines never return errors; Wait is purely a barrier so the
	// aggregate is not published before every question is scored.
	_ = g.Wait()

	total := 0.0
	unanswered := 0
	for _, r := range responses {
		total += r.Score
		if r.Unanswered {
			unanswered++
		}
	}

	totalScore := 0.0
	if len(responses) > 0 {
		totalScore = round2(total / float64(len(responses)))
	}

	return &models.InterviewResult{
		SessionID:       session.ID,
		Domain:          session.Domain,
		TotalScore:      totalScore,
		Responses:       responses,
		UnansweredCount: unanswered,
		ViolationCount:  len(session.Violations),
		Terminated:      session.State == models.StateTerminated,
		CompletedAt:     time.Now().UTC(),
		DurationMinutes: session.DurationMinutes,
	}
}

func (p *ScoringPipeline) scoreOne(ctx context.Context, session *models.Session, index int, flagged bool) models.QuestionScore {
	question := session.Questions[index]
	answer := ""
	if index < len(session.Answers) {
		answer = strings.TrimSpace(session.Answers[index])
	}

	score := models.QuestionScore{
		QuestionIndex: index,
		Question:      question,
		Answer:        answer,
		Flagged:       flagged,
	}

	if answer == "" {
		score.Score = minScore
		score.Feedback = unansweredFeedback
		score.Unanswered = true
		score.Improvements = []string{"Provide at least a brief attempt"}
		if flagged {
			score.Feedback += flaggedFeedbackSuffix
		}
		return score
	}

	input := ai.GradeInput{Question: question, Answer: answer, Domain: session.Domain}

	steps := make([]ai.Step[ai.Grade], 0, len(p.graders))
	for _, grader := range p.graders {
		grader := grader
		steps = append(steps, ai.Step[ai.Grade]{
			Provider: grader.Name,
			Call: func(ctx context.Context) (ai.Grade, error) {
				return grader.Grader.GradeAnswer(ctx, input)
			},
		})
	}

	chain := ai.NewChain("answer_grading", steps,
		func() ai.Grade { return ai.HeuristicGrade(input) },
		p.logger,
		ai.WithAttemptTimeout[ai.Grade](p.timeout),
	)
	result := chain.Invoke(ctx)

	score.Score = round2(result.Value.Score)
	score.Feedback = result.Value.Feedback
	score.Strengths = result.Value.Strengths
	score.Improvements = result.Value.Improvements
	score.Provider = result.Meta.Provider
	score.FallbackScore = result.Meta.Fallback
	if flagged {
		score.Feedback += flaggedFeedbackSuffix
	}

	return score
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
