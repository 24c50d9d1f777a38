package dto

import (
	"time"

	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

// RegisterCandidateRequest is the payload for candidate registration.
type RegisterCandidateRequest struct {
	Name   string `json:"name" validate:"required,min=1,max=120"`
	Email  string `json:"email" validate:"omitempty,email"`
	Domain string `json:"domain" validate:"required,min=2,max=64"`
}

// RegisterCandidateResponse returns the minted candidate id.
type RegisterCandidateResponse struct {
	CandidateID string `json:"candidate_id"`
	Name        string `json:"name"`
	Domain      string `json:"domain"`
}

// CreateInterviewRequest asks for a new interview session.
type CreateInterviewRequest struct {
	CandidateID     string `json:"candidate_id" validate:"required"`
	Domain          string `json:"domain" validate:"required,min=2,max=64"`
	NumQuestions    int    `json:"num_questions" validate:"omitempty,min=1,max=50"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=0,max=240"`
}

// CreateInterviewResponse returns the prepared session.
type CreateInterviewResponse struct {
	SessionID       string   `json:"session_id"`
	Domain          string   `json:"domain"`
	Questions       []string `json:"questions"`
	TotalQuestions  int      `json:"total_questions"`
	DurationMinutes int      `json:"duration_minutes"`
	QuestionMeta    ai.Meta  `json:"question_meta"`
}

// StartInterviewResponse acknowledges the timer start.
type StartInterviewResponse struct {
	SessionID        string `json:"session_id"`
	State            string `json:"state"`
	RemainingSeconds int    `json:"remaining_seconds"`
}

// SessionSnapshot is the reload-safe view of a running session. The remaining
// seconds are derived from recorded wall-clock time, so a refreshed client
// resumes with a consistent countdown.
type SessionSnapshot struct {
	SessionID        string     `json:"session_id"`
	CandidateID      string     `json:"candidate_id"`
	Domain           string     `json:"domain"`
	State            string     `json:"state"`
	Questions        []string   `json:"questions"`
	Answers          []string   `json:"answers"`
	DurationMinutes  int        `json:"duration_minutes"`
	RemainingSeconds int        `json:"remaining_seconds"`
	ViolationCount   int        `json:"violation_count"`
	StartedAt        *time.Time `json:"started_at,omitempty"`
}

// RecordAnswerRequest records the answer for a single question.
type RecordAnswerRequest struct {
	Answer string `json:"answer"`
}

// RecordAnswerResponse acknowledges a recorded answer.
type RecordAnswerResponse struct {
	SessionID     string `json:"session_id"`
	QuestionIndex int    `json:"question_index"`
	State         string `json:"state"`
}

// SubmitAnswersRequest carries the full answer set for final scoring.
type SubmitAnswersRequest struct {
	Answers []string `json:"answers" validate:"required"`
}

// ResultResponse wraps the computed interview result.
type ResultResponse struct {
	Result          *models.InterviewResult `json:"result"`
	AlreadyComplete bool                    `json:"already_complete"`
}

// PreambleResponse returns a conversational lead-in for a question.
type PreambleResponse struct {
	Preamble string  `json:"preamble"`
	Meta     ai.Meta `json:"meta"`
}

// SessionSummary is the admin-facing view of one session.
type SessionSummary struct {
	SessionID       string     `json:"session_id"`
	CandidateID     string     `json:"candidate_id"`
	Domain          string     `json:"domain"`
	State           string     `json:"state"`
	TotalQuestions  int        `json:"total_questions"`
	ViolationCount  int        `json:"violation_count"`
	TotalScore      *float64   `json:"total_score,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`
	DurationMinutes int        `json:"duration_minutes"`
}
