package models

import (
	"time"

	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

// SessionState is the lifecycle state of one interview session.
type SessionState string

const (
	// StateCreated means the session id is minted but questions are not ready.
	StateCreated SessionState = "created"
	// StateReady means questions are generated and the timer has not started.
	StateReady SessionState = "ready"
	// StateInProgress means the timer is running and answers are being collected.
	StateInProgress SessionState = "in_progress"
	// StateSubmitted is terminal: answers are locked and the result computed.
	StateSubmitted SessionState = "submitted"
	// StateTerminated is terminal: the integrity monitor ended the session early.
	StateTerminated SessionState = "terminated"
)

// Terminal reports whether the state admits no further transitions.
func (s SessionState) Terminal() bool {
	return s == StateSubmitted || s == StateTerminated
}

// Candidate is a registered interviewee.
type Candidate struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email,omitempty"`
	Domain    string    `json:"domain"`
	CreatedAt time.Time `json:"created_at"`
}

// Violation records one integrity breach and the question active at the time.
type Violation struct {
	QuestionIndex int       `json:"question_index"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// QuestionScore is the graded outcome for a single question.
type QuestionScore struct {
	QuestionIndex int      `json:"question_index"`
	Question      string   `json:"question"`
	Answer        string   `json:"answer"`
	Score         float64  `json:"score"`
	Feedback      string   `json:"feedback"`
	Strengths     []string `json:"strengths,omitempty"`
	Improvements  []string `json:"improvements,omitempty"`
	Unanswered    bool     `json:"unanswered"`
	Flagged       bool     `json:"flagged"`
	Provider      string   `json:"provider,omitempty"`
	FallbackScore bool     `json:"fallback_score,omitempty"`
}

// InterviewResult aggregates the per-question scores of one session.
type InterviewResult struct {
	SessionID       string          `json:"session_id"`
	Domain          string          `json:"domain"`
	TotalScore      float64         `json:"total_score"`
	Responses       []QuestionScore `json:"responses"`
	UnansweredCount int             `json:"unanswered_count"`
	ViolationCount  int             `json:"violation_count"`
	Terminated      bool            `json:"terminated"`
	CompletedAt     time.Time       `json:"completed_at"`
	DurationMinutes int             `json:"duration_minutes,omitempty"`
}

// Session is one candidate's interview attempt. The session store owns every
// Session value; other components only see copies.
type Session struct {
	ID          string       `json:"id"`
	CandidateID string       `json:"candidate_id"`
	Domain      string       `json:"domain"`
	Questions   []string     `json:"questions"`
	// Answers is index-aligned with Questions; unanswered slots hold "".
	Answers []string `json:"answers"`
	State   SessionState `json:"state"`

	QuestionMeta ai.Meta `json:"question_meta"`

	DurationMinutes int        `json:"duration_minutes"`
	CreatedAt       time.Time  `json:"created_at"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	SubmittedAt     *time.Time `json:"submitted_at,omitempty"`

	// Attention tracking. AwaySince is set while the candidate is classified
	// as looking away and cleared on return. AwayCounted latches after a
	// violation so one continuous lapse cannot be counted twice.
	AwaySince   *time.Time  `json:"-"`
	AwayCounted bool        `json:"-"`
	Violations  []Violation `json:"violations,omitempty"`

	Result *InterviewResult `json:"result,omitempty"`
}

// Timed reports whether the session runs against a countdown.
func (s *Session) Timed() bool {
	return s.DurationMinutes > 0
}

// Deadline returns the wall-clock moment the countdown expires. The second
// return value is false for untimed or not-yet-started sessions.
func (s *Session) Deadline() (time.Time, bool) {
	if !s.Timed() || s.StartedAt == nil {
		return time.Time{}, false
	}
	return s.StartedAt.Add(time.Duration(s.DurationMinutes) * time.Minute), true
}

// RemainingSeconds derives the countdown from elapsed wall-clock time rather
// than an in-memory counter, so a page reload neither grants nor loses time.
// Untimed sessions report -1. Sessions not yet started report the full
// allotment.
func (s *Session) RemainingSeconds(now time.Time) int {
	if !s.Timed() {
		return -1
	}
	if s.StartedAt == nil {
		return s.DurationMinutes * 60
	}

	deadline, _ := s.Deadline()
	remaining := int(deadline.Sub(now).Round(time.Second) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return remaining
}

// FlaggedQuestions returns the set of question indexes with at least one
// violation attributed to them.
func (s *Session) FlaggedQuestions() map[int]bool {
	if len(s.Violations) == 0 {
		return nil
	}
	flagged := make(map[int]bool, len(s.Violations))
	for _, v := range s.Violations {
		if v.QuestionIndex >= 0 {
			flagged[v.QuestionIndex] = true
		}
	}
	return flagged
}

// Clone returns a deep copy safe to hand outside the store's lock.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Questions = append([]string(nil), s.Questions...)
	cp.Answers = append([]string(nil), s.Answers...)
	cp.Violations = append([]Violation(nil), s.Violations...)
	if s.StartedAt != nil {
		t := *s.StartedAt
		cp.StartedAt = &t
	}
	if s.SubmittedAt != nil {
		t := *s.SubmittedAt
		cp.SubmittedAt = &t
	}
	if s.AwaySince != nil {
		t := *s.AwaySince
		cp.AwaySince = &t
	}
	if s.Result != nil {
		r := *s.Result
		r.Responses = append([]QuestionScore(nil), s.Result.Responses...)
		cp.Result = &r
	}
	return &cp
}
