package dto

import "time"

// AttentionEventRequest reports one gaze classification frame. The classifier
// runs client-side; the server only consumes the boolean outcome.
type AttentionEventRequest struct {
	Looking       bool       `json:"looking"`
	QuestionIndex int        `json:"question_index" validate:"min=0"`
	ObservedAt    *time.Time `json:"observed_at,omitempty"`
}

// AttentionEventResponse acknowledges an attention event and signals any
// violation or termination it caused so the client can stop collecting answers.
type AttentionEventResponse struct {
	SessionID      string `json:"session_id"`
	ViolationCount int    `json:"violation_count"`
	MaxViolations  int    `json:"max_violations"`
	NewViolation   bool   `json:"new_violation"`
	Terminated     bool   `json:"terminated"`
	State          string `json:"state"`
}
