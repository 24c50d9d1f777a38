package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/models"
)

// LogResultDelivery records the delivery instead of sending it anywhere. It
// stands in for a mail or webhook integration in environments without one.
type LogResultDelivery struct {
	logger zerolog.Logger
}

// NewLogResultDelivery constructs the logging delivery sink.
func NewLogResultDelivery(logger zerolog.Logger) *LogResultDelivery {
	return &LogResultDelivery{logger: logger.With().Str("component", "result_delivery").Logger()}
}

// Deliver logs the finished result against the candidate's contact address.
func (d *LogResultDelivery) Deliver(ctx context.Context, candidate models.Candidate, result models.InterviewResult) error {
	d.logger.Info().
		Str("session_id", result.SessionID).
		Str("candidate_id", candidate.ID).
		Str("email", candidate.Email).
		Float64("total_score", result.TotalScore).
		Msg("interview result ready for delivery")
	return nil
}
