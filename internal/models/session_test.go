package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRemainingSecondsDerivesFromWallClock(t *testing.T) {
	started := time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC)
	session := &Session{DurationMinutes: 10, StartedAt: &started}

	require.Equal(t, 600, session.RemainingSeconds(started))
	require.Equal(t, 540, session.RemainingSeconds(started.Add(time.Minute)))

	// Reading twice at the same instant yields the same value; there is no
	// counter to drift on reload.
	require.Equal(t,
		session.RemainingSeconds(started.Add(3*time.Minute)),
		session.RemainingSeconds(started.Add(3*time.Minute)))

	require.Equal(t, 0, session.RemainingSeconds(started.Add(11*time.Minute)))
}

func TestRemainingSecondsUntimedAndUnstarted(t *testing.T) {
	untimed := &Session{DurationMinutes: 0}
	require.Equal(t, -1, untimed.RemainingSeconds(time.Now()))

	unstarted := &Session{DurationMinutes: 5}
	require.Equal(t, 300, unstarted.RemainingSeconds(time.Now()))

	_, ok := unstarted.Deadline()
	require.False(t, ok)
}

func TestTerminalStates(t *testing.T) {
	require.True(t, StateSubmitted.Terminal())
	require.True(t, StateTerminated.Terminal())
	require.False(t, StateCreated.Terminal())
	require.False(t, StateReady.Terminal())
	require.False(t, StateInProgress.Terminal())
}

func TestFlaggedQuestions(t *testing.T) {
	session := &Session{Violations: []Violation{
		{QuestionIndex: 1},
		{QuestionIndex: 1},
		{QuestionIndex: -1},
	}}
	require.Equal(t, map[int]bool{1: true}, session.FlaggedQuestions())

	require.Nil(t, (&Session{}).FlaggedQuestions())
}

func TestCloneIsDeep(t *testing.T) {
	started := time.Now().UTC()
	session := &Session{
		ID:        "sess",
		Questions: []string{"q1"},
		Answers:   []string{"a1"},
		StartedAt: &started,
		Result:    &InterviewResult{Responses: []QuestionScore{{Score: 5}}},
	}

	clone := session.Clone()
	clone.Answers[0] = "tampered"
	clone.Result.Responses[0].Score = 1

	require.Equal(t, "a1", session.Answers[0])
	require.Equal(t, 5.0, session.Result.Responses[0].Score)
}
