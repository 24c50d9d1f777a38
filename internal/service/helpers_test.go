package service

import (
	"context"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/models"
	"github.com/vocalis-dev/vocalis-api/internal/store"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

func testLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

type questionStub struct {
	questions []string
	err       error
}

func (q questionStub) GenerateQuestions(ctx context.Context, input ai.QuestionInput) ([]string, error) {
	return q.questions, q.err
}

type graderStub struct {
	grade ai.Grade
	err   error
}

func (g graderStub) GradeAnswer(ctx context.Context, input ai.GradeInput) (ai.Grade, error) {
	return g.grade, g.err
}

type synthStub struct {
	synth ai.Synthesis
	err   error
}

func (s synthStub) Synthesize(ctx context.Context, input ai.SpeechInput) (ai.Synthesis, error) {
	return s.synth, s.err
}

type transcriberStub struct {
	text string
	err  error
}

func (t transcriberStub) Transcribe(ctx context.Context, input ai.TranscriptionInput) (string, error) {
	return t.text, t.err
}

type archiveRecorder struct {
	archived []string
}

func (a *archiveRecorder) Archive(ctx context.Context, session *models.Session) error {
	a.archived = append(a.archived, session.ID)
	return nil
}

func newTestStore() *store.Store {
	return store.New(time.Hour, testLogger())
}
