package ai

import "context"

// QuestionInput describes a request for interview questions in a given domain.
type QuestionInput struct {
	Domain   string
	Count    int
	Previous []string
}

// GradeInput carries one answered question to a grader.
type GradeInput struct {
	Question string
	Answer   string
	Domain   string
}

// Grade is the structured verdict a grader returns for a single answer.
type Grade struct {
	Score        float64  `json:"score"`
	Feedback     string   `json:"feedback"`
	Strengths    []string `json:"strengths,omitempty"`
	Improvements []string `json:"improvements,omitempty"`
}

// SpeechInput describes a text-to-speech request.
type SpeechInput struct {
	Text   string
	Voice  string
	Format string
}

// Synthesis is the audio produced for a SpeechInput.
type Synthesis struct {
	Audio    []byte
	MimeType string
}

// TranscriptionInput carries recorded audio to a transcriber.
type TranscriptionInput struct {
	Audio    []byte
	MimeType string
}

// PreambleInput describes the conversational lead-in requested before a question.
type PreambleInput struct {
	CandidateName  string
	Domain         string
	QuestionIndex  int
	TotalQuestions int
}

// QuestionGenerator produces interview questions for a domain.
type QuestionGenerator interface {
	GenerateQuestions(ctx context.Context, input QuestionInput) ([]string, error)
}

// AnswerGrader scores a single answer against its question.
type AnswerGrader interface {
	GradeAnswer(ctx context.Context, input GradeInput) (Grade, error)
}

// SpeechSynthesizer converts text into spoken audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, input SpeechInput) (Synthesis, error)
}

// Transcriber converts spoken audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, input TranscriptionInput) (string, error)
}

// PreambleGenerator produces a short spoken lead-in for the next question.
type PreambleGenerator interface {
	GeneratePreamble(ctx context.Context, input PreambleInput) (string, error)
}

// Meta records which provider produced a capability result.
type Meta struct {
	Provider string `json:"provider"`
	Fallback bool   `json:"fallback"`
	Attempts int    `json:"attempts"`
}

// Result pairs a capability payload with its provenance metadata.
type Result[T any] struct {
	Value T
	Meta  Meta
}
