package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog"
	"github.com/santhosh-tekuri/jsonschema/v5"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// gradeSchema constrains the JSON object an LLM grader must return before the
// verdict is trusted.
const gradeSchema = `{
	"type": "object",
	"required": ["score", "feedback"],
	"properties": {
		"score": {"type": "number", "minimum": 0, "maximum": 10},
		"feedback": {"type": "string"},
		"strengths": {"type": "array", "items": {"type": "string"}},
		"improvements": {"type": "array", "items": {"type": "string"}}
	}
}`

var compiledGradeSchema = jsonschema.MustCompileString("grade.json", gradeSchema)

// OpenAIConfig configures an OpenAI-compatible provider. Setting BaseURL
// points the client at any service speaking the OpenAI API, e.g. Groq.
type OpenAIConfig struct {
	Name        string
	APIKey      string
	BaseURL     string
	ChatModel   string
	TTSModel    string
	TTSVoice    string
	STTModel    string
	MaxTokens   int
	Temperature float32
	Logger      zerolog.Logger
}

// OpenAIProvider implements every interview capability against an
// OpenAI-compatible API: chat completions for question generation, grading
// and preambles, the speech endpoint for TTS, and the audio endpoint for STT.
type OpenAIProvider struct {
	client *openai.Client
	cfg    OpenAIConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewOpenAIProvider builds a provider from the given configuration.
func NewOpenAIProvider(cfg OpenAIConfig) (*OpenAIProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}

	if cfg.Name == "" {
		cfg.Name = "openai"
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = "gpt-4o-mini"
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = string(openai.TTSModel1)
	}
	if cfg.TTSVoice == "" {
		cfg.TTSVoice = string(openai.VoiceAlloy)
	}
	if cfg.STTModel == "" {
		cfg.STTModel = openai.Whisper1
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(clientConfig),
		cfg:    cfg,
		tracer: otel.Tracer("github.com/vocalis-dev/vocalis-api/pkg/ai"),
		logger: logger.With().Str("component", "ai_provider").Str("provider", cfg.Name).Logger(),
	}, nil
}

// Name returns the configured provider label used in logs and result metadata.
func (p *OpenAIProvider) Name() string {
	return p.cfg.Name
}

// GenerateQuestions asks the chat model for count interview questions in the
// given domain, avoiding repeats of input.Previous.
func (p *OpenAIProvider) GenerateQuestions(parent context.Context, input QuestionInput) ([]string, error) {
	ctx, span := p.tracer.Start(parent, "ai.generate_questions", trace.WithAttributes(
		attribute.String("provider", p.cfg.Name),
		attribute.String("domain", input.Domain),
		attribute.Int("count", input.Count),
	))
	defer span.End()

	content, err := p.chatJSON(ctx, questionSystemPrompt(), buildQuestionPrompt(input))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var payload struct {
		Questions []string `json:"questions"`
	}
	if err := json.Unmarshal([]byte(content), &payload); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return nil, fmt.Errorf("parse question json: %w", err)
	}

	questions := make([]string, 0, len(payload.Questions))
	for _, q := range payload.Questions {
		q = strings.TrimSpace(q)
		if q != "" {
			questions = append(questions, q)
		}
	}

	return questions, nil
}

// GradeAnswer asks the chat model for a structured verdict and validates the
// returned JSON against the grading schema before trusting it.
func (p *OpenAIProvider) GradeAnswer(parent context.Context, input GradeInput) (Grade, error) {
	ctx, span := p.tracer.Start(parent, "ai.grade_answer", trace.WithAttributes(
		attribute.String("provider", p.cfg.Name),
		attribute.String("domain", input.Domain),
	))
	defer span.End()

	content, err := p.chatJSON(ctx, graderSystemPrompt(), buildGradePrompt(input))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Grade{}, err
	}

	grade, err := parseGrade(content)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Grade{}, err
	}

	return grade, nil
}

// GeneratePreamble asks the chat model for a one-sentence spoken lead-in.
func (p *OpenAIProvider) GeneratePreamble(parent context.Context, input PreambleInput) (string, error) {
	ctx, span := p.tracer.Start(parent, "ai.generate_preamble", trace.WithAttributes(
		attribute.String("provider", p.cfg.Name),
	))
	defer span.End()

	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       p.cfg.ChatModel,
		MaxTokens:   80,
		Temperature: 0.8,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: "You are a friendly interviewer. Reply with a single short, conversational sentence introducing the next question. No markup, no quotes."},
			{Role: openai.ChatMessageRoleUser, Content: buildPreamblePrompt(input)},
		},
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%s preamble: %w", p.cfg.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", p.cfg.Name)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// Synthesize converts text to speech via the provider's speech endpoint.
func (p *OpenAIProvider) Synthesize(parent context.Context, input SpeechInput) (Synthesis, error) {
	ctx, span := p.tracer.Start(parent, "ai.synthesize", trace.WithAttributes(
		attribute.String("provider", p.cfg.Name),
		attribute.Int("text_length", len(input.Text)),
	))
	defer span.End()

	voice := input.Voice
	if voice == "" {
		voice = p.cfg.TTSVoice
	}
	format := input.Format
	if format == "" {
		format = string(openai.SpeechResponseFormatMp3)
	}

	resp, err := p.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(p.cfg.TTSModel),
		Input:          input.Text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormat(format),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Synthesis{}, fmt.Errorf("%s synthesize: %w", p.cfg.Name, err)
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Synthesis{}, fmt.Errorf("%s read audio: %w", p.cfg.Name, err)
	}

	return Synthesis{Audio: audio, MimeType: mimeForFormat(format)}, nil
}

// Transcribe converts audio to text via the provider's transcription endpoint.
func (p *OpenAIProvider) Transcribe(parent context.Context, input TranscriptionInput) (string, error) {
	ctx, span := p.tracer.Start(parent, "ai.transcribe", trace.WithAttributes(
		attribute.String("provider", p.cfg.Name),
		attribute.Int("audio_bytes", len(input.Audio)),
	))
	defer span.End()

	resp, err := p.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    p.cfg.STTModel,
		Reader:   bytes.NewReader(input.Audio),
		FilePath: fileNameForMime(input.MimeType),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return "", fmt.Errorf("%s transcribe: %w", p.cfg.Name, err)
	}

	return strings.TrimSpace(resp.Text), nil
}

func (p *OpenAIProvider) chatJSON(ctx context.Context, system, user string) (string, error) {
	resp, err := p.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:          p.cfg.ChatModel,
		MaxTokens:      p.cfg.MaxTokens,
		Temperature:    p.cfg.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%s chat completion: %w", p.cfg.Name, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from %s", p.cfg.Name)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func questionSystemPrompt() string {
	return "You are a technical interviewer. Respond with a JSON object containing a \"questions\" array of concise, self-contained interview questions. Questions must be answerable verbally in a few minutes."
}

func graderSystemPrompt() string {
	return "You are an interview answer evaluator. Respond with a JSON object containing score (0-10), feedback, and optional strengths and improvements arrays. Judge correctness, depth, and clarity."
}

func buildQuestionPrompt(input QuestionInput) string {
	builder := strings.Builder{}
	builder.WriteString("Generate ")
	fmt.Fprintf(&builder, "%d", input.Count)
	builder.WriteString(" interview questions for the domain: ")
	builder.WriteString(input.Domain)
	if len(input.Previous) > 0 {
		builder.WriteString("\n\nDo not repeat any of these questions:\n")
		for _, q := range input.Previous {
			builder.WriteString("- ")
			builder.WriteString(q)
			builder.WriteString("\n")
		}
	}
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func buildGradePrompt(input GradeInput) string {
	builder := strings.Builder{}
	builder.WriteString("# Domain\n")
	builder.WriteString(input.Domain)
	builder.WriteString("\n\n## Question\n")
	builder.WriteString(input.Question)
	builder.WriteString("\n\n## Candidate Answer\n")
	builder.WriteString(input.Answer)
	builder.WriteString("\nReturn JSON.")
	return builder.String()
}

func buildPreamblePrompt(input PreambleInput) string {
	name := input.CandidateName
	if name == "" {
		name = "the candidate"
	}
	return fmt.Sprintf("Candidate: %s. Domain: %s. This is question %d of %d.", name, input.Domain, input.QuestionIndex+1, input.TotalQuestions)
}

func parseGrade(content string) (Grade, error) {
	var raw interface{}
	if err := json.Unmarshal([]byte(content), &raw); err != nil {
		return Grade{}, fmt.Errorf("parse grade json: %w", err)
	}
	if err := compiledGradeSchema.Validate(raw); err != nil {
		return Grade{}, fmt.Errorf("grade json rejected by schema: %w", err)
	}

	var grade Grade
	if err := json.Unmarshal([]byte(content), &grade); err != nil {
		return Grade{}, fmt.Errorf("parse grade json: %w", err)
	}

	return grade, nil
}

func mimeForFormat(format string) string {
	switch strings.ToLower(format) {
	case "wav":
		return "audio/wav"
	case "flac":
		return "audio/flac"
	case "opus":
		return "audio/ogg"
	case "aac":
		return "audio/aac"
	case "pcm":
		return "audio/pcm"
	default:
		return "audio/mpeg"
	}
}

func fileNameForMime(mime string) string {
	switch {
	case strings.Contains(mime, "wav"):
		return "audio.wav"
	case strings.Contains(mime, "ogg"):
		return "audio.ogg"
	case strings.Contains(mime, "webm"):
		return "audio.webm"
	case strings.Contains(mime, "mp4"):
		return "audio.mp4"
	case strings.Contains(mime, "flac"):
		return "audio.flac"
	default:
		return "audio.mp3"
	}
}
