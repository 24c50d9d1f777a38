package service

import (
	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/config"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

// QuestionProvider is one named backend in the question-generation order.
type QuestionProvider struct {
	Name      string
	Generator ai.QuestionGenerator
}

// GradingProvider is one named backend in the answer-grading order.
type GradingProvider struct {
	Name   string
	Grader ai.AnswerGrader
}

// SynthesisProvider is one named backend in the text-to-speech order.
type SynthesisProvider struct {
	Name  string
	Synth ai.SpeechSynthesizer
}

// TranscriptionProvider is one named backend in the speech-to-text order.
type TranscriptionProvider struct {
	Name        string
	Transcriber ai.Transcriber
}

// PreambleProvider is one named backend in the preamble-generation order.
type PreambleProvider struct {
	Name      string
	Generator ai.PreambleGenerator
}

// Providers groups the ordered provider lists per capability. Order is
// priority order: the first entry is tried first. Empty lists are valid and
// route every call straight to the built-in fallback.
type Providers struct {
	Questions      []QuestionProvider
	Graders        []GradingProvider
	Synthesizers   []SynthesisProvider
	Transcribers   []TranscriptionProvider
	Preambles      []PreambleProvider
	ConfiguredKeys map[string]bool
}

// BuildProviders assembles the provider orders from configuration. The
// primary OpenAI endpoint leads text capabilities; the Groq-compatible
// endpoint leads speech synthesis (its TTS is the product default) and backs
// everything else. Missing API keys simply shorten the order.
func BuildProviders(cfg config.Config, logger zerolog.Logger) (Providers, error) {
	providers := Providers{ConfiguredKeys: map[string]bool{}}

	var primary, secondary *ai.OpenAIProvider

	if cfg.OpenAIAPIKey != "" {
		p, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
			Name:      "openai",
			APIKey:    cfg.OpenAIAPIKey,
			BaseURL:   cfg.OpenAIBaseURL,
			ChatModel: cfg.OpenAIModel,
			TTSModel:  cfg.TTSModel,
			TTSVoice:  cfg.TTSVoice,
			STTModel:  cfg.STTModel,
			Logger:    logger,
		})
		if err != nil {
			return Providers{}, err
		}
		primary = p
		providers.ConfiguredKeys["openai"] = true
	}

	if cfg.GroqAPIKey != "" {
		p, err := ai.NewOpenAIProvider(ai.OpenAIConfig{
			Name:      "groq",
			APIKey:    cfg.GroqAPIKey,
			BaseURL:   cfg.GroqBaseURL,
			ChatModel: cfg.GroqModel,
			TTSModel:  "playai-tts",
			TTSVoice:  "Fritz-PlayAI",
			STTModel:  "whisper-large-v3",
			Logger:    logger,
		})
		if err != nil {
			return Providers{}, err
		}
		secondary = p
		providers.ConfiguredKeys["groq"] = true
	}

	if primary != nil {
		providers.Questions = append(providers.Questions, QuestionProvider{Name: primary.Name(), Generator: primary})
		providers.Graders = append(providers.Graders, GradingProvider{Name: primary.Name(), Grader: primary})
		providers.Transcribers = append(providers.Transcribers, TranscriptionProvider{Name: primary.Name(), Transcriber: primary})
	}
	if secondary != nil {
		providers.Questions = append(providers.Questions, QuestionProvider{Name: secondary.Name(), Generator: secondary})
		providers.Graders = append(providers.Graders, GradingProvider{Name: secondary.Name(), Grader: secondary})
		providers.Transcribers = append(providers.Transcribers, TranscriptionProvider{Name: secondary.Name(), Transcriber: secondary})

		// Groq leads speech synthesis and preambles.
		providers.Synthesizers = append(providers.Synthesizers, SynthesisProvider{Name: secondary.Name(), Synth: secondary})
		providers.Preambles = append(providers.Preambles, PreambleProvider{Name: secondary.Name(), Generator: secondary})
	}
	if primary != nil {
		providers.Synthesizers = append(providers.Synthesizers, SynthesisProvider{Name: primary.Name(), Synth: primary})
		providers.Preambles = append(providers.Preambles, PreambleProvider{Name: primary.Name(), Generator: primary})
	}

	return providers, nil
}
