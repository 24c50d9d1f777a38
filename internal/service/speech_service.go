package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

// ErrEmptyTranscript indicates the recording produced no usable text.
var ErrEmptyTranscript = errors.New("transcription produced no text")

const ttsCachePrefix = "tts:"

// cachedSynthesis is the redis representation of one synthesized clip.
type cachedSynthesis struct {
	Audio    []byte `json:"audio"`
	MimeType string `json:"mime_type"`
	Provider string `json:"provider"`
}

// SpeechService fronts the text-to-speech and speech-to-text chains. TTS
// results are cached in redis keyed by a checksum of the request, since the
// same question text is spoken to many candidates.
type SpeechService struct {
	providers Providers
	cache     *redis.Client
	cacheTTL  time.Duration
	timeout   time.Duration
	validator *validator.Validate
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewSpeechService constructs the speech service. cache may be nil; synthesis
// then goes straight to the providers on every call.
func NewSpeechService(providers Providers, cache *redis.Client, cacheTTL, timeout time.Duration, validate *validator.Validate, logger zerolog.Logger) *SpeechService {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &SpeechService{
		providers: providers,
		cache:     cache,
		cacheTTL:  cacheTTL,
		timeout:   timeout,
		validator: validate,
		logger:    logger.With().Str("component", "speech_service").Logger(),
		tracer:    otel.Tracer("github.com/vocalis-dev/vocalis-api/internal/service/speech"),
	}
}

// Synthesize converts text to speech through the provider chain, serving
// repeated requests from the cache. Cache failures are logged and ignored;
// the cache is an optimization, never a dependency.
func (s *SpeechService) Synthesize(parent context.Context, req dto.SynthesizeRequest) (dto.SynthesizeResponse, error) {
	ctx, span := s.tracer.Start(parent, "speech.synthesize", trace.WithAttributes(
		attribute.Int("text_length", len(req.Text)),
	))
	defer span.End()

	if err := s.validator.Struct(req); err != nil {
		return dto.SynthesizeResponse{}, err
	}

	key := synthesisCacheKey(req)
	if cached, ok := s.cacheGet(ctx, key); ok {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return dto.SynthesizeResponse{
			AudioBase64: base64.StdEncoding.EncodeToString(cached.Audio),
			MimeType:    cached.MimeType,
			Cached:      true,
			Meta:        ai.Meta{Provider: cached.Provider},
		}, nil
	}

	input := ai.SpeechInput{Text: req.Text, Voice: req.Voice, Format: req.Format}

	steps := make([]ai.Step[ai.Synthesis], 0, len(s.providers.Synthesizers))
	for _, provider := range s.providers.Synthesizers {
		provider := provider
		steps = append(steps, ai.Step[ai.Synthesis]{
			Provider: provider.Name,
			Call: func(ctx context.Context) (ai.Synthesis, error) {
				return provider.Synth.Synthesize(ctx, input)
			},
		})
	}

	chain := ai.NewChain("speech_synthesis", steps,
		ai.SilentSynthesis,
		s.logger,
		ai.WithAttemptTimeout[ai.Synthesis](s.timeout),
		ai.WithValidate[ai.Synthesis](func(synth ai.Synthesis) error {
			if len(synth.Audio) == 0 {
				return fmt.Errorf("provider returned empty audio")
			}
			return nil
		}),
	)
	result := chain.Invoke(ctx)

	// Only real provider output is worth caching.
	if !result.Meta.Fallback {
		s.cacheSet(ctx, key, cachedSynthesis{
			Audio:    result.Value.Audio,
			MimeType: result.Value.MimeType,
			Provider: result.Meta.Provider,
		})
	}

	return dto.SynthesizeResponse{
		AudioBase64: base64.StdEncoding.EncodeToString(result.Value.Audio),
		MimeType:    result.Value.MimeType,
		Meta:        result.Meta,
	}, nil
}

// Transcribe converts a recording to text through the provider chain. There
// is no meaningful local fallback for speech recognition, so an empty
// transcript after every provider surfaces as an error.
func (s *SpeechService) Transcribe(parent context.Context, audio []byte, mimeType string) (dto.TranscribeResponse, error) {
	ctx, span := s.tracer.Start(parent, "speech.transcribe", trace.WithAttributes(
		attribute.Int("audio_bytes", len(audio)),
		attribute.String("mime_type", mimeType),
	))
	defer span.End()

	input := ai.TranscriptionInput{Audio: audio, MimeType: mimeType}

	steps := make([]ai.Step[string], 0, len(s.providers.Transcribers))
	for _, provider := range s.providers.Transcribers {
		provider := provider
		steps = append(steps, ai.Step[string]{
			Provider: provider.Name,
			Call: func(ctx context.Context) (string, error) {
				return provider.Transcriber.Transcribe(ctx, input)
			},
		})
	}

	chain := ai.NewChain("speech_transcription", steps,
		func() string { return "" },
		s.logger,
		ai.WithAttemptTimeout[string](s.timeout),
		ai.WithValidate[string](nonEmptyString),
	)
	result := chain.Invoke(ctx)

	if strings.TrimSpace(result.Value) == "" {
		return dto.TranscribeResponse{}, ErrEmptyTranscript
	}

	return dto.TranscribeResponse{
		Text:     result.Value,
		MimeType: mimeType,
		Meta:     result.Meta,
	}, nil
}

func (s *SpeechService) cacheGet(ctx context.Context, key string) (cachedSynthesis, bool) {
	if s.cache == nil {
		return cachedSynthesis{}, false
	}

	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn().Err(err).Msg("tts cache read failed")
		}
		return cachedSynthesis{}, false
	}

	var cached cachedSynthesis
	if err := json.Unmarshal(raw, &cached); err != nil {
		s.logger.Warn().Err(err).Msg("tts cache entry corrupt, ignoring")
		return cachedSynthesis{}, false
	}
	return cached, true
}

func (s *SpeechService) cacheSet(ctx context.Context, key string, value cachedSynthesis) {
	if s.cache == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.SetEx(ctx, key, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn().Err(err).Msg("tts cache write failed")
	}
}

func synthesisCacheKey(req dto.SynthesizeRequest) string {
	sum := sha256.Sum256([]byte(req.Text + "\x00" + req.Voice + "\x00" + req.Format))
	return ttsCachePrefix + fmt.Sprintf("%x", sum)
}
