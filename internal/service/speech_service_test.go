package service

import (
	"context"
	"encoding/base64"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

type countingSynth struct {
	calls int
	synth ai.Synthesis
}

func (c *countingSynth) Synthesize(ctx context.Context, input ai.SpeechInput) (ai.Synthesis, error) {
	c.calls++
	return c.synth, nil
}

func TestSynthesizeCachesProviderOutput(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	synth := &countingSynth{synth: ai.Synthesis{Audio: []byte("mp3-bytes"), MimeType: "audio/mpeg"}}
	providers := Providers{Synthesizers: []SynthesisProvider{{Name: "stub", Synth: synth}}}
	svc := NewSpeechService(providers, redisClient, time.Hour, time.Second, validator.New(), testLogger())

	req := dto.SynthesizeRequest{Text: "What is gradient descent?"}

	first, err := svc.Synthesize(context.Background(), req)
	require.NoError(t, err)
	require.False(t, first.Cached)
	require.Equal(t, "stub", first.Meta.Provider)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3-bytes")), first.AudioBase64)

	second, err := svc.Synthesize(context.Background(), req)
	require.NoError(t, err)
	require.True(t, second.Cached)
	require.Equal(t, first.AudioBase64, second.AudioBase64)
	require.Equal(t, "stub", second.Meta.Provider)
	require.Equal(t, 1, synth.calls)

	// A different voice misses the cache.
	_, err = svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "What is gradient descent?", Voice: "other"})
	require.NoError(t, err)
	require.Equal(t, 2, synth.calls)
}

func TestSynthesizeFallsBackSilentAndSkipsCache(t *testing.T) {
	server, err := miniredis.Run()
	require.NoError(t, err)
	defer server.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: server.Addr()})
	defer redisClient.Close()

	providers := Providers{Synthesizers: []SynthesisProvider{{
		Name:  "down",
		Synth: synthStub{err: errors.New("provider down")},
	}}}
	svc := NewSpeechService(providers, redisClient, time.Hour, time.Second, validator.New(), testLogger())

	resp, err := svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "hello"})
	require.NoError(t, err)
	require.True(t, resp.Meta.Fallback)
	require.Empty(t, resp.AudioBase64)
	require.Empty(t, server.Keys())
}

func TestSynthesizeWorksWithoutCache(t *testing.T) {
	synth := &countingSynth{synth: ai.Synthesis{Audio: []byte("audio"), MimeType: "audio/mpeg"}}
	providers := Providers{Synthesizers: []SynthesisProvider{{Name: "stub", Synth: synth}}}
	svc := NewSpeechService(providers, nil, time.Hour, time.Second, validator.New(), testLogger())

	for i := 0; i < 2; i++ {
		resp, err := svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "hello"})
		require.NoError(t, err)
		require.False(t, resp.Cached)
	}
	require.Equal(t, 2, synth.calls)
}

func TestSynthesizeValidatesRequest(t *testing.T) {
	svc := NewSpeechService(Providers{}, nil, time.Hour, time.Second, validator.New(), testLogger())

	_, err := svc.Synthesize(context.Background(), dto.SynthesizeRequest{})
	require.Error(t, err)

	_, err = svc.Synthesize(context.Background(), dto.SynthesizeRequest{Text: "hi", Format: "midi"})
	require.Error(t, err)
}

func TestTranscribeFallsThroughProviders(t *testing.T) {
	providers := Providers{Transcribers: []TranscriptionProvider{
		{Name: "down", Transcriber: transcriberStub{err: errors.New("provider down")}},
		{Name: "up", Transcriber: transcriberStub{text: "hello world"}},
	}}
	svc := NewSpeechService(providers, nil, time.Hour, time.Second, validator.New(), testLogger())

	resp, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	require.NoError(t, err)
	require.Equal(t, "hello world", resp.Text)
	require.Equal(t, "up", resp.Meta.Provider)
	require.Equal(t, 2, resp.Meta.Attempts)
}

func TestTranscribeEmptyTranscriptIsAnError(t *testing.T) {
	providers := Providers{Transcribers: []TranscriptionProvider{
		{Name: "silent", Transcriber: transcriberStub{text: "   "}},
	}}
	svc := NewSpeechService(providers, nil, time.Hour, time.Second, validator.New(), testLogger())

	_, err := svc.Transcribe(context.Background(), []byte("audio"), "audio/webm")
	require.ErrorIs(t, err, ErrEmptyTranscript)
}
