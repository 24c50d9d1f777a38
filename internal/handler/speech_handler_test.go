package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/handler"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/pkg/ai"
)

type fixedSynth struct{}

func (fixedSynth) Synthesize(ctx context.Context, input ai.SpeechInput) (ai.Synthesis, error) {
	return ai.Synthesis{Audio: []byte("mp3-bytes"), MimeType: "audio/mpeg"}, nil
}

type fixedTranscriber struct {
	text string
}

func (f fixedTranscriber) Transcribe(ctx context.Context, input ai.TranscriptionInput) (string, error) {
	return f.text, nil
}

func newSpeechApp(t *testing.T, providers service.Providers) *fiber.App {
	t.Helper()
	svc := service.NewSpeechService(providers, nil, time.Hour, time.Second, validator.New(), testLogger())

	app := fiber.New()
	handler.NewSpeechHandler(svc, testLogger()).Register(app.Group("/api/v1/speech"))
	return app
}

// wavBytes is a minimal RIFF/WAVE header, enough for content sniffing.
func wavBytes() []byte {
	return append([]byte("RIFF\x24\x00\x00\x00WAVEfmt "), make([]byte, 24)...)
}

func multipartUpload(t *testing.T, field, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func TestSynthesizeEndpoint(t *testing.T) {
	app := newSpeechApp(t, service.Providers{
		Synthesizers: []service.SynthesisProvider{{Name: "stub", Synth: fixedSynth{}}},
	})

	resp := postJSON(t, app, "/api/v1/speech/synthesize", dto.SynthesizeRequest{Text: "Hello candidate"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.SynthesizeResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Equal(t, "audio/mpeg", payload.Data.MimeType)
	require.Equal(t, base64.StdEncoding.EncodeToString([]byte("mp3-bytes")), payload.Data.AudioBase64)
	require.Equal(t, "stub", payload.Data.Meta.Provider)
}

func TestSynthesizeRejectsInvalidPayload(t *testing.T) {
	app := newSpeechApp(t, service.Providers{})

	resp := postJSON(t, app, "/api/v1/speech/synthesize", dto.SynthesizeRequest{})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	resp = postJSON(t, app, "/api/v1/speech/synthesize", dto.SynthesizeRequest{Text: "hi", Format: "midi"})
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTranscribeEndpoint(t *testing.T) {
	app := newSpeechApp(t, service.Providers{
		Transcribers: []service.TranscriptionProvider{{Name: "stub", Transcriber: fixedTranscriber{text: "hello world"}}},
	})

	body, contentType := multipartUpload(t, "audio", "answer.wav", wavBytes())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var payload struct {
		Data dto.TranscribeResponse `json:"data"`
	}
	decodeResponse(t, resp, &payload)
	require.Equal(t, "hello world", payload.Data.Text)
	require.Equal(t, "audio/wav", payload.Data.MimeType)
}

func TestTranscribeRejectsNonAudioUploads(t *testing.T) {
	app := newSpeechApp(t, service.Providers{})

	body, contentType := multipartUpload(t, "audio", "notes.txt", []byte("just some text, not audio"))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestTranscribeRequiresFile(t *testing.T) {
	app := newSpeechApp(t, service.Providers{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speech/transcribe", nil)
	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestTranscribeEmptyTranscript(t *testing.T) {
	app := newSpeechApp(t, service.Providers{
		Transcribers: []service.TranscriptionProvider{{Name: "silent", Transcriber: fixedTranscriber{text: "  "}}},
	})

	body, contentType := multipartUpload(t, "audio", "answer.wav", wavBytes())
	req := httptest.NewRequest(http.MethodPost, "/api/v1/speech/transcribe", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, 10000)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnprocessableEntity, resp.StatusCode)
}
