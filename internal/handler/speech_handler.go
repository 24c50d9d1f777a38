package handler

import (
	"errors"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/utils"
)

// maxRecordingBytes caps uploaded recordings at 25MB, matching the ceiling of
// the transcription providers.
const maxRecordingBytes = 25 << 20

// SpeechHandler exposes text-to-speech and speech-to-text over HTTP.
type SpeechHandler struct {
	service *service.SpeechService
	logger  zerolog.Logger
}

// NewSpeechHandler constructs a speech handler.
func NewSpeechHandler(service *service.SpeechService, logger zerolog.Logger) *SpeechHandler {
	return &SpeechHandler{
		service: service,
		logger:  logger.With().Str("component", "speech_handler").Logger(),
	}
}

// Register wires speech routes.
func (h *SpeechHandler) Register(router fiber.Router) {
	router.Post("/synthesize", h.synthesize)
	router.Post("/transcribe", h.transcribe)
}

func (h *SpeechHandler) synthesize(c *fiber.Ctx) error {
	var payload dto.SynthesizeRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Synthesize(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to synthesize speech")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to synthesize speech")
	}

	return utils.SendSuccess(c, "speech synthesized", response)
}

func (h *SpeechHandler) transcribe(c *fiber.Ctx) error {
	file, err := c.FormFile("audio")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "audio file is required")
	}
	if file.Size > maxRecordingBytes {
		return utils.SendError(c, fiber.StatusRequestEntityTooLarge, "recording exceeds the size limit")
	}

	reader, err := file.Open()
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "could not read recording")
	}
	defer reader.Close()

	audio, err := io.ReadAll(reader)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "could not read recording")
	}
	if len(audio) == 0 {
		return utils.SendError(c, fiber.StatusBadRequest, "recording is empty")
	}

	// The declared Content-Type of a browser upload is unreliable; sniff the
	// real type from the bytes.
	detected := mimetype.Detect(audio)
	if !strings.HasPrefix(detected.String(), "audio/") && !strings.HasPrefix(detected.String(), "video/") {
		return utils.SendError(c, fiber.StatusUnsupportedMediaType, "file does not look like an audio recording")
	}

	response, err := h.service.Transcribe(c.Context(), audio, detected.String())
	if err != nil {
		if errors.Is(err, service.ErrEmptyTranscript) {
			return utils.SendError(c, fiber.StatusUnprocessableEntity, "no speech detected in the recording")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to transcribe recording")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to transcribe recording")
	}

	return utils.SendSuccess(c, "recording transcribed", response)
}
