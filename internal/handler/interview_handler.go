package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/store"
	"github.com/vocalis-dev/vocalis-api/internal/utils"
)

// InterviewHandler exposes the interview session lifecycle over HTTP.
type InterviewHandler struct {
	service *service.InterviewService
	logger  zerolog.Logger
}

// NewInterviewHandler constructs an interview handler.
func NewInterviewHandler(service *service.InterviewService, logger zerolog.Logger) *InterviewHandler {
	return &InterviewHandler{
		service: service,
		logger:  logger.With().Str("component", "interview_handler").Logger(),
	}
}

// RegisterCandidates wires the candidate registration route.
func (h *InterviewHandler) RegisterCandidates(router fiber.Router) {
	router.Post("", h.registerCandidate)
}

// Register wires interview session routes.
func (h *InterviewHandler) Register(router fiber.Router) {
	router.Post("", h.create)
	router.Get("/:id", h.snapshot)
	router.Post("/:id/start", h.start)
	router.Post("/:id/answers/:index", h.recordAnswer)
	router.Post("/:id/submit", h.submit)
	router.Get("/:id/result", h.result)
	router.Get("/:id/preamble", h.preamble)
}

func (h *InterviewHandler) registerCandidate(c *fiber.Ctx) error {
	var payload dto.RegisterCandidateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.RegisterCandidate(c.Context(), payload)
	if err != nil {
		if isValidationError(err) {
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to register candidate")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to register candidate")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "candidate registered", response)
}

func (h *InterviewHandler) create(c *fiber.Ctx) error {
	var payload dto.CreateInterviewRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.CreateInterview(c.Context(), payload)
	if err != nil {
		switch {
		case isValidationError(err):
			return utils.SendError(c, fiber.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrCandidateNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "candidate not found")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to create interview")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to create interview")
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "interview created", response)
}

func (h *InterviewHandler) snapshot(c *fiber.Ctx) error {
	response, err := h.service.Snapshot(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to load session")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to load session")
	}

	return utils.SendSuccess(c, "session snapshot", response)
}

func (h *InterviewHandler) start(c *fiber.Ctx) error {
	response, err := h.service.Start(c.Context(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrSessionNotStartable):
			return utils.SendError(c, fiber.StatusConflict, "session has no questions yet")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to start interview")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to start interview")
		}
	}

	return utils.SendSuccess(c, "interview started", response)
}

func (h *InterviewHandler) recordAnswer(c *fiber.Ctx) error {
	index, err := c.ParamsInt("index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question index")
	}

	var payload dto.RecordAnswerRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.RecordAnswer(c.Context(), c.Params("id"), index, payload.Answer)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrInvalidQuestionIndex):
			return utils.SendError(c, fiber.StatusBadRequest, "question index out of range")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to record answer")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to record answer")
		}
	}

	return utils.SendSuccess(c, "answer recorded", response)
}

func (h *InterviewHandler) submit(c *fiber.Ctx) error {
	var payload dto.SubmitAnswersRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.Submit(c.Context(), c.Params("id"), payload.Answers)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrAnswerCountMismatch):
			return utils.SendError(c, fiber.StatusBadRequest, "answers array must match questions length")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to submit interview")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to submit interview")
		}
	}

	message := "interview scored"
	if response.AlreadyComplete {
		message = "interview already complete"
	}
	return utils.SendSuccess(c, message, response)
}

func (h *InterviewHandler) result(c *fiber.Ctx) error {
	response, err := h.service.Result(c.Context(), c.Params("id"))
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrResultNotReady):
			return utils.SendError(c, fiber.StatusConflict, "interview is not finished yet")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to load result")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to load result")
		}
	}

	return utils.SendSuccess(c, "interview result", response)
}

func (h *InterviewHandler) preamble(c *fiber.Ctx) error {
	index, err := parseQueryInt(c, "index")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid question index")
	}

	response, err := h.service.Preamble(c.Context(), c.Params("id"), index)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrSessionNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrInvalidQuestionIndex):
			return utils.SendError(c, fiber.StatusBadRequest, "question index out of range")
		default:
			requestLogger(h.logger, c).Error().Err(err).Msg("failed to generate preamble")
			return utils.SendError(c, fiber.StatusInternalServerError, "failed to generate preamble")
		}
	}

	return utils.SendSuccess(c, "question preamble", response)
}
