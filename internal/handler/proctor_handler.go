package handler

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/dto"
	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/store"
	"github.com/vocalis-dev/vocalis-api/internal/utils"
)

// ProctorHandler ingests attention events, over plain POSTs and over a
// websocket stream for clients that report gaze classifications continuously.
type ProctorHandler struct {
	service *service.ProctorService
	logger  zerolog.Logger
}

// NewProctorHandler constructs a proctor handler.
func NewProctorHandler(service *service.ProctorService, logger zerolog.Logger) *ProctorHandler {
	return &ProctorHandler{
		service: service,
		logger:  logger.With().Str("component", "proctor_handler").Logger(),
	}
}

// Register wires attention routes onto the interview group.
func (h *ProctorHandler) Register(router fiber.Router) {
	router.Post("/:id/attention", h.report)

	router.Use("/:id/attention/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	router.Get("/:id/attention/ws", websocket.New(h.stream))
}

func (h *ProctorHandler) report(c *fiber.Ctx) error {
	var payload dto.AttentionEventRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid payload")
	}

	response, err := h.service.ReportAttention(c.Context(), c.Params("id"), payload)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "session not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to process attention event")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to process attention event")
	}

	return utils.SendSuccess(c, "attention event recorded", response)
}

// stream consumes attention events over a websocket and acknowledges each one
// with the current violation standing. The server closes the stream once the
// session terminates.
func (h *ProctorHandler) stream(conn *websocket.Conn) {
	defer conn.Close()

	sessionID := conn.Params("id")
	logger := h.logger.With().Str("session_id", sessionID).Logger()

	for {
		var event dto.AttentionEventRequest
		if err := conn.ReadJSON(&event); err != nil {
			logger.Debug().Err(err).Msg("attention stream closed")
			return
		}

		response, err := h.service.ReportAttention(context.Background(), sessionID, event)
		if err != nil {
			_ = conn.WriteJSON(fiber.Map{"error": "session not found"})
			return
		}

		if err := conn.WriteJSON(response); err != nil {
			return
		}

		if response.Terminated {
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(1000, "session terminated"))
			return
		}
	}
}
