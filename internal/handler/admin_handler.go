package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/vocalis-dev/vocalis-api/internal/service"
	"github.com/vocalis-dev/vocalis-api/internal/store"
	"github.com/vocalis-dev/vocalis-api/internal/utils"
)

// AdminHandler exposes the recruiter-facing session listings.
type AdminHandler struct {
	service *service.InterviewService
	logger  zerolog.Logger
}

// NewAdminHandler constructs an admin handler.
func NewAdminHandler(service *service.InterviewService, logger zerolog.Logger) *AdminHandler {
	return &AdminHandler{
		service: service,
		logger:  logger.With().Str("component", "admin_handler").Logger(),
	}
}

// Register wires admin routes. The group is expected to carry JWT protection.
func (h *AdminHandler) Register(router fiber.Router) {
	router.Get("/sessions", h.listSessions)
	router.Get("/candidates/:id/sessions", h.listCandidateSessions)
}

func (h *AdminHandler) listSessions(c *fiber.Ctx) error {
	sessions := h.service.ListSessions(c.Context())
	return utils.SendSuccess(c, "sessions", sessions)
}

func (h *AdminHandler) listCandidateSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListCandidateSessions(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, store.ErrCandidateNotFound) {
			return utils.SendError(c, fiber.StatusNotFound, "candidate not found")
		}
		requestLogger(h.logger, c).Error().Err(err).Msg("failed to list candidate sessions")
		return utils.SendError(c, fiber.StatusInternalServerError, "failed to list candidate sessions")
	}

	return utils.SendSuccess(c, "candidate sessions", sessions)
}
