package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/service"
	"github.com/noah-isme/examprep-api/internal/utils"
)

// SeedTokenHeader carries the shared secret guarding the seed routes.
const SeedTokenHeader = "X-Seed-Token"

// SeedHandler exposes demo-content endpoints for local environments.
type SeedHandler struct {
	service service.SeedService
	logger  zerolog.Logger
}

// NewSeedHandler constructs the handler.
func NewSeedHandler(service service.SeedService, logger zerolog.Logger) *SeedHandler {
	return &SeedHandler{
		service: service,
		logger:  logger.With().Str("component", "seed_handler").Logger(),
	}
}

// Register attaches seed endpoints to the router group.
func (h *SeedHandler) Register(router fiber.Router) {
	router.Post("/sample-exam", h.sampleExam)
}

func (h *SeedHandler) sampleExam(c *fiber.Ctx) error {
	var payload dto.SeedSampleExamRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.SeedSampleExam(c.UserContext(), c.Get(SeedTokenHeader), payload)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSeedDisabled):
			return utils.SendError(c, fiber.StatusNotFound, "seeding is disabled")
		case errors.Is(err, service.ErrSeedUnauthorized):
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid seed token")
		case errors.Is(err, service.ErrUserNotFound):
			return utils.SendError(c, fiber.StatusNotFound, "User not found")
		case isValidationError(err):
			return sendValidationError(c, err)
		default:
			return internalError(h.logger, c, err)
		}
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "sample exam created", exam)
}
