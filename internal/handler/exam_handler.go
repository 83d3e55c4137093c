package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/middleware"
	"github.com/noah-isme/examprep-api/internal/service"
	"github.com/noah-isme/examprep-api/internal/utils"
)

// ExamHandler wires the exam catalog and authoring routes.
type ExamHandler struct {
	service service.ExamService
	logger  zerolog.Logger
}

// NewExamHandler constructs the handler.
func NewExamHandler(service service.ExamService, logger zerolog.Logger) *ExamHandler {
	return &ExamHandler{
		service: service,
		logger:  logger.With().Str("component", "exam_handler").Logger(),
	}
}

// Register attaches exam endpoints to the router group. The static
// /my-exams route is registered ahead of /:id so it is never shadowed.
func (h *ExamHandler) Register(router fiber.Router, guards RouteGuards) {
	authenticate := guards.authenticate()
	teacherOnly := middleware.TeacherOnly()

	router.Get("", h.list)
	router.Get("/my-exams", authenticate, teacherOnly, h.listMine)
	router.Get("/:id", h.get)
	router.Post("", authenticate, teacherOnly, h.create)
	router.Put("/:id", authenticate, teacherOnly, h.update)
	router.Delete("/:id", authenticate, teacherOnly, h.delete)
}

func (h *ExamHandler) list(c *fiber.Ctx) error {
	var query dto.ExamListQuery
	if err := c.QueryParser(&query); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid query parameters")
	}

	exams, err := h.service.List(c.UserContext(), query)
	if err != nil {
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	exam, err := h.service.Get(c.UserContext(), id)
	if err != nil {
		return h.handleError(c, err, "")
	}

	return utils.SendSuccess(c, "exam retrieved", exam)
}

func (h *ExamHandler) create(c *fiber.Ctx) error {
	var payload dto.ExamCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Create(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Exam created successfully", exam)
}

func (h *ExamHandler) listMine(c *fiber.Ctx) error {
	exams, err := h.service.ListMine(c.UserContext(), actorFromContext(c))
	if err != nil {
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "exams retrieved", exams)
}

func (h *ExamHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ExamUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	exam, err := h.service.Update(c.UserContext(), id, payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "Not authorized to update this exam")
	}

	return utils.SendSuccess(c, "Exam updated successfully", exam)
}

func (h *ExamHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.UserContext(), id, actorFromContext(c)); err != nil {
		return h.handleError(c, err, "Not authorized to delete this exam")
	}

	return utils.SendSuccess(c, "Exam deleted successfully", nil)
}

func (h *ExamHandler) handleError(c *fiber.Ctx, err error, forbiddenMessage string) error {
	switch {
	case isValidationError(err):
		return sendValidationError(c, err)
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Exam not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, forbiddenMessage)
	default:
		return internalError(h.logger, c, err)
	}
}
