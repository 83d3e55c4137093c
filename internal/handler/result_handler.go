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

// ResultHandler wires submission, result and dashboard routes.
type ResultHandler struct {
	results   service.ResultService
	dashboard service.DashboardService
	logger    zerolog.Logger
}

// NewResultHandler constructs the handler.
func NewResultHandler(results service.ResultService, dashboard service.DashboardService, logger zerolog.Logger) *ResultHandler {
	return &ResultHandler{
		results:   results,
		dashboard: dashboard,
		logger:    logger.With().Str("component", "result_handler").Logger(),
	}
}

// Register attaches result endpoints to the router group.
func (h *ResultHandler) Register(router fiber.Router, guards RouteGuards) {
	authenticate := guards.authenticate()
	studentOnly := middleware.StudentOnly()
	teacherOnly := middleware.TeacherOnly()

	router.Post("", authenticate, studentOnly, guards.submitLimiter(), h.submit)
	router.Post("/submit", authenticate, studentOnly, guards.submitLimiter(), h.submit)
	router.Get("/my", authenticate, studentOnly, h.listMine)
	router.Get("/dashboard", authenticate, studentOnly, h.studentDashboard)
	router.Get("/exam/:examId", authenticate, teacherOnly, h.listByExam)
	router.Get("/:id", authenticate, studentOnly, h.get)
}

func (h *ResultHandler) submit(c *fiber.Ctx) error {
	var payload dto.ResultSubmitRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "examId and answers are required")
	}

	result, err := h.results.Submit(c.UserContext(), payload, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "")
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "Result submitted successfully", result)
}

func (h *ResultHandler) listMine(c *fiber.Ctx) error {
	results, err := h.results.ListMine(c.UserContext(), actorFromContext(c))
	if err != nil {
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultHandler) get(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	result, err := h.results.Get(c.UserContext(), id, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "Not authorized to view this result")
	}

	return utils.SendSuccess(c, "result retrieved", result)
}

func (h *ResultHandler) listByExam(c *fiber.Ctx) error {
	examID, err := parseUintParam(c, "examId")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	results, err := h.results.ListByExam(c.UserContext(), examID, actorFromContext(c))
	if err != nil {
		return h.handleError(c, err, "Not authorized to view results for this exam")
	}

	return utils.SendSuccess(c, "results retrieved", results)
}

func (h *ResultHandler) studentDashboard(c *fiber.Ctx) error {
	dashboard, err := h.dashboard.GetStudentDashboard(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return internalError(h.logger, c, err)
	}

	return utils.SendSuccess(c, "dashboard retrieved", dashboard)
}

func (h *ResultHandler) handleError(c *fiber.Ctx, err error, forbiddenMessage string) error {
	switch {
	case isValidationError(err):
		return sendValidationError(c, err)
	case errors.Is(err, service.ErrExamNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Exam not found")
	case errors.Is(err, service.ErrResultNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "Result not found")
	case errors.Is(err, service.ErrForbidden):
		return utils.SendError(c, fiber.StatusForbidden, forbiddenMessage)
	default:
		return internalError(h.logger, c, err)
	}
}
