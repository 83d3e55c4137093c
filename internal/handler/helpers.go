package handler

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examprep-api/internal/middleware"
	"github.com/noah-isme/examprep-api/internal/service"
	"github.com/noah-isme/examprep-api/internal/utils"
)

// RouteGuards holds the middleware a handler attaches to its protected routes.
type RouteGuards struct {
	Authenticate  fiber.Handler
	AuthLimiter   fiber.Handler
	SubmitLimiter fiber.Handler
}

func (g RouteGuards) authenticate() fiber.Handler {
	if g.Authenticate == nil {
		return passThrough
	}
	return g.Authenticate
}

func (g RouteGuards) authLimiter() fiber.Handler {
	if g.AuthLimiter == nil {
		return passThrough
	}
	return g.AuthLimiter
}

func (g RouteGuards) submitLimiter() fiber.Handler {
	if g.SubmitLimiter == nil {
		return passThrough
	}
	return g.SubmitLimiter
}

func passThrough(c *fiber.Ctx) error {
	return c.Next()
}

func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	value := strings.TrimSpace(c.Params(name))
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, errors.New("invalid identifier")
	}
	return uint(parsed), nil
}

func userIDFromContext(c *fiber.Ctx) uint {
	if id, ok := c.Locals("user_id").(uint); ok {
		return id
	}
	return 0
}

func userRoleFromContext(c *fiber.Ctx) string {
	if role, ok := c.Locals("user_role").(string); ok {
		return role
	}
	return ""
}

func actorFromContext(c *fiber.Ctx) service.Actor {
	return service.Actor{
		ID:   userIDFromContext(c),
		Role: userRoleFromContext(c),
	}
}

func isValidationError(err error) bool {
	var validationErrors validator.ValidationErrors
	var validationErr *service.ValidationError
	return errors.As(err, &validationErrors) || errors.As(err, &validationErr)
}

// sendValidationError reports service validation failures as 400 responses.
// Field-level failures carry a details map keyed by JSON field name.
func sendValidationError(c *fiber.Ctx, err error) error {
	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		return utils.SendError(c, fiber.StatusBadRequest, validationErr.Message)
	}

	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) && len(validationErrors) > 0 {
		details := make(map[string]string, len(validationErrors))
		for _, fieldErr := range validationErrors {
			details[fieldErr.Field()] = describeFieldError(fieldErr)
		}
		return utils.Fail(c, fiber.StatusBadRequest, describeFieldError(validationErrors[0]), details)
	}

	return utils.SendError(c, fiber.StatusBadRequest, err.Error())
}

func describeFieldError(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fieldErr.Field())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fieldErr.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fieldErr.Field(), fieldErr.Param())
	case "min", "gte":
		return fmt.Sprintf("%s must be at least %s", fieldErr.Field(), fieldErr.Param())
	case "max", "lte":
		return fmt.Sprintf("%s must be at most %s", fieldErr.Field(), fieldErr.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fieldErr.Field(), fieldErr.Param())
	default:
		return fmt.Sprintf("%s is invalid", fieldErr.Field())
	}
}

func internalError(logger zerolog.Logger, c *fiber.Ctx, err error) error {
	requestLogger := middleware.RequestLogger(logger, c)
	requestLogger.Error().Err(err).Str("path", c.Path()).Msg("internal server error")
	return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
}

// ErrorHandler renders errors that escape the route handlers, including
// fiber's own 404 and 405 errors, using the response envelope.
func ErrorHandler(logger zerolog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return utils.SendError(c, fiberErr.Code, fiberErr.Message)
		}
		return internalError(logger, c, err)
	}
}
