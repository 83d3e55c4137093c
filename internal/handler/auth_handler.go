package handler

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examprep-api/internal/dto"
	"github.com/noah-isme/examprep-api/internal/middleware"
	"github.com/noah-isme/examprep-api/internal/service"
	"github.com/noah-isme/examprep-api/internal/utils"
)

// AuthHandler wires account and session routes.
type AuthHandler struct {
	service       service.AuthService
	secureCookies bool
	logger        zerolog.Logger
}

// NewAuthHandler constructs the handler. secureCookies switches the session
// cookie to SameSite=None; Secure for cross-site production deployments.
func NewAuthHandler(service service.AuthService, secureCookies bool, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		service:       service,
		secureCookies: secureCookies,
		logger:        logger.With().Str("component", "auth_handler").Logger(),
	}
}

// Register attaches auth endpoints to the router group.
func (h *AuthHandler) Register(router fiber.Router, guards RouteGuards) {
	router.Post("/signup", guards.authLimiter(), h.signup)
	router.Post("/signin", guards.authLimiter(), h.signin)
	router.Post("/signout", h.signout)
	router.Get("/me", guards.authenticate(), h.me)
}

func (h *AuthHandler) signup(c *fiber.Ctx) error {
	var payload dto.SignupRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Signup(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	h.setSessionCookie(c, resp.Token)
	return utils.SendSuccessWithStatus(c, fiber.StatusCreated, "User created successfully", resp)
}

func (h *AuthHandler) signin(c *fiber.Ctx) error {
	var payload dto.SigninRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	resp, err := h.service.Signin(c.UserContext(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	h.setSessionCookie(c, resp.Token)
	return utils.SendSuccess(c, "Sign-in successful", resp)
}

func (h *AuthHandler) signout(c *fiber.Ctx) error {
	c.Cookie(h.cookie("", -1, time.Unix(0, 0)))
	return utils.SendSuccess(c, "Signed out successfully", nil)
}

func (h *AuthHandler) me(c *fiber.Ctx) error {
	profile, err := h.service.Profile(c.UserContext(), userIDFromContext(c))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "profile retrieved", profile)
}

func (h *AuthHandler) setSessionCookie(c *fiber.Ctx, token string) {
	ttl := h.service.TokenTTL()
	c.Cookie(h.cookie(token, int(ttl.Seconds()), time.Now().Add(ttl)))
}

func (h *AuthHandler) cookie(value string, maxAge int, expires time.Time) *fiber.Cookie {
	sameSite := fiber.CookieSameSiteLaxMode
	if h.secureCookies {
		sameSite = fiber.CookieSameSiteNoneMode
	}

	return &fiber.Cookie{
		Name:     middleware.TokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Expires:  expires,
		HTTPOnly: true,
		Secure:   h.secureCookies,
		SameSite: sameSite,
	}
}

func (h *AuthHandler) handleError(c *fiber.Ctx, err error) error {
	switch {
	case isValidationError(err):
		return sendValidationError(c, err)
	case errors.Is(err, service.ErrDuplicateEmail):
		return utils.SendError(c, fiber.StatusConflict, "Email already exists")
	case errors.Is(err, service.ErrDuplicateUsername):
		return utils.SendError(c, fiber.StatusConflict, "Username already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		return utils.SendError(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, service.ErrUserNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "User not found")
	default:
		return internalError(h.logger, c, err)
	}
}
