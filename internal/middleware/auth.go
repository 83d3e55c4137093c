package middleware

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/service"
	"github.com/noah-isme/examprep-api/internal/utils"
)

// TokenCookie is the name of the cookie holding the session token.
const TokenCookie = "token"

// IdentityResolver turns a session token into the account it belongs to.
// Token problems are reported as service.ErrUnauthenticated; any other error
// is a server failure.
type IdentityResolver interface {
	ResolveIdentity(ctx context.Context, token string) (models.User, error)
}

type userContextKey struct{}

// Authenticate resolves the caller on every request. The user is re-read on
// each call so role changes and deletions take effect immediately.
func Authenticate(resolver IdentityResolver, logger zerolog.Logger) fiber.Handler {
	logger = logger.With().Str("component", "auth_middleware").Logger()

	return func(c *fiber.Ctx) error {
		token := TokenFromRequest(c)
		if token == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "No token, authorization denied")
		}

		user, err := resolver.ResolveIdentity(c.UserContext(), token)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				return utils.SendError(c, fiber.StatusUnauthorized, "Token is not valid")
			}
			requestLogger := RequestLogger(logger, c)
			requestLogger.Error().Err(err).Msg("failed to resolve identity")
			return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
		}

		user.PasswordHash = ""
		c.Locals("user_id", user.ID)
		c.Locals("user_role", user.Role)
		c.Locals("user", user)
		c.SetUserContext(context.WithValue(c.UserContext(), userContextKey{}, user))

		return c.Next()
	}
}

// TokenFromRequest reads the bearer token from the Authorization header,
// falling back to the session cookie.
func TokenFromRequest(c *fiber.Ctx) string {
	authorization := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	const bearer = "bearer "
	if len(authorization) > len(bearer) && strings.EqualFold(authorization[:len(bearer)], bearer) {
		if token := strings.TrimSpace(authorization[len(bearer):]); token != "" {
			return token
		}
	}
	return strings.TrimSpace(c.Cookies(TokenCookie))
}

// CurrentUser returns the user resolved by Authenticate.
func CurrentUser(c *fiber.Ctx) (models.User, bool) {
	user, ok := c.Locals("user").(models.User)
	return user, ok && user.ID != 0
}

// UserFromContext returns the user attached to a request context by Authenticate.
func UserFromContext(ctx context.Context) (models.User, bool) {
	if ctx == nil {
		return models.User{}, false
	}
	user, ok := ctx.Value(userContextKey{}).(models.User)
	return user, ok && user.ID != 0
}
