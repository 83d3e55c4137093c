package middleware

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/examprep-api/internal/models"
	"github.com/noah-isme/examprep-api/internal/utils"
)

// RequireRole ensures that the authenticated user possesses one of the allowed roles.
// It must run after Authenticate.
func RequireRole(roles ...string) fiber.Handler {
	return authorize(roles, func(role string) string {
		return fmt.Sprintf("User role '%s' is not authorized to access this route", role)
	})
}

// TeacherOnly admits teachers.
func TeacherOnly() fiber.Handler {
	return authorize([]string{models.RoleTeacher}, func(string) string {
		return "Access denied. Teachers only."
	})
}

// StudentOnly admits students.
func StudentOnly() fiber.Handler {
	return authorize([]string{models.RoleStudent}, func(string) string {
		return "Access denied. Students only."
	})
}

func authorize(roles []string, deniedMessage func(role string) string) fiber.Handler {
	allowed := make([]string, 0, len(roles))
	for _, role := range roles {
		if normalized := strings.ToLower(strings.TrimSpace(role)); normalized != "" {
			allowed = append(allowed, normalized)
		}
	}

	return func(c *fiber.Ctx) error {
		user, ok := CurrentUser(c)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "Not authenticated")
		}
		if !user.HasRole(allowed...) {
			return utils.SendError(c, fiber.StatusForbidden, deniedMessage(user.Role))
		}
		return c.Next()
	}
}
