package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/aralhq/aral-go-api/internal/utils"
)

// RequireRole restricts a route to requests whose token carries one of the
// allowed roles. JWTProtected must run first.
func RequireRole(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("user_role").(string)
		if !ok || role == "" {
			return utils.SendError(c, fiber.StatusForbidden, "role missing from token")
		}

		if _, ok := allowed[strings.ToLower(role)]; !ok {
			return utils.SendError(c, fiber.StatusForbidden, "insufficient permissions")
		}

		return c.Next()
	}
}
