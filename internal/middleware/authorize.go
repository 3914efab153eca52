package middleware

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"github.com/pos-suite/pos-backend/internal/dto"
)

// RequireRoles allows the request through only when the authenticated
// identity's role is in the allow-list. It must run after RequireAuth; a
// missing identity yields 401 rather than a panic if the chain is miswired.
func RequireRoles(roles ...string) fiber.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		identity := GetIdentity(c)
		if identity == nil {
			return unauthorized(c, "Not authenticated")
		}

		if _, ok := allowed[identity.Role]; !ok {
			slog.Info("role denied", "user_id", identity.UserID, "role", identity.Role, "path", c.Path())
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error:   true,
				Message: "You do not have permission to access this resource",
			})
		}
		return c.Next()
	}
}
