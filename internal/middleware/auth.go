package middleware

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/pos-suite/pos-backend/internal/dto"
	"github.com/pos-suite/pos-backend/internal/security"
)

const identityKey = "identity"

// Identity is the authenticated caller attached to the request context by
// RequireAuth. Authorization middleware and handlers read it through
// GetIdentity; it is never populated any other way.
type Identity struct {
	UserID   uuid.UUID
	Username string
	Role     string
}

// RequireAuth verifies the bearer access token on every request it guards.
// Verification is pure computation against the access key, no store lookup.
// An expired token gets a "session expired" message so clients know to run
// the refresh flow; every other failure gets the same generic message so the
// response does not reveal whether the signature or the claims were bad.
func RequireAuth(tokens *security.TokenService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return unauthorized(c, "Authentication token not provided")
		}

		claims, err := tokens.Verify(strings.TrimPrefix(header, "Bearer "), security.KindAccess)
		if err != nil {
			if errors.Is(err, security.ErrTokenExpired) {
				slog.Info("access token expired", "path", c.Path(), "ip", c.IP())
				return unauthorized(c, "Session expired, please log in again")
			}
			slog.Info("access token rejected", "path", c.Path(), "ip", c.IP())
			return unauthorized(c, "Invalid authentication token")
		}

		userID, err := claims.UserID()
		if err != nil {
			return unauthorized(c, "Invalid authentication token")
		}

		c.Locals(identityKey, &Identity{
			UserID:   userID,
			Username: claims.Username,
			Role:     claims.Role,
		})
		return c.Next()
	}
}

// GetIdentity returns the identity set by RequireAuth, or nil when the
// request never passed through it.
func GetIdentity(c *fiber.Ctx) *Identity {
	id, _ := c.Locals(identityKey).(*Identity)
	return id
}

func unauthorized(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
		Error:   true,
		Message: message,
	})
}
