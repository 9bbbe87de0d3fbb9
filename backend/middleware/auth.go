package middleware

import (
	"certprep/backend/config"
	"certprep/backend/utils"

	"github.com/gofiber/fiber/v2"
)

// UserIDKey is the fiber locals key holding the authenticated user ID.
const UserIDKey = "user_id"

// RequireAuth rejects requests without a valid token and stores the user ID
// in locals for handlers downstream.
func RequireAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, err := utils.ExtractUserIDFromToken(c, cfg)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Unauthorized",
			})
		}
		c.Locals(UserIDKey, userID)
		return c.Next()
	}
}

// OptionalAuth stores the user ID when a valid token is present and lets the
// request through as a visitor otherwise. Tier resolution downstream treats
// the missing ID as the visitor tier.
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if userID, err := utils.ExtractUserIDFromToken(c, cfg); err == nil {
			c.Locals(UserIDKey, userID)
		}
		return c.Next()
	}
}

// AuthenticatedUser reads the user ID stored by the auth middleware. The
// second return is false for visitors.
func AuthenticatedUser(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals(UserIDKey).(uint)
	return userID, ok
}
