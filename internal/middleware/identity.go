package middleware

import (
	"github.com/gofiber/fiber/v2"

	"questlog/internal/models"
	"questlog/internal/services"
)

// Identity resolves the caller from the X-User-ID header and stores the
// user id in c.Locals("user_id"). Unknown ids are created on first sight;
// a missing header is a 400.
func Identity(users *services.UserService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := c.Get("X-User-ID")
		if userID == "" {
			return c.Status(fiber.StatusBadRequest).JSON(models.Fail("X-User-ID header is required"))
		}

		if _, err := users.GetOrCreate(userID); err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(models.Fail("failed to resolve user"))
		}

		c.Locals("user_id", userID)
		return c.Next()
	}
}
