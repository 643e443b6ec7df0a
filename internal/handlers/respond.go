package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"questlog/internal/models"
	"questlog/internal/services"
)

// userID pulls the identity the middleware resolved
func userID(c *fiber.Ctx) string {
	id, _ := c.Locals("user_id").(string)
	return id
}

// respondErr maps service errors onto the response envelope. Clients always
// get {success:false, error}, never a stack trace.
func respondErr(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(models.Fail(err.Error()))
	case errors.Is(err, services.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(models.Fail(err.Error()))
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidState):
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail(err.Error()))
	}

	var callErr *services.UpstreamCallError
	if errors.As(err, &callErr) {
		log.Printf("❌ [API] Upstream call failed on %s: %v", c.Path(), err)
		return c.Status(fiber.StatusBadGateway).JSON(models.Fail("model provider is unavailable, try again shortly"))
	}
	var parseErr *services.UpstreamParseError
	if errors.As(err, &parseErr) {
		log.Printf("❌ [API] Upstream response unusable on %s: %v", c.Path(), err)
		return c.Status(fiber.StatusBadGateway).JSON(models.Fail("model returned an unusable response, try again shortly"))
	}

	log.Printf("❌ [API] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(fiber.StatusInternalServerError).JSON(models.Fail("internal error"))
}
