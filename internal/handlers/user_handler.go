package handlers

import (
	"github.com/gofiber/fiber/v2"

	"questlog/internal/models"
	"questlog/internal/services"
)

// UserHandler exposes the user profile
type UserHandler struct {
	users *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(users *services.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Get returns the caller's profile
// GET /api/profile
func (h *UserHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(user))
}

// Update replaces the caller's editable profile fields
// PUT /api/profile
func (h *UserHandler) Update(c *fiber.Ctx) error {
	var user models.User
	if err := c.BodyParser(&user); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	if err := h.users.Update(userID(c), &user); err != nil {
		return respondErr(c, err)
	}

	updated, err := h.users.Get(userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(updated))
}
