package handlers

import (
	"github.com/gofiber/fiber/v2"

	"questlog/internal/models"
	"questlog/internal/services"
)

// CharacterHandler exposes character stats and family members
type CharacterHandler struct {
	stats  *services.StatService
	family *services.FamilyService
}

// NewCharacterHandler creates a new character handler
func NewCharacterHandler(stats *services.StatService, family *services.FamilyService) *CharacterHandler {
	return &CharacterHandler{stats: stats, family: family}
}

// ListStats returns the user's character stats
// GET /api/stats
func (h *CharacterHandler) ListStats(c *fiber.Ctx) error {
	stats, err := h.stats.List(userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(stats))
}

// CreateStat adds a character stat
// POST /api/stats
func (h *CharacterHandler) CreateStat(c *fiber.Ctx) error {
	var req models.CreateStatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	stat, err := h.stats.Create(userID(c), &req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.OK(stat))
}

// GetStat returns one character stat
// GET /api/stats/:id
func (h *CharacterHandler) GetStat(c *fiber.Ctx) error {
	stat, err := h.stats.Get(userID(c), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(stat))
}

// DeleteStat removes a character stat
// DELETE /api/stats/:id
func (h *CharacterHandler) DeleteStat(c *fiber.Ctx) error {
	if err := h.stats.Delete(userID(c), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"deleted": true}))
}

// ListFamily returns the user's family members
// GET /api/family
func (h *CharacterHandler) ListFamily(c *fiber.Ctx) error {
	members, err := h.family.List(userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(members))
}

// CreateFamilyMember adds a family member
// POST /api/family
func (h *CharacterHandler) CreateFamilyMember(c *fiber.Ctx) error {
	var req models.CreateFamilyMemberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	member, err := h.family.Create(userID(c), &req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.OK(member))
}

// GetFamilyMember returns one family member
// GET /api/family/:id
func (h *CharacterHandler) GetFamilyMember(c *fiber.Ctx) error {
	member, err := h.family.Get(userID(c), c.Params("id"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(member))
}

// DeleteFamilyMember removes a family member
// DELETE /api/family/:id
func (h *CharacterHandler) DeleteFamilyMember(c *fiber.Ctx) error {
	if err := h.family.Delete(userID(c), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"deleted": true}))
}
