package handlers

import (
	"github.com/gofiber/fiber/v2"

	"questlog/internal/models"
	"questlog/internal/services"
)

// ProfileHandler exposes tags, goals, attributes, and todos
type ProfileHandler struct {
	tags       *services.TagService
	goals      *services.GoalService
	attributes *services.AttributeService
	todos      *services.TodoService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(tags *services.TagService, goals *services.GoalService, attributes *services.AttributeService, todos *services.TodoService) *ProfileHandler {
	return &ProfileHandler{tags: tags, goals: goals, attributes: attributes, todos: todos}
}

// ListTags returns the user's tag vocabulary with usage counts
// GET /api/tags
func (h *ProfileHandler) ListTags(c *fiber.Ctx) error {
	tags, err := h.tags.ListWithCounts(userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(tags))
}

// DeleteTag removes a tag
// DELETE /api/tags/:id
func (h *ProfileHandler) DeleteTag(c *fiber.Ctx) error {
	if err := h.tags.Delete(userID(c), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"deleted": true}))
}

// ListGoals returns the user's goals
// GET /api/goals?includeArchived=true
func (h *ProfileHandler) ListGoals(c *fiber.Ctx) error {
	goals, err := h.goals.List(userID(c), c.Query("includeArchived") == "true")
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(goals))
}

// CreateGoal adds a goal
// POST /api/goals
func (h *ProfileHandler) CreateGoal(c *fiber.Ctx) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	goal, err := h.goals.Create(userID(c), req.Title, req.Description)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.OK(goal))
}

// ArchiveGoal archives a goal
// POST /api/goals/:id/archive
func (h *ProfileHandler) ArchiveGoal(c *fiber.Ctx) error {
	if err := h.goals.Archive(userID(c), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"archived": true}))
}

// DeleteGoal removes a goal
// DELETE /api/goals/:id
func (h *ProfileHandler) DeleteGoal(c *fiber.Ctx) error {
	if err := h.goals.Delete(userID(c), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"deleted": true}))
}

// ListAttributes returns everything inferred or recorded about the user
// GET /api/attributes
func (h *ProfileHandler) ListAttributes(c *fiber.Ctx) error {
	attrs, err := h.attributes.List(userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(attrs))
}

// CreateAttribute records a user-set attribute
// POST /api/attributes
func (h *ProfileHandler) CreateAttribute(c *fiber.Ctx) error {
	var req struct {
		Category string `json:"category"`
		Value    string `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}
	if req.Category == "" {
		req.Category = "trait"
	}

	if err := h.attributes.Upsert(userID(c), req.Category, req.Value, models.AttributeSourceUserSet); err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.OK(fiber.Map{"recorded": true}))
}

// DeleteAttribute removes an attribute
// DELETE /api/attributes/:id
func (h *ProfileHandler) DeleteAttribute(c *fiber.Ctx) error {
	if err := h.attributes.Delete(userID(c), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"deleted": true}))
}

// ListTodos returns the user's unexpired todos
// GET /api/todos
func (h *ProfileHandler) ListTodos(c *fiber.Ctx) error {
	todos, err := h.todos.List(userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(todos))
}

// CompleteTodo marks a todo done
// POST /api/todos/:id/complete
func (h *ProfileHandler) CompleteTodo(c *fiber.Ctx) error {
	if err := h.todos.Complete(userID(c), c.Params("id")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"completed": true}))
}
