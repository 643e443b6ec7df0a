package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"questlog/internal/models"
	"questlog/internal/services"
)

// SummaryHandler exposes period summaries
type SummaryHandler struct {
	summaries *services.SummaryService
}

// NewSummaryHandler creates a new summary handler
func NewSummaryHandler(summaries *services.SummaryService) *SummaryHandler {
	return &SummaryHandler{summaries: summaries}
}

// List returns the user's period summaries
// GET /api/summaries?period=week|month
func (h *SummaryHandler) List(c *fiber.Ctx) error {
	period := c.Query("period")
	if period != "" && period != models.PeriodWeek && period != models.PeriodMonth {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("period must be week or month"))
	}

	summaries, err := h.summaries.List(userID(c), period)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(summaries))
}

// Generate produces the most recent elapsed window on demand, mostly for
// catching up after downtime. The scheduler does this automatically.
// POST /api/summaries/generate?period=week|month
func (h *SummaryHandler) Generate(c *fiber.Ctx) error {
	period := c.Query("period", models.PeriodWeek)
	if period != models.PeriodWeek && period != models.PeriodMonth {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("period must be week or month"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), llmRequestTimeout)
	defer cancel()

	start, end := services.PeriodWindow(period, time.Now())
	summary, err := h.summaries.GenerateForWindow(ctx, userID(c), period, start, end)
	if err != nil {
		return respondErr(c, err)
	}
	if summary == nil {
		return c.JSON(models.OK(fiber.Map{"generated": false}))
	}
	return c.Status(fiber.StatusCreated).JSON(models.OK(summary))
}
