package handlers

import (
	"context"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"questlog/internal/logging"
	"questlog/internal/models"
	"questlog/internal/services"
)

// llmRequestTimeout bounds handler-initiated model round trips
const llmRequestTimeout = 90 * time.Second

// JournalHandler exposes the journal lifecycle over HTTP
type JournalHandler struct {
	journals *services.JournalService
}

// NewJournalHandler creates a new journal handler
func NewJournalHandler(journals *services.JournalService) *JournalHandler {
	return &JournalHandler{journals: journals}
}

// Today returns today's journal (if any) and the suggested next action
// GET /api/journals/today
func (h *JournalHandler) Today(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	resp, err := h.journals.Today(ctx, userID(c))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(resp))
}

// List returns journals matching the query filters
// GET /api/journals?status&dateFrom&dateTo&search&tagId&toneTag&limit&offset
func (h *JournalHandler) List(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	offset, _ := strconv.Atoi(c.Query("offset", "0"))

	query := &models.JournalListQuery{
		Status:   c.Query("status"),
		DateFrom: c.Query("dateFrom"),
		DateTo:   c.Query("dateTo"),
		Search:   c.Query("search"),
		TagID:    c.Query("tagId"),
		ToneTag:  c.Query("toneTag"),
		Limit:    limit,
		Offset:   offset,
	}

	resp, err := h.journals.List(userID(c), query)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(resp))
}

// Get returns the journal for a date
// GET /api/journals/:date
func (h *JournalHandler) Get(c *fiber.Ctx) error {
	journal, err := h.journals.GetByDate(userID(c), c.Params("date"))
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(journal))
}

// Create inserts a draft for a date
// POST /api/journals
func (h *JournalHandler) Create(c *fiber.Ctx) error {
	var req models.CreateJournalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	journal, err := h.journals.Create(userID(c), &req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(models.OK(journal))
}

// Update applies partial changes to a non-completed journal
// PUT /api/journals/:date
func (h *JournalHandler) Update(c *fiber.Ctx) error {
	var req models.UpdateJournalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	journal, err := h.journals.Update(userID(c), c.Params("date"), &req)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(journal))
}

// Edit reopens a completed journal for changes
// POST /api/journals/:date/edit
func (h *JournalHandler) Edit(c *fiber.Ctx) error {
	var req models.UpdateJournalRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	journal, err := h.journals.Edit(userID(c), c.Params("date"), req.InitialMessage)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(journal))
}

// StartReflection opens the companion conversation for a draft
// POST /api/journals/:date/start-reflection
func (h *JournalHandler) StartReflection(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), llmRequestTimeout)
	defer cancel()

	journal, err := h.journals.StartReflection(ctx, userID(c), c.Params("date"))
	if err != nil {
		return respondErr(c, err)
	}
	logging.WithJournal(journal.UserID, journal.Date, journal.Status).Info("reflection started")
	return c.JSON(models.OK(journal))
}

// Chat appends a user message and returns the companion's reply
// POST /api/journals/:date/chat
func (h *JournalHandler) Chat(c *fiber.Ctx) error {
	var req models.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(models.Fail("invalid request body"))
	}

	ctx, cancel := context.WithTimeout(context.Background(), llmRequestTimeout)
	defer cancel()

	journal, err := h.journals.AppendChatMessage(ctx, userID(c), c.Params("date"), req.Message)
	if err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(journal))
}

// Finish completes the journal and applies its side effects
// POST /api/journals/:date/finish
func (h *JournalHandler) Finish(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), llmRequestTimeout)
	defer cancel()

	journal, err := h.journals.Finish(ctx, userID(c), c.Params("date"))
	if err != nil {
		return respondErr(c, err)
	}
	logging.WithJournal(journal.UserID, journal.Date, journal.Status).Info("journal completed")
	return c.JSON(models.OK(journal))
}

// Delete removes a journal and everything it granted
// DELETE /api/journals/:date
func (h *JournalHandler) Delete(c *fiber.Ctx) error {
	if err := h.journals.Delete(userID(c), c.Params("date")); err != nil {
		return respondErr(c, err)
	}
	return c.JSON(models.OK(fiber.Map{"deleted": true}))
}
