package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"

	"github.com/google/uuid"
)

const periodSummarySystemPrompt = `You are summarizing a stretch of someone's personal journal. You will see their completed entries for the period, oldest first.

Produce:
1. "summary": a third-person narrative of the period (3-6 sentences): what happened, recurring themes, how it seemed to go for them
2. "tags": 0-5 short theme tags for the period
3. "attributes": 0-3 durable traits about the author this period revealed. Empty array if none.

Return JSON only.`

var periodSummarySchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"summary": map[string]interface{}{"type": "string"},
		"tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"attributes": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required":             []string{"summary", "tags", "attributes"},
	"additionalProperties": false,
}

type periodSummaryAnalysis struct {
	Summary    string   `json:"summary"`
	Tags       []string `json:"tags"`
	Attributes []string `json:"attributes"`
}

// SummaryService produces weekly and monthly rollups over completed
// journals. One summary per (user, period, start, end), never regenerated.
type SummaryService struct {
	db         *database.DB
	llm        *LLMService
	attributes *AttributeService
}

// NewSummaryService creates a new period summary service
func NewSummaryService(db *database.DB, llm *LLMService, attributes *AttributeService) *SummaryService {
	return &SummaryService{db: db, llm: llm, attributes: attributes}
}

// List returns a user's summaries, newest window first
func (s *SummaryService) List(userID, period string) ([]models.JournalSummary, error) {
	query := `
		SELECT id, user_id, period, start_date, end_date, summary, tags, created_at
		FROM journal_summaries WHERE user_id = ?`
	args := []interface{}{userID}
	if period != "" {
		query += ` AND period = ?`
		args = append(args, period)
	}
	query += ` ORDER BY end_date DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query summaries: %w", err)
	}
	defer rows.Close()

	summaries := []models.JournalSummary{}
	for rows.Next() {
		var sum models.JournalSummary
		var tagsJSON sql.NullString
		var body sql.NullString
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Period, &sum.StartDate, &sum.EndDate, &body, &tagsJSON, &sum.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan summary: %w", err)
		}
		sum.Summary = body.String
		if tagsJSON.Valid && tagsJSON.String != "" {
			json.Unmarshal([]byte(tagsJSON.String), &sum.Tags)
		}
		summaries = append(summaries, sum)
	}
	return summaries, rows.Err()
}

// GenerateForWindow builds one rollup for [start, end]. No-op when the
// window already has one or contains no completed journals.
func (s *SummaryService) GenerateForWindow(ctx context.Context, userID, period, start, end string) (*models.JournalSummary, error) {
	var existingID string
	err := s.db.QueryRow(`
		SELECT id FROM journal_summaries
		WHERE user_id = ? AND period = ? AND start_date = ? AND end_date = ?
	`, userID, period, start, end).Scan(&existingID)
	if err == nil {
		return nil, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing summary: %w", err)
	}

	entries, err := s.completedEntries(userID, start, end)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, nil
	}

	result, err := s.llm.Call(ctx, []models.LLMMessage{
		{Role: "system", Content: periodSummarySystemPrompt},
		{Role: "user", Content: strings.Join(entries, "\n\n")},
	}, models.LLMCallOptions{SchemaName: "period_summary", JSONSchema: periodSummarySchema})
	if err != nil {
		return nil, err
	}

	var analysis periodSummaryAnalysis
	if err := s.llm.ParseJSONResponse(result.Content, &analysis); err != nil {
		return nil, err
	}

	summary := &models.JournalSummary{
		ID:        uuid.New().String(),
		UserID:    userID,
		Period:    period,
		StartDate: start,
		EndDate:   end,
		Summary:   analysis.Summary,
		Tags:      capStrings(analysis.Tags, 5),
		CreatedAt: time.Now().UTC(),
	}
	tagsJSON, _ := json.Marshal(summary.Tags)

	_, err = s.db.Exec(`
		INSERT INTO journal_summaries (id, user_id, period, start_date, end_date, summary, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, summary.ID, summary.UserID, summary.Period, summary.StartDate, summary.EndDate, summary.Summary, string(tagsJSON), summary.CreatedAt)
	if err != nil {
		// Two schedulers racing the same window: the unique constraint keeps
		// the first one, which is fine
		if isUniqueViolation(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to insert summary: %w", err)
	}

	if _, err := s.attributes.BulkInsert(s.db, userID, "trait", models.AttributeSourceGPTSummary, capStrings(analysis.Attributes, maxSuggestedAttributes)); err != nil {
		// The summary row is already committed; trait inference is best effort
		log.Printf("⚠️ [SUMMARY] Attribute inference failed for user %s: %v", userID, err)
	}

	log.Printf("📅 [SUMMARY] Generated %s summary %s..%s for user %s", period, start, end, userID)
	return summary, nil
}

// GenerateDue produces the most recent fully-elapsed window of the given
// period for every user who journaled in it. Called by the scheduler.
func (s *SummaryService) GenerateDue(ctx context.Context, period string, now time.Time) error {
	start, end := PeriodWindow(period, now)
	if start == "" {
		return fmt.Errorf("%w: unknown period %q", ErrValidation, period)
	}

	rows, err := s.db.Query(`
		SELECT DISTINCT user_id FROM journals
		WHERE status = ? AND date >= ? AND date <= ?
	`, models.JournalStatusComplete, start, end)
	if err != nil {
		return fmt.Errorf("failed to find users with journals: %w", err)
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan user id: %w", err)
		}
		userIDs = append(userIDs, id)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, userID := range userIDs {
		if _, err := s.GenerateForWindow(ctx, userID, period, start, end); err != nil {
			// One user's failure never blocks the rest of the batch
			log.Printf("❌ [SUMMARY] %s summary failed for user %s: %v", period, userID, err)
		}
	}
	return nil
}

// completedEntries renders the window's completed journals oldest first,
// preferring each entry's narrative summary over its raw initial message
func (s *SummaryService) completedEntries(userID, start, end string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT date, initial_message, summary FROM journals
		WHERE user_id = ? AND status = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`, userID, models.JournalStatusComplete, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to query window journals: %w", err)
	}
	defer rows.Close()

	var entries []string
	for rows.Next() {
		var date string
		var initial, summary sql.NullString
		if err := rows.Scan(&date, &initial, &summary); err != nil {
			return nil, fmt.Errorf("failed to scan window journal: %w", err)
		}
		body := summary.String
		if strings.TrimSpace(body) == "" {
			body = initial.String
		}
		entries = append(entries, fmt.Sprintf("[%s]\n%s", date, body))
	}
	return entries, rows.Err()
}

// PeriodWindow returns the most recent fully-elapsed window: last
// Monday-to-Sunday week, or last calendar month.
func PeriodWindow(period string, now time.Time) (string, string) {
	now = now.UTC()
	switch period {
	case models.PeriodWeek:
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		thisMonday := now.AddDate(0, 0, -daysSinceMonday)
		start := thisMonday.AddDate(0, 0, -7)
		end := thisMonday.AddDate(0, 0, -1)
		return start.Format("2006-01-02"), end.Format("2006-01-02")
	case models.PeriodMonth:
		firstOfThis := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		start := firstOfThis.AddDate(0, -1, 0)
		end := firstOfThis.AddDate(0, 0, -1)
		return start.Format("2006-01-02"), end.Format("2006-01-02")
	default:
		return "", ""
	}
}
