package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"
)

// Memory window bounds. Daily entries beyond the reply window carry only
// the user's initial message to keep prompt size bounded.
const (
	MaxDailyEntries      = 14
	MaxDailyWithReplies  = 5
	MaxWeeklySummaries   = 3
	MaxMonthlySummaries  = 2
	weeklySettlementDays = 7 // a week is never shown rolled-up while also raw
)

// MemoryService selects the bounded, non-overlapping three-tier context
// window used for conversational continuity: monthly rollups, then weekly
// rollups, then recent daily entries.
type MemoryService struct {
	db *database.DB
}

// NewMemoryService creates a new memory aggregator
func NewMemoryService(db *database.DB) *MemoryService {
	return &MemoryService{db: db}
}

// Build assembles the memory window for a user as of a reference day.
// Each tier is returned oldest-to-newest.
func (s *MemoryService) Build(userID string, today time.Time) (*models.MemoryContext, error) {
	todayStr := today.Format("2006-01-02")
	settled := today.AddDate(0, 0, -weeklySettlementDays).Format("2006-01-02")

	weekly, err := s.recentSummaries(userID, models.PeriodWeek, settled, MaxWeeklySummaries)
	if err != nil {
		return nil, fmt.Errorf("failed to load weekly summaries: %w", err)
	}

	// Daily cutoff: the day after the newest settled weekly summary, else a
	// flat 14-day lookback.
	cutoff := today.AddDate(0, 0, -MaxDailyEntries).Format("2006-01-02")
	if len(weekly) > 0 {
		newest := weekly[len(weekly)-1]
		if end, err := time.Parse("2006-01-02", newest.EndDate); err == nil {
			cutoff = end.AddDate(0, 0, 1).Format("2006-01-02")
		}
	}

	daily, err := s.recentDailies(userID, cutoff, todayStr)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily entries: %w", err)
	}

	// Monthly tier must end at or before the start of the oldest weekly
	// summary (or the daily cutoff when no weekly tier exists).
	monthlyBound := cutoff
	if len(weekly) > 0 {
		monthlyBound = weekly[0].StartDate
	}
	monthly, err := s.recentSummaries(userID, models.PeriodMonth, monthlyBound, MaxMonthlySummaries)
	if err != nil {
		return nil, fmt.Errorf("failed to load monthly summaries: %w", err)
	}

	log.Printf("🧠 [MEMORY] Window for user %s: %d monthly, %d weekly, %d daily (cutoff %s)",
		userID, len(monthly), len(weekly), len(daily), cutoff)

	return &models.MemoryContext{Monthly: monthly, Weekly: weekly, Daily: daily}, nil
}

// recentSummaries returns up to limit summaries of a period whose end date is
// on/before bound, oldest-to-newest. Storage orders newest-first; the slice
// is reversed before returning.
func (s *MemoryService) recentSummaries(userID, period, bound string, limit int) ([]models.JournalSummary, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, period, start_date, end_date, summary, tags, created_at
		FROM journal_summaries
		WHERE user_id = ? AND period = ? AND end_date <= ?
		ORDER BY end_date DESC
		LIMIT ?
	`, userID, period, bound, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []models.JournalSummary
	for rows.Next() {
		var sum models.JournalSummary
		var tagsJSON sql.NullString
		if err := rows.Scan(&sum.ID, &sum.UserID, &sum.Period, &sum.StartDate, &sum.EndDate, &sum.Summary, &tagsJSON, &sum.CreatedAt); err != nil {
			return nil, err
		}
		if tagsJSON.Valid && tagsJSON.String != "" {
			if err := json.Unmarshal([]byte(tagsJSON.String), &sum.Tags); err != nil {
				log.Printf("⚠️ [MEMORY] Bad tags JSON on summary %s: %v", sum.ID, err)
			}
		}
		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverseSummaries(summaries)
	return summaries, nil
}

// recentDailies returns up to MaxDailyEntries completed journals dated in
// [cutoff, today], oldest-to-newest. Only the most recent few entries carry
// the assistant's first reply.
func (s *MemoryService) recentDailies(userID, cutoff, today string) ([]models.DailyMemory, error) {
	rows, err := s.db.Query(`
		SELECT date, initial_message, chat_session
		FROM journals
		WHERE user_id = ? AND status = ? AND date >= ? AND date <= ?
		ORDER BY date DESC
		LIMIT ?
	`, userID, models.JournalStatusComplete, cutoff, today, MaxDailyEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var dailies []models.DailyMemory
	for rows.Next() {
		var d models.DailyMemory
		var initial, sessionJSON sql.NullString
		if err := rows.Scan(&d.Date, &initial, &sessionJSON); err != nil {
			return nil, err
		}
		d.InitialMessage = initial.String

		// Newest-first here, so the first MaxDailyWithReplies rows get replies
		if len(dailies) < MaxDailyWithReplies && sessionJSON.Valid {
			var session []models.ChatMessage
			if err := json.Unmarshal([]byte(sessionJSON.String), &session); err == nil {
				for _, msg := range session {
					if msg.Role == "assistant" {
						d.AssistantReply = msg.Content
						break
					}
				}
			}
		}
		dailies = append(dailies, d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	reverseDailies(dailies)
	return dailies, nil
}

// Format renders the window as prompt text, monthly → weekly → daily,
// preserving chronological narrative flow.
func (s *MemoryService) Format(mem *models.MemoryContext) string {
	if len(mem.Monthly) == 0 && len(mem.Weekly) == 0 && len(mem.Daily) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("JOURNAL MEMORY:\n")

	for _, m := range mem.Monthly {
		b.WriteString(fmt.Sprintf("\n[Month %s to %s] %s\n", m.StartDate, m.EndDate, m.Summary))
	}
	for _, w := range mem.Weekly {
		b.WriteString(fmt.Sprintf("\n[Week %s to %s] %s\n", w.StartDate, w.EndDate, w.Summary))
	}
	for _, d := range mem.Daily {
		b.WriteString(fmt.Sprintf("\n[%s] %s\n", d.Date, d.InitialMessage))
		if d.AssistantReply != "" {
			b.WriteString(fmt.Sprintf("(companion replied: %s)\n", d.AssistantReply))
		}
	}

	return b.String()
}

func reverseSummaries(s []models.JournalSummary) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}

func reverseDailies(s []models.DailyMemory) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
