package services

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"

	"github.com/google/uuid"
)

func seedCompletedJournal(t *testing.T, db *database.DB, userID, date, initial string, withReply bool) {
	t.Helper()

	session := []models.ChatMessage{{Role: "user", Content: initial, Timestamp: time.Now().UTC()}}
	if withReply {
		session = append(session, models.ChatMessage{Role: "assistant", Content: "reply for " + date, Timestamp: time.Now().UTC()})
	}
	sessionJSON, _ := json.Marshal(session)

	_, err := db.Exec(`
		INSERT INTO journals (id, user_id, date, status, initial_message, chat_session, summary, title, synopsis, tone_tags, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, '', '', '', '[]', ?, ?)
	`, uuid.New().String(), userID, date, models.JournalStatusComplete, initial, string(sessionJSON), time.Now().UTC(), time.Now().UTC())
	if err != nil {
		t.Fatalf("seed journal %s: %v", date, err)
	}
}

func seedSummary(t *testing.T, db *database.DB, userID, period, start, end, body string) {
	t.Helper()
	_, err := db.Exec(`
		INSERT INTO journal_summaries (id, user_id, period, start_date, end_date, summary, tags, created_at)
		VALUES (?, ?, ?, ?, ?, ?, '[]', ?)
	`, uuid.New().String(), userID, period, start, end, body, time.Now().UTC())
	if err != nil {
		t.Fatalf("seed %s summary %s..%s: %v", period, start, end, err)
	}
}

func TestMemoryTiersDoNotOverlap(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemoryService(db)
	today := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	// Monthly rollups for April and May
	seedSummary(t, db, "u1", models.PeriodMonth, "2025-04-01", "2025-04-30", "april")
	seedSummary(t, db, "u1", models.PeriodMonth, "2025-05-01", "2025-05-31", "may")
	// Weekly rollups for the first three weeks of June
	seedSummary(t, db, "u1", models.PeriodWeek, "2025-06-02", "2025-06-08", "week 1")
	seedSummary(t, db, "u1", models.PeriodWeek, "2025-06-09", "2025-06-15", "week 2")
	seedSummary(t, db, "u1", models.PeriodWeek, "2025-06-16", "2025-06-22", "week 3")
	// Daily entries, some inside the last weekly window, some after it
	seedCompletedJournal(t, db, "u1", "2025-06-20", "covered by week 3", true)
	for day := 23; day <= 29; day++ {
		seedCompletedJournal(t, db, "u1", fmt.Sprintf("2025-06-%02d", day), fmt.Sprintf("day %d", day), true)
	}

	mem, err := svc.Build("u1", today)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if len(mem.Monthly) != 2 || len(mem.Weekly) != 3 {
		t.Fatalf("tiers = %d monthly, %d weekly, want 2 and 3", len(mem.Monthly), len(mem.Weekly))
	}

	// Daily tier starts the day after the newest settled weekly summary:
	// nothing covered by a weekly rollup also appears raw
	if len(mem.Daily) != 7 {
		t.Fatalf("daily entries = %d, want 7", len(mem.Daily))
	}
	if mem.Daily[0].Date != "2025-06-23" {
		t.Errorf("oldest daily = %s, want 2025-06-23", mem.Daily[0].Date)
	}
	for _, d := range mem.Daily {
		if d.Date <= mem.Weekly[len(mem.Weekly)-1].EndDate {
			t.Errorf("daily %s overlaps weekly tier ending %s", d.Date, mem.Weekly[len(mem.Weekly)-1].EndDate)
		}
	}

	// Monthly tier ends at or before the oldest weekly start
	oldestWeeklyStart := mem.Weekly[0].StartDate
	for _, m := range mem.Monthly {
		if m.EndDate > oldestWeeklyStart {
			t.Errorf("monthly %s..%s overlaps weekly tier starting %s", m.StartDate, m.EndDate, oldestWeeklyStart)
		}
	}

	// Tiers are oldest-to-newest
	if mem.Monthly[0].Summary != "april" || mem.Weekly[0].Summary != "week 1" {
		t.Errorf("tier ordering: monthly[0]=%s weekly[0]=%s", mem.Monthly[0].Summary, mem.Weekly[0].Summary)
	}
}

func TestMemoryRepliesOnlyOnNewestDailies(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemoryService(db)
	today := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	for day := 20; day <= 29; day++ {
		seedCompletedJournal(t, db, "u1", fmt.Sprintf("2025-06-%02d", day), fmt.Sprintf("day %d", day), true)
	}

	mem, err := svc.Build("u1", today)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(mem.Daily) != 10 {
		t.Fatalf("daily entries = %d, want 10", len(mem.Daily))
	}

	withReplies := 0
	for i, d := range mem.Daily {
		if d.AssistantReply != "" {
			withReplies++
			if i < len(mem.Daily)-MaxDailyWithReplies {
				t.Errorf("entry %s carries a reply but is not among the %d newest", d.Date, MaxDailyWithReplies)
			}
		}
	}
	if withReplies != MaxDailyWithReplies {
		t.Errorf("entries with replies = %d, want %d", withReplies, MaxDailyWithReplies)
	}
}

func TestMemoryFallsBackToFourteenDayWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemoryService(db)
	today := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)

	// No summaries at all; one journal inside the lookback, one before it
	seedCompletedJournal(t, db, "u1", "2025-06-10", "too old", false)
	seedCompletedJournal(t, db, "u1", "2025-06-25", "recent", false)

	mem, err := svc.Build("u1", today)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(mem.Weekly) != 0 || len(mem.Monthly) != 0 {
		t.Fatalf("summary tiers not empty: %d weekly, %d monthly", len(mem.Weekly), len(mem.Monthly))
	}
	if len(mem.Daily) != 1 || mem.Daily[0].Date != "2025-06-25" {
		t.Errorf("daily = %+v, want only 2025-06-25", mem.Daily)
	}
}

func TestMemoryIgnoresUnsettledWeeks(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemoryService(db)
	today := time.Date(2025, 6, 25, 12, 0, 0, 0, time.UTC)

	// This week's summary ended 2 days ago: too fresh to roll up
	seedSummary(t, db, "u1", models.PeriodWeek, "2025-06-17", "2025-06-23", "too fresh")
	seedSummary(t, db, "u1", models.PeriodWeek, "2025-06-10", "2025-06-16", "settled")

	mem, err := svc.Build("u1", today)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(mem.Weekly) != 1 || mem.Weekly[0].Summary != "settled" {
		t.Errorf("weekly tier = %+v, want only the settled week", mem.Weekly)
	}
}

func TestMemoryFormatEmptyWindow(t *testing.T) {
	db := newTestDB(t)
	svc := NewMemoryService(db)

	mem, err := svc.Build("nobody", time.Now())
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if got := svc.Format(mem); got != "" {
		t.Errorf("Format(empty) = %q, want empty string", got)
	}
}
