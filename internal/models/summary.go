package models

import "time"

// Summary periods
const (
	PeriodWeek  = "week"
	PeriodMonth = "month"
)

// JournalSummary is a rollup narrative over a date window, one per
// (user, period, start, end). Immutable once produced.
type JournalSummary struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Period    string    `json:"period"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Summary   string    `json:"summary"`
	Tags      []string  `json:"tags,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyMemory is one daily tier entry of the conversational memory window.
// Only the most recent few carry the assistant's first reply.
type DailyMemory struct {
	Date           string `json:"date"`
	InitialMessage string `json:"initial_message"`
	AssistantReply string `json:"assistant_reply,omitempty"`
}

// MemoryContext is the three-tier context window for conversational
// grounding: monthly and weekly rollups plus recent daily entries, each tier
// ordered oldest-to-newest and mutually non-overlapping.
type MemoryContext struct {
	Monthly []JournalSummary `json:"monthly"`
	Weekly  []JournalSummary `json:"weekly"`
	Daily   []DailyMemory    `json:"daily"`
}
