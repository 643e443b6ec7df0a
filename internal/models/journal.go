package models

import "time"

// Journal lifecycle statuses
const (
	JournalStatusDraft    = "draft"
	JournalStatusInReview = "in_review"
	JournalStatusComplete = "complete"
)

// ValidToneTags is the fixed emotional-state vocabulary. Model output outside
// this set is dropped, never stored.
var ValidToneTags = []string{"happy", "calm", "energized", "overwhelmed", "sad", "angry", "anxious"}

// MaxToneTags bounds how many tone tags a journal may carry
const MaxToneTags = 2

// ChatMessage is one turn of the companion conversation
type ChatMessage struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Journal is one entry per (user, calendar date)
type Journal struct {
	ID                string        `json:"id"`
	UserID            string        `json:"user_id"`
	Date              string        `json:"date"` // YYYY-MM-DD, immutable key
	Status            string        `json:"status"`
	InitialMessage    string        `json:"initial_message"`
	ChatSession       []ChatMessage `json:"chat_session"`
	Summary           string        `json:"summary,omitempty"`
	Title             string        `json:"title,omitempty"`
	Synopsis          string        `json:"synopsis,omitempty"`
	ToneTags          []string      `json:"tone_tags,omitempty"`
	DayRating         *int          `json:"day_rating,omitempty"`
	InferredDayRating *int          `json:"inferred_day_rating,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// CreateJournalRequest creates a draft for a date
type CreateJournalRequest struct {
	Date           string `json:"date"`
	InitialMessage string `json:"initial_message"`
	DayRating      *int   `json:"day_rating"`
}

// UpdateJournalRequest carries optional fields; nil means "leave unchanged"
type UpdateJournalRequest struct {
	InitialMessage *string `json:"initial_message"`
	DayRating      *int    `json:"day_rating"`
}

// ChatRequest appends a user message to an in-review journal
type ChatRequest struct {
	Message string `json:"message"`
}

// JournalListQuery captures the list endpoint's filters
type JournalListQuery struct {
	Status   string
	DateFrom string
	DateTo   string
	Search   string
	TagID    string
	ToneTag  string
	Limit    int
	Offset   int
}

// JournalListItem is a journal enriched with XP earned and content tags
type JournalListItem struct {
	Journal
	XPEarned    int      `json:"xp_earned"`
	ContentTags []string `json:"content_tags"`
}

// JournalListResponse is the paginated list payload
type JournalListResponse struct {
	Journals []JournalListItem `json:"journals"`
	Total    int               `json:"total"`
	Limit    int               `json:"limit"`
	Offset   int               `json:"offset"`
}

// TodayResponse answers "is there a journal for today, and what's next?"
type TodayResponse struct {
	Exists     bool     `json:"exists"`
	Journal    *Journal `json:"journal,omitempty"`
	Status     string   `json:"status,omitempty"`
	ActionText string   `json:"action_text"`
}
