package models

import "time"

// User attribute sources
const (
	AttributeSourceUserSet         = "user_set"
	AttributeSourceGPTSummary      = "gpt_summary"
	AttributeSourceJournalAnalysis = "journal_analysis"
)

// UserAttribute records a durable trait inferred about the user.
// Unique per (user, category, value); recurring inferences update
// source/last_updated instead of duplicating.
type UserAttribute struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Category    string    `json:"category"`
	Value       string    `json:"value"`
	Source      string    `json:"source"`
	LastUpdated time.Time `json:"last_updated"`
}
