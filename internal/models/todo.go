package models

import "time"

// Todo is a short-lived action item suggested by journal analysis.
// Expires 24 hours after creation unless completed.
type Todo struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Content    string    `json:"content"`
	SourceType string    `json:"source_type,omitempty"`
	SourceID   string    `json:"source_id,omitempty"`
	Completed  bool      `json:"completed"`
	ExpiresAt  time.Time `json:"expires_at"`
	CreatedAt  time.Time `json:"created_at"`
}
