package models

import "time"

// Tag is a free-text, user-namespaced topic label. Distinct from tone tags;
// tag grants always carry 0 XP.
type Tag struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TagWithCount is a tag enriched with how many journals reference it
type TagWithCount struct {
	Tag
	UsageCount int `json:"usage_count"`
}
