package models

import "time"

// User is the profile consulted when grounding companion prompts
type User struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	TonePreference string    `json:"tone_preference,omitempty"`
	CharacterClass string    `json:"character_class,omitempty"`
	Backstory      string    `json:"backstory,omitempty"`
	Motto          string    `json:"motto,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Goal is an aspirational target; only non-archived goals reach prompts
type Goal struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Archived    bool      `json:"archived"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
