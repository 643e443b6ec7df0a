package models

import "time"

// CharacterStat is a user-defined attribute track (e.g. Strength, Wisdom)
// with a cached XP total derived from the grant ledger.
type CharacterStat struct {
	ID                string    `json:"id"`
	UserID            string    `json:"user_id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	ExampleActivities string    `json:"example_activities,omitempty"`
	Level             int       `json:"level"`
	TotalXP           int       `json:"total_xp"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// FamilyMember tracks a relationship with its own connection XP subset.
type FamilyMember struct {
	ID                  string    `json:"id"`
	UserID              string    `json:"user_id"`
	Name                string    `json:"name"`
	Relationship        string    `json:"relationship"`
	Likes               string    `json:"likes,omitempty"`
	Dislikes            string    `json:"dislikes,omitempty"`
	ConnectionLevel     int       `json:"connection_level"`
	ConnectionXP        int       `json:"connection_xp"`
	LastInteractionDate string    `json:"last_interaction_date,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// CreateStatRequest creates a character stat
type CreateStatRequest struct {
	Name              string `json:"name"`
	Description       string `json:"description"`
	ExampleActivities string `json:"example_activities"`
}

// CreateFamilyMemberRequest creates a family member
type CreateFamilyMemberRequest struct {
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Likes        string `json:"likes"`
	Dislikes     string `json:"dislikes"`
}
