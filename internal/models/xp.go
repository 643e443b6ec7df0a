package models

import "time"

// XP grant entity types
const (
	EntityTypeCharacterStat = "character_stat"
	EntityTypeFamilyMember  = "family_member"
	EntityTypeContentTag    = "content_tag"
	EntityTypeGoal          = "goal"
	EntityTypeProject       = "project"
	EntityTypeAdventure     = "adventure"
)

// XP grant source types
const (
	SourceTypeJournal = "journal"
	SourceTypeSummary = "summary"
)

// XPGrant is an immutable ledger record crediting XP to an entity,
// traceable to its triggering source. Content-tag grants always carry 0 XP.
type XPGrant struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	EntityType string    `json:"entity_type"`
	EntityID   string    `json:"entity_id"`
	XPAmount   int       `json:"xp_amount"`
	SourceType string    `json:"source_type"`
	SourceID   string    `json:"source_id"`
	Reason     string    `json:"reason"`
	CreatedAt  time.Time `json:"created_at"`
}
