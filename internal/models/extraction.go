package models

// ContentAnalysis is the structured result of the content-analysis call:
// user-authored messages only, against the existing tag/attribute vocabulary.
type ContentAnalysis struct {
	Title               string   `json:"title"`
	Synopsis            string   `json:"synopsis"`
	SuggestedTags       []string `json:"suggested_tags"`
	SuggestedTodos      []string `json:"suggested_todos"`
	SuggestedAttributes []string `json:"suggested_attributes"`
}

// XPSuggestion is a model-proposed grant for a named entity
type XPSuggestion struct {
	XP     int    `json:"xp"`
	Reason string `json:"reason"`
}

// ContextAnalysis is the structured result of the context-analysis call:
// user messages against the stat and family rosters.
type ContextAnalysis struct {
	ToneTags            []string                `json:"tone_tags"`
	SuggestedStatTags   map[string]XPSuggestion `json:"suggested_stat_tags"`
	SuggestedFamilyTags map[string]XPSuggestion `json:"suggested_family_tags"`
}

// ResolvedStatGrant is a stat suggestion matched to a roster entity
type ResolvedStatGrant struct {
	Stat   CharacterStat
	XP     int
	Reason string
}

// ResolvedFamilyGrant is a family suggestion matched to a roster entity
type ResolvedFamilyGrant struct {
	Member FamilyMember
	XP     int
	Reason string
}

// ExtractionResult merges both analyses with names resolved to durable IDs.
// Unmatched stat/family names are dropped during the merge, never invented.
type ExtractionResult struct {
	Title               string
	Synopsis            string
	Summary             string
	ToneTags            []string
	Tags                []Tag
	StatGrants          []ResolvedStatGrant
	FamilyGrants        []ResolvedFamilyGrant
	Todos               []string
	SuggestedAttributes []string
}
