package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"questlog/internal/models"
)

// Suggestion caps enforced on merge regardless of what the model returns
const (
	maxSuggestedTodos      = 5
	maxSuggestedAttributes = 3
	minSuggestedXP         = 5
	maxSuggestedXP         = 50
)

// Content analysis: user-authored messages only, against the existing tag and
// attribute vocabulary so the model doesn't re-suggest what's already known.
const contentAnalysisSystemPrompt = `You are analyzing a personal journal conversation. You will see only the journal author's own messages, plus their existing tag vocabulary and known attributes.

Produce:
1. "title": a short title for the entry (under 60 characters)
2. "synopsis": one or two sentences capturing the day
3. "suggested_tags": topic tags for this entry. Prefer existing tags when they fit; propose new ones sparingly.
4. "suggested_todos": 0-5 concrete follow-up actions the author mentioned or implied. Verb-first, under 100 characters each. Empty array if none.
5. "suggested_attributes": 0-3 durable traits about the author revealed here that are NOT already in the known attributes. Empty array if none.

Return JSON only.`

// Context analysis: the same user messages against the character stat and
// family rosters, for tone and XP suggestions.
const contextAnalysisSystemPrompt = `You are analyzing a personal journal conversation against the author's character sheet.

Produce:
1. "tone_tags": at most 2 values from exactly this set: happy, calm, energized, overwhelmed, sad, angry, anxious
2. "suggested_stat_tags": map from stat name (from the provided stats, exact names) to {"xp": 5-50, "reason": "..."} for stats this day exercised. Empty object if none.
3. "suggested_family_tags": map from family member name (from the provided members, exact names) to {"xp": 5-50, "reason": "..."} for meaningful interactions. Empty object if none.

Only reference stats and family members that were provided. Return JSON only.`

// Narrative summary: prose, not JSON. A distinct call because it optimizes
// for different output than the structured analyses.
const narrativeSummarySystemPrompt = `Rewrite the journal author's messages into a single first-person journal-style narrative. Preserve their voice and wording where possible. Do not add events they did not mention. Do not mention the assistant. Output only the narrative.`

var contentAnalysisSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"title":    map[string]interface{}{"type": "string"},
		"synopsis": map[string]interface{}{"type": "string"},
		"suggested_tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"suggested_todos": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"suggested_attributes": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
	},
	"required":             []string{"title", "synopsis", "suggested_tags", "suggested_todos", "suggested_attributes"},
	"additionalProperties": false,
}

var contextAnalysisSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"tone_tags": map[string]interface{}{
			"type":  "array",
			"items": map[string]interface{}{"type": "string"},
		},
		"suggested_stat_tags": map[string]interface{}{
			"type": "object",
			"additionalProperties": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"xp":     map[string]interface{}{"type": "integer"},
					"reason": map[string]interface{}{"type": "string"},
				},
				"required": []string{"xp", "reason"},
			},
		},
		"suggested_family_tags": map[string]interface{}{
			"type": "object",
			"additionalProperties": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"xp":     map[string]interface{}{"type": "integer"},
					"reason": map[string]interface{}{"type": "string"},
				},
				"required": []string{"xp", "reason"},
			},
		},
	},
	"required":             []string{"tone_tags", "suggested_stat_tags", "suggested_family_tags"},
	"additionalProperties": false,
}

// ExtractionService turns a finished conversation into structured metadata:
// tags, tone tags, XP suggestions, todos, and inferred attributes, with
// model-returned names resolved to durable entity IDs.
type ExtractionService struct {
	llm        *LLMService
	tags       *TagService
	contextSvc *ContextService
}

// NewExtractionService creates a new metadata extraction pipeline
func NewExtractionService(llm *LLMService, tags *TagService, contextSvc *ContextService) *ExtractionService {
	return &ExtractionService{llm: llm, tags: tags, contextSvc: contextSvc}
}

// Extract runs both analyses concurrently, then the narrative summary, then
// merges everything with names resolved to IDs. Any upstream failure aborts
// the whole extraction; the caller commits nothing.
func (s *ExtractionService) Extract(ctx context.Context, userID string, session []models.ChatMessage) (*models.ExtractionResult, error) {
	userText := userMessagesTranscript(session)
	if strings.TrimSpace(userText) == "" {
		return nil, fmt.Errorf("%w: conversation has no user messages", ErrValidation)
	}

	snapshot, err := s.contextSvc.Build(userID, ContextOptions{
		IncludeFamily:     true,
		IncludeStats:      true,
		IncludeTags:       true,
		IncludeAttributes: true,
	})
	if err != nil {
		return nil, err
	}

	var (
		wg         sync.WaitGroup
		content    models.ContentAnalysis
		contextual models.ContextAnalysis
		contentErr error
		contextErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		contentErr = s.runContentAnalysis(ctx, snapshot, userText, &content)
	}()
	go func() {
		defer wg.Done()
		contextErr = s.runContextAnalysis(ctx, snapshot, userText, &contextual)
	}()
	wg.Wait()

	if contentErr != nil {
		return nil, contentErr
	}
	if contextErr != nil {
		return nil, contextErr
	}

	summary, err := s.runNarrativeSummary(ctx, userText)
	if err != nil {
		return nil, err
	}

	return s.merge(userID, snapshot, &content, &contextual, summary)
}

func (s *ExtractionService) runContentAnalysis(ctx context.Context, snapshot *UserContext, userText string, out *models.ContentAnalysis) error {
	var vocab strings.Builder
	if len(snapshot.Tags) > 0 {
		vocab.WriteString("EXISTING TAGS: ")
		for i, t := range snapshot.Tags {
			if i > 0 {
				vocab.WriteString(", ")
			}
			vocab.WriteString(t.Name)
		}
		vocab.WriteString("\n")
	}
	if len(snapshot.Attributes) > 0 {
		vocab.WriteString("KNOWN ATTRIBUTES:\n")
		for _, a := range snapshot.Attributes {
			vocab.WriteString(fmt.Sprintf("- [%s] %s\n", a.Category, a.Value))
		}
	}

	prompt := fmt.Sprintf("%s\nJOURNAL ENTRIES (author's own words):\n%s", vocab.String(), userText)

	result, err := s.llm.Call(ctx, []models.LLMMessage{
		{Role: "system", Content: contentAnalysisSystemPrompt},
		{Role: "user", Content: prompt},
	}, models.LLMCallOptions{SchemaName: "content_analysis", JSONSchema: contentAnalysisSchema, Temperature: lowTemp()})
	if err != nil {
		return err
	}

	return s.llm.ParseJSONResponse(result.Content, out)
}

func (s *ExtractionService) runContextAnalysis(ctx context.Context, snapshot *UserContext, userText string, out *models.ContextAnalysis) error {
	var roster strings.Builder
	if len(snapshot.Stats) > 0 {
		roster.WriteString("CHARACTER STATS:\n")
		for _, st := range snapshot.Stats {
			roster.WriteString(fmt.Sprintf("- %s (level %d)", st.Name, st.Level))
			if st.ExampleActivities != "" {
				roster.WriteString(fmt.Sprintf(" examples: %s", st.ExampleActivities))
			}
			roster.WriteString("\n")
		}
	}
	if len(snapshot.Family) > 0 {
		roster.WriteString("FAMILY MEMBERS:\n")
		for _, m := range snapshot.Family {
			roster.WriteString(fmt.Sprintf("- %s (%s, connection level %d)", m.Name, m.Relationship, m.ConnectionLevel))
			if m.Likes != "" {
				roster.WriteString(fmt.Sprintf(" likes: %s;", m.Likes))
			}
			if m.Dislikes != "" {
				roster.WriteString(fmt.Sprintf(" dislikes: %s", m.Dislikes))
			}
			roster.WriteString("\n")
		}
	}

	prompt := fmt.Sprintf("%s\nJOURNAL ENTRIES (author's own words):\n%s", roster.String(), userText)

	result, err := s.llm.Call(ctx, []models.LLMMessage{
		{Role: "system", Content: contextAnalysisSystemPrompt},
		{Role: "user", Content: prompt},
	}, models.LLMCallOptions{SchemaName: "context_analysis", JSONSchema: contextAnalysisSchema, Temperature: lowTemp()})
	if err != nil {
		return err
	}

	return s.llm.ParseJSONResponse(result.Content, out)
}

func (s *ExtractionService) runNarrativeSummary(ctx context.Context, userText string) (string, error) {
	result, err := s.llm.Call(ctx, []models.LLMMessage{
		{Role: "system", Content: narrativeSummarySystemPrompt},
		{Role: "user", Content: userText},
	}, models.LLMCallOptions{SchemaName: "narrative_summary"})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(result.Content), nil
}

// merge resolves model-returned names to durable IDs. Tags are created
// lazily; stats and family members are matched against the existing roster
// and silently dropped when no match exists — the pipeline never invents
// new stats or family members.
func (s *ExtractionService) merge(userID string, snapshot *UserContext, content *models.ContentAnalysis, contextual *models.ContextAnalysis, summary string) (*models.ExtractionResult, error) {
	result := &models.ExtractionResult{
		Title:    content.Title,
		Synopsis: content.Synopsis,
		Summary:  summary,
		ToneTags: sanitizeToneTags(contextual.ToneTags),
	}

	for _, name := range content.SuggestedTags {
		tag, err := s.tags.GetOrCreate(userID, name)
		if err != nil {
			log.Printf("⚠️ [EXTRACTION] Skipping tag %q: %v", name, err)
			continue
		}
		result.Tags = append(result.Tags, *tag)
	}

	for name, suggestion := range contextual.SuggestedStatTags {
		stat, ok := matchStat(snapshot.Stats, name)
		if !ok {
			log.Printf("🔇 [EXTRACTION] Dropping unmatched stat suggestion %q", name)
			continue
		}
		result.StatGrants = append(result.StatGrants, models.ResolvedStatGrant{
			Stat:   stat,
			XP:     clampXP(suggestion.XP),
			Reason: suggestion.Reason,
		})
	}

	for name, suggestion := range contextual.SuggestedFamilyTags {
		member, ok := matchFamilyMember(snapshot.Family, name)
		if !ok {
			log.Printf("🔇 [EXTRACTION] Dropping unmatched family suggestion %q", name)
			continue
		}
		result.FamilyGrants = append(result.FamilyGrants, models.ResolvedFamilyGrant{
			Member: member,
			XP:     clampXP(suggestion.XP),
			Reason: suggestion.Reason,
		})
	}

	result.Todos = capStrings(content.SuggestedTodos, maxSuggestedTodos)
	result.SuggestedAttributes = capStrings(content.SuggestedAttributes, maxSuggestedAttributes)

	log.Printf("✨ [EXTRACTION] Merged: %d tags, %d stat grants, %d family grants, %d todos, %d attributes",
		len(result.Tags), len(result.StatGrants), len(result.FamilyGrants), len(result.Todos), len(result.SuggestedAttributes))

	return result, nil
}

// matchStat matches case-insensitively first, then falls back to substring
// matching in either direction. The fuzzy fallback is stat-only.
func matchStat(stats []models.CharacterStat, name string) (models.CharacterStat, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return models.CharacterStat{}, false
	}

	for _, st := range stats {
		if strings.ToLower(st.Name) == lower {
			return st, true
		}
	}
	for _, st := range stats {
		statLower := strings.ToLower(st.Name)
		if strings.Contains(statLower, lower) || strings.Contains(lower, statLower) {
			return st, true
		}
	}
	return models.CharacterStat{}, false
}

// matchFamilyMember matches case-insensitively, exact only — no fuzzy
// fallback for people.
func matchFamilyMember(members []models.FamilyMember, name string) (models.FamilyMember, bool) {
	lower := strings.ToLower(strings.TrimSpace(name))
	if lower == "" {
		return models.FamilyMember{}, false
	}

	for _, m := range members {
		if strings.ToLower(m.Name) == lower {
			return m, true
		}
	}
	return models.FamilyMember{}, false
}

// sanitizeToneTags keeps at most MaxToneTags values from the fixed enum,
// dropping anything else silently.
func sanitizeToneTags(tags []string) []string {
	var valid []string
	for _, tag := range tags {
		lower := strings.ToLower(strings.TrimSpace(tag))
		for _, allowed := range models.ValidToneTags {
			if lower == allowed {
				valid = append(valid, lower)
				break
			}
		}
		if len(valid) == models.MaxToneTags {
			break
		}
	}
	return valid
}

func clampXP(xp int) int {
	if xp < minSuggestedXP {
		return minSuggestedXP
	}
	if xp > maxSuggestedXP {
		return maxSuggestedXP
	}
	return xp
}

func capStrings(values []string, max int) []string {
	var out []string
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
		if len(out) == max {
			break
		}
	}
	return out
}

// userMessagesTranscript concatenates only the author's turns; assistant
// turns are excluded from every analysis.
func userMessagesTranscript(session []models.ChatMessage) string {
	var b strings.Builder
	for _, msg := range session {
		if msg.Role != "user" {
			continue
		}
		b.WriteString(msg.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func lowTemp() *float64 {
	t := 0.3
	return &t
}
