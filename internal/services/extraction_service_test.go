package services

import (
	"context"
	"errors"
	"testing"

	"questlog/internal/models"
)

func TestMatchStat(t *testing.T) {
	stats := []models.CharacterStat{
		{ID: "s1", Name: "Strength"},
		{ID: "s2", Name: "Deep Work"},
	}

	cases := []struct {
		name    string
		wantID  string
		matched bool
	}{
		{"Strength", "s1", true},
		{"strength", "s1", true},
		{"  STRENGTH  ", "s1", true},
		{"Deep Work (focus)", "s2", true}, // suggestion contains the stat name
		{"Work", "s2", true},              // stat name contains the suggestion
		{"Charisma", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		stat, ok := matchStat(stats, tc.name)
		if ok != tc.matched {
			t.Errorf("matchStat(%q) matched = %t, want %t", tc.name, ok, tc.matched)
			continue
		}
		if ok && stat.ID != tc.wantID {
			t.Errorf("matchStat(%q) = %s, want %s", tc.name, stat.ID, tc.wantID)
		}
	}
}

func TestMatchFamilyMemberIsExactOnly(t *testing.T) {
	members := []models.FamilyMember{{ID: "f1", Name: "Mira"}}

	if m, ok := matchFamilyMember(members, "mira"); !ok || m.ID != "f1" {
		t.Errorf("case-insensitive exact match failed: ok=%t", ok)
	}
	// No fuzzy matching for people
	if _, ok := matchFamilyMember(members, "Mir"); ok {
		t.Error("substring matched a family member")
	}
	if _, ok := matchFamilyMember(members, "Mirabel"); ok {
		t.Error("superstring matched a family member")
	}
}

func TestSanitizeToneTags(t *testing.T) {
	got := sanitizeToneTags([]string{"HAPPY", "excited", "calm", "sad"})
	if len(got) != 2 || got[0] != "happy" || got[1] != "calm" {
		t.Errorf("sanitizeToneTags = %v, want [happy calm]", got)
	}

	if got := sanitizeToneTags(nil); len(got) != 0 {
		t.Errorf("sanitizeToneTags(nil) = %v", got)
	}
}

func TestClampXP(t *testing.T) {
	cases := map[int]int{1: 5, 5: 5, 30: 30, 50: 50, 500: 50, -3: 5}
	for in, want := range cases {
		if got := clampXP(in); got != want {
			t.Errorf("clampXP(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestExtractNeverInventsEntities(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	env.seedStat(t, "u1", "Strength")
	env.seedFamilyMember(t, "u1", "Mira", "sister")

	// The model names one known and one unknown entity of each kind
	env.registerExtractionResponses(`{
		"title": "T", "synopsis": "S",
		"suggested_tags": ["training"],
		"suggested_todos": [],
		"suggested_attributes": []
	}`, `{
		"tone_tags": ["energized"],
		"suggested_stat_tags": {
			"strength": {"xp": 25, "reason": "lifting"},
			"Wisdom": {"xp": 30, "reason": "invented"}
		},
		"suggested_family_tags": {
			"Mira": {"xp": 10, "reason": "call"},
			"Granny": {"xp": 10, "reason": "invented"}
		}
	}`, "narrative")

	session := []models.ChatMessage{{Role: "user", Content: "Lifted weights and called my sister"}}
	result, err := env.extraction.Extract(context.Background(), "u1", session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}

	if len(result.StatGrants) != 1 || result.StatGrants[0].Stat.Name != "Strength" {
		t.Errorf("stat grants = %+v, want only Strength", result.StatGrants)
	}
	if len(result.FamilyGrants) != 1 || result.FamilyGrants[0].Member.Name != "Mira" {
		t.Errorf("family grants = %+v, want only Mira", result.FamilyGrants)
	}

	// Tags are the one entity kind created lazily
	if len(result.Tags) != 1 || result.Tags[0].Name != "training" {
		t.Errorf("tags = %+v", result.Tags)
	}
	if tag, err := env.tags.GetOrCreate("u1", "training"); err != nil || tag.ID != result.Tags[0].ID {
		t.Errorf("tag not persisted: %v", err)
	}
}

func TestExtractRejectsAssistantOnlySessions(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	session := []models.ChatMessage{{Role: "assistant", Content: "How was your day?"}}
	if _, err := env.extraction.Extract(context.Background(), "u1", session); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestExtractPropagatesParseFailures(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	env.registerExtractionResponses("this is not json at all", `{"tone_tags": [], "suggested_stat_tags": {}, "suggested_family_tags": {}}`, "narrative")

	session := []models.ChatMessage{{Role: "user", Content: "A plain day"}}
	_, err := env.extraction.Extract(context.Background(), "u1", session)
	var parseErr *UpstreamParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected UpstreamParseError, got %v", err)
	}
}

func TestExtractStripsCodeFences(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	env.registerExtractionResponses(
		"```json\n"+`{"title": "Fenced", "synopsis": "S", "suggested_tags": [], "suggested_todos": [], "suggested_attributes": []}`+"\n```",
		"```json\n"+`{"tone_tags": ["calm"], "suggested_stat_tags": {}, "suggested_family_tags": {}}`+"\n```",
		"narrative",
	)

	session := []models.ChatMessage{{Role: "user", Content: "A quiet day"}}
	result, err := env.extraction.Extract(context.Background(), "u1", session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if result.Title != "Fenced" {
		t.Errorf("title = %q", result.Title)
	}
	if len(result.ToneTags) != 1 || result.ToneTags[0] != "calm" {
		t.Errorf("tone tags = %v", result.ToneTags)
	}
}

func TestExtractCapsSuggestions(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	env.registerExtractionResponses(`{
		"title": "T", "synopsis": "S",
		"suggested_tags": [],
		"suggested_todos": ["a", "b", "c", "d", "e", "f", "g"],
		"suggested_attributes": ["w", "x", "y", "z"]
	}`, `{"tone_tags": [], "suggested_stat_tags": {}, "suggested_family_tags": {}}`, "narrative")

	session := []models.ChatMessage{{Role: "user", Content: "So many plans"}}
	result, err := env.extraction.Extract(context.Background(), "u1", session)
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if len(result.Todos) != maxSuggestedTodos {
		t.Errorf("todos = %d, want %d", len(result.Todos), maxSuggestedTodos)
	}
	if len(result.SuggestedAttributes) != maxSuggestedAttributes {
		t.Errorf("attributes = %d, want %d", len(result.SuggestedAttributes), maxSuggestedAttributes)
	}
}
