package services

import (
	"errors"
	"testing"

	"questlog/internal/models"
)

func TestTagGetOrCreateIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	first, err := env.tags.GetOrCreate("u1", "gardening")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := env.tags.GetOrCreate("u1", "gardening")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first.ID != second.ID {
		t.Errorf("second resolve returned a new tag: %s != %s", first.ID, second.ID)
	}

	// Tags are namespaced per user
	env.seedUser(t, "u2")
	other, err := env.tags.GetOrCreate("u2", "gardening")
	if err != nil {
		t.Fatalf("other user: %v", err)
	}
	if other.ID == first.ID {
		t.Error("tags shared across users")
	}

	if _, err := env.tags.GetOrCreate("u1", "   "); !errors.Is(err, ErrValidation) {
		t.Fatalf("blank name: expected ErrValidation, got %v", err)
	}
}

func TestTagUsageCounts(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	tag, err := env.tags.GetOrCreate("u1", "reading")
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// Two journals reference the tag through zero-XP grants
	for _, sourceID := range []string{"j1", "j2"} {
		err := env.xp.Grant(env.db, &models.XPGrant{
			UserID:     "u1",
			EntityType: models.EntityTypeContentTag,
			EntityID:   tag.ID,
			XPAmount:   0,
			SourceType: models.SourceTypeJournal,
			SourceID:   sourceID,
		})
		if err != nil {
			t.Fatalf("grant for %s: %v", sourceID, err)
		}
	}

	tags, err := env.tags.ListWithCounts("u1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tags) != 1 {
		t.Fatalf("tags = %d, want 1", len(tags))
	}
	if tags[0].UsageCount != 2 {
		t.Errorf("usage count = %d, want 2", tags[0].UsageCount)
	}
}
