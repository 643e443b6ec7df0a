package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"questlog/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// ContextOptions toggles which sections the snapshot includes so callers can
// bound query cost. Absent sections are omitted from the formatted text,
// never rendered as empty placeholders.
type ContextOptions struct {
	IncludeGoals      bool
	IncludeFamily     bool
	IncludeStats      bool
	IncludeTags       bool
	IncludeAttributes bool
}

// UserContext is a read-only snapshot used as LLM prompt grounding
type UserContext struct {
	User       *models.User
	Goals      []models.Goal
	Family     []models.FamilyMember
	Stats      []models.CharacterStat
	Tags       []models.TagWithCount
	Attributes []models.UserAttribute
}

// ContextService assembles user context snapshots for prompt grounding
type ContextService struct {
	users      *UserService
	goals      *GoalService
	family     *FamilyService
	stats      *StatService
	tags       *TagService
	attributes *AttributeService
	cache      *gocache.Cache
}

// NewContextService creates a new context aggregator. Snapshots are cached
// briefly since several calls within one journal operation want the same view.
func NewContextService(users *UserService, goals *GoalService, family *FamilyService, stats *StatService, tags *TagService, attributes *AttributeService) *ContextService {
	return &ContextService{
		users:      users,
		goals:      goals,
		family:     family,
		stats:      stats,
		tags:       tags,
		attributes: attributes,
		cache:      gocache.New(60*time.Second, 5*time.Minute),
	}
}

// Build assembles the snapshot for a user with the requested sections
func (s *ContextService) Build(userID string, opts ContextOptions) (*UserContext, error) {
	cacheKey := fmt.Sprintf("%s|%+v", userID, opts)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*UserContext), nil
	}

	user, err := s.users.GetOrCreate(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	ctx := &UserContext{User: user}

	if opts.IncludeGoals {
		if ctx.Goals, err = s.goals.List(userID, false); err != nil {
			return nil, fmt.Errorf("failed to load goals: %w", err)
		}
	}
	if opts.IncludeFamily {
		if ctx.Family, err = s.family.List(userID); err != nil {
			return nil, fmt.Errorf("failed to load family: %w", err)
		}
	}
	if opts.IncludeStats {
		if ctx.Stats, err = s.stats.List(userID); err != nil {
			return nil, fmt.Errorf("failed to load stats: %w", err)
		}
	}
	if opts.IncludeTags {
		if ctx.Tags, err = s.tags.ListWithCounts(userID); err != nil {
			return nil, fmt.Errorf("failed to load tags: %w", err)
		}
	}
	if opts.IncludeAttributes {
		if ctx.Attributes, err = s.attributes.List(userID); err != nil {
			return nil, fmt.Errorf("failed to load attributes: %w", err)
		}
	}

	s.cache.Set(cacheKey, ctx, gocache.DefaultExpiration)
	return ctx, nil
}

// Invalidate drops cached snapshots for a user after mutating operations
func (s *ContextService) Invalidate(userID string) {
	for key := range s.cache.Items() {
		if strings.HasPrefix(key, userID+"|") {
			s.cache.Delete(key)
		}
	}
}

// Format renders the snapshot as prompt text. Sections the caller didn't
// request simply don't appear.
func (s *ContextService) Format(ctx *UserContext) string {
	var b strings.Builder

	b.WriteString("USER PROFILE:\n")
	if ctx.User.Name != "" {
		b.WriteString(fmt.Sprintf("Name: %s\n", ctx.User.Name))
	}
	if ctx.User.TonePreference != "" {
		b.WriteString(fmt.Sprintf("Preferred tone: %s\n", ctx.User.TonePreference))
	}
	if ctx.User.CharacterClass != "" {
		b.WriteString(fmt.Sprintf("Character class: %s\n", ctx.User.CharacterClass))
	}
	if ctx.User.Backstory != "" {
		b.WriteString(fmt.Sprintf("Backstory: %s\n", ctx.User.Backstory))
	}
	if ctx.User.Motto != "" {
		b.WriteString(fmt.Sprintf("Motto: %s\n", ctx.User.Motto))
	}

	if len(ctx.Goals) > 0 {
		b.WriteString("\nACTIVE GOALS:\n")
		for _, g := range ctx.Goals {
			b.WriteString(fmt.Sprintf("- %s", g.Title))
			if g.Description != "" {
				b.WriteString(fmt.Sprintf(": %s", g.Description))
			}
			b.WriteString("\n")
		}
	}

	if len(ctx.Family) > 0 {
		b.WriteString("\nFAMILY MEMBERS:\n")
		for _, m := range ctx.Family {
			b.WriteString(fmt.Sprintf("- %s (%s, connection level %d, %d XP)", m.Name, m.Relationship, m.ConnectionLevel, m.ConnectionXP))
			if m.Likes != "" {
				b.WriteString(fmt.Sprintf(" likes: %s;", m.Likes))
			}
			if m.Dislikes != "" {
				b.WriteString(fmt.Sprintf(" dislikes: %s", m.Dislikes))
			}
			b.WriteString("\n")
		}
	}

	if len(ctx.Stats) > 0 {
		b.WriteString("\nCHARACTER STATS:\n")
		for _, st := range ctx.Stats {
			b.WriteString(fmt.Sprintf("- %s (level %d, %d XP)", st.Name, st.Level, st.TotalXP))
			if st.ExampleActivities != "" {
				b.WriteString(fmt.Sprintf(" examples: %s", st.ExampleActivities))
			}
			b.WriteString("\n")
		}
	}

	if len(ctx.Tags) > 0 {
		b.WriteString("\nEXISTING TAGS:\n")
		for _, t := range ctx.Tags {
			b.WriteString(fmt.Sprintf("- %s (used %d times)\n", t.Name, t.UsageCount))
		}
	}

	if len(ctx.Attributes) > 0 {
		b.WriteString("\nKNOWN ATTRIBUTES:\n")
		for _, a := range ctx.Attributes {
			b.WriteString(fmt.Sprintf("- [%s] %s\n", a.Category, a.Value))
		}
	}

	text := b.String()
	log.Printf("📋 [CONTEXT] Built snapshot for user %s (%d bytes)", ctx.User.ID, len(text))
	return text
}
