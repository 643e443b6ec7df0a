package services

import (
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"questlog/internal/config"
	"questlog/internal/database"
	"questlog/internal/models"
)

var (
	metricsOnce sync.Once
	testMetrics *Metrics

	testDBSeq int64
)

// sharedMetrics returns process-wide metrics; Prometheus collectors can only
// register once per process.
func sharedMetrics() *Metrics {
	metricsOnce.Do(func() {
		testMetrics = InitMetrics()
	})
	return testMetrics
}

// newTestDB opens a fresh in-memory database, isolated per test
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", atomic.AddInt64(&testDBSeq, 1))
	db, err := database.New(dsn)
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		t.Fatalf("initialize test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		LLMTestMode:    true,
		LLMRateLimit:   100,
		LLMMaxTokens:   2048,
		LLMCallTimeout: 10 * time.Second,
		LLMModel:       "test-model",
	}
}

// testEnv wires every service against one in-memory database with the
// model gateway in canned-response mode
type testEnv struct {
	db         *database.DB
	llm        *LLMService
	users      *UserService
	tags       *TagService
	stats      *StatService
	family     *FamilyService
	goals      *GoalService
	attributes *AttributeService
	todos      *TodoService
	xp         *XPService
	contextSvc *ContextService
	memory     *MemoryService
	extraction *ExtractionService
	summaries  *SummaryService
	journals   *JournalService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := newTestDB(t)
	metrics := sharedMetrics()
	llm := NewLLMService(db, testConfig(), metrics)

	users := NewUserService(db)
	tags := NewTagService(db)
	stats := NewStatService(db)
	family := NewFamilyService(db)
	goals := NewGoalService(db)
	attributes := NewAttributeService(db)
	todos := NewTodoService(db)
	xp := NewXPService(db, metrics)
	contextSvc := NewContextService(users, goals, family, stats, tags, attributes)
	memory := NewMemoryService(db)
	extraction := NewExtractionService(llm, tags, contextSvc)
	summaries := NewSummaryService(db, llm, attributes)
	journals := NewJournalService(db, llm, extraction, xp, todos, attributes, contextSvc, memory, metrics, nil)

	return &testEnv{
		db:         db,
		llm:        llm,
		users:      users,
		tags:       tags,
		stats:      stats,
		family:     family,
		goals:      goals,
		attributes: attributes,
		todos:      todos,
		xp:         xp,
		contextSvc: contextSvc,
		memory:     memory,
		extraction: extraction,
		summaries:  summaries,
		journals:   journals,
	}
}

func (e *testEnv) seedUser(t *testing.T, userID string) {
	t.Helper()
	if _, err := e.users.GetOrCreate(userID); err != nil {
		t.Fatalf("seed user: %v", err)
	}
}

func (e *testEnv) seedStat(t *testing.T, userID, name string) *models.CharacterStat {
	t.Helper()
	stat, err := e.stats.Create(userID, &models.CreateStatRequest{Name: name})
	if err != nil {
		t.Fatalf("seed stat %s: %v", name, err)
	}
	return stat
}

func (e *testEnv) seedFamilyMember(t *testing.T, userID, name, relationship string) *models.FamilyMember {
	t.Helper()
	member, err := e.family.Create(userID, &models.CreateFamilyMemberRequest{Name: name, Relationship: relationship})
	if err != nil {
		t.Fatalf("seed family member %s: %v", name, err)
	}
	return member
}

// registerExtractionResponses arms the gateway for a full finish: one
// response per analysis, keyed on phrases unique to each system prompt.
func (e *testEnv) registerExtractionResponses(contentJSON, contextJSON, narrative string) {
	e.llm.RegisterCannedResponse("existing tag vocabulary", contentJSON)
	e.llm.RegisterCannedResponse("character sheet", contextJSON)
	e.llm.RegisterCannedResponse("journal-style narrative", narrative)
}

func (e *testEnv) registerCompanionResponse(reply string) {
	e.llm.RegisterCannedResponse("journaling companion", reply)
}

const defaultContentJSON = `{
	"title": "A Day Outside",
	"synopsis": "Spent the afternoon at the park.",
	"suggested_tags": ["outdoors"],
	"suggested_todos": ["Plan next weekend hike"],
	"suggested_attributes": ["enjoys being outdoors"]
}`

const defaultContextJSON = `{
	"tone_tags": ["happy", "calm"],
	"suggested_stat_tags": {"Vitality": {"xp": 20, "reason": "time outside"}},
	"suggested_family_tags": {"Mira": {"xp": 15, "reason": "went together"}}
}`

const defaultNarrative = "I spent a great day at the park and felt recharged."
