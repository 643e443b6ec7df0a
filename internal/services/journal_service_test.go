package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"questlog/internal/models"
)

func TestCreateDuplicateDateConflicts(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-01", InitialMessage: "first"}); err != nil {
		t.Fatalf("first create: %v", err)
	}
	_, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-01", InitialMessage: "second"})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	// Same date for a different user is fine
	env.seedUser(t, "u2")
	if _, err := env.journals.Create("u2", &models.CreateJournalRequest{Date: "2025-06-01", InitialMessage: "other user"}); err != nil {
		t.Fatalf("create for other user: %v", err)
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "June 1st"}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for bad date, got %v", err)
	}

	six := 6
	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-01", DayRating: &six}); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for rating out of range, got %v", err)
	}
}

func TestFinishWithoutMetricsDoesNotPanic(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	env.registerExtractionResponses(defaultContentJSON, defaultContextJSON, defaultNarrative)

	// Metrics and Redis are both optional collaborators
	journals := NewJournalService(env.db, env.llm, env.extraction, env.xp, env.todos, env.attributes, env.contextSvc, env.memory, nil, nil)

	if _, err := journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-01", InitialMessage: "Great day at the park"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	journal, err := journals.Finish(context.Background(), "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if journal.Status != models.JournalStatusComplete {
		t.Errorf("status = %q, want complete", journal.Status)
	}
}

func TestFinishFromDraftInfersRating(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	stat := env.seedStat(t, "u1", "Vitality")
	member := env.seedFamilyMember(t, "u1", "Mira", "sister")
	env.registerExtractionResponses(defaultContentJSON, defaultContextJSON, defaultNarrative)

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-01", InitialMessage: "Great day at the park"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	journal, err := env.journals.Finish(context.Background(), "u1", "2025-06-01")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	if journal.Status != models.JournalStatusComplete {
		t.Errorf("status = %q, want complete", journal.Status)
	}
	if journal.Title != "A Day Outside" {
		t.Errorf("title = %q", journal.Title)
	}
	if journal.Summary != defaultNarrative {
		t.Errorf("summary = %q", journal.Summary)
	}
	if len(journal.ToneTags) != 2 || journal.ToneTags[0] != "happy" {
		t.Errorf("tone tags = %v", journal.ToneTags)
	}
	if journal.DayRating != nil {
		t.Errorf("day rating = %v, want nil", *journal.DayRating)
	}
	if journal.InferredDayRating == nil {
		t.Fatal("inferred day rating is nil")
	}
	if *journal.InferredDayRating < 4 {
		t.Errorf("inferred day rating = %d, want 4 or 5 for positive text", *journal.InferredDayRating)
	}

	// Stat and family totals were incremented atomically with the grants
	gotStat, err := env.stats.Get("u1", stat.ID)
	if err != nil {
		t.Fatalf("get stat: %v", err)
	}
	if gotStat.TotalXP != 20 {
		t.Errorf("stat total = %d, want 20", gotStat.TotalXP)
	}

	gotMember, err := env.family.Get("u1", member.ID)
	if err != nil {
		t.Fatalf("get family member: %v", err)
	}
	if gotMember.ConnectionXP != 15 {
		t.Errorf("connection xp = %d, want 15", gotMember.ConnectionXP)
	}
	if gotMember.LastInteractionDate == "" {
		t.Error("last interaction date not refreshed")
	}

	// Content tags earn 0; only stat and family XP count toward the journal
	xp, err := env.xp.SumForSource("u1", models.SourceTypeJournal, journal.ID)
	if err != nil {
		t.Fatalf("sum for source: %v", err)
	}
	if xp != 35 {
		t.Errorf("journal xp = %d, want 35", xp)
	}

	tagNames, err := env.xp.ContentTagNamesForSource("u1", models.SourceTypeJournal, journal.ID)
	if err != nil {
		t.Fatalf("content tag names: %v", err)
	}
	if len(tagNames) != 1 || tagNames[0] != "outdoors" {
		t.Errorf("content tags = %v", tagNames)
	}

	todos, err := env.todos.List("u1")
	if err != nil {
		t.Fatalf("list todos: %v", err)
	}
	if len(todos) != 1 || todos[0].Content != "Plan next weekend hike" {
		t.Errorf("todos = %v", todos)
	}

	attrs, err := env.attributes.Values("u1")
	if err != nil {
		t.Fatalf("list attributes: %v", err)
	}
	if len(attrs) != 1 || attrs[0] != "enjoys being outdoors" {
		t.Errorf("attributes = %v", attrs)
	}

	// A second finish must lose to the completed status
	if _, err := env.journals.Finish(context.Background(), "u1", "2025-06-01"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second finish: expected ErrInvalidState, got %v", err)
	}
}

func TestFinishPreservesUserRating(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	env.registerExtractionResponses(defaultContentJSON, defaultContextJSON, defaultNarrative)

	four := 4
	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-02", InitialMessage: "Busy day", DayRating: &four}); err != nil {
		t.Fatalf("create: %v", err)
	}

	journal, err := env.journals.Finish(context.Background(), "u1", "2025-06-02")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}
	if journal.DayRating == nil || *journal.DayRating != 4 {
		t.Errorf("day rating = %v, want 4", journal.DayRating)
	}
	if journal.InferredDayRating != nil {
		t.Errorf("inferred day rating = %d, want nil when user rated", *journal.InferredDayRating)
	}
}

func TestLifecycleGuards(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	env.registerCompanionResponse("What made it great?")

	if _, err := env.journals.StartReflection(context.Background(), "u1", "2025-06-03"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("reflection without journal: expected ErrNotFound, got %v", err)
	}

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-03", InitialMessage: "Great day"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	// Chat requires in_review
	if _, err := env.journals.AppendChatMessage(context.Background(), "u1", "2025-06-03", "hello"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("chat on draft: expected ErrInvalidState, got %v", err)
	}

	if _, err := env.journals.StartReflection(context.Background(), "u1", "2025-06-03"); err != nil {
		t.Fatalf("start reflection: %v", err)
	}

	// Reflection only starts once
	if _, err := env.journals.StartReflection(context.Background(), "u1", "2025-06-03"); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("second reflection: expected ErrInvalidState, got %v", err)
	}

	// Edit only reopens completed journals
	if _, err := env.journals.Edit("u1", "2025-06-03", nil); !errors.Is(err, ErrInvalidState) {
		t.Fatalf("edit on in_review: expected ErrInvalidState, got %v", err)
	}
}

func TestReflectionConversation(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	env.registerCompanionResponse("What made it great?")

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-04", InitialMessage: "Great day hiking"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	journal, err := env.journals.StartReflection(context.Background(), "u1", "2025-06-04")
	if err != nil {
		t.Fatalf("start reflection: %v", err)
	}
	if journal.Status != models.JournalStatusInReview {
		t.Errorf("status = %q, want in_review", journal.Status)
	}
	if len(journal.ChatSession) != 2 {
		t.Fatalf("chat session length = %d, want 2", len(journal.ChatSession))
	}
	if journal.ChatSession[0].Role != "user" || journal.ChatSession[1].Role != "assistant" {
		t.Errorf("chat roles = %s, %s", journal.ChatSession[0].Role, journal.ChatSession[1].Role)
	}

	journal, err = env.journals.AppendChatMessage(context.Background(), "u1", "2025-06-04", "The view from the summit")
	if err != nil {
		t.Fatalf("chat: %v", err)
	}
	if len(journal.ChatSession) != 4 {
		t.Errorf("chat session length = %d, want 4", len(journal.ChatSession))
	}

	// The session survives a reload
	reloaded, err := env.journals.GetByDate("u1", "2025-06-04")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(reloaded.ChatSession) != 4 {
		t.Errorf("persisted chat session length = %d, want 4", len(reloaded.ChatSession))
	}
}

func TestFinishFailureLeavesJournalUntouched(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	// No canned responses registered: every model call fails

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-05", InitialMessage: "Great day"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err := env.journals.Finish(context.Background(), "u1", "2025-06-05")
	var callErr *UpstreamCallError
	if !errors.As(err, &callErr) {
		t.Fatalf("expected UpstreamCallError, got %v", err)
	}

	journal, err := env.journals.GetByDate("u1", "2025-06-05")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if journal.Status != models.JournalStatusDraft {
		t.Errorf("status = %q, want draft after failed finish", journal.Status)
	}
	if journal.Title != "" || journal.Summary != "" || journal.InferredDayRating != nil {
		t.Error("failed finish left AI fields populated")
	}

	if xp, _ := env.xp.SumForSource("u1", models.SourceTypeJournal, journal.ID); xp != 0 {
		t.Errorf("journal xp = %d, want 0 after failed finish", xp)
	}
}

func TestEditReversesGrantsWhenContentChanged(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	stat := env.seedStat(t, "u1", "Vitality")
	env.registerExtractionResponses(defaultContentJSON, defaultContextJSON, defaultNarrative)

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-06", InitialMessage: "Great run this morning"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	journal, err := env.journals.Finish(context.Background(), "u1", "2025-06-06")
	if err != nil {
		t.Fatalf("finish: %v", err)
	}

	changed := "Actually it was a swim, not a run"
	reopened, err := env.journals.Edit("u1", "2025-06-06", &changed)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}

	if reopened.Status != models.JournalStatusDraft {
		t.Errorf("status = %q, want draft", reopened.Status)
	}
	if reopened.InitialMessage != changed {
		t.Errorf("initial message = %q", reopened.InitialMessage)
	}
	if reopened.Title != "" || reopened.Summary != "" || len(reopened.ToneTags) != 0 || reopened.InferredDayRating != nil {
		t.Error("AI fields not cleared on edit")
	}

	if xp, _ := env.xp.SumForSource("u1", models.SourceTypeJournal, journal.ID); xp != 0 {
		t.Errorf("journal xp = %d, want 0 after reversal", xp)
	}
	gotStat, err := env.stats.Get("u1", stat.ID)
	if err != nil {
		t.Fatalf("get stat: %v", err)
	}
	if gotStat.TotalXP != 0 {
		t.Errorf("stat total = %d, want 0 after reversal", gotStat.TotalXP)
	}
}

func TestEditKeepsGrantsWhenContentUnchanged(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	stat := env.seedStat(t, "u1", "Vitality")
	env.registerExtractionResponses(defaultContentJSON, defaultContextJSON, defaultNarrative)

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-07", InitialMessage: "Great run"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.journals.Finish(context.Background(), "u1", "2025-06-07"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	reopened, err := env.journals.Edit("u1", "2025-06-07", nil)
	if err != nil {
		t.Fatalf("edit: %v", err)
	}
	if reopened.Status != models.JournalStatusDraft {
		t.Errorf("status = %q, want draft", reopened.Status)
	}

	gotStat, err := env.stats.Get("u1", stat.ID)
	if err != nil {
		t.Fatalf("get stat: %v", err)
	}
	if gotStat.TotalXP != 20 {
		t.Errorf("stat total = %d, want 20 kept when content unchanged", gotStat.TotalXP)
	}
}

func TestDeleteReversesGrants(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	stat := env.seedStat(t, "u1", "Vitality")
	env.registerExtractionResponses(defaultContentJSON, defaultContextJSON, defaultNarrative)

	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: "2025-06-08", InitialMessage: "Great day"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := env.journals.Finish(context.Background(), "u1", "2025-06-08"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	if err := env.journals.Delete("u1", "2025-06-08"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, err := env.journals.GetByDate("u1", "2025-06-08"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	gotStat, err := env.stats.Get("u1", stat.ID)
	if err != nil {
		t.Fatalf("get stat: %v", err)
	}
	if gotStat.TotalXP != 0 {
		t.Errorf("stat total = %d, want 0 after journal delete", gotStat.TotalXP)
	}
}

func TestTodayReportsNextAction(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")

	resp, err := env.journals.Today(context.Background(), "u1")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if resp.Exists {
		t.Error("exists = true before any journal")
	}
	if resp.ActionText == "" {
		t.Error("action text empty")
	}

	today := time.Now().UTC().Format("2006-01-02")
	if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: today, InitialMessage: "So far so good"}); err != nil {
		t.Fatalf("create: %v", err)
	}

	resp, err = env.journals.Today(context.Background(), "u1")
	if err != nil {
		t.Fatalf("today: %v", err)
	}
	if !resp.Exists || resp.Status != models.JournalStatusDraft {
		t.Errorf("exists=%t status=%q, want draft journal", resp.Exists, resp.Status)
	}
}

func TestListFiltersAndEnriches(t *testing.T) {
	env := newTestEnv(t)
	env.seedUser(t, "u1")
	env.seedStat(t, "u1", "Vitality")
	env.registerExtractionResponses(defaultContentJSON, defaultContextJSON, defaultNarrative)

	for _, date := range []string{"2025-06-01", "2025-06-02", "2025-06-03"} {
		if _, err := env.journals.Create("u1", &models.CreateJournalRequest{Date: date, InitialMessage: "Great day number " + date}); err != nil {
			t.Fatalf("create %s: %v", date, err)
		}
	}
	if _, err := env.journals.Finish(context.Background(), "u1", "2025-06-02"); err != nil {
		t.Fatalf("finish: %v", err)
	}

	resp, err := env.journals.List("u1", &models.JournalListQuery{Status: models.JournalStatusComplete})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if resp.Total != 1 || len(resp.Journals) != 1 {
		t.Fatalf("completed journals = %d (total %d), want 1", len(resp.Journals), resp.Total)
	}
	item := resp.Journals[0]
	if item.Date != "2025-06-02" {
		t.Errorf("date = %s", item.Date)
	}
	if item.XPEarned != 20 {
		t.Errorf("xp earned = %d, want 20", item.XPEarned)
	}
	if len(item.ContentTags) != 1 || item.ContentTags[0] != "outdoors" {
		t.Errorf("content tags = %v", item.ContentTags)
	}

	resp, err = env.journals.List("u1", &models.JournalListQuery{DateFrom: "2025-06-02", DateTo: "2025-06-03"})
	if err != nil {
		t.Fatalf("list range: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("range total = %d, want 2", resp.Total)
	}
	if resp.Journals[0].Date != "2025-06-03" {
		t.Errorf("ordering: first = %s, want newest first", resp.Journals[0].Date)
	}

	resp, err = env.journals.List("u1", &models.JournalListQuery{ToneTag: "happy"})
	if err != nil {
		t.Fatalf("list by tone: %v", err)
	}
	if resp.Total != 1 {
		t.Errorf("tone filter total = %d, want 1", resp.Total)
	}
}

func TestInferDayRating(t *testing.T) {
	cases := []struct {
		name string
		text string
		want int
	}{
		{"strongly positive", "A great great amazing day, so happy", 5},
		{"mixed leaning positive", "A good day with fun moments and a happy lunch, though I was tired and a little sad by night", 4},
		{"neutral", "Went to the office, wrote some reports, came home", 3},
		{"negative", "Terrible awful day, felt stressed the whole time", 2},
		{"balanced", "Good morning but a bad evening", 3},
		{"substring does not count", "I regreated nothing", 3},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			session := []models.ChatMessage{{Role: "user", Content: tc.text}}
			if got := inferDayRating(session); got != tc.want {
				t.Errorf("inferDayRating(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}
