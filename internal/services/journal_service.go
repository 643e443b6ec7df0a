package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"

	"github.com/google/uuid"
)

const companionSystemPrompt = `You are a warm, curious journaling companion. The author just wrote about their day. Ask one thoughtful follow-up question that helps them reflect a little deeper, or briefly acknowledge what they shared and invite more. Keep replies short (2-4 sentences), personal, and grounded in what they actually said and what you know about them. Never lecture.`

// Day-rating lexicons. Whole-word matches over the concatenated chat text.
var (
	positiveWords = []string{"great", "good", "happy", "amazing", "wonderful", "productive", "fun"}
	negativeWords = []string{"bad", "sad", "terrible", "awful", "stressed", "tired", "angry"}
)

// JournalService is the lifecycle controller: one entry per (user, date),
// draft → in_review → complete, with completion side effects.
type JournalService struct {
	db         *database.DB
	llm        *LLMService
	extraction *ExtractionService
	xp         *XPService
	todos      *TodoService
	attributes *AttributeService
	contextSvc *ContextService
	memory     *MemoryService
	metrics    *Metrics
	redis      *RedisService
}

// NewJournalService creates a new journal lifecycle controller
func NewJournalService(db *database.DB, llm *LLMService, extraction *ExtractionService, xp *XPService, todos *TodoService, attributes *AttributeService, contextSvc *ContextService, memory *MemoryService, metrics *Metrics, redis *RedisService) *JournalService {
	return &JournalService{
		db:         db,
		llm:        llm,
		extraction: extraction,
		xp:         xp,
		todos:      todos,
		attributes: attributes,
		contextSvc: contextSvc,
		memory:     memory,
		metrics:    metrics,
		redis:      redis,
	}
}

// Create inserts a draft for the date. Conflict if one already exists.
func (s *JournalService) Create(userID string, req *models.CreateJournalRequest) (*models.Journal, error) {
	if err := validateDate(req.Date); err != nil {
		return nil, err
	}
	if err := validateDayRating(req.DayRating); err != nil {
		return nil, err
	}

	var existingID string
	err := s.db.QueryRow(`SELECT id FROM journals WHERE user_id = ? AND date = ?`, userID, req.Date).Scan(&existingID)
	if err == nil {
		return nil, fmt.Errorf("%w: journal for %s", ErrConflict, req.Date)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check existing journal: %w", err)
	}

	now := time.Now().UTC()
	journal := &models.Journal{
		ID:             uuid.New().String(),
		UserID:         userID,
		Date:           req.Date,
		Status:         models.JournalStatusDraft,
		InitialMessage: req.InitialMessage,
		DayRating:      req.DayRating,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = s.db.Exec(`
		INSERT INTO journals (id, user_id, date, status, initial_message, chat_session, summary, title, synopsis, tone_tags, day_rating, inferred_day_rating, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, '[]', '', '', '', '[]', ?, NULL, ?, ?)
	`, journal.ID, journal.UserID, journal.Date, journal.Status, journal.InitialMessage, journal.DayRating, journal.CreatedAt, journal.UpdatedAt)
	if err != nil {
		// Lost a create race: the unique (user_id, date) constraint fired
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("%w: journal for %s", ErrConflict, req.Date)
		}
		return nil, fmt.Errorf("failed to insert journal: %w", err)
	}

	s.invalidateToday(userID, req.Date)
	log.Printf("📓 [JOURNAL] Created draft for user %s on %s", userID, req.Date)
	return journal, nil
}

// GetByDate loads a journal by its (user, date) key
func (s *JournalService) GetByDate(userID, date string) (*models.Journal, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, date, status, initial_message, chat_session, summary, title, synopsis, tone_tags, day_rating, inferred_day_rating, created_at, updated_at
		FROM journals WHERE user_id = ? AND date = ?
	`, userID, date)
	return scanJournal(row)
}

// Update applies the non-nil fields of req. Completed journals must go
// through Edit first.
func (s *JournalService) Update(userID, date string, req *models.UpdateJournalRequest) (*models.Journal, error) {
	journal, err := s.GetByDate(userID, date)
	if err != nil {
		return nil, err
	}
	if journal.Status == models.JournalStatusComplete {
		return nil, fmt.Errorf("%w: cannot update a completed journal", ErrInvalidState)
	}
	if err := validateDayRating(req.DayRating); err != nil {
		return nil, err
	}

	if req.InitialMessage != nil {
		journal.InitialMessage = *req.InitialMessage
	}
	if req.DayRating != nil {
		journal.DayRating = req.DayRating
	}
	journal.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(`
		UPDATE journals SET initial_message = ?, day_rating = ?, updated_at = ? WHERE id = ?
	`, journal.InitialMessage, journal.DayRating, journal.UpdatedAt, journal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update journal: %w", err)
	}

	s.invalidateToday(userID, date)
	return journal, nil
}

// StartReflection seeds the chat session from the initial message, asks the
// companion for a follow-up, and moves draft → in_review.
func (s *JournalService) StartReflection(ctx context.Context, userID, date string) (*models.Journal, error) {
	journal, err := s.GetByDate(userID, date)
	if err != nil {
		return nil, err
	}
	if journal.Status != models.JournalStatusDraft {
		return nil, fmt.Errorf("%w: reflection starts from draft, journal is %s", ErrInvalidState, journal.Status)
	}
	if strings.TrimSpace(journal.InitialMessage) == "" {
		return nil, fmt.Errorf("%w: journal has no initial message", ErrValidation)
	}

	system, err := s.buildCompanionPrompt(userID, date)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	session := []models.ChatMessage{
		{Role: "user", Content: journal.InitialMessage, Timestamp: now},
	}

	result, err := s.llm.Call(ctx, append(
		[]models.LLMMessage{{Role: "system", Content: system}},
		sessionToLLMMessages(session)...,
	), models.LLMCallOptions{SchemaName: "companion_reply"})
	if err != nil {
		return nil, err
	}

	session = append(session, models.ChatMessage{Role: "assistant", Content: result.Content, Timestamp: time.Now().UTC()})

	if err := s.saveSessionGuarded(journal.ID, models.JournalStatusDraft, models.JournalStatusInReview, session); err != nil {
		return nil, err
	}

	journal.ChatSession = session
	journal.Status = models.JournalStatusInReview
	s.invalidateToday(userID, date)
	log.Printf("💬 [JOURNAL] Reflection started for user %s on %s", userID, date)
	return journal, nil
}

// AppendChatMessage adds a user turn, gets the companion's reply with full
// memory context, and persists both. In-review only.
func (s *JournalService) AppendChatMessage(ctx context.Context, userID, date, message string) (*models.Journal, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrValidation)
	}

	journal, err := s.GetByDate(userID, date)
	if err != nil {
		return nil, err
	}
	if journal.Status != models.JournalStatusInReview {
		return nil, fmt.Errorf("%w: chat requires in_review, journal is %s", ErrInvalidState, journal.Status)
	}

	system, err := s.buildCompanionPrompt(userID, date)
	if err != nil {
		return nil, err
	}

	session := append(journal.ChatSession, models.ChatMessage{Role: "user", Content: message, Timestamp: time.Now().UTC()})

	result, err := s.llm.Call(ctx, append(
		[]models.LLMMessage{{Role: "system", Content: system}},
		sessionToLLMMessages(session)...,
	), models.LLMCallOptions{SchemaName: "companion_reply"})
	if err != nil {
		return nil, err
	}

	session = append(session, models.ChatMessage{Role: "assistant", Content: result.Content, Timestamp: time.Now().UTC()})

	if err := s.saveSessionGuarded(journal.ID, models.JournalStatusInReview, models.JournalStatusInReview, session); err != nil {
		return nil, err
	}

	journal.ChatSession = session
	return journal, nil
}

// Finish runs extraction, then commits the completion and all its side
// effects in one transaction. The status write is guarded, so a concurrent
// finish loses cleanly: exactly one caller completes each journal.
func (s *JournalService) Finish(ctx context.Context, userID, date string) (*models.Journal, error) {
	journal, err := s.GetByDate(userID, date)
	if err != nil {
		return nil, err
	}
	if journal.Status != models.JournalStatusDraft && journal.Status != models.JournalStatusInReview {
		return nil, fmt.Errorf("%w: finish requires draft or in_review, journal is %s", ErrInvalidState, journal.Status)
	}

	session := journal.ChatSession
	if len(session) == 0 {
		if strings.TrimSpace(journal.InitialMessage) == "" {
			return nil, fmt.Errorf("%w: journal has no content to finish", ErrValidation)
		}
		session = []models.ChatMessage{{Role: "user", Content: journal.InitialMessage, Timestamp: journal.CreatedAt}}
	}

	// Extraction happens before any write. An upstream failure here aborts
	// the whole finish; the journal stays in its current status.
	extracted, err := s.extraction.Extract(ctx, userID, session)
	if err != nil {
		return nil, err
	}

	var inferred *int
	if journal.DayRating == nil {
		rating := inferDayRating(session)
		inferred = &rating
	}

	toneJSON, err := json.Marshal(extracted.ToneTags)
	if err != nil {
		return nil, fmt.Errorf("failed to encode tone tags: %w", err)
	}
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return nil, fmt.Errorf("failed to encode chat session: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin finish transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(`
		UPDATE journals
		SET status = ?, title = ?, synopsis = ?, summary = ?, tone_tags = ?, chat_session = ?, inferred_day_rating = ?, updated_at = ?
		WHERE id = ? AND status IN (?, ?)
	`, models.JournalStatusComplete, extracted.Title, extracted.Synopsis, extracted.Summary,
		string(toneJSON), string(sessionJSON), inferred, now,
		journal.ID, models.JournalStatusDraft, models.JournalStatusInReview)
	if err != nil {
		return nil, fmt.Errorf("failed to complete journal: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		// A concurrent finish got there first
		return nil, fmt.Errorf("%w: journal was already completed", ErrInvalidState)
	}

	for _, tag := range extracted.Tags {
		err := s.xp.Grant(tx, &models.XPGrant{
			ID:         uuid.New().String(),
			UserID:     userID,
			EntityType: models.EntityTypeContentTag,
			EntityID:   tag.ID,
			XPAmount:   0,
			SourceType: models.SourceTypeJournal,
			SourceID:   journal.ID,
			Reason:     "journal content tag",
			CreatedAt:  now,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, grant := range extracted.StatGrants {
		err := s.xp.Grant(tx, &models.XPGrant{
			ID:         uuid.New().String(),
			UserID:     userID,
			EntityType: models.EntityTypeCharacterStat,
			EntityID:   grant.Stat.ID,
			XPAmount:   grant.XP,
			SourceType: models.SourceTypeJournal,
			SourceID:   journal.ID,
			Reason:     grant.Reason,
			CreatedAt:  now,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, grant := range extracted.FamilyGrants {
		err := s.xp.Grant(tx, &models.XPGrant{
			ID:         uuid.New().String(),
			UserID:     userID,
			EntityType: models.EntityTypeFamilyMember,
			EntityID:   grant.Member.ID,
			XPAmount:   grant.XP,
			SourceType: models.SourceTypeJournal,
			SourceID:   journal.ID,
			Reason:     grant.Reason,
			CreatedAt:  now,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, content := range extracted.Todos {
		if _, err := s.todos.CreateFromSuggestion(tx, userID, content, models.SourceTypeJournal, journal.ID); err != nil {
			log.Printf("⚠️ [JOURNAL] Skipping suggested todo: %v", err)
		}
	}

	if _, err := s.attributes.BulkInsert(tx, userID, "trait", models.AttributeSourceJournalAnalysis, extracted.SuggestedAttributes); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit finish transaction: %w", err)
	}

	if s.metrics != nil {
		s.metrics.JournalCompletions.Inc()
	}
	s.contextSvc.Invalidate(userID)
	s.invalidateToday(userID, date)
	log.Printf("🎉 [JOURNAL] Completed %s for user %s: %d stat grants, %d family grants, %d tags",
		date, userID, len(extracted.StatGrants), len(extracted.FamilyGrants), len(extracted.Tags))

	return s.GetByDate(userID, date)
}

// Edit reopens a completed journal: clears the AI-generated fields, resets
// to draft, and — only when the initial content actually changes — reverses
// the XP this journal granted. initialMessage == nil keeps the content.
func (s *JournalService) Edit(userID, date string, initialMessage *string) (*models.Journal, error) {
	journal, err := s.GetByDate(userID, date)
	if err != nil {
		return nil, err
	}
	if journal.Status != models.JournalStatusComplete {
		return nil, fmt.Errorf("%w: edit reopens completed journals, journal is %s", ErrInvalidState, journal.Status)
	}

	contentChanged := initialMessage != nil && *initialMessage != journal.InitialMessage

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin edit transaction: %w", err)
	}
	defer tx.Rollback()

	if contentChanged {
		if err := s.xp.DeleteGrantsForSource(tx, userID, models.SourceTypeJournal, journal.ID); err != nil {
			return nil, err
		}
		journal.InitialMessage = *initialMessage
	}

	result, err := tx.Exec(`
		UPDATE journals
		SET status = ?, initial_message = ?, summary = '', title = '', synopsis = '', tone_tags = '[]', inferred_day_rating = NULL, updated_at = ?
		WHERE id = ? AND status = ?
	`, models.JournalStatusDraft, journal.InitialMessage, time.Now().UTC(), journal.ID, models.JournalStatusComplete)
	if err != nil {
		return nil, fmt.Errorf("failed to reopen journal: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("%w: journal is no longer complete", ErrInvalidState)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit edit transaction: %w", err)
	}

	s.contextSvc.Invalidate(userID)
	s.invalidateToday(userID, date)
	log.Printf("✏️ [JOURNAL] Reopened %s for user %s (content changed: %t)", date, userID, contentChanged)
	return s.GetByDate(userID, date)
}

// Delete removes the journal and reverses everything it granted
func (s *JournalService) Delete(userID, date string) error {
	journal, err := s.GetByDate(userID, date)
	if err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.xp.DeleteGrantsForSource(tx, userID, models.SourceTypeJournal, journal.ID); err != nil {
		return err
	}
	if _, err := tx.Exec(`DELETE FROM journals WHERE id = ?`, journal.ID); err != nil {
		return fmt.Errorf("failed to delete journal: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete transaction: %w", err)
	}

	s.contextSvc.Invalidate(userID)
	s.invalidateToday(userID, date)
	log.Printf("🗑️ [JOURNAL] Deleted %s for user %s", date, userID)
	return nil
}

// Today reports whether a journal exists for today and what the user's next
// step is, phrased for the UI.
func (s *JournalService) Today(ctx context.Context, userID string) (*models.TodayResponse, error) {
	date := time.Now().UTC().Format("2006-01-02")

	key := TodayJournalKey(userID, date)
	var cached models.TodayResponse
	if s.redis.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}

	journal, err := s.GetByDate(userID, date)
	if errors.Is(err, ErrNotFound) {
		resp := &models.TodayResponse{Exists: false, ActionText: "Write about your day"}
		s.redis.SetJSON(ctx, key, resp, time.Minute)
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	resp := &models.TodayResponse{Exists: true, Journal: journal, Status: journal.Status}
	switch journal.Status {
	case models.JournalStatusDraft:
		resp.ActionText = "Continue reflecting"
	case models.JournalStatusInReview:
		resp.ActionText = "Keep the conversation going"
	default:
		resp.ActionText = "View today's entry"
	}

	s.redis.SetJSON(ctx, key, resp, time.Minute)
	return resp, nil
}

// List returns journals matching the query, newest first, each enriched
// with the XP it earned and its content tags.
func (s *JournalService) List(userID string, query *models.JournalListQuery) (*models.JournalListResponse, error) {
	where := []string{"j.user_id = ?"}
	args := []interface{}{userID}

	if query.Status != "" {
		where = append(where, "j.status = ?")
		args = append(args, query.Status)
	}
	if query.DateFrom != "" {
		where = append(where, "j.date >= ?")
		args = append(args, query.DateFrom)
	}
	if query.DateTo != "" {
		where = append(where, "j.date <= ?")
		args = append(args, query.DateTo)
	}
	if query.Search != "" {
		where = append(where, "(j.initial_message LIKE ? OR j.title LIKE ? OR j.synopsis LIKE ?)")
		pattern := "%" + query.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}
	if query.TagID != "" {
		where = append(where, `j.id IN (
			SELECT source_id FROM xp_grants
			WHERE entity_type = ? AND entity_id = ? AND source_type = ?
		)`)
		args = append(args, models.EntityTypeContentTag, query.TagID, models.SourceTypeJournal)
	}
	if query.ToneTag != "" {
		where = append(where, "j.tone_tags LIKE ?")
		args = append(args, `%"`+query.ToneTag+`"%`)
	}

	whereClause := strings.Join(where, " AND ")

	var total int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM journals j WHERE `+whereClause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count journals: %w", err)
	}

	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := query.Offset
	if offset < 0 {
		offset = 0
	}

	rows, err := s.db.Query(`
		SELECT j.id, j.user_id, j.date, j.status, j.initial_message, j.chat_session, j.summary, j.title, j.synopsis, j.tone_tags, j.day_rating, j.inferred_day_rating, j.created_at, j.updated_at
		FROM journals j
		WHERE `+whereClause+`
		ORDER BY j.date DESC
		LIMIT ? OFFSET ?
	`, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query journals: %w", err)
	}
	defer rows.Close()

	items := []models.JournalListItem{}
	for rows.Next() {
		journal, err := scanJournalRows(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, models.JournalListItem{Journal: *journal})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Enrichment is best effort: a failed lookup leaves zeros, not an error
	for i := range items {
		xp, err := s.xp.SumForSource(userID, models.SourceTypeJournal, items[i].ID)
		if err != nil {
			log.Printf("⚠️ [JOURNAL] XP enrichment failed for %s: %v", items[i].ID, err)
			continue
		}
		items[i].XPEarned = xp

		tags, err := s.xp.ContentTagNamesForSource(userID, models.SourceTypeJournal, items[i].ID)
		if err != nil {
			log.Printf("⚠️ [JOURNAL] Tag enrichment failed for %s: %v", items[i].ID, err)
			continue
		}
		items[i].ContentTags = tags
	}

	return &models.JournalListResponse{Journals: items, Total: total, Limit: limit, Offset: offset}, nil
}

// buildCompanionPrompt grounds the chat persona in the user's profile,
// goals, roster, and the three-tier journal memory.
func (s *JournalService) buildCompanionPrompt(userID, date string) (string, error) {
	snapshot, err := s.contextSvc.Build(userID, ContextOptions{
		IncludeGoals:      true,
		IncludeFamily:     true,
		IncludeStats:      true,
		IncludeAttributes: true,
	})
	if err != nil {
		return "", err
	}

	today, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("%w: invalid date %q", ErrValidation, date)
	}
	mem, err := s.memory.Build(userID, today)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString(companionSystemPrompt)
	if formatted := s.contextSvc.Format(snapshot); formatted != "" {
		b.WriteString("\n\nWhat you know about the author:\n")
		b.WriteString(formatted)
	}
	if formatted := s.memory.Format(mem); formatted != "" {
		b.WriteString("\n\nRecent journal history:\n")
		b.WriteString(formatted)
	}
	return b.String(), nil
}

// saveSessionGuarded persists the chat session with a status-guarded update
func (s *JournalService) saveSessionGuarded(journalID, fromStatus, toStatus string, session []models.ChatMessage) error {
	sessionJSON, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode chat session: %w", err)
	}

	result, err := s.db.Exec(`
		UPDATE journals SET status = ?, chat_session = ?, updated_at = ? WHERE id = ? AND status = ?
	`, toStatus, string(sessionJSON), time.Now().UTC(), journalID, fromStatus)
	if err != nil {
		return fmt.Errorf("failed to save chat session: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("%w: journal status changed concurrently", ErrInvalidState)
	}
	return nil
}

func (s *JournalService) invalidateToday(userID, date string) {
	s.redis.Delete(context.Background(), TodayJournalKey(userID, date))
}

// inferDayRating classifies the day from fixed lexicons when the user never
// rated it. Whole-word counts over all chat content, lowercased. The final
// branch cannot be reached given the prior comparisons but keeps the
// classifier total.
func inferDayRating(session []models.ChatMessage) int {
	var b strings.Builder
	for _, msg := range session {
		b.WriteString(msg.Content)
		b.WriteString(" ")
	}
	words := strings.FieldsFunc(strings.ToLower(b.String()), func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9') && r != '\''
	})

	positive, negative := 0, 0
	for _, word := range words {
		for _, p := range positiveWords {
			if word == p {
				positive++
				break
			}
		}
		for _, n := range negativeWords {
			if word == n {
				negative++
				break
			}
		}
	}

	switch {
	case positive > 2*negative:
		return 5
	case positive > negative:
		return 4
	case positive == negative:
		return 3
	case negative > positive:
		return 2
	default:
		return 1
	}
}

func validateDate(date string) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD", ErrValidation)
	}
	return nil
}

func validateDayRating(rating *int) error {
	if rating != nil && (*rating < 1 || *rating > 5) {
		return fmt.Errorf("%w: day rating must be between 1 and 5", ErrValidation)
	}
	return nil
}

func sessionToLLMMessages(session []models.ChatMessage) []models.LLMMessage {
	out := make([]models.LLMMessage, 0, len(session))
	for _, msg := range session {
		out = append(out, models.LLMMessage{Role: msg.Role, Content: msg.Content})
	}
	return out
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "duplicate")
}

// scanJournal reads one journal from a single-row query
func scanJournal(row *sql.Row) (*models.Journal, error) {
	var j models.Journal
	var chatJSON, toneJSON sql.NullString
	var summary, synopsis sql.NullString

	err := row.Scan(&j.ID, &j.UserID, &j.Date, &j.Status, &j.InitialMessage, &chatJSON,
		&summary, &j.Title, &synopsis, &toneJSON, &j.DayRating, &j.InferredDayRating,
		&j.CreatedAt, &j.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: journal", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal: %w", err)
	}

	decodeJournalJSON(&j, chatJSON, toneJSON, summary, synopsis)
	return &j, nil
}

// scanJournalRows is scanJournal for multi-row queries
func scanJournalRows(rows *sql.Rows) (*models.Journal, error) {
	var j models.Journal
	var chatJSON, toneJSON sql.NullString
	var summary, synopsis sql.NullString

	err := rows.Scan(&j.ID, &j.UserID, &j.Date, &j.Status, &j.InitialMessage, &chatJSON,
		&summary, &j.Title, &synopsis, &toneJSON, &j.DayRating, &j.InferredDayRating,
		&j.CreatedAt, &j.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to scan journal: %w", err)
	}

	decodeJournalJSON(&j, chatJSON, toneJSON, summary, synopsis)
	return &j, nil
}

func decodeJournalJSON(j *models.Journal, chatJSON, toneJSON, summary, synopsis sql.NullString) {
	j.Summary = summary.String
	j.Synopsis = synopsis.String
	if chatJSON.Valid && chatJSON.String != "" {
		if err := json.Unmarshal([]byte(chatJSON.String), &j.ChatSession); err != nil {
			log.Printf("⚠️ [JOURNAL] Corrupt chat_session on %s: %v", j.ID, err)
		}
	}
	if toneJSON.Valid && toneJSON.String != "" {
		if err := json.Unmarshal([]byte(toneJSON.String), &j.ToneTags); err != nil {
			log.Printf("⚠️ [JOURNAL] Corrupt tone_tags on %s: %v", j.ID, err)
		}
	}
}
