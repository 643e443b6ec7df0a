package services

import (
	"database/sql"
	"fmt"
	"log"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"

	"github.com/google/uuid"
)

// querier is satisfied by both *database.DB and *sql.Tx so ledger writes can
// participate in the journal completion transaction.
type querier interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// XPService is the append-only grant ledger plus the cached running totals
// on target entities. Totals are always recomputable from the ledger.
type XPService struct {
	db      *database.DB
	metrics *Metrics
}

// NewXPService creates a new XP ledger service
func NewXPService(db *database.DB, metrics *Metrics) *XPService {
	return &XPService{db: db, metrics: metrics}
}

// Grant appends a ledger record and bumps the target entity's cached total
// with an atomic column increment. Family grants also refresh the member's
// last interaction date.
func (s *XPService) Grant(q querier, grant *models.XPGrant) error {
	if grant.XPAmount < 0 {
		return fmt.Errorf("%w: xp amount must be >= 0", ErrValidation)
	}
	if grant.EntityType == models.EntityTypeContentTag && grant.XPAmount != 0 {
		return fmt.Errorf("%w: content tag grants always carry 0 XP", ErrValidation)
	}

	if grant.ID == "" {
		grant.ID = uuid.New().String()
	}
	if grant.CreatedAt.IsZero() {
		grant.CreatedAt = time.Now().UTC()
	}

	_, err := q.Exec(`
		INSERT INTO xp_grants (id, user_id, entity_type, entity_id, xp_amount, source_type, source_id, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, grant.ID, grant.UserID, grant.EntityType, grant.EntityID, grant.XPAmount, grant.SourceType, grant.SourceID, grant.Reason, grant.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert xp grant: %w", err)
	}

	switch grant.EntityType {
	case models.EntityTypeCharacterStat:
		_, err = q.Exec(`
			UPDATE character_stats
			SET total_xp = total_xp + ?, updated_at = ?
			WHERE id = ?
		`, grant.XPAmount, grant.CreatedAt, grant.EntityID)
	case models.EntityTypeFamilyMember:
		_, err = q.Exec(`
			UPDATE family_members
			SET connection_xp = connection_xp + ?, last_interaction_date = ?, updated_at = ?
			WHERE id = ?
		`, grant.XPAmount, grant.CreatedAt.Format("2006-01-02"), grant.CreatedAt, grant.EntityID)
	}
	if err != nil {
		return fmt.Errorf("failed to update cached total: %w", err)
	}

	if s.metrics != nil {
		s.metrics.XPGranted.WithLabelValues(grant.EntityType).Add(float64(grant.XPAmount))
	}

	return nil
}

// entityKey identifies a grant target
type entityKey struct {
	Type string
	ID   string
}

// DeleteGrantsForSource removes every grant traced to a source (a deleted or
// substantively edited journal) and recomputes the cached totals of every
// entity those grants touched.
func (s *XPService) DeleteGrantsForSource(q querier, userID, sourceType, sourceID string) error {
	rows, err := q.Query(`
		SELECT DISTINCT entity_type, entity_id
		FROM xp_grants
		WHERE user_id = ? AND source_type = ? AND source_id = ?
	`, userID, sourceType, sourceID)
	if err != nil {
		return fmt.Errorf("failed to query grants for source: %w", err)
	}

	var affected []entityKey
	for rows.Next() {
		var k entityKey
		if err := rows.Scan(&k.Type, &k.ID); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan grant entity: %w", err)
		}
		affected = append(affected, k)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	result, err := q.Exec(`
		DELETE FROM xp_grants
		WHERE user_id = ? AND source_type = ? AND source_id = ?
	`, userID, sourceType, sourceID)
	if err != nil {
		return fmt.Errorf("failed to delete grants: %w", err)
	}
	deleted, _ := result.RowsAffected()

	for _, k := range affected {
		if err := s.recomputeEntity(q, k.Type, k.ID); err != nil {
			// A failed recompute sub-step is logged, not fatal; the ledger
			// remains the source of truth and Recompute can repair later
			log.Printf("⚠️ [XP] Recompute failed for %s %s: %v", k.Type, k.ID, err)
		}
	}

	if deleted > 0 {
		log.Printf("🗑️ [XP] Deleted %d grants for %s %s, recomputed %d entities", deleted, sourceType, sourceID, len(affected))
	}
	return nil
}

// Recompute repairs one entity's cached total from the ledger
func (s *XPService) Recompute(entityType, entityID string) error {
	return s.recomputeEntity(s.db, entityType, entityID)
}

func (s *XPService) recomputeEntity(q querier, entityType, entityID string) error {
	var total sql.NullInt64
	err := q.QueryRow(`
		SELECT SUM(xp_amount) FROM xp_grants WHERE entity_type = ? AND entity_id = ?
	`, entityType, entityID).Scan(&total)
	if err != nil {
		return fmt.Errorf("failed to sum grants: %w", err)
	}

	switch entityType {
	case models.EntityTypeCharacterStat:
		_, err = q.Exec(`UPDATE character_stats SET total_xp = ?, updated_at = ? WHERE id = ?`,
			total.Int64, time.Now().UTC(), entityID)
	case models.EntityTypeFamilyMember:
		_, err = q.Exec(`UPDATE family_members SET connection_xp = ?, updated_at = ? WHERE id = ?`,
			total.Int64, time.Now().UTC(), entityID)
	default:
		return nil // content tags and other entities keep no cached total
	}
	if err != nil {
		return fmt.Errorf("failed to write recomputed total: %w", err)
	}
	return nil
}

// SumForSource returns total XP granted from one source (list enrichment)
func (s *XPService) SumForSource(userID, sourceType, sourceID string) (int, error) {
	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT SUM(xp_amount) FROM xp_grants
		WHERE user_id = ? AND source_type = ? AND source_id = ?
	`, userID, sourceType, sourceID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum grants: %w", err)
	}
	return int(total.Int64), nil
}

// GrantsForSource returns the grants traced to one source
func (s *XPService) GrantsForSource(userID, sourceType, sourceID string) ([]models.XPGrant, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, entity_type, entity_id, xp_amount, source_type, source_id, reason, created_at
		FROM xp_grants
		WHERE user_id = ? AND source_type = ? AND source_id = ?
		ORDER BY created_at
	`, userID, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to query grants: %w", err)
	}
	defer rows.Close()

	var grants []models.XPGrant
	for rows.Next() {
		var g models.XPGrant
		var reason sql.NullString
		if err := rows.Scan(&g.ID, &g.UserID, &g.EntityType, &g.EntityID, &g.XPAmount, &g.SourceType, &g.SourceID, &reason, &g.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan grant: %w", err)
		}
		g.Reason = reason.String
		grants = append(grants, g)
	}
	return grants, rows.Err()
}

// ContentTagNamesForSource returns tag names granted from one source
// (journal list enrichment).
func (s *XPService) ContentTagNamesForSource(userID, sourceType, sourceID string) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT t.name
		FROM xp_grants g
		JOIN tags t ON t.id = g.entity_id
		WHERE g.user_id = ? AND g.source_type = ? AND g.source_id = ? AND g.entity_type = ?
		ORDER BY t.name
	`, userID, sourceType, sourceID, models.EntityTypeContentTag)
	if err != nil {
		return nil, fmt.Errorf("failed to query tag grants: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
