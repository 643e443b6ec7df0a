package services

import (
	"fmt"
	"log"
	"strings"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"

	"github.com/google/uuid"
)

// AttributeService handles durable user traits inferred from journals and
// period summaries.
type AttributeService struct {
	db *database.DB
}

// NewAttributeService creates a new attribute service
func NewAttributeService(db *database.DB) *AttributeService {
	return &AttributeService{db: db}
}

// List returns all attributes for a user
func (s *AttributeService) List(userID string) ([]models.UserAttribute, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, category, value, source, last_updated
		FROM user_attributes
		WHERE user_id = ?
		ORDER BY category, value
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attributes: %w", err)
	}
	defer rows.Close()

	var attrs []models.UserAttribute
	for rows.Next() {
		var a models.UserAttribute
		if err := rows.Scan(&a.ID, &a.UserID, &a.Category, &a.Value, &a.Source, &a.LastUpdated); err != nil {
			return nil, fmt.Errorf("failed to scan attribute: %w", err)
		}
		attrs = append(attrs, a)
	}
	return attrs, rows.Err()
}

// Values returns just the attribute value strings (for prompt grounding)
func (s *AttributeService) Values(userID string) ([]string, error) {
	attrs, err := s.List(userID)
	if err != nil {
		return nil, err
	}
	values := make([]string, 0, len(attrs))
	for _, a := range attrs {
		values = append(values, a.Value)
	}
	return values, nil
}

// BulkInsert inserts inferred attributes with "first write wins" semantics:
// rows colliding on (user, category, value) are skipped, not updated. Any
// other database error aborts and propagates so a wrapping transaction can
// roll back. Takes a querier so journal completion can run it inside its
// transaction.
func (s *AttributeService) BulkInsert(q querier, userID, category, source string, values []string) (int, error) {
	inserted := 0
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		_, err := q.Exec(`
			INSERT INTO user_attributes (id, user_id, category, value, source, last_updated)
			VALUES (?, ?, ?, ?, ?, ?)
		`, uuid.New().String(), userID, category, value, source, time.Now().UTC())
		if err != nil {
			if isUniqueViolation(err) {
				// Collision on (user, category, value): first write wins
				continue
			}
			return inserted, fmt.Errorf("failed to insert attribute %q: %w", value, err)
		}
		inserted++
	}
	if inserted > 0 {
		log.Printf("🧠 [ATTRIBUTES] Inserted %d new %s attributes for user %s", inserted, source, userID)
	}
	return inserted, nil
}

// Upsert records an attribute, refreshing source/last_updated when the same
// (category, value) recurs instead of duplicating.
func (s *AttributeService) Upsert(userID, category, value, source string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("%w: attribute value is empty", ErrValidation)
	}

	result, err := s.db.Exec(`
		UPDATE user_attributes
		SET source = ?, last_updated = ?
		WHERE user_id = ? AND category = ? AND value = ?
	`, source, time.Now().UTC(), userID, category, value)
	if err != nil {
		return fmt.Errorf("failed to update attribute: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected > 0 {
		return nil
	}

	_, err = s.db.Exec(`
		INSERT INTO user_attributes (id, user_id, category, value, source, last_updated)
		VALUES (?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), userID, category, value, source, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to insert attribute: %w", err)
	}
	return nil
}

// Delete removes an attribute owned by the user
func (s *AttributeService) Delete(userID, attributeID string) error {
	result, err := s.db.Exec(`DELETE FROM user_attributes WHERE id = ? AND user_id = ?`, attributeID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete attribute: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
