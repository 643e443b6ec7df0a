package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"

	"github.com/google/uuid"
)

// TagService handles content tag operations
type TagService struct {
	db *database.DB
}

// NewTagService creates a new tag service
func NewTagService(db *database.DB) *TagService {
	return &TagService{db: db}
}

// GetOrCreate resolves a tag name to its row, creating it lazily the first
// time the extraction pipeline proposes a name the user doesn't own yet.
func (s *TagService) GetOrCreate(userID, name string) (*models.Tag, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: tag name is empty", ErrValidation)
	}

	if tag, err := s.getByName(userID, name); err == nil {
		return tag, nil
	} else if err != ErrNotFound {
		return nil, err
	}

	tag := &models.Tag{
		ID:        uuid.New().String(),
		UserID:    userID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(`
		INSERT INTO tags (id, user_id, name, created_at)
		VALUES (?, ?, ?, ?)
	`, tag.ID, tag.UserID, tag.Name, tag.CreatedAt)
	if err != nil {
		// Lost a race with a concurrent insert; the existing row wins
		if existing, selErr := s.getByName(userID, name); selErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert tag: %w", err)
	}

	return tag, nil
}

func (s *TagService) getByName(userID, name string) (*models.Tag, error) {
	var tag models.Tag
	err := s.db.QueryRow(`
		SELECT id, user_id, name, created_at
		FROM tags
		WHERE user_id = ? AND name = ?
	`, userID, name).Scan(&tag.ID, &tag.UserID, &tag.Name, &tag.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query tag: %w", err)
	}
	return &tag, nil
}

// ListNames returns the user's tag vocabulary for prompt grounding
func (s *TagService) ListNames(userID string) ([]string, error) {
	rows, err := s.db.Query(`SELECT name FROM tags WHERE user_id = ? ORDER BY name`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// ListWithCounts returns tags with how many journal grants reference them
func (s *TagService) ListWithCounts(userID string) ([]models.TagWithCount, error) {
	rows, err := s.db.Query(`
		SELECT t.id, t.user_id, t.name, t.created_at,
			(SELECT COUNT(*) FROM xp_grants g
			 WHERE g.entity_type = ? AND g.entity_id = t.id) AS usage_count
		FROM tags t
		WHERE t.user_id = ?
		ORDER BY usage_count DESC, t.name
	`, models.EntityTypeContentTag, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	var tags []models.TagWithCount
	for rows.Next() {
		var t models.TagWithCount
		if err := rows.Scan(&t.ID, &t.UserID, &t.Name, &t.CreatedAt, &t.UsageCount); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// Delete removes a tag owned by the user
func (s *TagService) Delete(userID, tagID string) error {
	result, err := s.db.Exec(`DELETE FROM tags WHERE id = ? AND user_id = ?`, tagID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete tag: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
