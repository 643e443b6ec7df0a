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

// StatService handles character stat operations
type StatService struct {
	db *database.DB
}

// NewStatService creates a new stat service
func NewStatService(db *database.DB) *StatService {
	return &StatService{db: db}
}

// Create inserts a new character stat at level 1 with no XP
func (s *StatService) Create(userID string, req *models.CreateStatRequest) (*models.CharacterStat, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: stat name is required", ErrValidation)
	}

	now := time.Now().UTC()
	stat := &models.CharacterStat{
		ID:                uuid.New().String(),
		UserID:            userID,
		Name:              strings.TrimSpace(req.Name),
		Description:       req.Description,
		ExampleActivities: req.ExampleActivities,
		Level:             1,
		TotalXP:           0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	_, err := s.db.Exec(`
		INSERT INTO character_stats (id, user_id, name, description, example_activities, level, total_xp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, stat.ID, stat.UserID, stat.Name, stat.Description, stat.ExampleActivities, stat.Level, stat.TotalXP, stat.CreatedAt, stat.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert stat: %w", err)
	}

	return stat, nil
}

// List returns all stats for a user
func (s *StatService) List(userID string) ([]models.CharacterStat, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, description, example_activities, level, total_xp, created_at, updated_at
		FROM character_stats
		WHERE user_id = ?
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CharacterStat
	for rows.Next() {
		var st models.CharacterStat
		var description, activities sql.NullString
		if err := rows.Scan(&st.ID, &st.UserID, &st.Name, &description, &activities, &st.Level, &st.TotalXP, &st.CreatedAt, &st.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan stat: %w", err)
		}
		st.Description = description.String
		st.ExampleActivities = activities.String
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Get returns one stat owned by the user
func (s *StatService) Get(userID, statID string) (*models.CharacterStat, error) {
	var st models.CharacterStat
	var description, activities sql.NullString
	err := s.db.QueryRow(`
		SELECT id, user_id, name, description, example_activities, level, total_xp, created_at, updated_at
		FROM character_stats
		WHERE id = ? AND user_id = ?
	`, statID, userID).Scan(&st.ID, &st.UserID, &st.Name, &description, &activities, &st.Level, &st.TotalXP, &st.CreatedAt, &st.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query stat: %w", err)
	}
	st.Description = description.String
	st.ExampleActivities = activities.String
	return &st, nil
}

// Delete removes a stat owned by the user
func (s *StatService) Delete(userID, statID string) error {
	result, err := s.db.Exec(`DELETE FROM character_stats WHERE id = ? AND user_id = ?`, statID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete stat: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
