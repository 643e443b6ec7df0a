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

// GoalService handles goal CRUD; only active goals reach prompt grounding
type GoalService struct {
	db *database.DB
}

// NewGoalService creates a new goal service
func NewGoalService(db *database.DB) *GoalService {
	return &GoalService{db: db}
}

// Create inserts a new active goal
func (s *GoalService) Create(userID, title, description string) (*models.Goal, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: goal title is required", ErrValidation)
	}

	now := time.Now().UTC()
	goal := &models.Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	_, err := s.db.Exec(`
		INSERT INTO goals (id, user_id, title, description, archived, created_at, updated_at)
		VALUES (?, ?, ?, ?, 0, ?, ?)
	`, goal.ID, goal.UserID, goal.Title, goal.Description, goal.CreatedAt, goal.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert goal: %w", err)
	}

	return goal, nil
}

// List returns goals for a user, optionally including archived ones
func (s *GoalService) List(userID string, includeArchived bool) ([]models.Goal, error) {
	query := `
		SELECT id, user_id, title, description, archived, created_at, updated_at
		FROM goals
		WHERE user_id = ?
	`
	if !includeArchived {
		query += ` AND archived = 0`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query goals: %w", err)
	}
	defer rows.Close()

	var goals []models.Goal
	for rows.Next() {
		var g models.Goal
		var description sql.NullString
		if err := rows.Scan(&g.ID, &g.UserID, &g.Title, &description, &g.Archived, &g.CreatedAt, &g.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan goal: %w", err)
		}
		g.Description = description.String
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// Archive marks a goal archived so it drops out of prompt grounding
func (s *GoalService) Archive(userID, goalID string) error {
	result, err := s.db.Exec(`
		UPDATE goals SET archived = 1, updated_at = ? WHERE id = ? AND user_id = ?
	`, time.Now().UTC(), goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to archive goal: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a goal owned by the user
func (s *GoalService) Delete(userID, goalID string) error {
	result, err := s.db.Exec(`DELETE FROM goals WHERE id = ? AND user_id = ?`, goalID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete goal: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
