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

// FamilyService handles family member operations
type FamilyService struct {
	db *database.DB
}

// NewFamilyService creates a new family service
func NewFamilyService(db *database.DB) *FamilyService {
	return &FamilyService{db: db}
}

// Create inserts a new family member at connection level 1
func (s *FamilyService) Create(userID string, req *models.CreateFamilyMemberRequest) (*models.FamilyMember, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: family member name is required", ErrValidation)
	}

	now := time.Now().UTC()
	member := &models.FamilyMember{
		ID:              uuid.New().String(),
		UserID:          userID,
		Name:            strings.TrimSpace(req.Name),
		Relationship:    req.Relationship,
		Likes:           req.Likes,
		Dislikes:        req.Dislikes,
		ConnectionLevel: 1,
		ConnectionXP:    0,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	_, err := s.db.Exec(`
		INSERT INTO family_members (id, user_id, name, relationship, likes, dislikes, connection_level, connection_xp, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, member.ID, member.UserID, member.Name, member.Relationship, member.Likes, member.Dislikes, member.ConnectionLevel, member.ConnectionXP, member.CreatedAt, member.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert family member: %w", err)
	}

	return member, nil
}

// List returns all family members for a user
func (s *FamilyService) List(userID string) ([]models.FamilyMember, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, name, relationship, likes, dislikes, connection_level, connection_xp, last_interaction_date, created_at, updated_at
		FROM family_members
		WHERE user_id = ?
		ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query family members: %w", err)
	}
	defer rows.Close()

	var members []models.FamilyMember
	for rows.Next() {
		var m models.FamilyMember
		var likes, dislikes, lastDate sql.NullString
		if err := rows.Scan(&m.ID, &m.UserID, &m.Name, &m.Relationship, &likes, &dislikes, &m.ConnectionLevel, &m.ConnectionXP, &lastDate, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan family member: %w", err)
		}
		m.Likes = likes.String
		m.Dislikes = dislikes.String
		m.LastInteractionDate = lastDate.String
		members = append(members, m)
	}
	return members, rows.Err()
}

// Get returns one family member owned by the user
func (s *FamilyService) Get(userID, memberID string) (*models.FamilyMember, error) {
	var m models.FamilyMember
	var likes, dislikes, lastDate sql.NullString
	err := s.db.QueryRow(`
		SELECT id, user_id, name, relationship, likes, dislikes, connection_level, connection_xp, last_interaction_date, created_at, updated_at
		FROM family_members
		WHERE id = ? AND user_id = ?
	`, memberID, userID).Scan(&m.ID, &m.UserID, &m.Name, &m.Relationship, &likes, &dislikes, &m.ConnectionLevel, &m.ConnectionXP, &lastDate, &m.CreatedAt, &m.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query family member: %w", err)
	}
	m.Likes = likes.String
	m.Dislikes = dislikes.String
	m.LastInteractionDate = lastDate.String
	return &m, nil
}

// Delete removes a family member owned by the user
func (s *FamilyService) Delete(userID, memberID string) error {
	result, err := s.db.Exec(`DELETE FROM family_members WHERE id = ? AND user_id = ?`, memberID, userID)
	if err != nil {
		return fmt.Errorf("failed to delete family member: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
