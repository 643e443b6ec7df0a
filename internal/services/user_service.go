package services

import (
	"database/sql"
	"fmt"
	"time"

	"questlog/internal/database"
	"questlog/internal/models"
)

// UserService handles user profile rows
type UserService struct {
	db *database.DB
}

// NewUserService creates a new user service
func NewUserService(db *database.DB) *UserService {
	return &UserService{db: db}
}

// GetOrCreate returns the profile for an ID, creating an empty row on first
// sight. Identity arrives from the request header; there is no signup flow.
func (s *UserService) GetOrCreate(userID string) (*models.User, error) {
	user, err := s.Get(userID)
	if err == nil {
		return user, nil
	}
	if err != ErrNotFound {
		return nil, err
	}

	now := time.Now().UTC()
	_, err = s.db.Exec(`
		INSERT INTO users (id, name, tone_preference, character_class, backstory, motto, created_at, updated_at)
		VALUES (?, '', '', '', '', '', ?, ?)
	`, userID, now, now)
	if err != nil {
		// Concurrent creation: the existing row wins
		if existing, selErr := s.Get(userID); selErr == nil {
			return existing, nil
		}
		return nil, fmt.Errorf("failed to insert user: %w", err)
	}

	return &models.User{ID: userID, CreatedAt: now, UpdatedAt: now}, nil
}

// Get returns a user profile
func (s *UserService) Get(userID string) (*models.User, error) {
	var u models.User
	var backstory sql.NullString
	err := s.db.QueryRow(`
		SELECT id, name, tone_preference, character_class, backstory, motto, created_at, updated_at
		FROM users
		WHERE id = ?
	`, userID).Scan(&u.ID, &u.Name, &u.TonePreference, &u.CharacterClass, &backstory, &u.Motto, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	u.Backstory = backstory.String
	return &u, nil
}

// Update overwrites the editable profile fields
func (s *UserService) Update(userID string, u *models.User) error {
	result, err := s.db.Exec(`
		UPDATE users
		SET name = ?, tone_preference = ?, character_class = ?, backstory = ?, motto = ?, updated_at = ?
		WHERE id = ?
	`, u.Name, u.TonePreference, u.CharacterClass, u.Backstory, u.Motto, time.Now().UTC(), userID)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
