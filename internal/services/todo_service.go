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

// TodoExpiry is how long a suggested todo lives before cleanup removes it
const TodoExpiry = 24 * time.Hour

// TodoService handles short-lived suggested todos
type TodoService struct {
	db *database.DB
}

// NewTodoService creates a new todo service
func NewTodoService(db *database.DB) *TodoService {
	return &TodoService{db: db}
}

// CreateFromSuggestion inserts a todo with a 24-hour expiration. Takes a
// querier so journal completion can run it inside its transaction.
func (s *TodoService) CreateFromSuggestion(q querier, userID, content, sourceType, sourceID string) (*models.Todo, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: todo content is empty", ErrValidation)
	}

	now := time.Now().UTC()
	todo := &models.Todo{
		ID:         uuid.New().String(),
		UserID:     userID,
		Content:    content,
		SourceType: sourceType,
		SourceID:   sourceID,
		ExpiresAt:  now.Add(TodoExpiry),
		CreatedAt:  now,
	}

	_, err := q.Exec(`
		INSERT INTO todos (id, user_id, content, source_type, source_id, completed, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, 0, ?, ?)
	`, todo.ID, todo.UserID, todo.Content, todo.SourceType, todo.SourceID, todo.ExpiresAt, todo.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert todo: %w", err)
	}

	return todo, nil
}

// List returns unexpired todos for a user
func (s *TodoService) List(userID string) ([]models.Todo, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, content, source_type, source_id, completed, expires_at, created_at
		FROM todos
		WHERE user_id = ? AND expires_at > ?
		ORDER BY created_at DESC
	`, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to query todos: %w", err)
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		var t models.Todo
		if err := rows.Scan(&t.ID, &t.UserID, &t.Content, &t.SourceType, &t.SourceID, &t.Completed, &t.ExpiresAt, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

// Complete marks a todo done
func (s *TodoService) Complete(userID, todoID string) error {
	result, err := s.db.Exec(`UPDATE todos SET completed = 1 WHERE id = ? AND user_id = ?`, todoID, userID)
	if err != nil {
		return fmt.Errorf("failed to complete todo: %w", err)
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpired physically removes expired, uncompleted todos.
// Called by the periodic cleanup job.
func (s *TodoService) DeleteExpired() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM todos WHERE expires_at <= ? AND completed = 0`, time.Now().UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired todos: %w", err)
	}
	deleted, _ := result.RowsAffected()
	if deleted > 0 {
		log.Printf("🧹 [TODOS] Removed %d expired todos", deleted)
	}
	return deleted, nil
}
