package jobs

import (
	"context"

	"questlog/internal/services"
)

// TodoCleanupJob physically removes expired, uncompleted todos
type TodoCleanupJob struct {
	todos *services.TodoService
}

// NewTodoCleanupJob creates a new todo cleanup job
func NewTodoCleanupJob(todos *services.TodoService) *TodoCleanupJob {
	return &TodoCleanupJob{todos: todos}
}

// Name identifies the job in scheduler logs
func (j *TodoCleanupJob) Name() string {
	return "todo-cleanup"
}

// Run deletes everything past its expiry
func (j *TodoCleanupJob) Run(ctx context.Context) error {
	_, err := j.todos.DeleteExpired()
	return err
}
