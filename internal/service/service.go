// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for task backend operations.
// All remote calls made by the store go through this interface.
// The store never imports a backend package directly.
type Service interface {
	// ListTasks returns the full task collection in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a task. The server assigns the ID and
	// completed=false, and returns the full representation.
	CreateTask(ctx context.Context, draft Draft) (Task, error)

	// UpdateTask applies a partial update and returns the full
	// updated representation.
	UpdateTask(ctx context.Context, id string, patch Patch) (Task, error)

	// DeleteTask deletes a task.
	DeleteTask(ctx context.Context, id string) error
}
