// Package service defines the backend-agnostic interface for task operations.
package service

import "context"

// Service defines the interface for remote task-service operations.
// All HTTP calls go through this interface. Commands never build
// requests directly.
type Service interface {
	// Register creates a new account. It has no session side effect;
	// the user must still log in afterwards.
	Register(ctx context.Context, username, password string) error

	// Login exchanges credentials for an access/refresh token pair.
	Login(ctx context.Context, username, password string) (Session, error)

	// ListTasks returns the authenticated user's full task collection,
	// in server order.
	ListTasks(ctx context.Context) ([]Task, error)

	// CreateTask creates a new task. The server assigns the ID and any
	// derived fields; callers re-fetch to observe them.
	CreateTask(ctx context.Context, draft Draft) error

	// UpdateTaskStatus changes a task's workflow state.
	UpdateTaskStatus(ctx context.Context, id string, status Status) error

	// DeleteTask deletes a task by ID.
	DeleteTask(ctx context.Context, id string) error
}
