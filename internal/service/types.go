// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"fmt"
	"strings"
	"time"
)

// Status is a task's workflow state.
type Status string

// The three workflow states the service understands.
const (
	StatusToDo       Status = "To Do"
	StatusInProgress Status = "In Progress"
	StatusDone       Status = "Done"
)

// ParseStatus canonicalizes a status string. Matching is case-insensitive
// and tolerates hyphens and collapsed spaces ("in-progress", "todo").
func ParseStatus(s string) (Status, error) {
	norm := strings.Join(strings.Fields(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", " ")), " ")
	switch norm {
	case "to do", "todo":
		return StatusToDo, nil
	case "in progress", "inprogress":
		return StatusInProgress, nil
	case "done":
		return StatusDone, nil
	}
	return "", fmt.Errorf("invalid status: %s", s)
}

// Task represents a single task item. The server owns the record; the
// client holds a cached copy keyed by ID.
type Task struct {
	ID          string
	Title       string
	Description string
	Status      Status
	DueDate     *time.Time // nil when the server sent no usable date
	// DateFormatted is the server's display string for the due date.
	DateFormatted string
}

// Draft holds the fields of a task to be created. The server assigns the ID.
type Draft struct {
	Title       string
	Description string
	Status      Status
	DueDate     time.Time
}

// Session is the access/refresh token pair for an authenticated user.
type Session struct {
	AccessToken  string
	RefreshToken string
}
