// Package testutil provides testing utilities.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"todo/internal/service"
)

// ErrNotFound is returned when a resource is not found.
var ErrNotFound = errors.New("not found")

// FakeService is an in-memory implementation of service.Service for testing.
type FakeService struct {
	mu    sync.RWMutex
	users map[string]string // username -> password
	tasks []service.Task

	// ListCalls counts ListTasks invocations.
	ListCalls int

	// Error injection for testing
	RegisterErr     error
	LoginErr        error
	ListTasksErr    error
	CreateTaskErr   error
	UpdateStatusErr error
	DeleteTaskErr   error
}

// NewFakeService creates an empty FakeService.
func NewFakeService() *FakeService {
	return &FakeService{users: make(map[string]string)}
}

// AddUser seeds an account.
func (f *FakeService) AddUser(username, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
}

// AddTask seeds a task with a server-style opaque id.
func (f *FakeService) AddTask(title, description string, status service.Status) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := uuid.NewString()
	f.tasks = append(f.tasks, service.Task{
		ID:          id,
		Title:       title,
		Description: description,
		Status:      status,
	})
	return id
}

// Tasks returns a copy of the stored collection.
func (f *FakeService) Tasks() []service.Task {
	f.mu.RLock()
	defer f.mu.RUnlock()
	tasks := make([]service.Task, len(f.tasks))
	copy(tasks, f.tasks)
	return tasks
}

// Register implements service.Service.
func (f *FakeService) Register(ctx context.Context, username, password string) error {
	if f.RegisterErr != nil {
		return f.RegisterErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[username] = password
	return nil
}

// Login implements service.Service.
func (f *FakeService) Login(ctx context.Context, username, password string) (service.Session, error) {
	if f.LoginErr != nil {
		return service.Session{}, f.LoginErr
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	if stored, ok := f.users[username]; !ok || stored != password {
		return service.Session{}, fmt.Errorf("%w: invalid credentials", service.ErrUnauthorized)
	}
	return service.Session{
		AccessToken:  "access-" + uuid.NewString(),
		RefreshToken: "refresh-" + uuid.NewString(),
	}, nil
}

// ListTasks implements service.Service.
func (f *FakeService) ListTasks(ctx context.Context) ([]service.Task, error) {
	f.mu.Lock()
	f.ListCalls++
	f.mu.Unlock()
	if f.ListTasksErr != nil {
		return nil, f.ListTasksErr
	}
	return f.Tasks(), nil
}

// CreateTask implements service.Service.
func (f *FakeService) CreateTask(ctx context.Context, draft service.Draft) error {
	if f.CreateTaskErr != nil {
		return f.CreateTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	due := time.Date(draft.DueDate.Year(), draft.DueDate.Month(), draft.DueDate.Day(), 0, 0, 0, 0, time.UTC)
	f.tasks = append(f.tasks, service.Task{
		ID:            uuid.NewString(),
		Title:         draft.Title,
		Description:   draft.Description,
		Status:        draft.Status,
		DueDate:       &due,
		DateFormatted: due.Format("02") + "th " + due.Format("January 2006"),
	})
	return nil
}

// UpdateTaskStatus implements service.Service.
func (f *FakeService) UpdateTaskStatus(ctx context.Context, id string, status service.Status) error {
	if f.UpdateStatusErr != nil {
		return f.UpdateStatusErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i].Status = status
			return nil
		}
	}
	return ErrNotFound
}

// DeleteTask implements service.Service.
func (f *FakeService) DeleteTask(ctx context.Context, id string) error {
	if f.DeleteTaskErr != nil {
		return f.DeleteTaskErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}
