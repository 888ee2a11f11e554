// Package engine keeps the local task collection consistent with the
// remote service and owns the session lifecycle around it.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"todo/internal/service"
	"todo/internal/session"
)

// Engine reconciles local task state with the remote source of truth.
// Every mutation re-fetches the authoritative collection; the local copy
// is replaced wholesale and never merged record-by-record.
type Engine struct {
	svc      service.Service
	sessions session.Store

	mu     sync.Mutex
	tasks  []service.Task
	active bool
}

// New creates an Engine over the given backend and session store.
func New(svc service.Service, sessions session.Store) *Engine {
	return &Engine{svc: svc, sessions: sessions}
}

// Start restores a previously stored session. A found token marks the
// session active optimistically, without validation; an expired token is
// repaired reactively on the first authenticated call. When active, the
// initial fetch is issued immediately. A failed initial fetch leaves the
// session active and the collection empty, and is returned to the caller.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.Restore(); err != nil {
		return err
	}
	if !e.Active() {
		return nil
	}
	return e.Refresh(ctx)
}

// Restore marks the session active if a token pair is stored, without any
// network traffic.
func (e *Engine) Restore() error {
	sess, err := e.sessions.Get()
	if err != nil {
		return err
	}
	if sess == nil {
		return nil
	}
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	return nil
}

// Active reports whether a session is currently considered live.
func (e *Engine) Active() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Tasks returns the current local collection in server order.
func (e *Engine) Tasks() []service.Task {
	e.mu.Lock()
	defer e.mu.Unlock()
	tasks := make([]service.Task, len(e.tasks))
	copy(tasks, e.tasks)
	return tasks
}

// Register creates an account. No session side effect; the user must
// still log in.
func (e *Engine) Register(ctx context.Context, username, password string) error {
	if err := checkCredentials(username, password); err != nil {
		return err
	}
	return e.svc.Register(ctx, username, password)
}

// Login exchanges credentials for a session, persists both tokens, marks
// the session active and issues the initial fetch. On failure nothing
// changes.
func (e *Engine) Login(ctx context.Context, username, password string) error {
	if err := checkCredentials(username, password); err != nil {
		return err
	}
	sess, err := e.svc.Login(ctx, username, password)
	if err != nil {
		return err
	}
	if err := e.sessions.Set(sess); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	e.mu.Lock()
	e.active = true
	e.mu.Unlock()
	return e.Refresh(ctx)
}

// Logout destroys the session and empties the local collection. Purely
// local; no network call.
func (e *Engine) Logout() error {
	if err := e.sessions.Clear(); err != nil {
		return err
	}
	e.mu.Lock()
	e.tasks = nil
	e.active = false
	e.mu.Unlock()
	return nil
}

// Refresh fetches the authoritative collection and replaces the local
// copy. On failure the local copy is left unchanged.
func (e *Engine) Refresh(ctx context.Context) error {
	tasks, err := e.svc.ListTasks(ctx)
	if err != nil {
		return err
	}
	e.mu.Lock()
	e.tasks = tasks
	e.mu.Unlock()
	return nil
}

// Create sends a new task and re-fetches. The created record is never
// inserted optimistically; the server-assigned id and derived fields
// arrive with the re-fetch.
func (e *Engine) Create(ctx context.Context, draft service.Draft) error {
	if err := e.svc.CreateTask(ctx, draft); err != nil {
		return err
	}
	return e.Refresh(ctx)
}

// SetStatus changes a task's workflow state and re-fetches.
func (e *Engine) SetStatus(ctx context.Context, id string, status service.Status) error {
	if err := e.svc.UpdateTaskStatus(ctx, id, status); err != nil {
		return err
	}
	return e.Refresh(ctx)
}

// Delete removes a task and re-fetches.
func (e *Engine) Delete(ctx context.Context, id string) error {
	if err := e.svc.DeleteTask(ctx, id); err != nil {
		return err
	}
	return e.Refresh(ctx)
}

func checkCredentials(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return &service.ValidationError{Field: "username", Reason: "required"}
	}
	if password == "" {
		return &service.ValidationError{Field: "password", Reason: "required"}
	}
	return nil
}
