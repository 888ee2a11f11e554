// Package taskapi implements the service.Service interface against the
// remote HTTP task service.
package taskapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"google.golang.org/api/googleapi"

	"todo/internal/sanitize"
	"todo/internal/service"
	"todo/internal/session"
)

// APITimeout is the timeout for API calls.
const APITimeout = 5 * time.Second

// Client implements service.Service over the remote HTTP contract.
type Client struct {
	base *url.URL

	// authed carries the bearer transport (token attach + refresh/retry);
	// plain serves the unauthenticated register/login endpoints.
	authed *http.Client
	plain  *http.Client
}

// New creates a client for the service at baseURL. Authenticated calls
// read the session store at send time, so a token stored after New is
// picked up without rebuilding the client.
func New(baseURL string, sessions session.Store) (*Client, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q: scheme and host required", baseURL)
	}

	return &Client{
		base:  base,
		plain: &http.Client{},
		authed: &http.Client{
			Transport: &bearerTransport{
				base:       http.DefaultTransport,
				sessions:   sessions,
				refreshURL: base.JoinPath("refresh").String(),
			},
		},
	}, nil
}

// Register implements service.Service.
func (c *Client) Register(ctx context.Context, username, password string) error {
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, c.plain, http.MethodPost, body, nil, "register"); err != nil {
		return wrapError(err)
	}
	return nil
}

// Login implements service.Service.
func (c *Client) Login(ctx context.Context, username, password string) (service.Session, error) {
	body := map[string]string{"username": username, "password": password}
	var payload struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
	}
	if err := c.do(ctx, c.plain, http.MethodPost, body, &payload, "login"); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized {
			return service.Session{}, fmt.Errorf("%w: invalid credentials", service.ErrUnauthorized)
		}
		return service.Session{}, wrapError(err)
	}
	if payload.AccessToken == "" || payload.RefreshToken == "" {
		return service.Session{}, &service.ValidationError{Field: "login response", Reason: "missing tokens"}
	}
	return service.Session{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, nil
}

// ListTasks implements service.Service. Every field of every record is
// sanitized before it is trusted, and records failing shape validation
// reject the whole fetch.
func (c *Client) ListTasks(ctx context.Context) ([]service.Task, error) {
	var wire []wireTask
	if err := c.do(ctx, c.authed, http.MethodGet, nil, &wire, "tasks"); err != nil {
		return nil, wrapError(err)
	}

	tasks := make([]service.Task, 0, len(wire))
	for _, w := range wire {
		task, err := decodeTask(w)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

// CreateTask implements service.Service. Fields are validated and
// sanitized client-side before transmission; the due date is normalized
// to a date-only UTC timestamp.
func (c *Client) CreateTask(ctx context.Context, draft service.Draft) error {
	if strings.TrimSpace(draft.Title) == "" {
		return &service.ValidationError{Field: "title", Reason: "required"}
	}
	if strings.TrimSpace(draft.Description) == "" {
		return &service.ValidationError{Field: "description", Reason: "required"}
	}
	status, err := service.ParseStatus(string(draft.Status))
	if err != nil {
		return &service.ValidationError{Field: "status", Reason: "must be To Do, In Progress or Done"}
	}
	if draft.DueDate.IsZero() {
		return &service.ValidationError{Field: "due date", Reason: "required"}
	}

	body := map[string]string{
		"title":       sanitize.Clean(draft.Title),
		"description": sanitize.Clean(draft.Description),
		"status":      sanitize.Clean(string(status)),
		"dueDate":     canonicalDate(draft.DueDate),
	}
	if err := c.do(ctx, c.authed, http.MethodPost, body, nil, "tasks"); err != nil {
		return wrapError(err)
	}
	return nil
}

// UpdateTaskStatus implements service.Service.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status service.Status) error {
	status, err := service.ParseStatus(string(status))
	if err != nil {
		return &service.ValidationError{Field: "status", Reason: "must be To Do, In Progress or Done"}
	}
	body := map[string]string{"status": string(status)}
	if err := c.do(ctx, c.authed, http.MethodPut, body, nil, "tasks", id); err != nil {
		return wrapError(err)
	}
	return nil
}

// DeleteTask implements service.Service.
func (c *Client) DeleteTask(ctx context.Context, id string) error {
	if err := c.do(ctx, c.authed, http.MethodDelete, nil, nil, "tasks", id); err != nil {
		return wrapError(err)
	}
	return nil
}

// do issues one JSON request and decodes the response into out when
// non-nil. Non-2xx statuses become *googleapi.Error.
func (c *Client) do(ctx context.Context, client *http.Client, method string, body, out any, path ...string) error {
	ctx, cancel := context.WithTimeout(ctx, APITimeout)
	defer cancel()

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(data)
	}

	target := c.base.JoinPath(path...).String()
	var req *http.Request
	var err error
	if payload != nil {
		req, err = http.NewRequestWithContext(ctx, method, target, payload)
	} else {
		req, err = http.NewRequestWithContext(ctx, method, target, nil)
	}
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := googleapi.CheckResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &service.ValidationError{Field: "response", Reason: "malformed body"}
	}
	return nil
}

// canonicalDate renders a timestamp as the date-only UTC form the server
// expects, e.g. "2025-01-01T00:00:00Z".
func canonicalDate(ts time.Time) string {
	ts = ts.UTC()
	return time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC).Format(time.RFC3339)
}

// wrapError wraps API errors with user-friendly messages.
func wrapError(err error) error {
	if err == nil {
		return nil
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: token expired or revoked (run: todo login)", service.ErrUnauthorized)
		case http.StatusNotFound:
			return errors.New("not found")
		}
		return fmt.Errorf("server error: %s", http.StatusText(apiErr.Code))
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return errors.New("request timed out")
	}
	if errors.Is(err, service.ErrNotLoggedIn) {
		return service.ErrNotLoggedIn
	}
	return err
}
