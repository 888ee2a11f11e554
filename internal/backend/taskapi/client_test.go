package taskapi_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"todo/internal/backend/taskapi"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/testutil"
)

type env struct {
	server *testutil.FakeServer
	store  *session.MemStore
	client *taskapi.Client
}

func newEnv(t *testing.T) *env {
	t.Helper()
	fake := testutil.NewFakeServer()
	srv := httptest.NewServer(fake.Handler())
	t.Cleanup(srv.Close)

	store := &session.MemStore{}
	client, err := taskapi.New(srv.URL, store)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return &env{server: fake, store: store, client: client}
}

// login authenticates against the fake server and stores the session,
// the way the engine would.
func (e *env) login(t *testing.T, username, password string) {
	t.Helper()
	e.server.AddUser(username, password)
	sess, err := e.client.Login(context.Background(), username, password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := e.store.Set(sess); err != nil {
		t.Fatal(err)
	}
}

func TestNewRejectsBadBaseURL(t *testing.T) {
	for _, raw := range []string{"", "localhost:8000", "://nope", "/just/a/path"} {
		if _, err := taskapi.New(raw, &session.MemStore{}); err == nil {
			t.Errorf("New(%q) accepted an unusable base URL", raw)
		}
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	e := newEnv(t)
	e.server.AddUser("alice", "s3cret")

	_, err := e.client.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("Login error = %v, want ErrUnauthorized", err)
	}
}

func TestRegisterThenLogin(t *testing.T) {
	e := newEnv(t)

	if err := e.client.Register(context.Background(), "bob", "hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	sess, err := e.client.Login(context.Background(), "bob", "hunter2")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Errorf("session incomplete: %+v", sess)
	}
}

func TestAuthenticatedCallWithoutSession(t *testing.T) {
	e := newEnv(t)

	_, err := e.client.ListTasks(context.Background())
	if !errors.Is(err, service.ErrNotLoggedIn) {
		t.Fatalf("ListTasks error = %v, want ErrNotLoggedIn", err)
	}
}

func TestListSanitizesServerContent(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")
	e.server.AddRawTask("<script>alert(1)</script>Buy milk", "<b>2%</b> fat", "To Do")

	tasks, err := e.client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].Title != "Buy milk" {
		t.Errorf("Title = %q, markup not neutralized", tasks[0].Title)
	}
	if tasks[0].Description != "2% fat" {
		t.Errorf("Description = %q, markup not neutralized", tasks[0].Description)
	}
	if tasks[0].Status != service.StatusToDo {
		t.Errorf("Status = %q", tasks[0].Status)
	}
}

func TestListRejectsMalformedRecord(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")
	e.server.AddRawTask("Buy milk", "2%", "Shipped")

	_, err := e.client.ListTasks(context.Background())
	if !service.IsValidation(err) {
		t.Fatalf("ListTasks error = %v, want ValidationError for unknown status", err)
	}
}

func TestCreateNormalizesDueDate(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")

	draft := service.Draft{
		Title:       "Buy milk",
		Description: "2%",
		Status:      service.StatusToDo,
		DueDate:     time.Date(2025, 1, 1, 17, 30, 0, 0, time.FixedZone("CET", 3600)),
	}
	if err := e.client.CreateTask(context.Background(), draft); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}

	if got := e.server.LastCreate["dueDate"]; got != "2025-01-01T00:00:00Z" {
		t.Errorf("dueDate on the wire = %q, want date-only UTC form", got)
	}

	tasks, err := e.client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if tasks[0].DueDate == nil || !tasks[0].DueDate.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("DueDate round-tripped as %v", tasks[0].DueDate)
	}
	if tasks[0].DateFormatted == "" {
		t.Error("server-formatted display date missing")
	}
}

func TestCreateSanitizesOutboundFields(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")

	draft := service.Draft{
		Title:       "Buy <i>fancy</i> milk",
		Description: "2%",
		Status:      service.StatusToDo,
		DueDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := e.client.CreateTask(context.Background(), draft); err != nil {
		t.Fatalf("CreateTask: %v", err)
	}
	if got := e.server.LastCreate["title"]; got != "Buy fancy milk" {
		t.Errorf("title on the wire = %q, markup not stripped before send", got)
	}
}

func TestCreateValidation(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")
	due := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name  string
		draft service.Draft
	}{
		{"blank title", service.Draft{Title: "  ", Description: "x", Status: service.StatusToDo, DueDate: due}},
		{"blank description", service.Draft{Title: "x", Description: "", Status: service.StatusToDo, DueDate: due}},
		{"bad status", service.Draft{Title: "x", Description: "y", Status: "Shipped", DueDate: due}},
		{"zero due date", service.Draft{Title: "x", Description: "y", Status: service.StatusToDo}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := e.client.CreateTask(context.Background(), tc.draft)
			if !service.IsValidation(err) {
				t.Errorf("error = %v, want ValidationError", err)
			}
		})
	}
	if e.server.TaskCount() != 0 {
		t.Error("invalid drafts reached the server")
	}
}

func TestUpdateAndDelete(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")
	id := e.server.AddRawTask("Buy milk", "2%", "To Do")

	if err := e.client.UpdateTaskStatus(context.Background(), id, "done"); err != nil {
		t.Fatalf("UpdateTaskStatus: %v", err)
	}
	if got := e.server.TaskStatus(id); got != "Done" {
		t.Errorf("stored status = %q, want canonical %q", got, "Done")
	}

	if err := e.client.DeleteTask(context.Background(), id); err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if e.server.TaskCount() != 0 {
		t.Error("task survived delete")
	}
}

func TestExpiredAccessTokenIsRepairedOnce(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")
	e.server.AddRawTask("Buy milk", "2%", "To Do")

	before, err := e.store.Get()
	if err != nil {
		t.Fatal(err)
	}
	e.server.ExpireAccessTokens()

	tasks, err := e.client.ListTasks(context.Background())
	if err != nil {
		t.Fatalf("ListTasks after expiry: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("got %d tasks, want 1", len(tasks))
	}
	if e.server.RefreshCalls != 1 {
		t.Errorf("RefreshCalls = %d, want 1", e.server.RefreshCalls)
	}
	if e.server.ListCalls != 2 {
		t.Errorf("ListCalls = %d, want 2 (rejected attempt plus retry)", e.server.ListCalls)
	}

	after, err := e.store.Get()
	if err != nil {
		t.Fatal(err)
	}
	if after.AccessToken == before.AccessToken {
		t.Error("refreshed access token was not persisted")
	}
	if after.RefreshToken != before.RefreshToken {
		t.Error("refresh token must not change")
	}

	// The repaired token serves subsequent calls without another refresh.
	if _, err := e.client.ListTasks(context.Background()); err != nil {
		t.Fatalf("ListTasks with repaired token: %v", err)
	}
	if e.server.RefreshCalls != 1 {
		t.Errorf("RefreshCalls = %d after repaired call, want still 1", e.server.RefreshCalls)
	}
}

func TestExpiredRefreshTokenFailsWithoutLoop(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")
	e.server.ExpireAccessTokens()
	e.server.ExpireRefreshTokens()

	_, err := e.client.ListTasks(context.Background())
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("ListTasks error = %v, want ErrUnauthorized", err)
	}
	if e.server.RefreshCalls != 1 {
		t.Errorf("RefreshCalls = %d, want exactly 1 (no retry loop)", e.server.RefreshCalls)
	}

	// The failed refresh must not destroy the stored session.
	sess, err := e.store.Get()
	if err != nil {
		t.Fatal(err)
	}
	if sess == nil {
		t.Error("session cleared by failed refresh")
	}
}

func TestCreateRetriesWithBodyAfterRefresh(t *testing.T) {
	e := newEnv(t)
	e.login(t, "alice", "pw")
	e.server.ExpireAccessTokens()

	draft := service.Draft{
		Title:       "Buy milk",
		Description: "2%",
		Status:      service.StatusToDo,
		DueDate:     time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
	}
	if err := e.client.CreateTask(context.Background(), draft); err != nil {
		t.Fatalf("CreateTask through refresh: %v", err)
	}
	if e.server.TaskCount() != 1 {
		t.Errorf("TaskCount = %d, want 1 (retried request carried its body)", e.server.TaskCount())
	}
}
