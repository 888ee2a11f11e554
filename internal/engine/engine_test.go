package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"todo/internal/engine"
	"todo/internal/service"
	"todo/internal/session"
	"todo/internal/testutil"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newEngine() (*engine.Engine, *testutil.FakeService, *session.MemStore) {
	svc := testutil.NewFakeService()
	store := &session.MemStore{}
	return engine.New(svc, store), svc, store
}

func TestLoginStoresSessionAndFetches(t *testing.T) {
	eng, svc, store := newEngine()
	svc.AddUser("alice", "s3cret")
	svc.AddTask("Buy milk", "2%", service.StatusToDo)

	if err := eng.Login(context.Background(), "alice", "s3cret"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	sess, err := store.Get()
	if err != nil {
		t.Fatalf("store.Get: %v", err)
	}
	if sess == nil || sess.AccessToken == "" || sess.RefreshToken == "" {
		t.Errorf("expected both tokens stored, got %+v", sess)
	}
	if !eng.Active() {
		t.Error("session should be active after login")
	}
	if svc.ListCalls != 1 {
		t.Errorf("ListCalls = %d, want 1 (initial fetch after login)", svc.ListCalls)
	}
	if tasks := eng.Tasks(); len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Errorf("Tasks = %v, want the seeded task", tasks)
	}
}

func TestLoginBadCredentials(t *testing.T) {
	eng, svc, store := newEngine()
	svc.AddUser("alice", "s3cret")

	err := eng.Login(context.Background(), "alice", "wrong")
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Fatalf("Login error = %v, want ErrUnauthorized", err)
	}
	if sess, _ := store.Get(); sess != nil {
		t.Errorf("session stored after failed login: %+v", sess)
	}
	if eng.Active() {
		t.Error("session should not be active after failed login")
	}
	if svc.ListCalls != 0 {
		t.Errorf("ListCalls = %d, want 0", svc.ListCalls)
	}
}

func TestLoginValidatesCredentials(t *testing.T) {
	eng, svc, _ := newEngine()

	err := eng.Login(context.Background(), "  ", "pw")
	if !service.IsValidation(err) {
		t.Errorf("Login with blank username = %v, want ValidationError", err)
	}
	err = eng.Login(context.Background(), "alice", "")
	if !service.IsValidation(err) {
		t.Errorf("Login with empty password = %v, want ValidationError", err)
	}
	if svc.ListCalls != 0 {
		t.Errorf("no network calls expected, ListCalls = %d", svc.ListCalls)
	}
}

func TestRegisterHasNoSessionSideEffect(t *testing.T) {
	eng, _, store := newEngine()

	if err := eng.Register(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if sess, _ := store.Get(); sess != nil {
		t.Errorf("register must not create a session, got %+v", sess)
	}
	if eng.Active() {
		t.Error("register must not activate the session")
	}

	// The account exists; login now succeeds.
	if err := eng.Login(context.Background(), "bob", "pw"); err != nil {
		t.Fatalf("Login after register: %v", err)
	}
}

func TestLogoutIsLocalAndComplete(t *testing.T) {
	eng, svc, store := newEngine()
	svc.AddUser("alice", "pw")
	svc.AddTask("Buy milk", "2%", service.StatusToDo)
	if err := eng.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	calls := svc.ListCalls

	if err := eng.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	if sess, _ := store.Get(); sess != nil {
		t.Errorf("session survives logout: %+v", sess)
	}
	if len(eng.Tasks()) != 0 {
		t.Error("task collection survives logout")
	}
	if eng.Active() {
		t.Error("session active after logout")
	}
	if svc.ListCalls != calls {
		t.Error("logout must not touch the network")
	}
}

func TestStartRestoresStoredSession(t *testing.T) {
	eng, svc, store := newEngine()
	svc.AddTask("Buy milk", "2%", service.StatusToDo)
	if err := store.Set(service.Session{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !eng.Active() {
		t.Error("stored session should activate optimistically")
	}
	if svc.ListCalls != 1 {
		t.Errorf("ListCalls = %d, want 1 (initial fetch on start)", svc.ListCalls)
	}
	if len(eng.Tasks()) != 1 {
		t.Errorf("Tasks = %v, want seeded task", eng.Tasks())
	}
}

func TestStartWithoutSession(t *testing.T) {
	eng, svc, _ := newEngine()

	if err := eng.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if eng.Active() {
		t.Error("no stored session, must not be active")
	}
	if svc.ListCalls != 0 {
		t.Errorf("ListCalls = %d, want 0", svc.ListCalls)
	}
}

func TestRefreshFailurePreservesCollection(t *testing.T) {
	eng, svc, _ := newEngine()
	svc.AddUser("alice", "pw")
	svc.AddTask("Buy milk", "2%", service.StatusToDo)
	if err := eng.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	svc.ListTasksErr = errors.New("connection refused")
	if err := eng.Refresh(context.Background()); err == nil {
		t.Fatal("Refresh should fail")
	}
	if tasks := eng.Tasks(); len(tasks) != 1 {
		t.Errorf("collection changed on failed fetch: %v", tasks)
	}
}

func TestCreateRefetchesInsteadOfInserting(t *testing.T) {
	eng, svc, _ := newEngine()
	svc.AddUser("alice", "pw")
	if err := eng.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	calls := svc.ListCalls

	draft := service.Draft{Title: "Buy milk", Description: "2%", Status: service.StatusToDo, DueDate: date(2025, 1, 1)}
	if err := eng.Create(context.Background(), draft); err != nil {
		t.Fatalf("Create: %v", err)
	}

	if svc.ListCalls != calls+1 {
		t.Errorf("ListCalls = %d, want %d (re-fetch after create)", svc.ListCalls, calls+1)
	}
	tasks := eng.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Buy milk" {
		t.Fatalf("Tasks = %v, want created task from re-fetch", tasks)
	}
	if tasks[0].ID == "" {
		t.Error("task id should be server-assigned")
	}
}

func TestFailedCreateLeavesCollectionUnchanged(t *testing.T) {
	eng, svc, _ := newEngine()
	svc.AddUser("alice", "pw")
	svc.AddTask("Buy milk", "2%", service.StatusToDo)
	if err := eng.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	calls := svc.ListCalls

	svc.CreateTaskErr = errors.New("boom")
	draft := service.Draft{Title: "x", Description: "y", Status: service.StatusToDo, DueDate: date(2025, 1, 1)}
	if err := eng.Create(context.Background(), draft); err == nil {
		t.Fatal("Create should fail")
	}
	if svc.ListCalls != calls {
		t.Error("no re-fetch after failed mutation")
	}
	if len(eng.Tasks()) != 1 {
		t.Error("collection changed after failed create")
	}
}

func TestSetStatusRefetches(t *testing.T) {
	eng, svc, _ := newEngine()
	svc.AddUser("alice", "pw")
	id := svc.AddTask("Buy milk", "2%", service.StatusToDo)
	if err := eng.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := eng.SetStatus(context.Background(), id, service.StatusDone); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	tasks := eng.Tasks()
	if len(tasks) != 1 || tasks[0].Status != service.StatusDone {
		t.Errorf("Tasks = %v, want status Done from re-fetch", tasks)
	}
}

func TestDeleteRefetches(t *testing.T) {
	eng, svc, _ := newEngine()
	svc.AddUser("alice", "pw")
	id := svc.AddTask("Buy milk", "2%", service.StatusToDo)
	if err := eng.Login(context.Background(), "alice", "pw"); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := eng.Delete(context.Background(), id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if tasks := eng.Tasks(); len(tasks) != 0 {
		t.Errorf("Tasks = %v, want empty after delete + re-fetch", tasks)
	}
}
