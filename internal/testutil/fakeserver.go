package testutil

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// FakeServer implements the remote service's HTTP contract in memory for
// client tests: bcrypt-checked credentials, opaque bearer tokens, and the
// task CRUD endpoints. Wire shapes match the production service,
// including the RFC1123-style dueDate and the preformatted display date.
type FakeServer struct {
	mu      sync.Mutex
	users   map[string][]byte // username -> bcrypt hash
	tasks   []serverTask
	access  map[string]string // access token -> username
	refresh map[string]string // refresh token -> username

	// Call counters.
	RefreshCalls int
	ListCalls    int

	// LastCreate holds the raw fields of the most recent create request.
	LastCreate map[string]string
}

type serverTask struct {
	id            string
	title         string
	description   string
	status        string
	due           *time.Time
	dateFormatted string
}

// NewFakeServer creates an empty FakeServer.
func NewFakeServer() *FakeServer {
	return &FakeServer{
		users:   make(map[string][]byte),
		access:  make(map[string]string),
		refresh: make(map[string]string),
	}
}

// AddUser seeds an account with a bcrypt-hashed password.
func (s *FakeServer) AddUser(username, password string) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[username] = hash
}

// AddRawTask seeds a task record with arbitrary field content, returning
// its id. Content is served verbatim, so tests can feed markup.
func (s *FakeServer) AddRawTask(title, description, status string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.NewString()
	s.tasks = append(s.tasks, serverTask{
		id:            id,
		title:         title,
		description:   description,
		status:        status,
		dateFormatted: "Due date not given",
	})
	return id
}

// TaskStatus returns the stored status for id, or "" if absent.
func (s *FakeServer) TaskStatus(id string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tasks {
		if t.id == id {
			return t.status
		}
	}
	return ""
}

// TaskCount returns the number of stored tasks.
func (s *FakeServer) TaskCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tasks)
}

// ExpireAccessTokens invalidates all current access tokens, forcing the
// next authenticated request into the refresh path. Refresh tokens stay
// valid.
func (s *FakeServer) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = make(map[string]string)
}

// ExpireRefreshTokens invalidates all refresh tokens.
func (s *FakeServer) ExpireRefreshTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refresh = make(map[string]string)
}

// Handler returns the HTTP handler implementing the service contract.
func (s *FakeServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /register", s.handleRegister)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("POST /refresh", s.handleRefresh)
	mux.HandleFunc("GET /tasks", s.handleListTasks)
	mux.HandleFunc("POST /tasks", s.handleCreateTask)
	mux.HandleFunc("PUT /tasks/{id}", s.handleUpdateTask)
	mux.HandleFunc("DELETE /tasks/{id}", s.handleDeleteTask)
	return mux
}

func (s *FakeServer) handleRegister(w http.ResponseWriter, r *http.Request) {
	var creds struct{ Username, Password string }
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil || creds.Username == "" {
		http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), bcrypt.MinCost)
	if err != nil {
		http.Error(w, `{"message":"server error"}`, http.StatusInternalServerError)
		return
	}
	s.mu.Lock()
	s.users[creds.Username] = hash
	s.mu.Unlock()
	writeJSON(w, map[string]string{"message": "User registered successfully"})
}

func (s *FakeServer) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds struct{ Username, Password string }
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	hash, ok := s.users[creds.Username]
	if !ok || bcrypt.CompareHashAndPassword(hash, []byte(creds.Password)) != nil {
		http.Error(w, `{"message":"Invalid credentials"}`, http.StatusUnauthorized)
		return
	}
	access := uuid.NewString()
	refresh := uuid.NewString()
	s.access[access] = creds.Username
	s.refresh[refresh] = creds.Username
	writeJSON(w, map[string]string{"access_token": access, "refresh_token": refresh})
}

func (s *FakeServer) handleRefresh(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RefreshCalls++
	user, ok := s.refresh[bearer(r)]
	if !ok {
		http.Error(w, `{"message":"invalid refresh token"}`, http.StatusUnauthorized)
		return
	}
	access := uuid.NewString()
	s.access[access] = user
	writeJSON(w, map[string]string{"access_token": access})
}

func (s *FakeServer) authed(r *http.Request) bool {
	_, ok := s.access[bearer(r)]
	return ok
}

func (s *FakeServer) handleListTasks(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ListCalls++
	if !s.authed(r) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	records := make([]map[string]string, 0, len(s.tasks))
	for _, t := range s.tasks {
		record := map[string]string{
			"_id":           t.id,
			"title":         t.title,
			"description":   t.description,
			"status":        t.status,
			"dateFormatted": t.dateFormatted,
		}
		if t.due != nil {
			record["dueDate"] = t.due.UTC().Format("Mon, 02 Jan 2006 15:04:05") + " GMT"
		}
		records = append(records, record)
	}
	writeJSON(w, records)
}

func (s *FakeServer) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authed(r) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
		return
	}
	s.LastCreate = fields

	if strings.TrimSpace(fields["title"]) == "" || strings.TrimSpace(fields["description"]) == "" {
		http.Error(w, `{"message":"missing field"}`, http.StatusBadRequest)
		return
	}
	due, err := time.Parse("2006-01-02", strings.SplitN(fields["dueDate"], "T", 2)[0])
	if err != nil {
		http.Error(w, `{"message":"invalid due date"}`, http.StatusBadRequest)
		return
	}
	s.tasks = append(s.tasks, serverTask{
		id:            uuid.NewString(),
		title:         fields["title"],
		description:   fields["description"],
		status:        fields["status"],
		due:           &due,
		dateFormatted: due.Format("02") + "th " + due.Format("January 2006"),
	})
	writeJSON(w, map[string]string{"message": "Task created successfully"})
}

func (s *FakeServer) handleUpdateTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authed(r) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	var fields struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		http.Error(w, `{"message":"bad request"}`, http.StatusBadRequest)
		return
	}
	id := r.PathValue("id")
	for i, t := range s.tasks {
		if t.id == id {
			s.tasks[i].status = fields.Status
			writeJSON(w, map[string]string{"message": "Task updated successfully"})
			return
		}
	}
	http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
}

func (s *FakeServer) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.authed(r) {
		http.Error(w, `{"message":"unauthorized"}`, http.StatusUnauthorized)
		return
	}
	id := r.PathValue("id")
	for i, t := range s.tasks {
		if t.id == id {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			writeJSON(w, map[string]string{"message": "Task deleted successfully"})
			return
		}
	}
	http.Error(w, `{"message":"not found"}`, http.StatusNotFound)
}

func bearer(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	token, ok := strings.CutPrefix(auth, "Bearer ")
	if !ok {
		return ""
	}
	return token
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		panic(err)
	}
}
