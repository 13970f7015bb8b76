package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"tasklist/internal/service"
)

// TaskAPI is an in-memory HTTP fake of the remote task collection:
// GET/POST /api/tasks and PATCH/DELETE /api/tasks/{id}.
type TaskAPI struct {
	Server *httptest.Server

	mu       sync.Mutex
	tasks    []service.Task
	nextID   int
	failures map[string]int // method -> status code to answer with
	requests []Request
	mongoIDs bool
}

// Request records a request received by the fake.
type Request struct {
	Method string
	Path   string
	Body   string
}

// NewTaskAPI starts a fake task API server. It is closed on test cleanup.
func NewTaskAPI(t *testing.T) *TaskAPI {
	t.Helper()

	api := &TaskAPI{
		nextID:   1,
		failures: make(map[string]int),
	}

	r := chi.NewRouter()
	r.Use(api.record)
	r.Route("/api/tasks", func(r chi.Router) {
		r.Get("/", api.list)
		r.Post("/", api.create)
		r.Patch("/{id}", api.update)
		r.Delete("/{id}", api.remove)
	})

	api.Server = httptest.NewServer(r)
	t.Cleanup(api.Server.Close)
	return api
}

// URL returns the collection URL.
func (a *TaskAPI) URL() string {
	return a.Server.URL + "/api/tasks"
}

// Seed replaces the stored collection.
func (a *TaskAPI) Seed(tasks ...service.Task) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.tasks = append([]service.Task(nil), tasks...)
}

// Tasks returns a copy of the stored collection.
func (a *TaskAPI) Tasks() []service.Task {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]service.Task(nil), a.tasks...)
}

// FailMethod makes every request with the given method answer status.
// A zero status clears the failure.
func (a *TaskAPI) FailMethod(method string, status int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if status == 0 {
		delete(a.failures, method)
		return
	}
	a.failures[method] = status
}

// UseUnderscoreID makes responses use "_id" instead of "id".
func (a *TaskAPI) UseUnderscoreID() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.mongoIDs = true
}

// Requests returns the requests received so far.
func (a *TaskAPI) Requests() []Request {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Request(nil), a.requests...)
}

func (a *TaskAPI) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body []byte
		if r.Body != nil {
			body, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewReader(body))
		}

		a.mu.Lock()
		a.requests = append(a.requests, Request{Method: r.Method, Path: r.URL.Path, Body: string(body)})
		status, fail := a.failures[r.Method]
		a.mu.Unlock()

		if fail {
			http.Error(w, "injected failure", status)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *TaskAPI) list(w http.ResponseWriter, r *http.Request) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.writeJSON(w, http.StatusOK, append([]service.Task{}, a.tasks...))
}

func (a *TaskAPI) create(w http.ResponseWriter, r *http.Request) {
	var draft service.Draft
	if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	task := service.Task{
		ID:          fmt.Sprintf("%d", a.nextID),
		Title:       draft.Title,
		Description: draft.Description,
	}
	a.nextID++
	a.tasks = append(a.tasks, task)
	a.writeJSON(w, http.StatusCreated, task)
}

func (a *TaskAPI) update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch service.Patch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.tasks {
		if t.ID == id {
			a.tasks[i] = patch.Apply(t)
			a.writeJSON(w, http.StatusOK, a.tasks[i])
			return
		}
	}
	http.Error(w, "task not found", http.StatusNotFound)
}

func (a *TaskAPI) remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	a.mu.Lock()
	defer a.mu.Unlock()
	for i, t := range a.tasks {
		if t.ID == id {
			a.tasks = append(a.tasks[:i], a.tasks[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "task not found", http.StatusNotFound)
}

// writeJSON must be called with a.mu held.
func (a *TaskAPI) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if a.mongoIDs {
		v = underscored(v)
	}
	_ = json.NewEncoder(w).Encode(v)
}

type mongoTask struct {
	ID          string `json:"_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Completed   bool   `json:"completed"`
}

func underscored(v any) any {
	toMongo := func(t service.Task) mongoTask {
		return mongoTask{ID: t.ID, Title: t.Title, Description: t.Description, Completed: t.Completed}
	}
	switch x := v.(type) {
	case service.Task:
		return toMongo(x)
	case []service.Task:
		out := make([]mongoTask, len(x))
		for i, t := range x {
			out[i] = toMongo(t)
		}
		return out
	}
	return v
}
