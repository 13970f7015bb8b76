package googletasks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/service"
)

// fakeAPI serves the subset of the Google Tasks REST API the client uses.
type fakeAPI struct {
	mu       sync.Mutex
	lastBody map[string]any
	lists    []string
	status   int
}

func newFakeAPI(t *testing.T) (*fakeAPI, *Client) {
	t.Helper()
	f := &fakeAPI{}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /tasks/v1/lists/{list}/tasks", f.list)
	mux.HandleFunc("POST /tasks/v1/lists/{list}/tasks", f.insert)
	mux.HandleFunc("PATCH /tasks/v1/lists/{list}/tasks/{task}", f.patch)
	mux.HandleFunc("DELETE /tasks/v1/lists/{list}/tasks/{task}", f.delete)

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	c, err := NewWithHTTPClient(context.Background(), srv.Client(), srv.URL+"/")
	require.NoError(t, err)
	return f, c
}

func (f *fakeAPI) fail(w http.ResponseWriter) bool {
	f.mu.Lock()
	status := f.status
	f.mu.Unlock()
	if status == 0 {
		return false
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = fmt.Fprintf(w, `{"error":{"code":%d,"message":"injected"}}`, status)
	return true
}

func (f *fakeAPI) record(r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lists = append(f.lists, r.PathValue("list"))
	f.lastBody = nil
	if r.Body != nil {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			f.lastBody = body
		}
	}
}

func (f *fakeAPI) body() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastBody
}

func (f *fakeAPI) listIDs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists...)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (f *fakeAPI) list(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	if f.fail(w) {
		return
	}
	if r.URL.Query().Get("pageToken") == "" {
		writeJSON(w, map[string]any{
			"items": []map[string]any{
				{"id": "a", "title": "Buy milk", "notes": "2 litres", "status": "needsAction"},
			},
			"nextPageToken": "p2",
		})
		return
	}
	writeJSON(w, map[string]any{
		"items": []map[string]any{
			{"id": "b", "title": "Walk dog", "status": "completed"},
		},
	})
}

func (f *fakeAPI) insert(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	if f.fail(w) {
		return
	}
	f.mu.Lock()
	body := f.lastBody
	f.mu.Unlock()
	writeJSON(w, map[string]any{
		"id":     "new-1",
		"title":  body["title"],
		"notes":  body["notes"],
		"status": "needsAction",
	})
}

func (f *fakeAPI) patch(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	if f.fail(w) {
		return
	}
	status := "needsAction"
	f.mu.Lock()
	if s, ok := f.lastBody["status"].(string); ok {
		status = s
	}
	f.mu.Unlock()
	writeJSON(w, map[string]any{
		"id":     r.PathValue("task"),
		"title":  "Buy milk",
		"status": status,
	})
}

func (f *fakeAPI) delete(w http.ResponseWriter, r *http.Request) {
	f.record(r)
	if f.fail(w) {
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func TestListTasks_AllPagesIncludingCompleted(t *testing.T) {
	f, c := newFakeAPI(t)

	got, err := c.ListTasks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []service.Task{
		{ID: "a", Title: "Buy milk", Description: "2 litres"},
		{ID: "b", Title: "Walk dog", Completed: true},
	}, got)
	assert.Equal(t, []string{DefaultListID, DefaultListID}, f.listIDs())
}

func TestCreateTask_MapsDescriptionToNotes(t *testing.T) {
	f, c := newFakeAPI(t)

	got, err := c.CreateTask(context.Background(), service.Draft{Title: "Write report", Description: "q3"})

	require.NoError(t, err)
	assert.Equal(t, service.Task{ID: "new-1", Title: "Write report", Description: "q3"}, got)
	assert.Equal(t, "Write report", f.body()["title"])
	assert.Equal(t, "q3", f.body()["notes"])
}

func TestUpdateTask_CompletedSendsStatus(t *testing.T) {
	f, c := newFakeAPI(t)

	got, err := c.UpdateTask(context.Background(), "a", service.PatchCompleted(true))

	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "completed", f.body()["status"])
	assert.NotContains(t, f.body(), "title")
}

func TestUpdateTask_IncompleteClearsCompletedDate(t *testing.T) {
	f, c := newFakeAPI(t)

	got, err := c.UpdateTask(context.Background(), "a", service.PatchCompleted(false))

	require.NoError(t, err)
	assert.False(t, got.Completed)
	assert.Equal(t, "needsAction", f.body()["status"])
	assert.Contains(t, f.body(), "completed")
	assert.Nil(t, f.body()["completed"])
}

func TestUpdateTask_EditSendsEmptyDescription(t *testing.T) {
	f, c := newFakeAPI(t)

	_, err := c.UpdateTask(context.Background(), "a", service.PatchFromDraft(service.Draft{Title: "Buy milk"}))

	require.NoError(t, err)
	assert.Equal(t, "Buy milk", f.body()["title"])
	assert.Equal(t, "", f.body()["notes"])
	assert.NotContains(t, f.body(), "status")
}

func TestDeleteTask(t *testing.T) {
	_, c := newFakeAPI(t)

	assert.NoError(t, c.DeleteTask(context.Background(), "a"))
}

func TestErrors_Wrapped(t *testing.T) {
	tests := []struct {
		status int
		want   string
	}{
		{http.StatusUnauthorized, "token expired or revoked"},
		{http.StatusNotFound, "not found"},
	}
	for _, tt := range tests {
		f, c := newFakeAPI(t)
		f.mu.Lock()
		f.status = tt.status
		f.mu.Unlock()

		err := c.DeleteTask(context.Background(), "a")

		require.Error(t, err)
		assert.Contains(t, err.Error(), tt.want)
	}
}

func TestToAPIPatch_OnlySetFields(t *testing.T) {
	p := toAPIPatch(service.Patch{})
	assert.Empty(t, p.ForceSendFields)
	assert.Empty(t, p.Status)
}
