package rest_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasklist/internal/backend/rest"
	"tasklist/internal/service"
	"tasklist/internal/testutil"
)

func newClient(t *testing.T, api *testutil.TaskAPI) *rest.Client {
	t.Helper()
	c, err := rest.New(api.URL())
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadScheme(t *testing.T) {
	_, err := rest.New("ftp://example.com/api/tasks")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported scheme")
}

func TestListTasks(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	api.Seed(
		service.Task{ID: "1", Title: "Buy milk"},
		service.Task{ID: "2", Title: "Walk dog", Description: "park", Completed: true},
	)
	c := newClient(t, api)

	tasks, err := c.ListTasks(context.Background())

	require.NoError(t, err)
	assert.Equal(t, api.Tasks(), tasks)
}

func TestListTasks_EmptyCollection(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	c := newClient(t, api)

	tasks, err := c.ListTasks(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, tasks)
	assert.Empty(t, tasks)
}

func TestListTasks_UnderscoreIDs(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	api.UseUnderscoreID()
	api.Seed(service.Task{ID: "64fa", Title: "Buy milk"})
	c := newClient(t, api)

	tasks, err := c.ListTasks(context.Background())

	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "64fa", tasks[0].ID)
}

func TestCreateTask_SendsDraft(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	c := newClient(t, api)

	task, err := c.CreateTask(context.Background(), service.Draft{Title: "Write report"})

	require.NoError(t, err)
	assert.Equal(t, service.Task{ID: "1", Title: "Write report"}, task)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPost, reqs[0].Method)
	assert.Equal(t, "/api/tasks", reqs[0].Path)
	assert.JSONEq(t, `{"title":"Write report","description":""}`, reqs[0].Body)
}

func TestUpdateTask_SendsOnlyPatchedFields(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	api.Seed(service.Task{ID: "1", Title: "Buy milk"})
	c := newClient(t, api)

	task, err := c.UpdateTask(context.Background(), "1", service.PatchCompleted(true))

	require.NoError(t, err)
	assert.True(t, task.Completed)
	assert.Equal(t, "Buy milk", task.Title)

	reqs := api.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, http.MethodPatch, reqs[0].Method)
	assert.Equal(t, "/api/tasks/1", reqs[0].Path)
	assert.JSONEq(t, `{"completed":true}`, reqs[0].Body)
}

func TestUpdateTask_NotFound(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	c := newClient(t, api)

	_, err := c.UpdateTask(context.Background(), "missing", service.PatchCompleted(true))

	var statusErr *rest.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.True(t, statusErr.NotFound())
}

func TestDeleteTask(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	api.Seed(service.Task{ID: "1", Title: "Buy milk"}, service.Task{ID: "2", Title: "Walk dog"})
	c := newClient(t, api)

	err := c.DeleteTask(context.Background(), "1")

	require.NoError(t, err)
	assert.Equal(t, []service.Task{{ID: "2", Title: "Walk dog"}}, api.Tasks())
}

func TestServerError(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	api.FailMethod(http.MethodGet, http.StatusInternalServerError)
	c := newClient(t, api)

	_, err := c.ListTasks(context.Background())

	var statusErr *rest.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.Code)
	assert.Equal(t, "injected failure", statusErr.Body)
}

func TestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := rest.New(srv.URL+"/api/tasks", rest.WithTimeout(20*time.Millisecond))
	require.NoError(t, err)

	_, err = c.ListTasks(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Contains(t, err.Error(), "request timed out")
}
