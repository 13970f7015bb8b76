package service

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskUnmarshal_AcceptsUnderscoreID(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"_id":"abc","title":"Buy milk","completed":true}`), &task)
	require.NoError(t, err)

	assert.Equal(t, Task{ID: "abc", Title: "Buy milk", Completed: true}, task)
}

func TestTaskUnmarshal_PrefersID(t *testing.T) {
	var task Task
	err := json.Unmarshal([]byte(`{"id":"1","_id":"2","title":"x"}`), &task)
	require.NoError(t, err)

	assert.Equal(t, "1", task.ID)
}

func TestPatch_OmitsNilFields(t *testing.T) {
	data, err := json.Marshal(PatchCompleted(false))
	require.NoError(t, err)

	assert.JSONEq(t, `{"completed":false}`, string(data))
}

func TestPatch_Apply(t *testing.T) {
	orig := Task{ID: "1", Title: "a", Description: "b", Completed: true}

	got := PatchFromDraft(Draft{Title: "c", Description: ""}).Apply(orig)

	assert.Equal(t, Task{ID: "1", Title: "c", Description: "", Completed: true}, got)
}

func TestDraft_Blank(t *testing.T) {
	assert.True(t, Draft{Title: "  \t"}.Blank())
	assert.False(t, Draft{Title: " x "}.Blank())
}
