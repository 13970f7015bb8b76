// Package service defines the backend-agnostic interface for task operations.
package service

import (
	"encoding/json"
	"strings"
)

// Task represents a single task item.
type Task struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Completed   bool   `json:"completed" yaml:"completed"`
}

// UnmarshalJSON accepts both "id" and the document-store style "_id" key.
func (t *Task) UnmarshalJSON(data []byte) error {
	var raw struct {
		ID          string `json:"id"`
		MongoID     string `json:"_id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Completed   bool   `json:"completed"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.ID = raw.ID
	if t.ID == "" {
		t.ID = raw.MongoID
	}
	t.Title = raw.Title
	t.Description = raw.Description
	t.Completed = raw.Completed
	return nil
}

// Draft holds the user-editable fields of a task.
// It is the body of a create request and of an edit.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Blank reports whether the title is empty after trimming whitespace.
func (d Draft) Blank() bool {
	return strings.TrimSpace(d.Title) == ""
}

// Patch is a partial update. Nil fields are left untouched by the server.
type Patch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
}

// PatchFromDraft builds a patch that replaces title and description.
func PatchFromDraft(d Draft) Patch {
	title, desc := d.Title, d.Description
	return Patch{Title: &title, Description: &desc}
}

// PatchCompleted builds a patch that only sets the completion flag.
func PatchCompleted(completed bool) Patch {
	return Patch{Completed: &completed}
}

// Apply returns t with the non-nil patch fields applied.
func (p Patch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	return t
}
