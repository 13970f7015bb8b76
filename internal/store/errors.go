package store

import (
	"errors"
	"fmt"
)

// Precondition errors. An operation returning one of these made no request
// and changed no state.
var (
	// ErrEmptyTitle is returned when a title is empty after trimming.
	ErrEmptyTitle = errors.New("title required")

	// ErrTaskNotFound is returned when the id is not in the local collection.
	ErrTaskNotFound = errors.New("task not found")

	// ErrActionInFlight is returned when another mutation has not settled yet.
	ErrActionInFlight = errors.New("another action is in progress")
)

// ErrorKind classifies remote failures, one kind per operation.
type ErrorKind string

// Error kinds.
const (
	FetchFailed  ErrorKind = "fetch-failed"
	CreateFailed ErrorKind = "create-failed"
	UpdateFailed ErrorKind = "update-failed"
	DeleteFailed ErrorKind = "delete-failed"
)

// Message returns the user-facing message stored as the last error.
func (k ErrorKind) Message() string {
	switch k {
	case FetchFailed:
		return "failed to fetch tasks"
	case CreateFailed:
		return "failed to add task"
	case UpdateFailed:
		return "failed to update task"
	case DeleteFailed:
		return "failed to delete task"
	default:
		return "request failed"
	}
}

// OpError reports a failed remote call. By the time it is returned the store
// has already rolled back or resynchronized, recorded the last error and
// emitted the failure notification.
type OpError struct {
	Kind   ErrorKind
	TaskID string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind.Message(), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Is matches another *OpError with the same Kind, so callers can write
// errors.Is(err, &store.OpError{Kind: store.CreateFailed}).
func (e *OpError) Is(target error) bool {
	t, ok := target.(*OpError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
