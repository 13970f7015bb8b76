package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"tasklist/internal/service"
)

// TaskRef represents a parsed task reference.
type TaskRef struct {
	Num int    // 1-based position in the listed order, 0 if not a number
	ID  string // task id to match exactly, always set when parsed
}

// ErrTaskRefRequired indicates no task reference was provided.
var ErrTaskRefRequired = errors.New("task reference required")

// ParseTaskRef parses a task reference from args.
//
// Parsing rules:
// 1. No args or a blank first arg → error: task reference required
// 2. More than one arg → error: unexpected argument
// 3. All digits → a task id, or failing an exact id match the position in
//    the list as printed by `tasklist list`
// 4. Anything else → task id
func ParseTaskRef(args []string) (TaskRef, error) {
	if len(args) == 0 {
		return TaskRef{}, ErrTaskRefRequired
	}
	if len(args) > 1 {
		return TaskRef{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	ref := strings.TrimSpace(args[0])
	if ref == "" {
		return TaskRef{}, ErrTaskRefRequired
	}

	if isAllDigits(ref) {
		if num, err := strconv.Atoi(ref); err == nil {
			return TaskRef{Num: num, ID: ref}, nil
		}
		// Too large for a position; only an id can match.
	}
	return TaskRef{ID: ref}, nil
}

// Resolve finds the referenced task in tasks. An exact id match wins over a
// position.
func (r TaskRef) Resolve(tasks []service.Task) (service.Task, error) {
	if r.ID != "" {
		for _, t := range tasks {
			if t.ID == r.ID {
				return t, nil
			}
		}
		if r.Num == 0 {
			return service.Task{}, fmt.Errorf("task not found: %s", r.ID)
		}
	}
	if r.Num < 1 || r.Num > len(tasks) {
		return service.Task{}, fmt.Errorf("task number out of range: %d", r.Num)
	}
	return tasks[r.Num-1], nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
