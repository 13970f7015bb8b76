// Package output provides formatters for CLI output.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"tasklist/internal/service"
)

// Formats accepted by Render.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// EmptyList is printed in text format when there are no tasks.
const EmptyList = "no tasks"

// Render writes tasks in the given format.
func Render(w io.Writer, format string, tasks []service.Task) error {
	if tasks == nil {
		tasks = []service.Task{}
	}
	switch format {
	case FormatText, "":
		if len(tasks) == 0 {
			_, err := fmt.Fprintln(w, EmptyList)
			return err
		}
		for i, task := range tasks {
			FormatTask(w, i+1, task)
		}
		return nil
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tasks)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(tasks); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// FormatTask formats a task line, followed by its description if any.
// Format: "{N:>4}  [x] {TITLE}\n" then "          {DESCRIPTION}\n".
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %s %s\n", num, checkbox(task.Completed), normalizeTitle(task.Title))
	if desc := oneLine(task.Description); strings.TrimSpace(desc) != "" {
		fmt.Fprintf(w, "%10s%s\n", "", desc)
	}
}

func checkbox(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	title = oneLine(title)
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}

func oneLine(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	return strings.ReplaceAll(s, "\n", " ")
}
