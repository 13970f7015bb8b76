// Package exitcode defines exit codes for the CLI.
package exitcode

const (
	// Success indicates successful completion.
	Success = 0

	// UserError indicates a user error (bad args, unknown task, empty title).
	UserError = 1

	// ConfigError indicates an unreadable or invalid configuration, or a
	// backend that cannot be constructed from it.
	ConfigError = 2

	// BackendError indicates a failed call to the task API.
	BackendError = 3
)
