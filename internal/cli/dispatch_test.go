package cli_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"tasklist/internal/cli"
	"tasklist/internal/commands"
	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/service"
	"tasklist/internal/testutil"
)

// testFactory creates a service factory that returns the given FakeService.
func testFactory(svc *testutil.FakeService) cli.ServiceFactory {
	return func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return svc, nil
	}
}

// run dispatches args with an isolated config directory.
func run(t *testing.T, factory cli.ServiceFactory, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, factory)

	var outBuf, errBuf bytes.Buffer
	args = append([]string{args[0], "--config", t.TempDir()}, args[1:]...)
	code = dispatcher.Run(context.Background(), args, &outBuf, &errBuf)
	return outBuf.String(), errBuf.String(), code
}

func TestDispatcher_UnknownCommand(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "unknowncmd")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: unknowncmd\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_FlagBeforeCommand(t *testing.T) {
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"--quiet"}, &stdout, &stderr)

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown command: --quiet\n"
	if stderr.String() != expected {
		t.Errorf("expected %q, got %q", expected, stderr.String())
	}
}

func TestDispatcher_HelpCommand(t *testing.T) {
	stdout, stderr, code := run(t, testFactory(testutil.NewFakeService()), "help")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if !strings.Contains(stdout, "Usage:") {
		t.Error("expected help output to contain 'Usage:'")
	}
}

func TestDispatcher_VersionCommand(t *testing.T) {
	stdout, stderr, code := run(t, testFactory(testutil.NewFakeService()), "version")

	if code != exitcode.Success {
		t.Errorf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if stderr != "" {
		t.Errorf("expected no stderr, got %q", stderr)
	}
	if stdout != "tasklist 0.1.0\n" {
		t.Errorf("expected 'tasklist 0.1.0\\n', got %q", stdout)
	}
}

func TestDispatcher_UnknownFlag(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "help", "--unknown")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	expected := "error: unknown flag: -unknown\n"
	if stderr != expected {
		t.Errorf("expected %q, got %q", expected, stderr)
	}
}

func TestDispatcher_NoArgsLists(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(svc))
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), nil, &stdout, &stderr)

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr.String())
	}
	if stdout.String() != "   1  [ ] Buy milk\n" {
		t.Errorf("unexpected list output %q", stdout.String())
	}
}

func TestDispatcher_FlagsAfterArguments(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.SetNextID(9)

	stdout, stderr, code := run(t, testFactory(svc), "add", "Write", "report", "--description", "q3")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok: Task added successfully\n" {
		t.Errorf("unexpected output %q", stdout)
	}
	tasks := svc.Tasks()
	if len(tasks) != 1 || tasks[0].Title != "Write report" || tasks[0].Description != "q3" {
		t.Errorf("unexpected server tasks %+v", tasks)
	}
}

func TestDispatcher_DoubleDashEndsFlags(t *testing.T) {
	svc := testutil.NewFakeService()

	_, stderr, code := run(t, testFactory(svc), "add", "--quiet", "--", "-v", "flag")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if got := svc.Tasks()[0].Title; got != "-v flag" {
		t.Errorf("expected title %q, got %q", "-v flag", got)
	}
}

func TestDispatcher_FormatFlag(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.AddTask("1", "Buy milk", false)

	stdout, _, code := run(t, testFactory(svc), "list", "--format", "json")

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d", exitcode.Success, code)
	}
	if !strings.Contains(stdout, `"title": "Buy milk"`) {
		t.Errorf("expected JSON output, got %q", stdout)
	}
}

func TestDispatcher_UnknownFormat(t *testing.T) {
	_, stderr, code := run(t, testFactory(testutil.NewFakeService()), "list", "--format", "xml")

	if code != exitcode.UserError {
		t.Errorf("expected exit code %d, got %d", exitcode.UserError, code)
	}
	if stderr != "error: unknown format: xml\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_InvalidAPIURL(t *testing.T) {
	_, stderr, code := run(t, nil, "list", "--api-url", "not a url")

	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
	if !strings.Contains(stderr, "api.url") {
		t.Errorf("expected api.url in error, got %q", stderr)
	}
}

func TestDispatcher_InvalidSettingsFile(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, config.SettingsFile), []byte("backend: carrier-pigeon\n"), 0600); err != nil {
		t.Fatal(err)
	}
	dispatcher := cli.NewDispatcher(commands.DefaultRegistry, testFactory(testutil.NewFakeService()))

	var stdout, stderr bytes.Buffer
	code := dispatcher.Run(context.Background(), []string{"list", "--config", dir}, &stdout, &stderr)

	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
}

func TestDispatcher_FactoryError(t *testing.T) {
	factory := func(ctx context.Context, cfg *config.Config) (service.Service, error) {
		return nil, errors.New("token.json not found")
	}

	_, stderr, code := run(t, factory, "list")

	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
	if stderr != "error: config error: token.json not found\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_GoogleTasksWithoutCredentials(t *testing.T) {
	t.Setenv("TASKLIST_BACKEND", "googletasks")

	_, stderr, code := run(t, nil, "list")

	if code != exitcode.ConfigError {
		t.Errorf("expected exit code %d, got %d", exitcode.ConfigError, code)
	}
	if !strings.Contains(stderr, "oauth_client.json not found") {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_BackendFailure(t *testing.T) {
	svc := testutil.NewFakeService()
	svc.ListTasksErr = errors.New("connection refused")

	_, stderr, code := run(t, testFactory(svc), "list")

	if code != exitcode.BackendError {
		t.Errorf("expected exit code %d, got %d", exitcode.BackendError, code)
	}
	if stderr != "error: failed to fetch tasks: connection refused\n" {
		t.Errorf("unexpected stderr %q", stderr)
	}
}

func TestDispatcher_RESTBackendEndToEnd(t *testing.T) {
	api := testutil.NewTaskAPI(t)
	api.Seed(service.Task{ID: "1", Title: "Buy milk"})

	stdout, stderr, code := run(t, nil, "done", "1", "--api-url", api.URL())

	if code != exitcode.Success {
		t.Fatalf("expected exit code %d, got %d (stderr %q)", exitcode.Success, code, stderr)
	}
	if stdout != "ok: Task marked as completed\n" {
		t.Errorf("unexpected output %q", stdout)
	}
	if !api.Tasks()[0].Completed {
		t.Error("expected task to be completed on the server")
	}
}
