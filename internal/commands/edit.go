package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/service"
	"tasklist/internal/store"
)

func init() {
	Register(&EditCmd{})
}

// optionalString is a flag value that remembers whether it was set.
type optionalString struct {
	value string
	set   bool
}

func (o *optionalString) String() string { return o.value }

func (o *optionalString) Set(v string) error {
	o.value = v
	o.set = true
	return nil
}

// EditCmd implements the edit command. Fields not given keep their
// current value.
type EditCmd struct {
	title       optionalString
	description optionalString
}

// SetTitle sets the new title (for testing).
func (c *EditCmd) SetTitle(t string) { _ = c.title.Set(t) }

// SetDescription sets the new description (for testing).
func (c *EditCmd) SetDescription(d string) { _ = c.description.Set(d) }

func (c *EditCmd) Name() string      { return "edit" }
func (c *EditCmd) Aliases() []string { return nil }
func (c *EditCmd) Synopsis() string  { return "Change a task's title or description" }
func (c *EditCmd) Usage() string {
	return "tasklist edit [--title <text>] [--description <text>] <ref>"
}
func (c *EditCmd) NeedsStore() bool { return true }

func (c *EditCmd) RegisterFlags(fs *flag.FlagSet) {
	c.title = optionalString{}
	c.description = optionalString{}
	fs.Var(&c.title, "title", "")
	fs.Var(&c.title, "t", "")
	fs.Var(&c.description, "description", "")
	fs.Var(&c.description, "d", "")
}

func (c *EditCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	if !c.title.set && !c.description.set {
		fmt.Fprintln(errOut, "error: nothing to change (use --title or --description)")
		return exitcode.UserError
	}

	task, code := loadAndResolve(ctx, st, args, errOut)
	if code != exitcode.Success {
		return code
	}

	draft := service.Draft{Title: task.Title, Description: task.Description}
	if c.title.set {
		draft.Title = c.title.value
	}
	if c.description.set {
		draft.Description = c.description.value
	}

	if err := st.BeginEdit(task.ID); err != nil {
		return reportError(err, errOut)
	}
	err := st.Edit(ctx, task.ID, draft)
	return report(cfg, st, err, out, errOut)
}
