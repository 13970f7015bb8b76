package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tasklist/internal/config"
	"tasklist/internal/exitcode"
	"tasklist/internal/store"
)

func init() {
	Register(&ConfigCmd{})
}

// ConfigCmd implements the config command.
//
//	config init [--force]  write config.yaml with default settings
//	config path            print the settings file path
//	config show            print the effective settings
type ConfigCmd struct {
	force bool
}

// SetForce sets whether init overwrites an existing file (for testing).
func (c *ConfigCmd) SetForce(force bool) {
	c.force = force
}

func (c *ConfigCmd) Name() string      { return "config" }
func (c *ConfigCmd) Aliases() []string { return nil }
func (c *ConfigCmd) Synopsis() string  { return "Manage the settings file" }
func (c *ConfigCmd) Usage() string     { return "tasklist config init [--force] | path | show" }
func (c *ConfigCmd) NeedsStore() bool  { return false }

func (c *ConfigCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.BoolVar(&c.force, "force", false, "")
}

func (c *ConfigCmd) Run(ctx context.Context, cfg *config.Config, st *store.Store, args []string, out, errOut io.Writer) int {
	if len(args) != 1 {
		fmt.Fprintf(errOut, "usage: %s\n", c.Usage())
		return exitcode.UserError
	}

	switch args[0] {
	case "init":
		if err := cfg.WriteDefault(c.force); err != nil {
			if errors.Is(err, config.ErrSettingsExist) {
				fmt.Fprintf(errOut, "error: %s already exists (use --force to overwrite)\n", cfg.SettingsPath())
				return exitcode.UserError
			}
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.ConfigError
		}
		if !cfg.Quiet {
			fmt.Fprintf(out, "wrote %s\n", cfg.SettingsPath())
		}
	case "path":
		fmt.Fprintln(out, cfg.SettingsPath())
	case "show":
		data, err := cfg.Settings.YAML()
		if err != nil {
			fmt.Fprintf(errOut, "error: %v\n", err)
			return exitcode.ConfigError
		}
		_, _ = out.Write(data)
	default:
		fmt.Fprintf(errOut, "error: unknown config subcommand: %s\n", args[0])
		return exitcode.UserError
	}
	return exitcode.Success
}
