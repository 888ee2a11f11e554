package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/engine"
	"todo/internal/exitcode"
)

func init() {
	Register(&RegisterCmd{})
}

// RegisterCmd implements the register command.
type RegisterCmd struct{}

func (c *RegisterCmd) Name() string      { return "register" }
func (c *RegisterCmd) Aliases() []string { return nil }
func (c *RegisterCmd) Synopsis() string  { return "Create an account" }
func (c *RegisterCmd) Usage() string     { return "todo register [common flags] <username> <password>" }
func (c *RegisterCmd) NeedsAuth() bool   { return false }

func (c *RegisterCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *RegisterCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	if len(args) != 2 {
		fmt.Fprintln(errOut, "error: username and password required")
		return exitcode.UserError
	}

	// Registering creates no session; a login must follow.
	if err := eng.Register(ctx, args[0], args[1]); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "registered (run: todo login)")
	}
	return exitcode.Success
}
