package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/config"
	"todo/internal/engine"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&StatusCmd{})
}

// StatusCmd implements the status command: move a task to any of the
// three workflow states.
type StatusCmd struct{}

func (c *StatusCmd) Name() string      { return "status" }
func (c *StatusCmd) Aliases() []string { return []string{"move"} }
func (c *StatusCmd) Synopsis() string  { return "Change a task's status" }
func (c *StatusCmd) Usage() string     { return "todo status [common flags] <n> <to do|in progress|done>" }
func (c *StatusCmd) NeedsAuth() bool   { return true }

func (c *StatusCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *StatusCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if len(args) < 2 {
		fmt.Fprintln(errOut, "error: status required")
		return exitcode.UserError
	}
	status, err := service.ParseStatus(strings.Join(args[1:], " "))
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := resolveTask(eng.Tasks(), num)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if err := eng.SetStatus(ctx, task.ID, status); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
