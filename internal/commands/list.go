package commands

import (
	"context"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/engine"
	"todo/internal/exitcode"
	"todo/internal/filter"
	"todo/internal/output"
)

func init() {
	Register(&ListCmd{})
}

// ListCmd implements the list command. The dispatcher has already synced
// the collection; list only derives and prints the visible subset.
type ListCmd struct {
	status string
}

// SetStatus sets the status filter (for testing).
func (c *ListCmd) SetStatus(status string) {
	c.status = status
}

func (c *ListCmd) Name() string      { return "list" }
func (c *ListCmd) Aliases() []string { return nil }
func (c *ListCmd) Synopsis() string  { return "List tasks" }
func (c *ListCmd) Usage() string     { return "todo list [common flags] [--status <all|to do|in progress|done>]" }
func (c *ListCmd) NeedsAuth() bool   { return true }

func (c *ListCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.status, "status", "all", "")
	fs.StringVar(&c.status, "s", "all", "")
}

func (c *ListCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	if len(args) != 0 {
		fmt.Fprintf(errOut, "error: unexpected argument: %s\n", args[0])
		return exitcode.UserError
	}

	sel, err := filter.Parse(c.status)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	all := eng.Tasks()
	visible := filter.Visible(all, sel)

	if len(visible) == 0 {
		if !cfg.Quiet {
			fmt.Fprintln(out, "no tasks found")
		}
		return exitcode.Success
	}

	// Numbers refer to positions in the full listing so task references
	// stay valid while a filter is applied.
	position := make(map[string]int, len(all))
	for i, task := range all {
		position[task.ID] = i + 1
	}
	for _, task := range visible {
		output.FormatTask(out, position[task.ID], task)
	}
	return exitcode.Success
}
