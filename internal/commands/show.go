package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"todo/internal/config"
	"todo/internal/engine"
	"todo/internal/exitcode"
	"todo/internal/output"
)

func init() {
	Register(&ShowCmd{})
}

// ShowCmd implements the show command.
type ShowCmd struct {
	// now is the reference time for the remaining-days line.
	// Overridable for testing.
	now func() time.Time
}

// SetNow overrides the reference time (for testing).
func (c *ShowCmd) SetNow(now func() time.Time) {
	c.now = now
}

func (c *ShowCmd) Name() string      { return "show" }
func (c *ShowCmd) Aliases() []string { return nil }
func (c *ShowCmd) Synopsis() string  { return "Show a task's details" }
func (c *ShowCmd) Usage() string     { return "todo show [common flags] <n>" }
func (c *ShowCmd) NeedsAuth() bool   { return true }

func (c *ShowCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *ShowCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	num, err := ParseTaskRef(args)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	task, err := resolveTask(eng.Tasks(), num)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	now := time.Now
	if c.now != nil {
		now = c.now
	}
	output.FormatTaskDetail(out, task, now())
	return exitcode.Success
}
