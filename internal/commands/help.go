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
	Register(&HelpCmd{})
}

// HelpCmd implements the help command.
type HelpCmd struct{}

func (c *HelpCmd) Name() string      { return "help" }
func (c *HelpCmd) Aliases() []string { return nil }
func (c *HelpCmd) Synopsis() string  { return "Print usage" }
func (c *HelpCmd) Usage() string     { return "todo help" }
func (c *HelpCmd) NeedsAuth() bool   { return false }

func (c *HelpCmd) RegisterFlags(fs *flag.FlagSet) {}

func (c *HelpCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	fmt.Fprint(out, helpText)
	return exitcode.Success
}

const helpText = `Usage:
  todo                                               List all tasks
  todo list [common flags] [--status <s>]            List tasks, optionally filtered
  todo add [common flags] --desc <text> --due <yyyy-mm-dd> [--status <s>] <title...>
  todo done [common flags] <n>                       Mark task n done
  todo status [common flags] <n> <status...>         Change task n's status
  todo rm [common flags] <n>                         Delete task n
  todo show [common flags] <n>                       Show task n's details
  todo register [common flags] <username> <password>
  todo login [common flags] <username> <password>
  todo logout [common flags]
  todo help
  todo version

Statuses: "to do", "in progress", "done" (or "all" for --status)

Common flags:
  --config <dir>   Override config directory
  --quiet          Suppress informational output
  --debug          Print debug logs to stderr
`
