package commands

import (
	"context"
	"flag"
	"fmt"
	"io"
	"strings"
	"time"

	"todo/internal/config"
	"todo/internal/engine"
	"todo/internal/exitcode"
	"todo/internal/service"
)

func init() {
	Register(&AddCmd{})
}

// AddCmd implements the add command.
type AddCmd struct {
	description string
	status      string
	due         string
}

// SetFields sets the flag-backed fields (for testing).
func (c *AddCmd) SetFields(description, status, due string) {
	c.description = description
	c.status = status
	c.due = due
}

func (c *AddCmd) Name() string      { return "add" }
func (c *AddCmd) Aliases() []string { return []string{"create"} }
func (c *AddCmd) Synopsis() string  { return "Create a task" }
func (c *AddCmd) Usage() string {
	return "todo add [common flags] --desc <text> --due <yyyy-mm-dd> [--status <s>] <title...>"
}
func (c *AddCmd) NeedsAuth() bool { return true }

func (c *AddCmd) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.description, "desc", "", "")
	fs.StringVar(&c.description, "d", "", "")
	fs.StringVar(&c.status, "status", string(service.StatusToDo), "")
	fs.StringVar(&c.status, "s", string(service.StatusToDo), "")
	fs.StringVar(&c.due, "due", "", "")
}

func (c *AddCmd) Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int {
	title := strings.Join(args, " ")
	if strings.TrimSpace(title) == "" {
		fmt.Fprintln(errOut, "error: title required")
		return exitcode.UserError
	}

	status, err := service.ParseStatus(c.status)
	if err != nil {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}

	if strings.TrimSpace(c.due) == "" {
		fmt.Fprintln(errOut, "error: due date required (--due yyyy-mm-dd)")
		return exitcode.UserError
	}
	due, err := time.Parse("2006-01-02", c.due)
	if err != nil {
		fmt.Fprintf(errOut, "error: invalid due date: %s (expected yyyy-mm-dd)\n", c.due)
		return exitcode.UserError
	}

	draft := service.Draft{
		Title:       title,
		Description: c.description,
		Status:      status,
		DueDate:     due,
	}
	if err := eng.Create(ctx, draft); err != nil {
		return reportError(errOut, err)
	}

	if !cfg.Quiet {
		fmt.Fprintln(out, "ok")
	}
	return exitcode.Success
}
