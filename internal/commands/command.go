// Package commands provides the command interface and implementations.
package commands

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"todo/internal/config"
	"todo/internal/engine"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// Command defines the interface for CLI commands.
type Command interface {
	// Name returns the primary command name.
	Name() string

	// Aliases returns alternative names for the command.
	Aliases() []string

	// Synopsis returns a short description for help output.
	Synopsis() string

	// Usage returns the usage string for help output.
	Usage() string

	// NeedsAuth returns true if the command requires a live session.
	// Commands like help, version, register, login, logout return false.
	NeedsAuth() bool

	// RegisterFlags registers command-specific flags.
	RegisterFlags(fs *flag.FlagSet)

	// Run executes the command.
	// cfg is always provided (config dir, paths, base URL).
	// eng is nil only when the dispatcher has no engine factory.
	// args contains positional arguments after flag parsing.
	// Returns exit code.
	Run(ctx context.Context, cfg *config.Config, eng *engine.Engine, args []string, out, errOut io.Writer) int
}

// reportError prints err to errOut and maps it to an exit code:
// input problems are user errors, credential/session problems are auth
// errors, everything else is a backend error.
func reportError(errOut io.Writer, err error) int {
	if service.IsValidation(err) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.UserError
	}
	if errors.Is(err, service.ErrUnauthorized) || errors.Is(err, service.ErrNotLoggedIn) {
		fmt.Fprintf(errOut, "error: %v\n", err)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: backend error: %v\n", err)
	return exitcode.BackendError
}
