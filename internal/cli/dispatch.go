package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"todo/internal/commands"
	"todo/internal/config"
	"todo/internal/engine"
	"todo/internal/exitcode"
	"todo/internal/service"
)

// EngineFactory creates an Engine from config.
// Used to inject the backend and session store during dispatch.
type EngineFactory func(ctx context.Context, cfg *config.Config) (*engine.Engine, error)

// Dispatcher handles command-line parsing and dispatch.
type Dispatcher struct {
	registry *commands.Registry
	factory  EngineFactory
}

// NewDispatcher creates a new dispatcher with the given registry and engine factory.
func NewDispatcher(registry *commands.Registry, factory EngineFactory) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		factory:  factory,
	}
}

// Run parses arguments and dispatches to the appropriate command.
// Returns the exit code.
func (d *Dispatcher) Run(ctx context.Context, args []string, out, errOut io.Writer) int {
	// No args -> dispatch to "list" command with no args
	if len(args) == 0 {
		return d.dispatch(ctx, "list", nil, out, errOut)
	}

	cmdName := args[0]

	// If first token starts with -, it's an error (flags require a command)
	if strings.HasPrefix(cmdName, "-") {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}

	return d.dispatchCommand(ctx, cmd, args[1:], out, errOut)
}

func (d *Dispatcher) dispatch(ctx context.Context, cmdName string, args []string, out, errOut io.Writer) int {
	cmd, ok := d.registry.Find(cmdName)
	if !ok {
		fmt.Fprintf(errOut, "error: unknown command: %s\n", cmdName)
		return exitcode.UserError
	}
	return d.dispatchCommand(ctx, cmd, args, out, errOut)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, cmd commands.Command, args []string, out, errOut io.Writer) int {
	// Create flag set with custom error handling
	fs := flag.NewFlagSet(cmd.Name(), flag.ContinueOnError)
	fs.SetOutput(io.Discard) // We handle errors ourselves

	// Common flags
	var configDir string
	var quiet bool
	var debug bool

	fs.StringVar(&configDir, "config", "", "")
	fs.BoolVar(&quiet, "quiet", false, "")
	fs.BoolVar(&debug, "debug", false, "")

	// Register command-specific flags
	cmd.RegisterFlags(fs)

	if err := fs.Parse(args); err != nil {
		errStr := err.Error()

		if strings.Contains(errStr, "needs a value") || strings.Contains(errStr, "flag needs an argument") {
			parts := strings.Split(errStr, ":")
			if len(parts) > 0 {
				flagPart := strings.TrimSpace(parts[0])
				flagPart = strings.TrimPrefix(flagPart, "flag ")
				fmt.Fprintf(errOut, "error: flag needs an argument: %s\n", flagPart)
				return exitcode.UserError
			}
		}

		if strings.HasPrefix(errStr, "flag provided but not defined:") {
			flagName := strings.TrimPrefix(errStr, "flag provided but not defined: ")
			fmt.Fprintf(errOut, "error: unknown flag: %s\n", flagName)
			return exitcode.UserError
		}

		fmt.Fprintf(errOut, "error: %s\n", errStr)
		return exitcode.UserError
	}

	// Check if first positional arg starts with - (should have been parsed as flag)
	positionalArgs := fs.Args()
	if len(positionalArgs) > 0 && strings.HasPrefix(positionalArgs[0], "-") {
		fmt.Fprintf(errOut, "error: unknown flag: %s\n", positionalArgs[0])
		return exitcode.UserError
	}

	cfg, err := config.New(configDir)
	if err != nil {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.UserError
	}
	cfg.Quiet = quiet
	cfg.Debug = debug

	var eng *engine.Engine
	if d.factory != nil {
		eng, err = d.factory(ctx, cfg)
		if err != nil {
			fmt.Fprintf(errOut, "error: %s\n", err)
			return exitcode.UserError
		}

		if cmd.NeedsAuth() {
			// Restore the stored session optimistically and issue the
			// initial fetch; an expired access token is repaired by the
			// refresh transport underneath this call.
			if err := eng.Start(ctx); err != nil {
				return startError(errOut, err)
			}
			if !eng.Active() {
				fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
				return exitcode.AuthError
			}
		} else {
			if err := eng.Restore(); err != nil {
				fmt.Fprintf(errOut, "error: %s\n", err)
				return exitcode.AuthError
			}
		}
	} else if cmd.NeedsAuth() {
		// No factory - check for the session file and report a
		// user-friendly error (pre-flight checks only; eng remains nil)
		if !cfg.HasToken() {
			fmt.Fprintln(errOut, "error: not logged in (run: todo login)")
			return exitcode.AuthError
		}
	}

	return cmd.Run(ctx, cfg, eng, positionalArgs, out, errOut)
}

// startError maps an initial-sync failure to output and an exit code.
func startError(errOut io.Writer, err error) int {
	if errors.Is(err, service.ErrUnauthorized) || errors.Is(err, service.ErrNotLoggedIn) {
		fmt.Fprintf(errOut, "error: %s\n", err)
		return exitcode.AuthError
	}
	fmt.Fprintf(errOut, "error: backend error: %s\n", err)
	return exitcode.BackendError
}
