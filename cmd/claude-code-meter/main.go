package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// exitError carries a process exit code out of a command. A nil err means
// the command already reported the problem.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageErrorf(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func failure(err error) error {
	return &exitError{code: 1, err: err}
}

// run executes the CLI and returns the process exit code: 0 on success, 1
// when a command fails, 2 for usage errors.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	a := &app{stdout: stdout, stderr: stderr}
	root := newRootCmd(a)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	a.closeLogFile()
	if err == nil {
		return 0
	}

	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintf(stderr, "error: %v\n", ee.err)
		}
		return ee.code
	}
	// Anything cobra rejects before a command runs is a usage problem.
	fmt.Fprintf(stderr, "error: %v\n", err)
	fmt.Fprintf(stderr, "Run '%s --help' for usage.\n", root.Name())
	return 2
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "claude-code-meter",
		Short: "Claude Code subscription usage meter for the terminal",
		Long: "claude-code-meter shows how much of the Claude Code 5-hour and 7-day usage windows\n" +
			"is left, when each window resets, and whether usage is running ahead of the clock.\n" +
			"It runs a terminal user interface (TUI) by default and only reads usage data.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE:              a.runTUI,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageErrorf("%v", err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&a.flags.configPath, "config", "", "config file (default $XDG_CONFIG_HOME/claude-code-meter/config.toml)")
	pf.BoolVarP(&a.flags.verbose, "verbose", "v", false, "log debug output")
	pf.BoolVar(&a.flags.quiet, "quiet", false, "log errors only")
	pf.BoolVar(&a.flags.noColor, "no-color", false, "disable color styling")
	pf.BoolVar(&a.flags.logJSON, "log-json", false, "write logs as JSON")
	pf.StringVar(&a.flags.logFile, "log-file", "", "append logs to this file (the TUI logs nowhere else)")

	addDisplayFlags(root, a)
	addTUIFlags(root, a)

	root.AddCommand(
		newTUICmd(a),
		newOnceCmd(a),
		newDoctorCmd(a),
		newConfigCmd(a),
		newCompletionCmd(),
	)
	return root
}
