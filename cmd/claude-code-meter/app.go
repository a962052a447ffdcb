package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/olliecrow/claude_code_meter/internal/config"
	"github.com/olliecrow/claude_code_meter/internal/logging"
	"github.com/olliecrow/claude_code_meter/internal/meter"
)

type cliFlags struct {
	configPath string
	verbose    bool
	quiet      bool
	noColor    bool
	logJSON    bool
	logFile    string

	mode    string
	width   int
	source  string
	timeout time.Duration
	noPace  bool

	interval    time.Duration
	noAltScreen bool
}

type app struct {
	stdout io.Writer
	stderr io.Writer
	flags  cliFlags

	logger  *log.Logger
	logFile *os.File
}

func addDisplayFlags(cmd *cobra.Command, a *app) {
	f := cmd.Flags()
	f.StringVar(&a.flags.mode, "mode", "", "initial display mode: remaining or used")
	f.IntVar(&a.flags.width, "width", 0, "widget width in columns")
	f.StringVar(&a.flags.source, "source", "", "usage source: oauth or command")
	f.DurationVar(&a.flags.timeout, "timeout", 0, "per-poll fetch timeout")
	f.BoolVar(&a.flags.noPace, "no-pace", false, "hide the pace line")
}

func addTUIFlags(cmd *cobra.Command, a *app) {
	f := cmd.Flags()
	f.DurationVar(&a.flags.interval, "interval", 0, "poll interval")
	f.BoolVar(&a.flags.noAltScreen, "no-alt-screen", false, "disable alternate screen mode")
}

// interactive reports whether cmd takes over the terminal.
func interactive(cmd *cobra.Command) bool {
	return cmd.Name() == "tui" || !cmd.HasParent()
}

// setup builds the logger and stores it in the command context.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	var w io.Writer = a.stderr
	switch {
	case a.flags.logFile != "":
		f, err := logging.OpenFile(a.flags.logFile)
		if err != nil {
			return failure(err)
		}
		a.logFile = f
		w = f
	case interactive(cmd):
		w = io.Discard
	}

	a.logger = logging.NewLogger(w)
	logging.Configure(a.logger, logging.Flags{
		Verbose: a.flags.verbose,
		Quiet:   a.flags.quiet,
		NoColor: a.flags.noColor || a.flags.logFile != "",
		JSON:    a.flags.logJSON,
	})
	cmd.SetContext(logging.WithLogger(cmd.Context(), a.logger))
	return nil
}

func (a *app) closeLogFile() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

// loadConfig reads the config file, applies flag overrides and validates
// the result. A broken config file is logged and replaced by the defaults.
func (a *app) loadConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(a.flags.configPath)
	if err != nil {
		a.logger.Warn("config problem, continuing with defaults where needed", "err", err)
	}

	changed := func(name string) bool {
		f := cmd.Flags().Lookup(name)
		return f != nil && f.Changed
	}
	if changed("mode") {
		cfg.InitialMode = a.flags.mode
	}
	if changed("width") {
		cfg.Width = a.flags.width
	}
	if changed("source") {
		cfg.Source = strings.ToLower(strings.TrimSpace(a.flags.source))
	}
	if changed("timeout") {
		cfg.FetchTimeout = config.Duration{Duration: a.flags.timeout}
	}
	if changed("interval") {
		cfg.RefreshInterval = config.Duration{Duration: a.flags.interval}
	}
	if a.flags.noPace {
		cfg.Display.ShowPace = false
	}
	if a.flags.noColor {
		cfg.NoColor = true
	}

	if err := cfg.Validate(); err != nil {
		return cfg, usageErrorf("invalid configuration: %v", err)
	}
	return cfg, nil
}

// meterSettings derives what the renderer and the reducer need from cfg.
func meterSettings(cfg config.Config) (meter.Config, meter.DisplayMode, error) {
	mcfg, err := cfg.MeterConfig()
	if err != nil {
		return meter.Config{}, meter.ModeRemaining, usageErrorf("%v", err)
	}
	mode, err := cfg.Mode()
	if err != nil {
		return meter.Config{}, meter.ModeRemaining, usageErrorf("%v", err)
	}
	return mcfg, mode, nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

func printJSON(w io.Writer, v any) error {
	enc := newJSONEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode JSON: %w", err)
	}
	return nil
}
