package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/olliecrow/claude_code_meter/internal/config"
	"github.com/olliecrow/claude_code_meter/internal/logging"
	"github.com/olliecrow/claude_code_meter/internal/meter"
	"github.com/olliecrow/claude_code_meter/internal/tui"
	"github.com/olliecrow/claude_code_meter/internal/usage"
)

func newJSONEncoder(w io.Writer) *json.Encoder {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc
}

func newTUICmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Run the interactive meter (default)",
		Args:  cobra.NoArgs,
		RunE:  a.runTUI,
	}
	addDisplayFlags(cmd, a)
	addTUIFlags(cmd, a)
	return cmd
}

func (a *app) runTUI(cmd *cobra.Command, _ []string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return failure(errors.New("tui requires an interactive terminal (TTY); use `claude-code-meter once` for one-shot output"))
	}

	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	mcfg, mode, err := meterSettings(cfg)
	if err != nil {
		return err
	}

	fetcher := usage.NewFetcherFromConfig(cfg)
	defer fetcher.Close()

	a.logger.Info("starting meter", "source", fetcher.Name(), "interval", cfg.RefreshInterval.Duration)
	err = tui.Run(tui.Options{
		Context:     cmd.Context(),
		Interval:    cfg.RefreshInterval.Duration,
		Timeout:     cfg.FetchTimeout.Duration,
		InitialMode: mode,
		Meter:       mcfg,
		Width:       cfg.Width,
		ShowPace:    cfg.Display.ShowPace,
		NoColor:     cfg.NoColor,
		AltScreen:   !a.flags.noAltScreen,
		Fetch:       fetcher.Fetch,
	})
	if err != nil {
		return failure(err)
	}
	return nil
}

func newOnceCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "once",
		Short: "Poll once and print the meter",
		Long: "once polls the usage source a single time, prints the rendered meter and exits.\n" +
			"It exits 1 when the poll could not produce usage data.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runOnce(cmd, jsonOut)
		},
	}
	addDisplayFlags(cmd, a)
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the render result as JSON")
	return cmd
}

func (a *app) runOnce(cmd *cobra.Command, jsonOut bool) error {
	cfg, err := a.loadConfig(cmd)
	if err != nil {
		return err
	}
	mcfg, mode, err := meterSettings(cfg)
	if err != nil {
		return err
	}

	fetcher := usage.NewFetcherFromConfig(cfg)
	defer fetcher.Close()

	view := pollOnce(cmd.Context(), fetcher.Fetch, cfg.FetchTimeout.Duration, mode, mcfg, time.Now)

	if jsonOut {
		if err := printJSON(a.stdout, view); err != nil {
			return failure(err)
		}
	} else {
		fmt.Fprintln(a.stdout, tui.Paint(view, tui.PaintOptions{
			Width:    cfg.Width,
			NoColor:  cfg.NoColor || !isTerminal(a.stdout),
			ShowPace: cfg.Display.ShowPace,
		}))
	}

	if view.Kind == meter.PanelError {
		return &exitError{code: 1}
	}
	return nil
}

// pollOnce runs a single fetch through the reducer and renders the result.
func pollOnce(
	ctx context.Context,
	fetch tui.FetchFunc,
	timeout time.Duration,
	mode meter.DisplayMode,
	cfg meter.Config,
	now func() time.Time,
) meter.View {
	fetchCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := fetch(fetchCtx)
	if err != nil {
		logging.FromContext(ctx).Error("poll failed", "err", err)
	}
	state := meter.Reduce(meter.NewState(mode), meter.PollCompleted(string(out), err))
	return meter.Render(state, now(), cfg)
}

func newDoctorCmd(a *app) *cobra.Command {
	var jsonOut bool
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check credentials and usage sources",
		Long: "doctor loads the configuration and credentials, then polls every configured\n" +
			"source once. It exits 1 when no source returns usable data.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := a.loadConfig(cmd)
			if err != nil {
				return err
			}
			report := usage.RunDoctor(cmd.Context(), cfg)
			if jsonOut {
				if err := printJSON(a.stdout, report); err != nil {
					return failure(err)
				}
			} else {
				printDoctorHuman(a.stdout, report)
			}
			if !report.Healthy() {
				return &exitError{code: 1}
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOut, "json", false, "print the report as JSON")
	cmd.Flags().DurationVar(&a.flags.timeout, "timeout", 0, "per-source fetch timeout")
	cmd.Flags().StringVar(&a.flags.source, "source", "", "usage source: oauth or command")
	return cmd
}

func printDoctorHuman(w io.Writer, report usage.DoctorReport) {
	fmt.Fprintln(w, "claude-code-meter doctor")
	for _, check := range report.Checks {
		status := "PASS"
		if !check.OK {
			status = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s\n", status, check.Name)
		if check.Details != "" {
			fmt.Fprintf(w, "  %s\n", check.Details)
		}
	}
	if report.Healthy() {
		fmt.Fprintln(w, "overall: PASS")
	} else {
		fmt.Fprintln(w, "overall: FAIL")
	}
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the configuration",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(_ *cobra.Command, _ []string) error {
				path := a.flags.configPath
				if path == "" {
					path = config.ConfigFile()
				}
				fmt.Fprintln(a.stdout, path)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration as TOML",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				cfg, err := a.loadConfig(cmd)
				if err != nil {
					return err
				}
				if err := config.Encode(a.stdout, cfg); err != nil {
					return failure(err)
				}
				return nil
			},
		},
	)
	return cmd
}

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "completion [bash|zsh]",
		Short:     "Print a shell completion script",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"bash", "zsh"},
		RunE: func(cmd *cobra.Command, args []string) error {
			shell := "bash"
			if len(args) == 1 {
				shell = args[0]
			}
			out := cmd.OutOrStdout()
			switch shell {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			default:
				return usageErrorf("unsupported shell %q (want bash or zsh)", shell)
			}
		},
	}
}
