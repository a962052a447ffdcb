// Package config loads the meter's TOML configuration, applies environment
// overrides and turns the result into the immutable render configuration.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/olliecrow/claude_code_meter/internal/meter"
)

const (
	SourceOAuth   = "oauth"
	SourceCommand = "command"
)

// DefaultCommand reads the Claude Code token from the macOS keychain and asks
// the usage endpoint for the current windows. Any failure along the way
// prints the rejection marker instead.
const DefaultCommand = `TOKEN=$(security find-generic-password -s "Claude Code-credentials" -w 2>/dev/null | python3 -c "import sys,json; print(json.loads(sys.stdin.read())['claudeAiOauth']['accessToken'])" 2>/dev/null) && \
curl -sf https://api.anthropic.com/api/oauth/usage \
  -H "Authorization: Bearer $TOKEN" \
  -H "anthropic-beta: oauth-2025-04-20" \
  -H "Content-Type: application/json" 2>/dev/null || echo '{"error": true}'`

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

type DisplayConfig struct {
	Title        string   `toml:"title" json:"title"`
	Segments     int      `toml:"segments" json:"segments"`
	Timezone     string   `toml:"timezone" json:"timezone"`
	UrgentWithin Duration `toml:"urgent_within" json:"urgent_within"`
	ShowPace     bool     `toml:"show_pace" json:"show_pace"`
}

type ThresholdsConfig struct {
	RemainingCritical float64 `toml:"remaining_critical" json:"remaining_critical"`
	RemainingWarning  float64 `toml:"remaining_warning" json:"remaining_warning"`
	UsedCritical      float64 `toml:"used_critical" json:"used_critical"`
}

type WindowConfig struct {
	Key    string   `toml:"key" json:"key"`
	Label  string   `toml:"label" json:"label"`
	Period Duration `toml:"period" json:"period"`
}

type Config struct {
	RefreshInterval Duration         `toml:"refresh_interval" json:"refresh_interval"`
	InitialMode     string           `toml:"initial_mode" json:"initial_mode"`
	Width           int              `toml:"width" json:"width"`
	Source          string           `toml:"source" json:"source"`
	Command         string           `toml:"command" json:"command"`
	FallbackCommand bool             `toml:"fallback_command" json:"fallback_command"`
	FetchTimeout    Duration         `toml:"fetch_timeout" json:"fetch_timeout"`
	NoColor         bool             `toml:"no_color" json:"no_color"`
	Display         DisplayConfig    `toml:"display" json:"display"`
	Thresholds      ThresholdsConfig `toml:"thresholds" json:"thresholds"`
	Windows         []WindowConfig   `toml:"windows" json:"windows"`
}

func DefaultConfig() Config {
	return Config{
		RefreshInterval: Duration{30 * time.Second},
		InitialMode:     meter.ModeRemaining.String(),
		Width:           38,
		Source:          SourceOAuth,
		Command:         DefaultCommand,
		FallbackCommand: false,
		FetchTimeout:    Duration{10 * time.Second},
		Display: DisplayConfig{
			Title:        "Claude Code Meter",
			Segments:     meter.DefaultSegments,
			Timezone:     "Local",
			UrgentWithin: Duration{15 * time.Minute},
			ShowPace:     true,
		},
		Thresholds: ThresholdsConfig{
			RemainingCritical: 10,
			RemainingWarning:  25,
			UsedCritical:      90,
		},
		Windows: defaultWindows(),
	}
}

func defaultWindows() []WindowConfig {
	specs := meter.DefaultWindows()
	out := make([]WindowConfig, 0, len(specs))
	for _, s := range specs {
		out = append(out, WindowConfig{Key: s.Key, Label: s.Label, Period: Duration{s.Period}})
	}
	return out
}

// Load reads the config file at path (ConfigFile() when empty). A missing
// file yields the defaults. A file that fails to parse yields the defaults
// together with the parse error so callers can warn and carry on.
// Environment overrides are applied in both cases.
func Load(path string) (Config, error) {
	if path == "" {
		path = ConfigFile()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return applyEnvOverrides(DefaultConfig())
		}
		cfg, envErr := applyEnvOverrides(DefaultConfig())
		return cfg, errors.Join(fmt.Errorf("reading config %s: %w", path, err), envErr)
	}

	cfg := DefaultConfig()
	// Arrays of tables decode into existing elements, so start empty and
	// only fall back to the defaults when the file lists no windows.
	cfg.Windows = nil
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		def, envErr := applyEnvOverrides(DefaultConfig())
		return def, errors.Join(fmt.Errorf("parsing config %s: %w", path, err), envErr)
	}
	if len(cfg.Windows) == 0 {
		cfg.Windows = defaultWindows()
	}
	return applyEnvOverrides(cfg)
}

func applyEnvOverrides(cfg Config) (Config, error) {
	var errs []error
	if v := strings.TrimSpace(os.Getenv("CLAUDE_CODE_METER_MODE")); v != "" {
		cfg.InitialMode = v
	}
	if v := strings.TrimSpace(os.Getenv("CLAUDE_CODE_METER_REFRESH")); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("CLAUDE_CODE_METER_REFRESH: %w", err))
		} else {
			cfg.RefreshInterval = Duration{d}
		}
	}
	if v := strings.TrimSpace(os.Getenv("CLAUDE_CODE_METER_SOURCE")); v != "" {
		cfg.Source = strings.ToLower(v)
	}
	if os.Getenv("NO_COLOR") != "" {
		cfg.NoColor = true
	}
	return cfg, errors.Join(errs...)
}

// Validate reports every problem in cfg at once.
func (c Config) Validate() error {
	var errs []error
	if c.RefreshInterval.Duration <= 0 {
		errs = append(errs, fmt.Errorf("refresh_interval must be positive, got %s", c.RefreshInterval.Duration))
	}
	if c.FetchTimeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("fetch_timeout must be positive, got %s", c.FetchTimeout.Duration))
	}
	if _, err := meter.ParseMode(c.InitialMode); err != nil {
		errs = append(errs, fmt.Errorf("initial_mode: %w", err))
	}
	if c.Width <= 0 {
		errs = append(errs, fmt.Errorf("width must be positive, got %d", c.Width))
	}
	switch c.Source {
	case SourceOAuth, SourceCommand:
	default:
		errs = append(errs, fmt.Errorf("unknown source %q (expected %s or %s)", c.Source, SourceOAuth, SourceCommand))
	}
	if (c.Source == SourceCommand || c.FallbackCommand) && strings.TrimSpace(c.Command) == "" {
		errs = append(errs, errors.New("command must be set when the command source is used"))
	}
	if c.Display.Segments < 1 {
		errs = append(errs, fmt.Errorf("display.segments must be at least 1, got %d", c.Display.Segments))
	}
	if _, err := c.location(); err != nil {
		errs = append(errs, err)
	}
	for _, th := range []struct {
		name  string
		value float64
	}{
		{"remaining_critical", c.Thresholds.RemainingCritical},
		{"remaining_warning", c.Thresholds.RemainingWarning},
		{"used_critical", c.Thresholds.UsedCritical},
	} {
		if th.value < 0 || th.value > 100 {
			errs = append(errs, fmt.Errorf("thresholds.%s must be within 0-100, got %g", th.name, th.value))
		}
	}
	if c.Thresholds.RemainingCritical > c.Thresholds.RemainingWarning {
		errs = append(errs, fmt.Errorf("thresholds.remaining_critical (%g) is above remaining_warning (%g)",
			c.Thresholds.RemainingCritical, c.Thresholds.RemainingWarning))
	}
	if len(c.Windows) == 0 {
		errs = append(errs, errors.New("at least one window must be configured"))
	}
	seen := make(map[string]struct{}, len(c.Windows))
	for i, w := range c.Windows {
		key := strings.TrimSpace(w.Key)
		if key == "" {
			errs = append(errs, fmt.Errorf("windows[%d]: key is empty", i))
			continue
		}
		if w.Period.Duration <= 0 {
			errs = append(errs, fmt.Errorf("windows[%d] (%s): period must be positive", i, key))
		}
		if _, dup := seen[key]; dup {
			errs = append(errs, fmt.Errorf("windows[%d]: duplicate key %q", i, key))
		}
		seen[key] = struct{}{}
	}
	return errors.Join(errs...)
}

// Mode is the parsed initial display mode.
func (c Config) Mode() (meter.DisplayMode, error) {
	return meter.ParseMode(c.InitialMode)
}

// MeterConfig converts the file configuration into the render configuration.
func (c Config) MeterConfig() (meter.Config, error) {
	loc, err := c.location()
	if err != nil {
		return meter.Config{}, err
	}
	windows := make([]meter.WindowSpec, 0, len(c.Windows))
	for _, w := range c.Windows {
		windows = append(windows, meter.WindowSpec{
			Key:    strings.TrimSpace(w.Key),
			Label:  w.Label,
			Period: w.Period.Duration,
		})
	}
	return meter.Config{
		Title:    c.Display.Title,
		Segments: c.Display.Segments,
		Windows:  windows,
		Thresholds: meter.Thresholds{
			RemainingCritical: c.Thresholds.RemainingCritical,
			RemainingWarning:  c.Thresholds.RemainingWarning,
			UsedCritical:      c.Thresholds.UsedCritical,
		},
		Location:     loc,
		UrgentWithin: c.Display.UrgentWithin.Duration,
	}, nil
}

func (c Config) location() (*time.Location, error) {
	tz := strings.TrimSpace(c.Display.Timezone)
	if tz == "" || strings.EqualFold(tz, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("display.timezone: %w", err)
	}
	return loc, nil
}

// Encode writes cfg as TOML.
func Encode(w io.Writer, cfg Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return nil
}
