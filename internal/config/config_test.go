package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adrg/xdg"

	"github.com/olliecrow/claude_code_meter/internal/meter"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CLAUDE_CODE_METER_MODE",
		"CLAUDE_CODE_METER_REFRESH",
		"CLAUDE_CODE_METER_SOURCE",
		"CLAUDE_CODE_METER_CONFIG_DIR",
		"NO_COLOR",
	} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.RefreshInterval.Duration != 30*time.Second {
		t.Fatalf("unexpected default refresh %s", cfg.RefreshInterval.Duration)
	}
	if mode, _ := cfg.Mode(); mode != meter.ModeRemaining {
		t.Fatalf("unexpected default mode %s", mode)
	}
	if len(cfg.Windows) != 2 || cfg.Windows[0].Key != "five_hour" || cfg.Windows[1].Period.Duration != 168*time.Hour {
		t.Fatalf("unexpected default windows %+v", cfg.Windows)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if cfg.Width != 38 || cfg.Source != SourceOAuth {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}

func TestLoadReadsFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
refresh_interval = "1m"
initial_mode = "used"
source = "command"
command = "cat usage.json"

[display]
title = "Quota"
segments = 10
timezone = "UTC"
urgent_within = "5m"

[thresholds]
remaining_critical = 5
remaining_warning = 20
used_critical = 80

[[windows]]
key = "five_hour"
period = "5h"

[[windows]]
key = "seven_day_opus"
label = "Opus week"
period = "168h"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.RefreshInterval.Duration != time.Minute || cfg.InitialMode != "used" || cfg.Command != "cat usage.json" {
		t.Fatalf("top-level keys not applied: %+v", cfg)
	}
	if cfg.Display.Title != "Quota" || !cfg.Display.ShowPace {
		t.Fatalf("display not merged over defaults: %+v", cfg.Display)
	}
	if len(cfg.Windows) != 2 || cfg.Windows[0].Label != "" || cfg.Windows[1].Label != "Opus week" {
		t.Fatalf("windows should replace the defaults wholesale: %+v", cfg.Windows)
	}

	mc, err := cfg.MeterConfig()
	if err != nil {
		t.Fatalf("meter config: %v", err)
	}
	if mc.Segments != 10 || mc.Location != time.UTC || mc.UrgentWithin != 5*time.Minute {
		t.Fatalf("unexpected meter config %+v", mc)
	}
	if mc.Thresholds.UsedCritical != 80 || mc.Windows[1].Key != "seven_day_opus" {
		t.Fatalf("unexpected meter config %+v", mc)
	}
}

func TestLoadParseErrorReturnsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "refresh_interval = [oops")
	cfg, err := Load(path)
	if err == nil {
		t.Fatalf("expected parse error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Fatalf("error should name the file: %v", err)
	}
	if cfg.RefreshInterval.Duration != 30*time.Second {
		t.Fatalf("expected defaults after parse error, got %+v", cfg)
	}
}

func TestLoadRejectsBadDuration(t *testing.T) {
	clearEnv(t)
	if _, err := Load(writeConfig(t, `refresh_interval = "soon"`)); err == nil {
		t.Fatalf("expected invalid duration error")
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLAUDE_CODE_METER_MODE", "used")
	t.Setenv("CLAUDE_CODE_METER_REFRESH", "5s")
	t.Setenv("CLAUDE_CODE_METER_SOURCE", "COMMAND")
	t.Setenv("NO_COLOR", "1")

	cfg, err := Load(writeConfig(t, `initial_mode = "remaining"`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.InitialMode != "used" || cfg.RefreshInterval.Duration != 5*time.Second {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
	if cfg.Source != SourceCommand || !cfg.NoColor {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestEnvRefreshMustParse(t *testing.T) {
	clearEnv(t)
	t.Setenv("CLAUDE_CODE_METER_REFRESH", "often")
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	if err == nil || !strings.Contains(err.Error(), "CLAUDE_CODE_METER_REFRESH") {
		t.Fatalf("expected refresh env error, got %v", err)
	}
	if cfg.RefreshInterval.Duration != 30*time.Second {
		t.Fatalf("bad env value should leave the default in place")
	}
}

func TestValidateCollectsProblems(t *testing.T) {
	cfg := DefaultConfig()
	cfg.RefreshInterval = Duration{0}
	cfg.InitialMode = "sideways"
	cfg.Source = "carrier-pigeon"
	cfg.Display.Segments = 0
	cfg.Display.Timezone = "Mars/Olympus_Mons"
	cfg.Windows = []WindowConfig{
		{Key: "five_hour", Period: Duration{5 * time.Hour}},
		{Key: "five_hour", Period: Duration{5 * time.Hour}},
		{Key: "", Period: Duration{time.Hour}},
		{Key: "weekly", Period: Duration{0}},
	}

	err := cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation error")
	}
	for _, want := range []string{
		"refresh_interval",
		"initial_mode",
		"unknown source",
		"display.segments",
		"display.timezone",
		"duplicate key",
		"key is empty",
		"period must be positive",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("expected %q in validation error: %v", want, err)
		}
	}
}

func TestValidateRequiresCommandForCommandSource(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Source = SourceCommand
	cfg.Command = "  "
	if err := cfg.Validate(); err == nil {
		t.Fatalf("expected missing command error")
	}
}

func TestValidateThresholdRange(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ThresholdsConfig)
		want   string
	}{
		{"used above 100", func(th *ThresholdsConfig) { th.UsedCritical = 150 }, "thresholds.used_critical"},
		{"negative critical", func(th *ThresholdsConfig) { th.RemainingCritical = -5 }, "thresholds.remaining_critical"},
		{"warning above 100", func(th *ThresholdsConfig) { th.RemainingWarning = 101 }, "thresholds.remaining_warning"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg.Thresholds)
			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected %q in validation error, got %v", tt.want, err)
			}
		})
	}

	cfg := DefaultConfig()
	cfg.Thresholds = ThresholdsConfig{RemainingCritical: 0, RemainingWarning: 100, UsedCritical: 100}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("bounds are inclusive, got %v", err)
	}
}

func TestConfigDirHonorsEnvAndXDG(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CLAUDE_CODE_METER_CONFIG_DIR", dir)
	if got := ConfigFile(); got != filepath.Join(dir, "config.toml") {
		t.Fatalf("unexpected config file %s", got)
	}

	t.Setenv("CLAUDE_CODE_METER_CONFIG_DIR", "")
	old := xdg.ConfigHome
	xdg.ConfigHome = filepath.Join(dir, "xdg")
	t.Cleanup(func() { xdg.ConfigHome = old })
	if got := ConfigDir(); got != filepath.Join(dir, "xdg", "claude-code-meter") {
		t.Fatalf("unexpected config dir %s", got)
	}
}

func TestEncodeRoundTripsThroughLoad(t *testing.T) {
	clearEnv(t)
	cfg := DefaultConfig()
	cfg.InitialMode = "used"
	cfg.Display.UrgentWithin = Duration{2 * time.Minute}

	var buf bytes.Buffer
	if err := Encode(&buf, cfg); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(buf.String(), `urgent_within = "2m0s"`) {
		t.Fatalf("durations should encode as strings:\n%s", buf.String())
	}

	loaded, err := Load(writeConfig(t, buf.String()))
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if loaded.InitialMode != "used" || loaded.Display.UrgentWithin.Duration != 2*time.Minute {
		t.Fatalf("reloaded config differs: %+v", loaded)
	}
}
