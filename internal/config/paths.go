package config

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
)

const appName = "claude-code-meter"

// ConfigDir is $CLAUDE_CODE_METER_CONFIG_DIR when set, otherwise the XDG
// config home for the app.
func ConfigDir() string {
	if v := os.Getenv("CLAUDE_CODE_METER_CONFIG_DIR"); v != "" {
		return v
	}
	return filepath.Join(xdg.ConfigHome, appName)
}

func ConfigFile() string { return filepath.Join(ConfigDir(), "config.toml") }
