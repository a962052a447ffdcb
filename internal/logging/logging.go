// Package logging builds the charmbracelet/log logger used across the meter
// and carries it through contexts.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/muesli/termenv"
)

// Flags holds the CLI flags that affect logging.
type Flags struct {
	Verbose bool
	Quiet   bool
	NoColor bool
	JSON    bool
}

// NewLogger creates a logger writing to w at WarnLevel.
func NewLogger(w io.Writer) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		Level:  log.WarnLevel,
		Prefix: "claude-code-meter",
	})
}

// Configure adjusts l for f. Quiet wins over verbose.
func Configure(l *log.Logger, f Flags) {
	switch {
	case f.Quiet:
		l.SetLevel(log.ErrorLevel)
	case f.Verbose:
		l.SetLevel(log.DebugLevel)
	default:
		l.SetLevel(log.WarnLevel)
	}

	if f.NoColor {
		l.SetColorProfile(termenv.Ascii)
	}

	if f.JSON {
		l.SetFormatter(log.JSONFormatter)
	}
}

// OpenFile opens path for appending log lines, creating parent directories.
// The full-screen UI owns the terminal, so it logs here or nowhere.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}
