// Package meter holds the presentation core of the usage meter: formatting
// helpers, the pace calculator, the display-state reducer and the renderer
// that turns a state into a host-independent view tree.
//
// Nothing in this package performs I/O or reads the clock. Callers pass the
// current time explicitly.
package meter

import "time"

// DefaultSegments is the number of cells in a usage bar.
const DefaultSegments = 20

// WindowSpec describes one configured quota window slot.
type WindowSpec struct {
	// Key is the payload field holding the window record, e.g. "five_hour".
	Key string
	// Label is the row heading.
	Label string
	// Period is the fixed length of the window. It is a property of the
	// window kind and never read from the payload.
	Period time.Duration
}

// Thresholds are the color boundaries for both display modes.
type Thresholds struct {
	RemainingCritical float64
	RemainingWarning  float64
	UsedCritical      float64
}

// Config is the immutable render configuration. It is passed by value into
// the renderer so instances never share mutable styling state.
type Config struct {
	Title        string
	Segments     int
	Windows      []WindowSpec
	Thresholds   Thresholds
	Location     *time.Location
	UrgentWithin time.Duration
}

func DefaultThresholds() Thresholds {
	return Thresholds{
		RemainingCritical: 10,
		RemainingWarning:  25,
		UsedCritical:      90,
	}
}

func DefaultWindows() []WindowSpec {
	return []WindowSpec{
		{Key: "five_hour", Label: "5-hour window", Period: 5 * time.Hour},
		{Key: "seven_day", Label: "7-day window", Period: 7 * 24 * time.Hour},
	}
}

func DefaultConfig() Config {
	return Config{
		Title:        "Claude Code Meter",
		Segments:     DefaultSegments,
		Windows:      DefaultWindows(),
		Thresholds:   DefaultThresholds(),
		Location:     time.Local,
		UrgentWithin: defaultUrgentWithin,
	}
}

func (c Config) segments() int {
	if c.Segments <= 0 {
		return DefaultSegments
	}
	return c.Segments
}

func (c Config) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}
