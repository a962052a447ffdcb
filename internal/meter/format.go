package meter

import (
	"fmt"
	"math"
	"time"
)

const (
	placeholderCountdown = "--:--:--"
	placeholderClock     = "--:--"
	resettingCountdown   = "00:00:00"

	defaultUrgentWithin = 15 * time.Minute
)

// Countdown is a formatted time-until-reset.
type Countdown struct {
	// Text is fixed width: "HH:MM:SS" below a day, "Nd HH:MM" above.
	Text string `json:"text"`
	// Label is the long form, e.g. "resets in 2h 5m".
	Label  string `json:"label"`
	Urgent bool   `json:"urgent"`
}

// TimeLeft formats the time from now until resetsAt using the default
// urgency window.
func TimeLeft(resetsAt *time.Time, now time.Time) Countdown {
	return TimeLeftWithin(resetsAt, now, defaultUrgentWithin)
}

// TimeLeftWithin is TimeLeft with an explicit urgency window: the countdown
// is urgent once less than urgentWithin remains, and while resetting.
func TimeLeftWithin(resetsAt *time.Time, now time.Time, urgentWithin time.Duration) Countdown {
	if resetsAt == nil {
		return Countdown{Text: placeholderCountdown, Label: "no data"}
	}
	diff := resetsAt.Sub(now)
	if diff <= 0 {
		return Countdown{Text: resettingCountdown, Label: "resetting...", Urgent: true}
	}

	h := int64(diff / time.Hour)
	m := int64((diff % time.Hour) / time.Minute)
	s := int64((diff % time.Minute) / time.Second)
	urgent := diff < urgentWithin

	if h >= 24 {
		days := h / 24
		remH := h % 24
		return Countdown{
			Text:   fmt.Sprintf("%dd %02d:%02d", days, remH, m),
			Label:  fmt.Sprintf("resets in %dd %dh", days, remH),
			Urgent: urgent,
		}
	}
	return Countdown{
		Text:   fmt.Sprintf("%02d:%02d:%02d", h, m, s),
		Label:  fmt.Sprintf("resets in %dh %dm", h, m),
		Urgent: urgent,
	}
}

// FormatClockTime renders the wall-clock reset time, e.g. "14:05 CET".
func FormatClockTime(resetsAt *time.Time, loc *time.Location) string {
	if resetsAt == nil {
		return placeholderClock
	}
	if loc == nil {
		loc = time.Local
	}
	return resetsAt.In(loc).Format("15:04 MST")
}

// Category is the discrete color class of a displayed percentage.
type Category int

const (
	CategorySafe Category = iota
	CategoryWarning
	CategoryCritical
)

func (c Category) String() string {
	switch c {
	case CategoryWarning:
		return "warning"
	case CategoryCritical:
		return "critical"
	default:
		return "safe"
	}
}

func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// ColorCategory classifies displayValue with the default thresholds.
func ColorCategory(displayValue float64, mode DisplayMode) Category {
	return DefaultThresholds().Category(displayValue, mode)
}

// Category classifies displayValue. Used mode has no safe tier: anything
// below the critical line is a warning.
func (t Thresholds) Category(displayValue float64, mode DisplayMode) Category {
	if mode == ModeRemaining {
		switch {
		case displayValue <= t.RemainingCritical:
			return CategoryCritical
		case displayValue <= t.RemainingWarning:
			return CategoryWarning
		default:
			return CategorySafe
		}
	}
	if displayValue >= t.UsedCritical {
		return CategoryCritical
	}
	return CategoryWarning
}

// RoundHalfUp rounds to the nearest integer, with .5 going up.
func RoundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}

// BarFill returns how many of segments cells are lit for a percentage.
// The value is first fixed to hundredths of a percent so the half-way
// boundary is decided in integer arithmetic.
func BarFill(displayValue float64, segments int) int {
	if segments <= 0 {
		return 0
	}
	hundredths := int64(math.Round(clampPercent(displayValue) * 100))
	filled := int((hundredths*int64(segments) + 5000) / 10000)
	if filled < 0 {
		return 0
	}
	if filled > segments {
		return segments
	}
	return filled
}

func clampPercent(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(100, v))
}
