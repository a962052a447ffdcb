package meter

import (
	"fmt"
	"math"
	"time"
)

// paceDeadZone is the band, in percentage points, treated as on pace.
const (
	paceDeadZone       = 1.0
	paceCriticalMargin = 10.0
)

type Severity int

const (
	SeverityNeutral Severity = iota
	SeverityGood
	SeverityWarning
	SeverityCritical
)

func (s Severity) String() string {
	switch s {
	case SeverityGood:
		return "good"
	case SeverityWarning:
		return "warning"
	case SeverityCritical:
		return "critical"
	default:
		return "neutral"
	}
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Pace compares consumption with elapsed time in a window.
type Pace struct {
	// Delta is utilization minus elapsed percent; positive means usage is
	// running ahead of the clock.
	Delta    float64  `json:"delta"`
	Label    string   `json:"label"`
	Severity Severity `json:"severity"`
}

// ElapsedFraction returns how much of the window ending at resetsAt has
// passed at now, as a percent in [0,100]. Without a deadline it is 0.
func ElapsedFraction(resetsAt *time.Time, period time.Duration, now time.Time) float64 {
	if resetsAt == nil || period <= 0 {
		return 0
	}
	start := resetsAt.Add(-period)
	pct := float64(now.Sub(start)) / float64(period) * 100
	return clampPercent(pct)
}

// PaceVerdict compares utilization against elapsed percent.
func PaceVerdict(utilization, elapsed float64) Pace {
	delta := utilization - elapsed
	abs := math.Abs(delta)
	switch {
	case abs <= paceDeadZone:
		return Pace{Delta: delta, Label: "on pace", Severity: SeverityNeutral}
	case delta > 0:
		sev := SeverityWarning
		if delta > paceCriticalMargin {
			sev = SeverityCritical
		}
		return Pace{Delta: delta, Label: fmt.Sprintf("%d%% above pace", RoundHalfUp(abs)), Severity: sev}
	default:
		return Pace{Delta: delta, Label: fmt.Sprintf("%d%% below pace", RoundHalfUp(abs)), Severity: SeverityGood}
	}
}

// windowPace is the pace for one window. A window with no known reset
// gives no pace signal.
func windowPace(w Window, period time.Duration, now time.Time) (float64, Pace) {
	if w.ResetsAt == nil {
		return 0, PaceVerdict(0, 0)
	}
	elapsed := ElapsedFraction(w.ResetsAt, period, now)
	return elapsed, PaceVerdict(w.Utilization, elapsed)
}
