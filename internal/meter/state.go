package meter

import (
	"fmt"
	"strings"
)

// DisplayMode selects whether percentages are shown as remaining or used.
type DisplayMode int

const (
	ModeRemaining DisplayMode = iota
	ModeUsed
)

func (m DisplayMode) String() string {
	if m == ModeUsed {
		return "used"
	}
	return "remaining"
}

func (m DisplayMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// ParseMode accepts "remaining" or "used" (case-insensitive).
func ParseMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "remaining":
		return ModeRemaining, nil
	case "used":
		return ModeUsed, nil
	default:
		return ModeRemaining, fmt.Errorf("unknown display mode %q (expected remaining or used)", s)
	}
}

// Toggled returns the other mode.
func (m DisplayMode) Toggled() DisplayMode {
	if m == ModeUsed {
		return ModeRemaining
	}
	return ModeUsed
}

// DisplayValue maps a utilization percent into this mode's framing.
func (m DisplayMode) DisplayValue(utilization float64) float64 {
	if m == ModeUsed {
		return utilization
	}
	return 100 - utilization
}

// Suffix is the word printed after the percentage.
func (m DisplayMode) Suffix() string {
	if m == ModeUsed {
		return "used"
	}
	return "left"
}

type PollStatus int

const (
	PollPending PollStatus = iota
	PollSuccess
	PollFailure
)

// PollResult is the last thing the data feed delivered. A successful
// result keeps the raw output verbatim; parsing happens at render time.
type PollResult struct {
	Status PollStatus
	Output string
	Reason string
}

func Pending() PollResult { return PollResult{Status: PollPending} }

func Success(output string) PollResult {
	return PollResult{Status: PollSuccess, Output: output}
}

func Failure(reason string) PollResult {
	return PollResult{Status: PollFailure, Reason: reason}
}

// State is the widget's display state. It only changes through Reduce.
type State struct {
	Mode DisplayMode
	Last PollResult
}

func NewState(mode DisplayMode) State {
	return State{Mode: mode, Last: Pending()}
}

type EventType string

const (
	EventToggleMode    EventType = "TOGGLE_MODE"
	EventPollCompleted EventType = "POLL_COMPLETED"
)

// Event is delivered by the host, one at a time, to Reduce.
type Event struct {
	Type   EventType
	Output string
	Error  bool
	Reason string
}

func ToggleMode() Event {
	return Event{Type: EventToggleMode}
}

// PollCompleted builds the event for a finished poll. A non-nil err marks
// the poll as failed and its output is ignored.
func PollCompleted(output string, err error) Event {
	e := Event{Type: EventPollCompleted, Output: output}
	if err != nil {
		e.Error = true
		e.Reason = err.Error()
	}
	return e
}

// Reduce returns the state that follows s after e. Unknown event types
// leave the state unchanged.
func Reduce(s State, e Event) State {
	switch e.Type {
	case EventToggleMode:
		s.Mode = s.Mode.Toggled()
	case EventPollCompleted:
		if e.Error {
			s.Last = Failure(e.Reason)
		} else {
			s.Last = Success(e.Output)
		}
	}
	return s
}
