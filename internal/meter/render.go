package meter

import (
	"fmt"
	"strings"
	"time"
)

type PanelKind int

const (
	PanelUsage PanelKind = iota
	PanelLoading
	PanelError
)

func (k PanelKind) String() string {
	switch k {
	case PanelLoading:
		return "loading"
	case PanelError:
		return "error"
	default:
		return "usage"
	}
}

func (k PanelKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// ErrorReason tells the two error-panel paths apart. They look the same.
type ErrorReason int

const (
	ReasonNone ErrorReason = iota
	ReasonTransport
	ReasonRejected
)

func (r ErrorReason) String() string {
	switch r {
	case ReasonTransport:
		return "transport"
	case ReasonRejected:
		return "rejected"
	default:
		return ""
	}
}

func (r ErrorReason) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

const (
	msgTransport = "Error fetching usage data"
	msgRejected  = "Auth failed - check Claude Code credentials"
	msgLoading   = "Loading..."
)

// View is the rendered widget. Hosts paint it; it carries no styling.
type View struct {
	Kind    PanelKind   `json:"kind"`
	Reason  ErrorReason `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
	Header  *Header     `json:"header,omitempty"`
	Rows    []Row       `json:"rows,omitempty"`
}

// Header is the title row with the live marker and the mode badge.
type Header struct {
	Title      string      `json:"title"`
	Live       bool        `json:"live"`
	Mode       DisplayMode `json:"mode"`
	ModeLabel  string      `json:"mode_label"`
	ToggleHint string      `json:"toggle_hint"`
	// OnToggle is dispatched when the badge is activated.
	OnToggle Event `json:"-"`
}

// Row is one window slot.
type Row struct {
	Key          string    `json:"key"`
	Label        string    `json:"label"`
	Utilization  float64   `json:"utilization"`
	DisplayValue float64   `json:"display_value"`
	Percent      int       `json:"percent"`
	Suffix       string    `json:"suffix"`
	Color        Category  `json:"color"`
	Filled       int       `json:"filled"`
	Segments     int       `json:"segments"`
	Elapsed      float64   `json:"elapsed"`
	Pace         Pace      `json:"pace"`
	Countdown    Countdown `json:"countdown"`
	ResetClock   string    `json:"reset_clock"`
}

// Render derives the view for s at now. It never fails: every state maps
// to a usage, loading or error panel.
func Render(s State, now time.Time, cfg Config) View {
	switch s.Last.Status {
	case PollFailure:
		return errorView(ReasonTransport)
	case PollPending:
		return View{Kind: PanelLoading, Message: msgLoading}
	}

	payload, ok := ParsePayload(s.Last.Output)
	if !ok {
		return View{Kind: PanelLoading, Message: msgLoading}
	}
	if payload.Rejected {
		return errorView(ReasonRejected)
	}

	v := View{
		Kind:   PanelUsage,
		Header: renderHeader(s.Mode, cfg),
		Rows:   make([]Row, 0, len(cfg.Windows)),
	}
	for _, spec := range cfg.Windows {
		v.Rows = append(v.Rows, renderRow(spec, payload.Window(spec.Key), s.Mode, now, cfg))
	}
	return v
}

func errorView(reason ErrorReason) View {
	msg := msgTransport
	if reason == ReasonRejected {
		msg = msgRejected
	}
	return View{Kind: PanelError, Reason: reason, Message: msg}
}

func renderHeader(mode DisplayMode, cfg Config) *Header {
	return &Header{
		Title:      cfg.Title,
		Live:       true,
		Mode:       mode,
		ModeLabel:  mode.String(),
		ToggleHint: fmt.Sprintf("Click to switch to %q mode", mode.Toggled().String()),
		OnToggle:   ToggleMode(),
	}
}

func renderRow(spec WindowSpec, w Window, mode DisplayMode, now time.Time, cfg Config) Row {
	segments := cfg.segments()
	display := mode.DisplayValue(w.Utilization)
	elapsed, pace := windowPace(w, spec.Period, now)
	urgentWithin := cfg.UrgentWithin
	if urgentWithin <= 0 {
		urgentWithin = defaultUrgentWithin
	}

	label := spec.Label
	if strings.TrimSpace(label) == "" {
		label = spec.Key
	}

	return Row{
		Key:          spec.Key,
		Label:        label,
		Utilization:  w.Utilization,
		DisplayValue: display,
		Percent:      RoundHalfUp(display),
		Suffix:       mode.Suffix(),
		Color:        cfg.Thresholds.Category(display, mode),
		Filled:       BarFill(display, segments),
		Segments:     segments,
		Elapsed:      elapsed,
		Pace:         pace,
		Countdown:    TimeLeftWithin(w.ResetsAt, now, urgentWithin),
		ResetClock:   FormatClockTime(w.ResetsAt, cfg.location()),
	}
}
