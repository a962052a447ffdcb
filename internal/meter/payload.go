package meter

import (
	"encoding/json"
	"strings"
	"time"
)

// Window is one quota window after validation: utilization is clamped to
// [0,100] and a missing or unparseable reset time is nil.
type Window struct {
	Utilization float64
	ResetsAt    *time.Time
}

// Payload is the typed form of a usage response.
type Payload struct {
	// Rejected is set when the response carries a truthy "error" field.
	Rejected bool
	Windows  map[string]Window
}

// Window returns the named window, or the zero window when absent.
func (p Payload) Window(key string) Window {
	return p.Windows[key]
}

type rawWindow struct {
	Utilization *float64 `json:"utilization"`
	ResetsAt    *string  `json:"resets_at"`
}

// ParsePayload validates raw poll output once. ok is false when the output
// is not a JSON object, which callers treat as not ready yet.
func ParsePayload(raw string) (p Payload, ok bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &fields); err != nil || fields == nil {
		return Payload{}, false
	}

	p.Windows = make(map[string]Window, len(fields))
	for key, value := range fields {
		if key == "error" {
			p.Rejected = truthy(value)
			continue
		}
		if string(value) == "null" {
			continue
		}
		var rw rawWindow
		if err := json.Unmarshal(value, &rw); err != nil {
			continue
		}
		p.Windows[key] = rw.toWindow()
	}
	return p, true
}

func (rw rawWindow) toWindow() Window {
	var w Window
	if rw.Utilization != nil {
		w.Utilization = clampPercent(*rw.Utilization)
	}
	if rw.ResetsAt != nil {
		if t, err := time.Parse(time.RFC3339Nano, strings.TrimSpace(*rw.ResetsAt)); err == nil {
			w.ResetsAt = &t
		}
	}
	return w
}

// truthy follows the loose truth rules of the JSON producers we read:
// false, null, 0 and "" are false, everything else is true.
func truthy(raw json.RawMessage) bool {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return false
	}
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case string:
		return t != ""
	default:
		return true
	}
}
