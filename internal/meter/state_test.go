package meter

import (
	"errors"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    DisplayMode
		wantErr bool
	}{
		{"remaining", ModeRemaining, false},
		{"USED", ModeUsed, false},
		{" used ", ModeUsed, false},
		{"left", ModeRemaining, true},
		{"", ModeRemaining, true},
	}
	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if (err != nil) != tt.wantErr {
			t.Fatalf("ParseMode(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("ParseMode(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestNewStateStartsPending(t *testing.T) {
	s := NewState(ModeUsed)
	if s.Mode != ModeUsed {
		t.Fatalf("expected configured initial mode, got %s", s.Mode)
	}
	if s.Last.Status != PollPending {
		t.Fatalf("expected pending poll result, got %v", s.Last.Status)
	}
}

func TestToggleModeIsItsOwnInverse(t *testing.T) {
	start := Reduce(NewState(ModeRemaining), PollCompleted(`{"five_hour":{"utilization":5}}`, nil))
	once := Reduce(start, ToggleMode())
	if once.Mode != ModeUsed {
		t.Fatalf("expected used after one toggle, got %s", once.Mode)
	}
	twice := Reduce(once, ToggleMode())
	if twice != start {
		t.Fatalf("two toggles should restore the state: got %+v want %+v", twice, start)
	}

	s := start
	for i := 0; i < 7; i++ {
		s = Reduce(s, ToggleMode())
		if s.Last != start.Last {
			t.Fatalf("toggle %d changed the poll result", i+1)
		}
	}
}

func TestPollCompletedWithErrorIsFailureEvenForValidJSON(t *testing.T) {
	s := Reduce(NewState(ModeRemaining), PollCompleted(`{"five_hour":{"utilization":5}}`, errors.New("exit status 1")))
	if s.Last.Status != PollFailure {
		t.Fatalf("expected failure, got %v", s.Last.Status)
	}
	if s.Last.Output != "" {
		t.Fatalf("failure must not keep output, got %q", s.Last.Output)
	}
	if s.Last.Reason != "exit status 1" {
		t.Fatalf("expected failure reason to be kept, got %q", s.Last.Reason)
	}
}

func TestPollCompletedStoresOutputVerbatimAndKeepsMode(t *testing.T) {
	s := Reduce(NewState(ModeUsed), PollCompleted("not json at all", nil))
	if s.Last.Status != PollSuccess || s.Last.Output != "not json at all" {
		t.Fatalf("expected raw output stored as success, got %+v", s.Last)
	}
	if s.Mode != ModeUsed {
		t.Fatalf("poll result must not change mode, got %s", s.Mode)
	}
}

func TestPollCompletedReplacesEarlierFailure(t *testing.T) {
	s := Reduce(NewState(ModeRemaining), PollCompleted("", errors.New("boom")))
	s = Reduce(s, PollCompleted(`{}`, nil))
	if s.Last.Status != PollSuccess || s.Last.Reason != "" {
		t.Fatalf("expected success to replace failure, got %+v", s.Last)
	}
}

func TestUnknownEventIsNoop(t *testing.T) {
	start := Reduce(NewState(ModeUsed), PollCompleted(`{}`, nil))
	got := Reduce(start, Event{Type: "HOVER", Output: "ignored", Error: true})
	if got != start {
		t.Fatalf("unknown event changed state: %+v -> %+v", start, got)
	}
	if got := Reduce(start, Event{}); got != start {
		t.Fatalf("empty event changed state")
	}
}
