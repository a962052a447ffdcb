package usage

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestCommandSourceReturnsStdout(t *testing.T) {
	s := NewCommandSource(`printf '{"five_hour":{"utilization":%d}}' 42`)
	out, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(out) != `{"five_hour":{"utilization":42}}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCommandSourceEchoFallbackSucceeds(t *testing.T) {
	s := NewCommandSource(`false || echo '{"error": true}'`)
	out, err := s.Fetch(context.Background())
	if err != nil {
		t.Fatalf("the echo fallback exits zero, got %v", err)
	}
	if strings.TrimSpace(string(out)) != `{"error": true}` {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestCommandSourceNonZeroExitFails(t *testing.T) {
	s := NewCommandSource(`echo '{"five_hour":{}}'; echo 'token lookup failed' >&2; exit 3`)
	_, err := s.Fetch(context.Background())
	if err == nil {
		t.Fatalf("expected failure on non-zero exit")
	}
	if !strings.Contains(err.Error(), "exit status 3") || !strings.Contains(err.Error(), "token lookup failed") {
		t.Fatalf("expected exit status and stderr in error: %v", err)
	}
	if IsAuthFailure(err) {
		t.Fatalf("command failures are transport failures")
	}
}

func TestCommandSourceHonorsContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewCommandSource("sleep 5").Fetch(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
}

func TestCommandSourceRequiresCommand(t *testing.T) {
	if _, err := NewCommandSource("  ").Fetch(context.Background()); err == nil {
		t.Fatalf("expected error for empty command")
	}
}
