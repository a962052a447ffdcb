package usage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

const defaultShell = "/bin/sh"

// CommandSource runs a shell command and treats its stdout as the payload.
// A non-zero exit is a failed poll.
type CommandSource struct {
	command string
	shell   string
}

func NewCommandSource(command string) *CommandSource {
	return &CommandSource{command: command, shell: defaultShell}
}

func (s *CommandSource) Name() string {
	return "command"
}

func (s *CommandSource) Shell() string { return s.shell }

func (s *CommandSource) Fetch(ctx context.Context) ([]byte, error) {
	if strings.TrimSpace(s.command) == "" {
		return nil, errors.New("no command configured")
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, s.shell, "-c", s.command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Children of the shell may hold the pipes open after it is killed.
	cmd.WaitDelay = 500 * time.Millisecond

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("usage command: %w", ctxErr)
		}
		if detail := summarizeBody(stderr.Bytes()); detail != "" {
			return nil, fmt.Errorf("usage command failed: %w: %s", err, detail)
		}
		return nil, fmt.Errorf("usage command failed: %w", err)
	}
	return stdout.Bytes(), nil
}

func (s *CommandSource) Close() error {
	return nil
}
