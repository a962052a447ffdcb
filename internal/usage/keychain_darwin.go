//go:build darwin

package usage

import (
	"context"
	"os/exec"
	"strings"
	"time"
)

// readKeychainPassword asks the security CLI for a generic password.
func readKeychainPassword(service string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, "security", "find-generic-password", "-s", service, "-w").Output()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}
