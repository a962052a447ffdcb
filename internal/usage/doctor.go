package usage

import (
	"context"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/olliecrow/claude_code_meter/internal/config"
	"github.com/olliecrow/claude_code_meter/internal/meter"
)

type doctorDeps struct {
	creds   credentialLoader
	sources []Source
	shell   string
	now     time.Time
}

// RunDoctor checks the configuration, the credentials and every source the
// configuration would poll.
func RunDoctor(ctx context.Context, cfg config.Config) DoctorReport {
	deps := doctorDeps{
		creds: NewCredentialStore(),
		now:   time.Now(),
	}
	if cfg.Source == config.SourceCommand || cfg.FallbackCommand {
		deps.shell = defaultShell
	}
	if cfg.Source != config.SourceCommand {
		deps.sources = append(deps.sources, NewOAuthSource())
	}
	if cfg.Source == config.SourceCommand || cfg.FallbackCommand {
		deps.sources = append(deps.sources, NewCommandSource(cfg.Command))
	}
	for _, s := range deps.sources {
		defer s.Close()
	}
	return runDoctor(ctx, cfg, deps)
}

func runDoctor(ctx context.Context, cfg config.Config, deps doctorDeps) DoctorReport {
	var checks []DoctorCheck

	checks = append(checks, checkConfig(cfg))
	if deps.creds != nil {
		checks = append(checks, checkCredentials(deps.creds, deps.now))
	}
	if deps.shell != "" {
		checks = append(checks, checkShell(deps.shell))
	}

	timeout := cfg.FetchTimeout.Duration
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	for _, source := range deps.sources {
		checks = append(checks, checkSourceFetch(ctx, source, timeout))
	}
	return DoctorReport{Checks: checks}
}

// Healthy is true when at least one source produced a usable payload.
func (r DoctorReport) Healthy() bool {
	for _, c := range r.Checks {
		if strings.HasSuffix(c.Name, " fetch") && c.OK {
			return true
		}
	}
	return false
}

func checkConfig(cfg config.Config) DoctorCheck {
	if err := cfg.Validate(); err != nil {
		return DoctorCheck{Name: "config", OK: false, Details: err.Error()}
	}
	return DoctorCheck{
		Name:    "config",
		OK:      true,
		Details: fmt.Sprintf("source=%s mode=%s refresh=%s windows=%d", cfg.Source, cfg.InitialMode, cfg.RefreshInterval.Duration, len(cfg.Windows)),
	}
}

func checkCredentials(store credentialLoader, now time.Time) DoctorCheck {
	creds, err := store.Load()
	if err != nil {
		return DoctorCheck{Name: "credentials", OK: false, Details: err.Error()}
	}
	details := "token found in " + creds.Origin
	if !creds.ExpiresAt.IsZero() {
		if creds.Expired(now) {
			return DoctorCheck{
				Name:    "credentials",
				OK:      false,
				Details: fmt.Sprintf("%s but it expired at %s; run claude to refresh it", details, creds.ExpiresAt.Format(time.RFC3339)),
			}
		}
		details += fmt.Sprintf(", expires in %s", creds.ExpiresAt.Sub(now).Round(time.Minute))
	}
	return DoctorCheck{Name: "credentials", OK: true, Details: details}
}

func checkShell(shell string) DoctorCheck {
	path, err := exec.LookPath(shell)
	if err != nil {
		return DoctorCheck{Name: "shell", OK: false, Details: err.Error()}
	}
	return DoctorCheck{Name: "shell", OK: true, Details: path}
}

func checkSourceFetch(parent context.Context, source Source, timeout time.Duration) DoctorCheck {
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	name := source.Name() + " fetch"
	out, err := source.Fetch(ctx)
	if err != nil {
		return DoctorCheck{Name: name, OK: false, Details: err.Error()}
	}

	payload, ok := meter.ParsePayload(string(out))
	if !ok {
		return DoctorCheck{Name: name, OK: false, Details: "output is not a JSON object: " + summarizeBody(out)}
	}
	if payload.Rejected {
		return DoctorCheck{Name: name, OK: false, Details: "output carries the error marker; check Claude Code credentials"}
	}

	keys := make([]string, 0, len(payload.Windows))
	for k := range payload.Windows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%d%%", k, meter.RoundHalfUp(payload.Windows[k].Utilization)))
	}
	if len(parts) == 0 {
		return DoctorCheck{Name: name, OK: true, Details: "payload has no windows"}
	}
	return DoctorCheck{Name: name, OK: true, Details: strings.Join(parts, " ")}
}
