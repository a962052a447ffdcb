package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/olliecrow/claude_code_meter/internal/config"
	"github.com/olliecrow/claude_code_meter/internal/logging"
)

// Fetcher composes a primary source with an optional fallback and maps
// authentication failures onto the rejected payload.
type Fetcher struct {
	primary  Source
	fallback Source
}

func NewFetcher(primary, fallback Source) *Fetcher {
	return &Fetcher{primary: primary, fallback: fallback}
}

// NewFetcherFromConfig builds the sources cfg asks for.
func NewFetcherFromConfig(cfg config.Config) *Fetcher {
	if cfg.Source == config.SourceCommand {
		return NewFetcher(NewCommandSource(cfg.Command), nil)
	}
	var fallback Source
	if cfg.FallbackCommand {
		fallback = NewCommandSource(cfg.Command)
	}
	return NewFetcher(NewOAuthSource(), fallback)
}

func (f *Fetcher) Name() string {
	if f.primary == nil {
		return "none"
	}
	return f.primary.Name()
}

// Fetch returns the next poll output. An error means the poll failed; a
// rejected or missing token is not an error but the rejected payload.
func (f *Fetcher) Fetch(ctx context.Context) ([]byte, error) {
	logger := logging.FromContext(ctx)
	start := time.Now()

	out, err := fetchWithFallback(ctx, f.primary, f.fallback)
	elapsed := time.Since(start).Round(time.Millisecond)
	switch {
	case err == nil:
		logger.Debug("poll finished", "source", f.Name(), "duration", elapsed, "bytes", len(out))
		return out, nil
	case IsAuthFailure(err):
		logger.Warn("usage credentials unavailable", "source", f.Name(), "err", err)
		return append([]byte(nil), RejectedPayload...), nil
	default:
		logger.Debug("poll failed", "source", f.Name(), "duration", elapsed, "err", err)
		return nil, err
	}
}

func fetchWithFallback(ctx context.Context, primary Source, fallback Source) ([]byte, error) {
	if primary == nil {
		return nil, fmt.Errorf("missing primary source")
	}

	out, primaryErr := primary.Fetch(ctx)
	if primaryErr == nil {
		return out, nil
	}

	if fallback == nil {
		return nil, fmt.Errorf("primary source %q failed: %w", primary.Name(), primaryErr)
	}

	out, fallbackErr := fallback.Fetch(ctx)
	if fallbackErr == nil {
		logging.FromContext(ctx).Warn("primary source failed, used fallback",
			"primary", primary.Name(), "fallback", fallback.Name(), "err", primaryErr)
		return out, nil
	}

	return nil, fmt.Errorf(
		"primary source %q failed: %w; fallback source %q failed: %v",
		primary.Name(), primaryErr, fallback.Name(), fallbackErr,
	)
}

func (f *Fetcher) Close() error {
	var firstErr error
	if f.primary != nil {
		if err := f.primary.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if f.fallback != nil {
		if err := f.fallback.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (f *Fetcher) Primary() Source {
	return f.primary
}

func (f *Fetcher) Fallback() Source {
	return f.fallback
}
