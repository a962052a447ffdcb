package usage

import (
	"context"
	"errors"
)

var (
	// ErrNoCredentials means no Claude Code OAuth token could be found.
	ErrNoCredentials = errors.New("no Claude Code credentials found")
	// ErrRejected means the usage endpoint refused the token.
	ErrRejected = errors.New("usage endpoint rejected the credentials")
)

// RejectedPayload is the poll output reported when authentication fails.
// The renderer shows the auth error panel for it.
var RejectedPayload = []byte(`{"error": true}`)

// Source produces one raw usage payload per call.
type Source interface {
	Name() string
	Fetch(context.Context) ([]byte, error)
	Close() error
}

// IsAuthFailure reports whether err should surface as a rejected payload
// rather than as a failed poll.
func IsAuthFailure(err error) bool {
	return errors.Is(err, ErrRejected) || errors.Is(err, ErrNoCredentials)
}
