package logging

import (
	"bytes"
	"context"
	"io"

	"github.com/charmbracelet/log"
)

type contextKey struct{}

func WithLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx, or a discarding logger.
func FromContext(ctx context.Context) *log.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(contextKey{}).(*log.Logger); ok {
			return l
		}
	}
	return NewLogger(io.Discard)
}

// NewTestContext returns a context whose logger is configured by flags and
// writes into the returned buffer.
func NewTestContext(flags Flags) (context.Context, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	l := NewLogger(buf)
	Configure(l, flags)
	return WithLogger(context.Background(), l), buf
}
