package logging

import (
	"context"
	"io"
	"log/slog"
)

type ctxKey struct{}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

// With returns a copy of ctx carrying logger
func With(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// From returns the logger stored in ctx. When ctx has no logger, slog.Default
// is returned, or a discarding logger if ctx is nil.
func From(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return discard
	}
	if logger, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && logger != nil {
		return logger
	}
	return slog.Default()
}
