package logger

import (
	"context"

	"go.uber.org/zap"
)

type loggerContextKey struct{}

// NewContextWithLogger returns a new context with log added.
func NewContextWithLogger(ctx context.Context, log *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, log)
}

// FromContext returns the zap.Logger associated with ctx, or a no-op logger
// if none has been assigned.
func FromContext(ctx context.Context) *zap.Logger {
	l, ok := ctx.Value(loggerContextKey{}).(*zap.Logger)
	if !ok || l == nil {
		return zap.NewNop()
	}
	return l
}
