package core

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Context keys for load options
type contextKey string

const (
	loggerKey         contextKey = "logger"
	suppressHeaderKey contextKey = "suppressHeader"
)

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, log logrus.FieldLogger) context.Context {
	return context.WithValue(ctx, loggerKey, log)
}

// loggerFromContext returns the context logger, or the standard logger when none is set.
func loggerFromContext(ctx context.Context) logrus.FieldLogger {
	if log, ok := ctx.Value(loggerKey).(logrus.FieldLogger); ok && log != nil {
		return log
	}
	return logrus.StandardLogger()
}

// WithSuppressHeader marks the context so that no header is printed before results.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	val := ctx.Value(suppressHeaderKey)
	if val == nil {
		return false // default: show headers
	}
	suppress, ok := val.(bool)
	return ok && suppress
}
