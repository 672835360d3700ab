package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

// loggerKey is the context key for the logger.
const loggerKey contextKey = iota

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *zerolog.Logger) context.Context {
	if logger == nil {
		logger = Default()
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the logger from context, or returns the default logger.
func FromContext(ctx context.Context) *zerolog.Logger {
	if ctx == nil {
		return Default()
	}
	if logger, ok := ctx.Value(loggerKey).(*zerolog.Logger); ok && logger != nil {
		return logger
	}
	return Default()
}

// WithRegistry adds registry context to the logger.
func WithRegistry(ctx context.Context, registry string) context.Context {
	logger := FromContext(ctx).With().Str("registry", registry).Logger()
	return WithLogger(ctx, &logger)
}

// WithStage adds pipeline stage context to the logger.
func WithStage(ctx context.Context, stage string) context.Context {
	logger := FromContext(ctx).With().Str("stage", stage).Logger()
	return WithLogger(ctx, &logger)
}
