package logging

import (
	"context"

	"github.com/rs/zerolog"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey int

const loggerKey contextKey = 0

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

// HasLogger reports whether ctx carries its own logger.
func HasLogger(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	_, ok := ctx.Value(loggerKey).(*zerolog.Logger)
	return ok
}

// WithRunID tags the context logger with the publishing run identifier.
func WithRunID(ctx context.Context, runID string) context.Context {
	return WithField(ctx, "run_id", runID)
}

// WithFields adds structured fields to the logger in the context.
func WithFields(ctx context.Context, fields map[string]any) context.Context {
	logCtx := FromContext(ctx).With()
	for key, value := range fields {
		logCtx = addField(logCtx, key, value)
	}
	newLogger := logCtx.Logger()
	return WithLogger(ctx, &newLogger)
}

// WithField adds a single field to the logger in the context.
func WithField(ctx context.Context, key string, value any) context.Context {
	newLogger := addField(FromContext(ctx).With(), key, value).Logger()
	return WithLogger(ctx, &newLogger)
}

// WithPath adds the source document path to the context logger.
func WithPath(ctx context.Context, path string) context.Context {
	return WithField(ctx, "path", path)
}

// WithSpace adds the wiki space key to the context logger.
func WithSpace(ctx context.Context, space string) context.Context {
	return WithField(ctx, "space", space)
}

// WithTitle adds the page title to the context logger.
func WithTitle(ctx context.Context, title string) context.Context {
	return WithField(ctx, "title", title)
}

// WithOperation adds operation context to the logger.
func WithOperation(ctx context.Context, operation string) context.Context {
	return WithField(ctx, "operation", operation)
}
