// Package logging defines a minimal structured-logging interface used across
// orgkeeper, with a log/slog backed implementation.
package logging

import "context"

// Logger is a context-aware, structured logger.
//
// The variadic args are interpreted as key–value pairs, e.g.:
//
//	log.Info(ctx, "company created", "company_id", id, "size", size)
type Logger interface {
	// Debug logs diagnostics that are off in production.
	Debug(ctx context.Context, msg string, args ...any)
	// Info logs normal operations such as a completed write.
	Info(ctx context.Context, msg string, args ...any)
	// Warn logs a rejected but expected condition.
	Warn(ctx context.Context, msg string, args ...any)
	// Error logs a failure the caller will see as an error.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key–value pairs.
	With(args ...any) Logger
}

// Nop discards everything. Handy for tests and for callers that do not care.
type Nop struct{}

func (Nop) Debug(context.Context, string, ...any) {}
func (Nop) Info(context.Context, string, ...any)  {}
func (Nop) Warn(context.Context, string, ...any)  {}
func (Nop) Error(context.Context, string, ...any) {}
func (n Nop) With(...any) Logger                  { return n }
