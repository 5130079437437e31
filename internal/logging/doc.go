// Package logging assembles structured slog loggers and formatting helpers used
// across llcqueue.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so engine code can tag log lines
// with the invocation's correlation ID alongside process, variable, and item
// fields. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every worker on the
// cluster writes log lines with the same shape.
package logging
