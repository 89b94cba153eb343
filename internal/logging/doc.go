// Package logging assembles structured slog loggers and formatting helpers used
// across bsrbot components.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so command handling code can
// automatically tag log lines with the pipeline stage and the per-command
// correlation ID. The package also provides a no-op logger for tests and
// wiring code that cannot fail.
package logging
