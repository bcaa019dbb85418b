// Package logging assembles structured slog loggers and formatting helpers used
// across the checkpoint tool.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so sequence steps automatically tag log
// lines with run IDs, step names, and checkpoint names. The package also
// provides a no-op logger for tests and wiring code that cannot fail.
package logging
