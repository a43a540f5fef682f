// Package logging assembles the structured slog loggers used across the
// pipeline services.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so stage code can tag log
// lines with queue item IDs, stages, lanes, and correlation IDs. The
// package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
