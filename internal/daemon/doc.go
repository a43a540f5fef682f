// Package daemon hosts the long-running pipeline process: it owns the
// queue store, runs the workflow manager, serves the HTTP API the CLI
// talks to, and enforces single-instance execution with a lock file.
package daemon
