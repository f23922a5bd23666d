// Package logging provides opt-in file-based logging with rotation for droidgate.
// When a log file is configured, structured logs are written to ~/.droidgate/logs/
// for debugging and troubleshooting.
//
// By default, logging is minimal and goes to stderr only; gate warnings and
// informational notices are ordinary slog records so they never affect the
// control flow of a check.
package logging
