// Package logger provides structured logging for vedis.
//
// This package builds log/slog loggers:
//
//   - logger.go: handler construction and the process-wide level
//   - redact.go: truncation of bulky attributes (stored values, requests)
//
// The level is held in a shared slog.LevelVar so it can be changed at
// runtime, e.g. when the configuration file is reloaded.
package logger
