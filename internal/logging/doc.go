// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// Loggers are plain [log/slog] loggers tagged with a "module" attribute.
// Console output goes to stderr so that stdout stays free for the wrapped
// tool, which may be writing media to pipe:1. When journal output is enabled
// and journald is reachable, records are sent to both.
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"process": "debug",  // Per-module overrides
//			"jobs":    "warn",
//		},
//	})
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("process")
//	logger.Info("Process started", "pid", pid)
//
// Loggers obtained before Initialize are reconfigured in place.
//
// # Viewing Logs
//
// With journal = true:
//
//	journalctl -t ffexec -f
//	journalctl -t ffexec MODULE=jobs JOB=thumbnail
//
// # Configuration
//
//	[logging]
//	level = "info"
//	format = "text"
//	journal = false
//
//	[logging.modules]
//	process = "debug"
//	jobs = "warn"
package logging
