// Package logging provides structured logging with per-module log level configuration.
//
// # Overview
//
// The logging system uses Go's slog package with automatic output routing:
//   - Logs to systemd journal when available (Linux systems with journald)
//   - Logs to stdout when a terminal, pipe, or file is connected
//   - Logs to both when both are available
//   - Appends to a daily file (<dir>/YYYY-MM-DD.log) when a DailyFile is given
//   - Feeds a ring buffer and callback for live tailing over SSE
//
// # Usage
//
// Initialize the logging system once at startup:
//
//	file := logging.NewDailyFile("data/logs")
//	logging.Initialize(logging.Config{
//		Level:  "info",      // Global log level: debug, info, warn, error
//		Format: "text",      // Output format: text or json
//		Modules: map[string]string{
//			"gpio": "debug",  // Per-module overrides
//			"api":  "warn",
//		},
//	}, file)
//
// Get a logger for your module:
//
//	logger := logging.GetLogger("mymodule")
//	logger.Info("Starting up", "port", 8080)
//	logger.Debug("Details", "config", cfg)
//	logger.Warn("Something unusual", "error", err)
//	logger.Error("Failed", "error", err)
//
// Add contextual attributes:
//
//	logger := logging.GetLogger("gpio").With("pin", 17)
//	logger.Info("Configured")  // Includes pin in all logs
//
// # Log Levels
//
//	debug - Verbose debugging information
//	info  - General operational messages
//	warn  - Warning conditions
//	error - Error conditions
//
// # Output Destinations
//
// Every module logger fans out through a [MultiHandler] to:
//
//	stdout        text or JSON, when stdout is attached
//	journal       when systemd-journald is reachable
//	daily file    <data>/logs/YYYY-MM-DD.log
//	ring buffer   history and live tail for /api/logs/stream
//
// Journal availability is checked via [github.com/coreos/go-systemd/v22/journal.Enabled].
//
// # Daily Files
//
// Each line is written to the file for the date of its timestamp:
//
//	2025-01-27 10:30:00,123 INFO gpio: gpio_write pin=17 from=0 to=1 hw_ok=1
//
// A [Rotator] rebinds the file at local midnight using robfig/cron.
//
// # Viewing Logs
//
// When running as a systemd service or on a system with journald:
//
//	journalctl -t pinpanel              # All pinpanel logs
//	journalctl -t pinpanel -f           # Follow live
//	journalctl -t pinpanel --since "5m" # Last 5 minutes
//	journalctl -t pinpanel -p err       # Errors only
//
// Filter by structured fields:
//
//	journalctl -t pinpanel MODULE=gpio
//	journalctl -t pinpanel PIN=17
//
// # Configuration
//
// Log levels can be set globally or per-module. Module-specific levels
// override the global level for that module only.
//
// Example TOML configuration:
//
//	[logging]
//	level = "info"
//	format = "text"
//
//	[logging.modules]
//	gpio = "debug"
//	api = "warn"
//	mqtt = "error"
package logging
