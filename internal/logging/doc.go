// Package logging provides structured logging for blescan.
//
// This package wraps a zap logger with convenience functions for the events
// the service produces: scan ticks, skipped peripherals and HTTP requests.
//
// # Log Levels
//
//   - Debug: per-tick details, skipped peripherals, websocket pings
//   - Info: startup, scan start/stop, HTTP requests
//   - Warn: transient radio failures, circuit breaker changes
//   - Error: failures that stop a component
//
// # Configuration
//
// Initialize logging at startup:
//
//	if err := logging.Initialize("info"); err != nil {
//	    return err
//	}
//	defer logging.Sync()
//
// An empty level falls back to the BLESCAN_LOG_LEVEL environment variable.
// When neither is set, logging is silent, which is what the client CLI wants.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
