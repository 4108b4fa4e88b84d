// Package logging provides structured logging for the attribute server.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the server. It provides both general logging functions
// and specialized functions for registry and transport events.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Attribute reads and writes, per-request outcomes
//   - Info: Registration, state restore, connections
//   - Warn: Recovered problems (unreadable state file, refused requests)
//   - Error: Failed registrations, startup failures
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Restored attribute state",
//	    zap.Int("values", 12),
//	)
//
// # Specialized Logging
//
//	logging.LogRegistration("temperature", "DevDouble", "READ_WRITE")
//	logging.LogAttributeAccess("write", "temperature", "21.5")
//	logging.LogConnection(remoteAddr, "websocket_upgraded")
//	logging.LogRequest(remoteAddr, "read", "temperature", "")
//
// # Configuration
//
// Initialize logging at server startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given and ATTRSTORE_LOG_LEVEL is unset, logging is silent.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap logger
// handles synchronization automatically.
package logging
