// Package logging provides structured logging for Holocron.
//
// It wraps log/slog so every component logs the same way:
//
//   - JSON output for production, text output for development
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// Configured via the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr, discard
//
// Usage:
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("subscription attached", "session_id", id)
//	wsLog := logger.With("component", "websocket")
package logging
