// Package logging provides structured logging for the HAP engine.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the engine and its modules.
//
// # Levels
//
// On top of slog's debug, info, warn and error levels the engine uses:
//
//   - notice: between info and warn, for noteworthy but normal events
//   - fatal: above error; Fatal logs and then terminates the process
//     with the exit code supplied by the caller
//
// # Configuration
//
// Logging is configured via the logging section of hap.yaml:
//
//	logging:
//	  level: "info"      # debug, info, notice, warn, error, fatal
//	  format: "text"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("engine starting", "name", "HAP")
//	logger.Notice("module unloaded", "module", "video")
//	logger.Fatal(2, "cannot continue", "error", err)
package logging
