// Package logging provides structured logging for Acre Intrusion Core.
//
// This package wraps Go's standard log/slog package so every component
// logs with the same default fields (service, version).
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// # Usage
//
//	logger := logging.New(cfg.Logging, "1.0.0")
//	logger.Info("area armed", "area_id", "1", "mode", "full_set")
//
// # Security
//
// Never log PINs, hashes, salts, or session tokens. Identities (user
// names) may be logged.
package logging
