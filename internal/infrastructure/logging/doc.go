// Package logging provides structured logging for the XG parameter
// service.
//
// This package wraps Go's standard log/slog package to provide
// consistent, structured logging across the daemon. The xgparam core never
// logs; parameter changes surface through observers. Everything around it
// (MIDI bridge, fan-out, API, MCP) logs through this package.
//
// # Features
//
//   - JSON output for production (machine-parsable)
//   - Text output for development (human-readable)
//   - Default fields (service, version) on all log entries
//   - Level-based filtering (debug, info, warn, error)
//
// # Configuration
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr (stderr when mcp is enabled)
//
// # Usage
//
//	logger := logging.New(cfg.Logging, version)
//	bridgeLog := logger.Component("midi")
//	bridgeLog.Info("port opened", "port", name)
//
// Never log secrets such as the MQTT password or the InfluxDB token.
package logging
