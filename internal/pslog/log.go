// Package pslog provides JSON-lines structured logging for the predictor
// daemon and CLI.
package pslog

import (
	"io"
	"log/slog"
	"os"
)

// Config configures the structured logger.
type Config struct {
	// Output is the writer for log output (default: os.Stderr).
	Output io.Writer

	// Level is the minimum log level (default: LevelInfo).
	Level slog.Level

	// Debug enables debug level logging (overrides Level).
	Debug bool
}

// DefaultConfig returns the default logging configuration.
func DefaultConfig() *Config {
	return &Config{
		Output: os.Stderr,
		Level:  slog.LevelInfo,
	}
}

// New creates a JSON-lines structured logger. Timestamps are emitted under
// the "ts" key rather than slog's default "time" key.
//
// Log levels:
//   - debug: verbose, enabled via PSCUE_DEBUG=1
//   - info: startup, shutdown, config reload
//   - warn: non-fatal issues (clamped config, dropped saves)
//   - error: fatal issues requiring attention
func New(cfg *Config) *slog.Logger {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	level := cfg.Level
	if cfg.Debug {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				a.Key = "ts"
			}
			return a
		},
	}

	return slog.New(slog.NewJSONHandler(output, opts))
}

// NewFromEnv creates a logger configured from PSCUE_DEBUG.
func NewFromEnv() *slog.Logger {
	cfg := DefaultConfig()
	if os.Getenv("PSCUE_DEBUG") == "1" || os.Getenv("PSCUE_DEBUG") == "true" {
		cfg.Debug = true
	}
	return New(cfg)
}

// StartupInfo holds information logged once at daemon startup.
type StartupInfo struct {
	Version      string
	ConfigPath   string
	DatabasePath string
	SocketPath   string
	PID          int
}

// LogStartup logs daemon startup information.
func LogStartup(logger *slog.Logger, info StartupInfo) {
	logger.Info("predictor daemon started",
		"version", info.Version,
		"config_path", info.ConfigPath,
		"database_path", info.DatabasePath,
		"socket_path", info.SocketPath,
		"pid", info.PID,
	)
}

// LogShutdown logs daemon shutdown.
func LogShutdown(logger *slog.Logger, reason string) {
	logger.Info("predictor daemon shutting down", "reason", reason)
}

// LogConfigWarning logs a single configuration fallback (warn
// once, never fail startup).
func LogConfigWarning(logger *slog.Logger, field, reason string) {
	logger.Warn("configuration value out of range; using default", "field", field, "reason", reason)
}

// LogPersistenceError logs a persistence failure. These are
// swallowed on the hot path and retried by the autosave timer.
func LogPersistenceError(logger *slog.Logger, operation string, err error) {
	logger.Error("persistence operation failed", "operation", operation, "error", err)
}

// LogProtocolError logs an IPC protocol error. The connection is
// always dropped; this is purely diagnostic.
func LogProtocolError(logger *slog.Logger, reason string, err error) {
	logger.Warn("ipc protocol error; dropping connection", "reason", reason, "error", err)
}
