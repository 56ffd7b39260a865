// Package observability provides logging, metrics, and tracing.
package observability

import (
	"log/slog"
	"os"
	"strings"

	"github.com/fairyhunter13/prediction-validator/internal/config"
)

var logLevel = new(slog.LevelVar)

// SetupLogger configures a JSON slog logger with environment fields.
func SetupLogger(cfg config.Config) *slog.Logger {
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		logLevel.Set(slog.LevelDebug)
	case "warn":
		logLevel.Set(slog.LevelWarn)
	case "error":
		logLevel.Set(slog.LevelError)
	default:
		logLevel.Set(slog.LevelInfo)
	}
	if cfg.IsDev() {
		logLevel.Set(slog.LevelDebug)
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
	return logger
}

// Quiesce raises the log level past Error so that draining workers stop
// emitting output once shutdown has started. The shutdown banner itself is
// printed by the supervisor before calling this.
func Quiesce() {
	logLevel.Set(slog.LevelError + 4)
}
