package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a production zap logger. format is "json" or "console";
// an unknown level falls back to info.
func NewLogger(level, format string) (*zap.Logger, error) {
	return loggerConfig(level, format).Build()
}

// loggerConfig keeps every entry on one line: fatal paths log at error level
// and must not carry a multi-line stacktrace.
func loggerConfig(level, format string) zap.Config {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if format == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	return cfg
}

// WorkerLogger returns a child logger that names the worker on every line.
func WorkerLogger(base *zap.Logger, worker, runID string) *zap.Logger {
	return base.With(
		zap.String("worker", worker),
		zap.String("run_id", runID),
	)
}
