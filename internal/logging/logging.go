// Package logging configures the process-wide structured logger. Every
// dispatch step logs through a child logger carrying the correlation
// fields so log lines for one message can be grepped together.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON-encoded zap logger writing to stdout, matching the
// original system's JSON formatter: timestamp, level, logger, message plus
// whatever correlation fields callers attach via With.
func New() *zap.Logger {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.LevelKey = "level"
	encoderCfg.MessageKey = "message"
	encoderCfg.NameKey = "logger"

	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderCfg),
		zapcore.AddSync(os.Stdout),
		zapcore.InfoLevel,
	)

	return zap.New(core)
}

// WithCorrelation returns a child logger carrying the standard message-scoped
// fields used across the dispatcher.
func WithCorrelation(l *zap.Logger, deliveryID, repo string, prNumber int, sha, correlationID string) *zap.Logger {
	return l.With(
		zap.String("delivery_id", deliveryID),
		zap.String("repo", repo),
		zap.Int("pr_number", prNumber),
		zap.String("sha", sha),
		zap.String("correlation_id", correlationID),
	)
}
