package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"orderpipeline/internal/config"
)

// New builds the service logger. Unknown levels fall back to info; the
// "console" format switches to the human-readable encoder.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	return build(cfg).Build(zap.Fields(zap.String("service", "order-pipeline")))
}

func build(cfg config.LogConfig) zap.Config {
	lvl, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc.Encoding = "console"
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(lvl)
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zc
}
