package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel accepts the zap level names
func ParseLevel(level string) (zapcore.Level, error) {
	return zapcore.ParseLevel(level)
}

// NewLogger builds the process logger. The returned level can be changed at
// runtime; the config watcher does so when LOG_LEVEL changes.
func NewLogger(cfg *Config) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if l, err := ParseLevel(cfg.LogLevel); err == nil {
		level.SetLevel(l)
	}

	var zc zap.Config
	if cfg.IsDevelopment() {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = level

	logger, err := zc.Build(zap.Fields(zap.String("environment", cfg.Environment)))
	if err != nil {
		return nil, level, err
	}
	return logger, level, nil
}
