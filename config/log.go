package config

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapLevel parses the configured level. Empty means info.
func (l Log) ZapLevel() (zapcore.Level, error) {
	if l.Level == "" {
		return zapcore.InfoLevel, nil
	}
	level, err := zapcore.ParseLevel(l.Level)
	if err != nil {
		return level, fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return level, nil
}

// Build returns a development console logger, or a production JSON
// logger when JSON is set.
func (l Log) Build() (*zap.Logger, error) {
	level, err := l.ZapLevel()
	if err != nil {
		return nil, err
	}

	cfg := zap.NewDevelopmentConfig()
	if l.JSON {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
