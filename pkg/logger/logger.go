// Package logger builds the structured zap loggers used across the planner.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production logger with ISO8601 timestamps.
func New(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.LevelKey = "level"
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	return config.Build()
}

// NewSugared wraps New for callers preferring the sugared API.
func NewSugared(verbose bool) (*zap.SugaredLogger, error) {
	log, err := New(verbose)
	if err != nil {
		return nil, err
	}
	return log.Sugar(), nil
}
