// File: internal/logging/logger.go
// Package logging builds the zap loggers used by programs and connections.
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0

package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the program log level and format.
type Config struct {
	// Level is one of debug, info, warn or error. Empty means info.
	Level string
	// Development switches to colored console output with stack traces.
	Development bool
	// Outputs lists zap sink URLs or paths. Empty means stderr.
	Outputs []string
}

// New builds the program logger. Production output is JSON with the
// message under "msg" and ISO8601 timestamps under "ts".
func New(cfg Config) (*zap.Logger, error) {
	var level zapcore.Level
	if cfg.Level != "" {
		if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
			return nil, fmt.Errorf("log level %q: %w", cfg.Level, err)
		}
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig = encoderConfig(zc.EncoderConfig)
	zc.Sampling = nil
	if len(cfg.Outputs) > 0 {
		zc.OutputPaths = cfg.Outputs
	}
	return zc.Build()
}

func encoderConfig(ec zapcore.EncoderConfig) zapcore.EncoderConfig {
	ec.EncodeTime = zapcore.ISO8601TimeEncoder
	ec.EncodeDuration = zapcore.StringDurationEncoder
	return ec
}
