// Package logger builds the ECS formatted zap loggers used by reporters that
// are configured from YAML.
package logger

import (
	"fmt"
	"strings"

	"go.elastic.co/ecszap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Option customises the zap configuration before the logger is built.
type Option func(*zap.Config)

// WithLevel sets the minimum enabled level.
func WithLevel(level zapcore.Level) Option {
	return func(c *zap.Config) {
		c.Level = zap.NewAtomicLevelAt(level)
	}
}

// WithOutputPaths sets where log entries are written, "stdout" and
// "stderr" are accepted besides file paths.
func WithOutputPaths(paths ...string) Option {
	return func(c *zap.Config) {
		if len(paths) > 0 {
			c.OutputPaths = paths
		}
	}
}

// WithEncoderConfig replaces the encoder configuration.
func WithEncoderConfig(ec zapcore.EncoderConfig) Option {
	return func(c *zap.Config) {
		c.EncoderConfig = ec
	}
}

// New returns a production logger writing ECS compatible JSON.
func New(opts ...Option) (*zap.Logger, error) {
	conf := zap.NewProductionConfig()
	conf.Sampling = nil

	for _, opt := range opts {
		opt(&conf)
	}

	return conf.Build(ecszap.WrapCoreOption(), zap.AddCaller())
}

// ParseLogLevel parses s as a zap level. "off" maps to a level above fatal
// which disables every entry.
func ParseLogLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "trace", "debug":
		return zapcore.DebugLevel, nil
	case "info":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "critical":
		return zapcore.FatalLevel, nil
	case "off":
		return zapcore.FatalLevel + 1, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("invalid log level string %q", s)
}
