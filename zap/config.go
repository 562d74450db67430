package zap

import (
	"fmt"
	"time"

	"github.com/facebookgo/clock"
	"github.com/inspector-go/metrics"
	"github.com/inspector-go/metrics/internal/logger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	validator "gopkg.in/validator.v2"
	yaml "gopkg.in/yaml.v2"
)

// Configuration is a configuration for a logging reporter.
type Configuration struct {
	// Interval between two reports.
	Interval time.Duration `yaml:"interval" validate:"nonzero"`

	// Level of the record entries, "info" if empty.
	Level string `yaml:"level"`

	// Message of the record entries, DefaultMessage if empty.
	Message string `yaml:"message"`

	// Tags are added to every record.
	Tags map[string]string `yaml:"tags"`

	// DurationUnit is the unit of timer distributions, milliseconds if zero.
	DurationUnit time.Duration `yaml:"durationUnit"`

	// Logger configures the logger built when none is passed to NewReporter.
	Logger LoggerConfiguration `yaml:"logger"`
}

// LoggerConfiguration configures an ECS JSON logger.
type LoggerConfiguration struct {
	Level       string   `yaml:"level"`
	OutputPaths []string `yaml:"outputPaths"`
}

// ConfigurationOptions carries the dependencies that can not be expressed in
// YAML.
type ConfigurationOptions struct {
	// Logger receives the records, when nil one is built from the Logger
	// section of the configuration.
	Logger *zap.Logger
	// Clock defaults to the wall clock.
	Clock clock.Clock
	// Scheduler defaults to a ticker scheduler on Clock.
	Scheduler metrics.Scheduler
}

// ParseConfiguration decodes and validates a YAML configuration. Unknown
// keys are rejected.
func ParseConfiguration(data []byte) (Configuration, error) {
	var c Configuration
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return Configuration{}, fmt.Errorf("decoding logging reporter configuration: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

// Validate checks the configuration.
func (c Configuration) Validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("invalid logging reporter configuration: %w", err)
	}
	if c.Interval < 0 {
		return fmt.Errorf("%w: %v", metrics.ErrInvalidInterval, c.Interval)
	}
	return nil
}

// NewReporter creates a stopped reporter logging records.
func (c Configuration) NewReporter(configOpts ConfigurationOptions) (*metrics.Reporter, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if c.Level != "" {
		parsed, err := logger.ParseLogLevel(c.Level)
		if err != nil {
			return nil, err
		}
		level = parsed
	}

	log := configOpts.Logger
	if log == nil {
		var opts []logger.Option
		if c.Logger.Level != "" {
			loggerLevel, err := logger.ParseLogLevel(c.Logger.Level)
			if err != nil {
				return nil, err
			}
			opts = append(opts, logger.WithLevel(loggerLevel))
		}
		opts = append(opts, logger.WithOutputPaths(c.Logger.OutputPaths...))

		built, err := logger.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("building logger: %w", err)
		}
		log = built
	}

	return metrics.NewReporter(metrics.ReporterOptions{
		Sink:         New(log, WithLevel(level), WithMessage(c.Message)),
		Interval:     c.Interval,
		Tags:         c.Tags,
		Clock:        configOpts.Clock,
		Scheduler:    configOpts.Scheduler,
		DurationUnit: c.DurationUnit,
		Logger:       log,
	})
}
