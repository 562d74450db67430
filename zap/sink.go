package zap

import (
	"context"

	"github.com/inspector-go/metrics"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultMessage is the log message of every record.
const DefaultMessage = "metrics"

var _ metrics.Sink = (*Sink)(nil)

// Sink writes every record as one log entry. The record fields are inlined
// into the entry context under their wire names.
type Sink struct {
	logger  *zap.Logger
	level   zapcore.Level
	message string
}

// Option configures a Sink.
type Option func(*Sink)

// WithLevel sets the level of record entries, info by default.
func WithLevel(level zapcore.Level) Option {
	return func(s *Sink) { s.level = level }
}

// WithMessage sets the message of record entries.
func WithMessage(msg string) Option {
	return func(s *Sink) {
		if msg != "" {
			s.message = msg
		}
	}
}

// New returns a sink logging to logger.
func New(logger *zap.Logger, opts ...Option) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Sink{
		logger:  logger,
		level:   zapcore.InfoLevel,
		message: DefaultMessage,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Report logs rec.
func (s *Sink) Report(_ context.Context, rec metrics.Record) error {
	if ce := s.logger.Check(s.level, s.message); ce != nil {
		ce.Write(zap.Inline(rec))
	}
	return nil
}
