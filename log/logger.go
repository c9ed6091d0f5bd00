// Package log defines the error reporter / logger collaborator: core
// logic never depends on log output, but every background task logs
// structurally through this interface.
package log

import (
	"go.uber.org/zap"
)

// Logger is the structured logging contract every cppdbc package accepts,
// reshaped around structured fields instead of Printf-style formatting.
type Logger interface {
	Debugw(msg string, keysAndValues ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Errorw(msg string, keysAndValues ...interface{})
}

// zapLogger adapts *zap.SugaredLogger to the Logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

// NewZap builds a Logger backed by a production zap configuration. Falls
// back to a no-op logger if zap itself cannot build (e.g. bad sink
// config) so logging failures never propagate into connection failures.
func NewZap() Logger {
	l, err := zap.NewProduction()
	if err != nil {
		return NoOp()
	}
	return &zapLogger{s: l.Sugar()}
}

// NewZapFrom wraps an already-configured *zap.Logger.
func NewZapFrom(l *zap.Logger) Logger {
	return &zapLogger{s: l.Sugar()}
}

func (z *zapLogger) Debugw(msg string, kv ...interface{}) { z.s.Debugw(msg, kv...) }
func (z *zapLogger) Infow(msg string, kv ...interface{})  { z.s.Infow(msg, kv...) }
func (z *zapLogger) Warnw(msg string, kv ...interface{})  { z.s.Warnw(msg, kv...) }
func (z *zapLogger) Errorw(msg string, kv ...interface{}) { z.s.Errorw(msg, kv...) }

type noopLogger struct{}

// NoOp returns a Logger that discards everything, for tests and for
// callers who want the core's zero-overhead default.
func NoOp() Logger { return noopLogger{} }

func (noopLogger) Debugw(string, ...interface{}) {}
func (noopLogger) Infow(string, ...interface{})  {}
func (noopLogger) Warnw(string, ...interface{})  {}
func (noopLogger) Errorw(string, ...interface{}) {}
