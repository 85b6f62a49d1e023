// Package monitoring carries the logging and metrics plumbing handed to each
// stream. Nothing here is process-global: every stream gets its own Logger
// and Reporter.
package monitoring

import (
	"io"
	"log"
)

// Logger fans diagnostics out to three streams:
//
//   - ops: actionable warnings, errors and non-fatal notices
//   - diag: day-to-day diagnostics and tuning context
//   - trace: high-frequency per-poll telemetry
//
// A nil *Logger, or a stream created with a nil writer, discards output.
type Logger struct {
	ops   *log.Logger
	diag  *log.Logger
	trace *log.Logger
}

// NewLogger builds a Logger whose lines are prefixed with "[prefix] ".
func NewLogger(prefix string, ops, diag, trace io.Writer) *Logger {
	p := "[" + prefix + "] "
	return &Logger{
		ops:   newLogger(p, ops),
		diag:  newLogger(p, diag),
		trace: newLogger(p, trace),
	}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{}
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// With returns a copy of l whose streams share l's writers but carry an
// extra prefix segment, e.g. a stream ID.
func (l *Logger) With(prefix string) *Logger {
	if l == nil {
		return nil
	}
	return &Logger{
		ops:   extend(l.ops, prefix),
		diag:  extend(l.diag, prefix),
		trace: extend(l.trace, prefix),
	}
}

func extend(base *log.Logger, prefix string) *log.Logger {
	if base == nil {
		return nil
	}
	return log.New(base.Writer(), base.Prefix()+"["+prefix+"] ", base.Flags())
}

// Opsf logs to the ops stream.
func (l *Logger) Opsf(format string, args ...interface{}) {
	if l != nil && l.ops != nil {
		l.ops.Printf(format, args...)
	}
}

// Diagf logs to the diag stream.
func (l *Logger) Diagf(format string, args ...interface{}) {
	if l != nil && l.diag != nil {
		l.diag.Printf(format, args...)
	}
}

// Tracef logs to the trace stream.
func (l *Logger) Tracef(format string, args ...interface{}) {
	if l != nil && l.trace != nil {
		l.trace.Printf(format, args...)
	}
}

// TraceEnabled reports whether the trace stream is live, so callers can skip
// building expensive trace payloads.
func (l *Logger) TraceEnabled() bool {
	return l != nil && l.trace != nil
}

// DO NOT add Debugf, that's an anti-pattern. Each callsite needs to use Opsf, Diagf, or Tracef.
