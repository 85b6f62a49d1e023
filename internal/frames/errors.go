package frames

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrConfig is matched by every *ConfigError.
	ErrConfig = errors.New("invalid stream configuration")
	// ErrFormat is matched by every *FormatError.
	ErrFormat = errors.New("malformed data line")
	// ErrTimeout is matched by every *TimeoutError.
	ErrTimeout = errors.New("timed out waiting for frame")
)

// ConfigError reports a stream that cannot be opened: a missing data file,
// out-of-range rates or window, or a file without the configured first data
// line.
type ConfigError struct {
	Path string
	Err  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("stream %s: %v", e.Path, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// FormatError reports a data line whose sample index cannot be read.
type FormatError struct {
	Line   string // raw offending line
	Column int
	Field  string // raw field value; empty when Column is out of bounds
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("column %d: %s: %q", e.Column, e.Reason, e.Line)
}

func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// TimeoutError reports that no frame was produced within the timeout budget
// of a non-optional stream.
type TimeoutError struct {
	Path    string
	Elapsed time.Duration
	Budget  time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("couldn't retrieve a single frame from %s after %s (timeout %s)",
		e.Path, e.Elapsed.Round(time.Millisecond), e.Budget)
}

func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }
