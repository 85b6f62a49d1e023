package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Defaults applied by the Get* accessors when a field is unset.
const (
	DefaultSampleIndexColumn   = 0
	DefaultWindowSizeInSeconds = 1
	DefaultFirstDataLine       = 1
	DefaultTimeoutInSeconds    = 10.0
)

// StreamConfig describes one frame stream. Fields are pointers so that a
// config file only needs to name what it overrides; the Get* methods supply
// the defaults for anything omitted. FrameRate and SampleRate have no
// default and must be set.
type StreamConfig struct {
	// Path is the data file to tail. Only used by config files that list
	// several streams.
	Path string `yaml:"path,omitempty"`

	FrameRate           *int     `yaml:"frame_rate,omitempty"`  // frames per second
	SampleRate          *int     `yaml:"sample_rate,omitempty"` // samples per second
	SampleIndexColumn   *int     `yaml:"sample_index_column,omitempty"`
	WindowSizeInSeconds *int     `yaml:"window_size_in_seconds,omitempty"`
	FirstDataLine       *int     `yaml:"first_data_line,omitempty"` // 1-based
	TimeoutInSeconds    *float64 `yaml:"timeout_in_seconds,omitempty"`
	IsFrameOptional     *bool    `yaml:"is_frame_optional,omitempty"`
}

// FileConfig is the root of a config file.
type FileConfig struct {
	Streams []StreamConfig `yaml:"streams"`
}

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// NewStreamConfig returns a config with the two required rates set and every
// other field left to its default.
func NewStreamConfig(frameRate, sampleRate int) StreamConfig {
	return StreamConfig{
		FrameRate:  Int(frameRate),
		SampleRate: Int(sampleRate),
	}
}

// FieldError reports an invalid configuration value.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

// Validate checks that the configuration values are valid.
func (c StreamConfig) Validate() error {
	if c.SampleRate == nil {
		return &FieldError{Field: "sample_rate", Reason: "is required"}
	}
	if c.FrameRate == nil {
		return &FieldError{Field: "frame_rate", Reason: "is required"}
	}
	if *c.SampleRate < 1 || *c.FrameRate < 1 {
		return &FieldError{
			Field:  "sample_rate/frame_rate",
			Reason: fmt.Sprintf("cannot be less than 1 per second, got %d/%d", *c.SampleRate, *c.FrameRate),
		}
	}
	if c.WindowSizeInSeconds != nil && *c.WindowSizeInSeconds < 1 {
		return &FieldError{
			Field:  "window_size_in_seconds",
			Reason: fmt.Sprintf("cannot be less than 1 second, got %d", *c.WindowSizeInSeconds),
		}
	}
	if c.SampleIndexColumn != nil && *c.SampleIndexColumn < 0 {
		return &FieldError{
			Field:  "sample_index_column",
			Reason: fmt.Sprintf("must be non-negative, got %d", *c.SampleIndexColumn),
		}
	}
	if c.FirstDataLine != nil && *c.FirstDataLine < 1 {
		return &FieldError{
			Field:  "first_data_line",
			Reason: fmt.Sprintf("is 1-based and cannot be less than 1, got %d", *c.FirstDataLine),
		}
	}
	if c.TimeoutInSeconds != nil && *c.TimeoutInSeconds < 0 {
		return &FieldError{
			Field:  "timeout_in_seconds",
			Reason: fmt.Sprintf("must be non-negative, got %g", *c.TimeoutInSeconds),
		}
	}
	return nil
}

// GetFrameRate returns the requested frame rate, or 0 when unset.
func (c StreamConfig) GetFrameRate() int {
	if c.FrameRate == nil {
		return 0
	}
	return *c.FrameRate
}

// GetSampleRate returns the sample rate, or 0 when unset.
func (c StreamConfig) GetSampleRate() int {
	if c.SampleRate == nil {
		return 0
	}
	return *c.SampleRate
}

// GetSampleIndexColumn returns the 0-based index column or the default.
func (c StreamConfig) GetSampleIndexColumn() int {
	if c.SampleIndexColumn == nil {
		return DefaultSampleIndexColumn
	}
	return *c.SampleIndexColumn
}

// GetWindowSizeInSeconds returns the window size or the default.
func (c StreamConfig) GetWindowSizeInSeconds() int {
	if c.WindowSizeInSeconds == nil {
		return DefaultWindowSizeInSeconds
	}
	return *c.WindowSizeInSeconds
}

// GetFirstDataLine returns the 1-based first data line or the default.
func (c StreamConfig) GetFirstDataLine() int {
	if c.FirstDataLine == nil {
		return DefaultFirstDataLine
	}
	return *c.FirstDataLine
}

// GetTimeout returns the timeout budget as a duration.
func (c StreamConfig) GetTimeout() time.Duration {
	secs := DefaultTimeoutInSeconds
	if c.TimeoutInSeconds != nil {
		secs = *c.TimeoutInSeconds
	}
	return time.Duration(math.Round(secs * float64(time.Second)))
}

// GetIsFrameOptional returns is_frame_optional or the default (false).
func (c StreamConfig) GetIsFrameOptional() bool {
	if c.IsFrameOptional == nil {
		return false
	}
	return *c.IsFrameOptional
}

const maxFileSize = 1 * 1024 * 1024 // 1MB

// LoadFileConfig loads stream definitions from a YAML or JSON file. Every
// stream must name a path and pass Validate.
func LoadFileConfig(path string) (*FileConfig, error) {
	cleanPath := filepath.Clean(path)
	switch ext := filepath.Ext(cleanPath); ext {
	case ".yaml", ".yml", ".json":
	default:
		return nil, fmt.Errorf("config file must have .yaml, .yml or .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := ParseFileConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cleanPath, err)
	}
	return cfg, nil
}

// ParseFileConfig decodes and validates a config document. JSON documents are
// accepted since they are valid YAML.
func ParseFileConfig(data []byte) (*FileConfig, error) {
	cfg := &FileConfig{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if len(cfg.Streams) == 0 {
		return nil, errors.New("config defines no streams")
	}
	for i, s := range cfg.Streams {
		if s.Path == "" {
			return nil, fmt.Errorf("stream %d: path is required", i)
		}
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("stream %d (%s): %w", i, s.Path, err)
		}
	}
	return cfg, nil
}
