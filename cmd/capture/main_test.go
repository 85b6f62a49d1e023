package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/tailframe/internal/capture"
	"github.com/banshee-data/tailframe/internal/fsutil"
	"github.com/banshee-data/tailframe/internal/monitoring"
	"github.com/banshee-data/tailframe/internal/timeutil"
)

func TestSourceValidate(t *testing.T) {
	tests := []struct {
		name    string
		src     source
		wantErr string
	}{
		{"none", source{sampleRate: 250}, "exactly one"},
		{"two", source{serialPort: "/dev/ttyUSB0", synthetic: true, sampleRate: 250}, "exactly one"},
		{"bad rate", source{synthetic: true}, "sample rate"},
		{"serial", source{serialPort: "/dev/ttyUSB0", sampleRate: 250}, ""},
		{"replay", source{replay: "old.csv", sampleRate: 250}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.src.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestRun_Replay(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	fs.WriteFile("/rec/old.csv", []byte("%old header\n0, 1.0\n1, 2.0\n\n2, 3.0\n"))

	src := source{replay: "/rec/old.csv", firstLine: 2, sampleRate: 2}
	rec := capture.NewRecorder(fs, "/data/new.csv", monitoring.Discard()).WithHeader(headerLines(src)...)
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	n, err := run(context.Background(), src, rec, fs, clock, monitoring.Discard())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	data, err := fs.ReadFile("/data/new.csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	assert.Equal(t, []string{"%Tailframe capture dev", "%Sample Rate = 2 Hz", "0, 1.0", "1, 2.0", "2, 3.0"}, lines)
}

func TestRun_SyntheticStopsOnCancel(t *testing.T) {
	fs := fsutil.NewMemoryFileSystem()
	src := source{synthetic: true, channels: 2, sampleRate: 100}
	rec := capture.NewRecorder(fs, "/data/synth.csv", nil)

	ctx, cancel := context.WithCancel(context.Background())
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	clock.OnSleep(func(total int, _ time.Duration) {
		if total == 3 {
			cancel()
		}
	})

	_, err := run(ctx, src, rec, fs, clock, monitoring.Discard())
	assert.ErrorIs(t, err, context.Canceled)

	data, err := fs.ReadFile("/data/synth.csv")
	require.NoError(t, err)
	for _, line := range strings.Split(strings.TrimSuffix(string(data), "\n"), "\n") {
		if line == "" {
			continue
		}
		assert.Len(t, strings.Split(line, ", "), 3, line)
	}
}
