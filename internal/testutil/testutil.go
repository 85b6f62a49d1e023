// Package testutil provides shared test utilities and data file fixtures.
//
// The fixtures mimic an acquisition board export: a few header lines, then
// one ", " separated line per sample whose first column is the per-second
// sample index.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Header is a typical acquisition export preamble.
var Header = []string{
	"%OpenBCI Raw EEG Data",
	"%Number of channels = 2",
	"%Sample Rate = 100 Hz",
}

// SampleLine formats one data line. seq is a global sample counter that keeps
// lines textually distinct even when index repeats.
func SampleLine(index, seq int) string {
	return fmt.Sprintf("%d, %d.%03d, -%d.%03d", index, seq/10, seq%1000, seq/7, (seq*7)%1000)
}

// CyclingLines returns count lines whose index counts up from startIndex and
// wraps at sampleRate. seq starts at startSeq.
func CyclingLines(startIndex, startSeq, count, sampleRate int) []string {
	lines := make([]string, count)
	for i := range lines {
		lines[i] = SampleLine((startIndex+i)%sampleRate, startSeq+i)
	}
	return lines
}

// Join renders lines as file content, each terminated by a newline.
func Join(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// WriteDataFile writes header followed by lines to name in a fresh temp
// directory and returns the path.
func WriteDataFile(t *testing.T, name string, header, lines []string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	content := Join(header) + Join(lines)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

// AppendRaw appends s verbatim to path.
func AppendRaw(t *testing.T, path, s string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		t.Fatalf("open %s for append: %v", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(s); err != nil {
		t.Fatalf("append to %s: %v", path, err)
	}
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}
