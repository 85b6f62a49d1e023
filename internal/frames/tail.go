package frames

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/tailframe/internal/fsutil"
	"github.com/banshee-data/tailframe/internal/monitoring"
)

// LineSizeMultiplier oversizes the tail read so that at least one full window
// is captured even when line lengths vary.
const LineSizeMultiplier = 2

// traceLines is how many lines from each end of a tail read are traced.
const traceLines = 10

// OffsetEstimate returns how many bytes from the end of the file to read so
// that lines lines of roughly lineSize bytes are covered with margin.
func OffsetEstimate(lines, lineSize int) int64 {
	if lineSize < 1 {
		lineSize = 1
	}
	return int64(lines) * int64(lineSize) * LineSizeMultiplier
}

// TailReader reads the most recent complete lines of a growing file. Each
// call opens and closes its own handle.
type TailReader struct {
	fs  fsutil.FileSystem
	log *monitoring.Logger
}

// NewTailReader returns a TailReader over fs. log may be nil.
func NewTailReader(fs fsutil.FileSystem, log *monitoring.Logger) *TailReader {
	return &TailReader{fs: fs, log: log}
}

// ReadTail reads the last estimate bytes of path (or the whole file if it is
// smaller) and returns its non-empty lines, oldest first. The final segment
// is always dropped because the writer may not have finished it yet. The
// first returned line may itself be a fragment when the read started
// mid-line; callers never use the oldest line of a read as frame content.
func (r *TailReader) ReadTail(path string, estimate int64) ([]string, error) {
	f, err := r.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	size, err := f.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, fmt.Errorf("seek end of %s: %w", path, err)
	}
	start := max(0, size-estimate)
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s to %d: %w", path, start, err)
	}

	// Read to EOF rather than size-start bytes: anything appended since the
	// seek is fresher data, and the trailing fragment is dropped below.
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// A seek into the middle of a multi-byte rune leaves an invalid prefix.
	text := strings.ToValidUTF8(string(data), "\uFFFD")
	segments := strings.Split(text, "\n")

	lines := make([]string, 0, len(segments))
	for _, seg := range segments[:len(segments)-1] {
		if seg != "" {
			lines = append(lines, seg)
		}
	}

	if r.log.TraceEnabled() {
		head := lines[:min(traceLines, len(lines))]
		tail := lines[max(0, len(lines)-traceLines):]
		r.log.Tracef("read %d bytes from offset %d of %s: %d lines, top:\n%s\nbottom:\n%s",
			len(data), start, path, len(lines), strings.Join(head, "\n"), strings.Join(tail, "\n"))
	}
	return lines, nil
}

// ReadFirstDataLine returns line firstDataLine (1-based) of path without its
// line terminator. The lines before it are headers.
func ReadFirstDataLine(fs fsutil.FileSystem, path string, firstDataLine int) (string, error) {
	if firstDataLine < 1 {
		return "", fmt.Errorf("first data line %d is not 1-based", firstDataLine)
	}

	f, err := fs.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	for n := 1; ; n++ {
		line, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("read %s: %w", path, err)
		}
		if n == firstDataLine && (line != "" || err == nil) {
			return strings.TrimSuffix(line, "\n"), nil
		}
		if err != nil {
			return "", fmt.Errorf("couldn't retrieve a line as there are less lines in %s than %d", path, firstDataLine)
		}
	}
}
