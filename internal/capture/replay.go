package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/banshee-data/tailframe/internal/fsutil"
	"github.com/banshee-data/tailframe/internal/timeutil"
)

// Replayer writes recorded sample lines at the pace they were acquired.
type Replayer struct {
	Clock      timeutil.Clock
	SampleRate int
	// BatchSize lines are written together, then the replayer sleeps for
	// BatchSize/SampleRate seconds. Defaults to SampleRate/10.
	BatchSize int
	// Loop restarts from the first line when the recording runs out.
	Loop bool
}

// Run writes lines to w until they are exhausted (or forever when Loop is
// set) or ctx is done. It returns the number of lines written.
func (p *Replayer) Run(ctx context.Context, lines []string, w io.Writer) (int, error) {
	if p.SampleRate < 1 {
		return 0, fmt.Errorf("sample rate must be at least 1, got %d", p.SampleRate)
	}
	if len(lines) == 0 {
		return 0, nil
	}
	clock := p.Clock
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	batch := p.BatchSize
	if batch < 1 {
		batch = max(1, p.SampleRate/10)
	}
	pause := time.Duration(batch) * time.Second / time.Duration(p.SampleRate)

	written := 0
	for pos := 0; ; {
		end := min(pos+batch, len(lines))
		chunk := strings.Join(lines[pos:end], "\n") + "\n"
		if _, err := io.WriteString(w, chunk); err != nil {
			return written, fmt.Errorf("write replay batch: %w", err)
		}
		written += end - pos
		pos = end

		if pos == len(lines) {
			if !p.Loop {
				return written, nil
			}
			pos = 0
		}
		if err := clock.Sleep(ctx, pause); err != nil {
			return written, err
		}
	}
}

// ReadRecording loads the data lines of a recorded file, skipping the lines
// before firstDataLine (1-based) and blank lines.
func ReadRecording(fs fsutil.FileSystem, path string, firstDataLine int) ([]string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open recording: %w", err)
	}
	defer f.Close()

	var lines []string
	scan := bufio.NewScanner(f)
	for n := 1; scan.Scan(); n++ {
		if n < firstDataLine {
			continue
		}
		line := strings.TrimRight(scan.Text(), "\r")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scan.Err(); err != nil {
		return nil, fmt.Errorf("read recording %s: %w", path, err)
	}
	return lines, nil
}

// SyntheticLines generates count sample lines for a board with the given
// number of channels. The index column wraps at sampleRate and each channel
// carries a sine wave of a different frequency.
func SyntheticLines(startSeq, count, sampleRate, channels int) []string {
	lines := make([]string, count)
	var b strings.Builder
	for i := range lines {
		seq := startSeq + i
		b.Reset()
		fmt.Fprintf(&b, "%d", seq%sampleRate)
		t := float64(seq) / float64(sampleRate)
		for ch := 1; ch <= channels; ch++ {
			fmt.Fprintf(&b, ", %.3f", 50*math.Sin(2*math.Pi*float64(ch*2)*t))
		}
		lines[i] = b.String()
	}
	return lines
}
