package capture

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/banshee-data/tailframe/internal/fsutil"
	"github.com/banshee-data/tailframe/internal/monitoring"
)

// Recorder appends every complete line read from a source to a data file.
// Each line is written with a single Write call terminated by a newline, so a
// concurrent tail reader sees either nothing or a prefix of the line.
type Recorder struct {
	fs     fsutil.FileSystem
	path   string
	log    *monitoring.Logger
	header []string
}

// NewRecorder returns a Recorder appending to path. log may be nil.
func NewRecorder(fs fsutil.FileSystem, path string, log *monitoring.Logger) *Recorder {
	return &Recorder{fs: fs, path: path, log: log}
}

// WithHeader sets lines written before any sample when the data file is new
// or empty.
func (r *Recorder) WithHeader(lines ...string) *Recorder {
	r.header = lines
	return r
}

// Record copies lines from src until src is exhausted or ctx is done, and
// returns the number of sample lines written. Blank lines are dropped and
// carriage returns stripped.
//
// Reads happen on a separate goroutine so cancellation is not held up by a
// blocking source; that goroutine exits once the caller closes src.
func (r *Recorder) Record(ctx context.Context, src io.Reader) (int, error) {
	w, err := r.fs.Append(r.path)
	if err != nil {
		return 0, fmt.Errorf("open %s for append: %w", r.path, err)
	}
	defer w.Close()

	if err := r.writeHeader(w); err != nil {
		return 0, err
	}

	scan := bufio.NewScanner(src)
	lineChan := make(chan string)
	scanErrChan := make(chan error, 1)

	go func() {
		defer close(lineChan)
		for scan.Scan() {
			select {
			case lineChan <- scan.Text():
			case <-ctx.Done():
				return
			}
		}
		if err := scan.Err(); err != nil {
			scanErrChan <- err
		}
	}()

	written := 0
	for {
		select {
		case <-ctx.Done():
			r.log.Diagf("recording to %s stopped after %d lines: %v", r.path, written, ctx.Err())
			return written, ctx.Err()

		case line, ok := <-lineChan:
			if !ok {
				select {
				case err := <-scanErrChan:
					return written, fmt.Errorf("read source: %w", err)
				default:
				}
				r.log.Diagf("source exhausted after %d lines", written)
				return written, nil
			}

			line = strings.TrimRight(line, "\r")
			if strings.TrimSpace(line) == "" {
				continue
			}
			if _, err := io.WriteString(w, line+"\n"); err != nil {
				return written, fmt.Errorf("append to %s: %w", r.path, err)
			}
			written++
			r.log.Tracef("appended %q", line)
		}
	}
}

func (r *Recorder) writeHeader(w io.Writer) error {
	if len(r.header) == 0 {
		return nil
	}
	info, err := r.fs.Stat(r.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", r.path, err)
	}
	if info.Size() > 0 {
		return nil
	}
	if _, err := io.WriteString(w, strings.Join(r.header, "\n")+"\n"); err != nil {
		return fmt.Errorf("write header to %s: %w", r.path, err)
	}
	return nil
}
