package frames

import (
	"bytes"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/tailframe/internal/config"
	"github.com/banshee-data/tailframe/internal/fsutil"
	"github.com/banshee-data/tailframe/internal/monitoring"
	"github.com/banshee-data/tailframe/internal/testutil"
	"github.com/banshee-data/tailframe/internal/timeutil"
)

// SampleLineForTest keeps test tables short.
func SampleLineForTest(index, seq int) string {
	return testutil.SampleLine(index, seq)
}

// syncBuffer is a bytes.Buffer safe for concurrent log writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type streamFixture struct {
	fs    *fsutil.MemoryFileSystem
	clock *timeutil.MockClock
	ops   *syncBuffer
	path  string
	seq   int // next seq number for appended lines
	index int // next sample index for appended lines
	rate  int
}

func newStreamFixture(t *testing.T, header []string, dataLines, sampleRate int) *streamFixture {
	t.Helper()
	f := &streamFixture{
		fs:    fsutil.NewMemoryFileSystem(),
		clock: timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		ops:   &syncBuffer{},
		path:  "/data/session.csv",
		rate:  sampleRate,
	}
	f.fs.WriteFile(f.path, []byte(testutil.Join(header)))
	f.append(dataLines)
	return f
}

// append writes n more cycling data lines.
func (f *streamFixture) append(n int) {
	lines := testutil.CyclingLines(f.index, f.seq, n, f.rate)
	f.fs.AppendString(f.path, testutil.Join(lines))
	f.seq += n
	f.index = (f.index + n) % f.rate
}

func (f *streamFixture) open(t *testing.T, cfg config.StreamConfig) *Stream {
	t.Helper()
	s, err := Open(f.path, cfg,
		WithFileSystem(f.fs),
		WithClock(f.clock),
		WithLogger(monitoring.NewLogger("frames", f.ops, nil, nil)),
		WithID("test"),
	)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func lastLineOf(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return lines[len(lines)-1]
}
