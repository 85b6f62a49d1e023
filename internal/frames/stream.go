package frames

import (
	"context"
	"fmt"
	"iter"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/tailframe/internal/config"
	"github.com/banshee-data/tailframe/internal/fsutil"
	"github.com/banshee-data/tailframe/internal/monitoring"
	"github.com/banshee-data/tailframe/internal/timeutil"
)

// MaxFrameRate caps the requested frame rate, in frames per second.
const MaxFrameRate = 100

// Frame is one window of consecutive data lines. Lines is owned by the
// receiver.
type Frame struct {
	Seq        int // 1-based emission counter of the stream
	Lines      []string
	LastIndex  int
	Heuristic  Heuristic
	DetectedAt time.Time
}

// Stats is a point-in-time snapshot of a stream's polling loop.
type Stats struct {
	ID            string
	Path          string
	FrameRate     int
	Polls         int
	Frames        int
	Insufficient  int
	LastDetection time.Time
	LastIndex     int
	Failed        bool
}

// Option customises a Stream.
type Option func(*Stream)

// WithFileSystem replaces the OS filesystem.
func WithFileSystem(fs fsutil.FileSystem) Option {
	return func(s *Stream) { s.fs = fs }
}

// WithClock replaces the wall clock used for sleeping and timeouts.
func WithClock(c timeutil.Clock) Option {
	return func(s *Stream) { s.clock = c }
}

// WithLogger sets the logger. The stream ID is appended to its prefix.
func WithLogger(l *monitoring.Logger) Option {
	return func(s *Stream) { s.log = l }
}

// WithReporter sets the observer of the polling loop.
func WithReporter(r monitoring.Reporter) Option {
	return func(s *Stream) { s.reporter = r }
}

// WithID overrides the generated stream ID.
func WithID(id string) Option {
	return func(s *Stream) { s.id = id }
}

// Stream polls one data file and yields frames at the configured rate. The
// zero value is not usable; create Streams with Open.
type Stream struct {
	id       string
	path     string
	fs       fsutil.FileSystem
	clock    timeutil.Clock
	log      *monitoring.Logger
	reporter monitoring.Reporter
	reader   *TailReader

	window   Window
	timeout  time.Duration
	optional bool
	interval time.Duration

	// state and lastDetection are only touched by Next.
	state         State
	lastDetection time.Time
	seq           int
	err           error

	mu    sync.Mutex
	stats Stats
}

// Open validates cfg, reads the first data line of path as the initial
// baseline and returns a Stream ready to poll. Configuration problems are
// reported as *ConfigError and an unreadable first data line as
// *FormatError; no frame is read.
func Open(path string, cfg config.StreamConfig, opts ...Option) (*Stream, error) {
	s := &Stream{
		path:     path,
		fs:       fsutil.OSFileSystem{},
		clock:    timeutil.RealClock{},
		log:      monitoring.Discard(),
		reporter: monitoring.NopReporter{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.id == "" {
		s.id = uuid.NewString()[:8]
	}
	s.log = s.log.With(s.id)

	if !s.fs.Exists(path) {
		return nil, &ConfigError{Path: path, Err: fmt.Errorf("file %s doesn't exist", path)}
	}
	if err := cfg.Validate(); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	sampleRate := cfg.GetSampleRate()
	frameRate := cfg.GetFrameRate()
	if frameRate > sampleRate {
		s.log.Opsf("frame rate %d cannot be larger than sample rate; frame rate is set to %d", frameRate, sampleRate)
		frameRate = sampleRate
	}
	if frameRate > MaxFrameRate {
		s.log.Opsf("frame rate %d cannot be larger than %d; frame rate is set to %d", frameRate, MaxFrameRate, MaxFrameRate)
		frameRate = MaxFrameRate
	}

	s.window = Window{
		SampleRate:  sampleRate,
		FrameRate:   frameRate,
		Seconds:     cfg.GetWindowSizeInSeconds(),
		IndexColumn: cfg.GetSampleIndexColumn(),
	}
	s.timeout = cfg.GetTimeout()
	s.optional = cfg.GetIsFrameOptional()
	s.interval = time.Second / time.Duration(frameRate)
	s.reader = NewTailReader(s.fs, s.log)

	first, err := ReadFirstDataLine(s.fs, path, cfg.GetFirstDataLine())
	if err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}
	index, err := ParseIndex(first, s.window.IndexColumn)
	if err != nil {
		return nil, err
	}
	s.state = State{LastLine: first, LastIndex: index}

	s.stats = Stats{ID: s.id, Path: path, FrameRate: frameRate, LastIndex: index}
	s.log.Diagf("opened %s: %d lines per frame at %d fps, first index %d, timeout %s, optional %t",
		path, s.window.Lines(), frameRate, index, s.timeout, s.optional)
	return s, nil
}

// ID returns the stream's identifier used in logs and metrics.
func (s *Stream) ID() string { return s.id }

// Path returns the data file being tailed.
func (s *Stream) Path() string { return s.path }

// FrameRate returns the effective, clamped frame rate.
func (s *Stream) FrameRate() int { return s.window.FrameRate }

// Window returns the detection geometry in use.
func (s *Stream) Window() Window { return s.window }

// Stats returns a snapshot of the polling counters. It is safe to call
// concurrently with Next.
func (s *Stream) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// Next polls until the next frame is available and returns it.
//
// The timeout budget starts when Next is called. A non-optional stream that
// sees no new frame within it fails with *TimeoutError; an optional stream
// logs a notice each time the budget elapses and keeps waiting. Timeout,
// format and I/O errors are terminal: every later call returns the same
// error. Cancelling ctx returns ctx.Err() and leaves the stream usable.
func (s *Stream) Next(ctx context.Context) (Frame, error) {
	if s.err != nil {
		return Frame{}, s.err
	}

	budgetStart := s.clock.Now()
	waitStart := budgetStart
	if !s.lastDetection.IsZero() {
		waitStart = s.lastDetection
	}

	for {
		if err := ctx.Err(); err != nil {
			return Frame{}, err
		}

		det, err := s.poll()
		if err != nil {
			return Frame{}, s.fail(err)
		}

		if det.Ready {
			now := s.clock.Now()
			s.state = det.State
			s.lastDetection = now
			s.seq++

			s.reporter.Detected(string(det.Heuristic), now.Sub(waitStart))
			s.mu.Lock()
			s.stats.Frames++
			s.stats.LastDetection = now
			s.stats.LastIndex = det.State.LastIndex
			s.mu.Unlock()

			return Frame{
				Seq:        s.seq,
				Lines:      det.Lines,
				LastIndex:  det.State.LastIndex,
				Heuristic:  det.Heuristic,
				DetectedAt: now,
			}, nil
		}

		s.reporter.Insufficient()
		s.mu.Lock()
		s.stats.Insufficient++
		s.mu.Unlock()

		if elapsed := s.clock.Since(budgetStart); elapsed > s.timeout {
			if !s.optional {
				s.reporter.BudgetExceeded(true)
				return Frame{}, s.fail(&TimeoutError{Path: s.path, Elapsed: elapsed, Budget: s.timeout})
			}
			s.reporter.BudgetExceeded(false)
			s.log.Opsf("couldn't retrieve a single frame from %s after %s; stream is optional, still waiting",
				s.path, elapsed.Round(time.Millisecond))
			budgetStart = s.clock.Now()
		}

		if err := s.clock.Sleep(ctx, s.interval); err != nil {
			return Frame{}, err
		}
	}
}

// poll performs one tail read and detection attempt.
func (s *Stream) poll() (Detection, error) {
	s.reporter.Poll()
	s.mu.Lock()
	s.stats.Polls++
	s.mu.Unlock()

	// Line length drifts as values change width, so re-estimate every poll.
	estimate := OffsetEstimate(s.window.Lines(), len(s.state.LastLine)+1)
	lines, err := s.reader.ReadTail(s.path, estimate)
	if err != nil {
		return Detection{}, err
	}

	det, err := Detect(lines, s.state, s.window)
	if err != nil {
		return Detection{}, err
	}
	if !det.Ready {
		s.log.Tracef("not enough lines for a frame yet: have %d, need more than %d", len(lines), s.window.Lines())
	}
	return det, nil
}

func (s *Stream) fail(err error) error {
	s.err = err
	s.mu.Lock()
	s.stats.Failed = true
	s.mu.Unlock()
	s.log.Opsf("stream failed: %v", err)
	return err
}

// Frames returns the stream as a lazy sequence. Iteration ends after the
// first error, which is yielded with a zero Frame, or when the consumer
// stops. Breaking out of the loop leaves no file handle or goroutine behind.
func (s *Stream) Frames(ctx context.Context) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			f, err := s.Next(ctx)
			if err != nil {
				yield(Frame{}, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}
