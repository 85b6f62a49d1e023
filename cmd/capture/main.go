// Command capture appends acquisition samples to a data file so that
// framestream has something to tail. Samples come from a serial port, from
// an earlier recording replayed at its sample rate, or from a synthetic
// generator.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/tailframe/internal/capture"
	"github.com/banshee-data/tailframe/internal/fsutil"
	"github.com/banshee-data/tailframe/internal/monitoring"
	"github.com/banshee-data/tailframe/internal/timeutil"
	"github.com/banshee-data/tailframe/internal/version"
)

var (
	out         = flag.String("out", "", "Data file to append samples to (required)")
	header      = flag.Bool("header", true, "Write a '%' header when the data file is new")
	serialPort  = flag.String("serial", "", "Record from this serial port")
	baudRate    = flag.Int("baud", capture.DefaultBaudRate, "Serial baud rate")
	replayPath  = flag.String("replay", "", "Replay the data lines of this recording")
	firstLine   = flag.Int("first-line", 1, "1-based first data line of the -replay recording")
	synthetic   = flag.Bool("synthetic", false, "Generate sine-wave samples")
	channels    = flag.Int("channels", 4, "Channels per synthetic sample")
	sampleRate  = flag.Int("sample-rate", 250, "Samples per second for -replay and -synthetic")
	loop        = flag.Bool("loop", false, "Restart -replay from the beginning when it runs out")
	verbose     = flag.Bool("v", false, "Log diagnostics")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

// source describes where samples come from.
type source struct {
	serialPort string
	serialOpts capture.PortOptions
	replay     string
	firstLine  int
	synthetic  bool
	channels   int
	sampleRate int
	loop       bool
}

func (s source) validate() error {
	modes := 0
	for _, on := range []bool{s.serialPort != "", s.replay != "", s.synthetic} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		return errors.New("exactly one of -serial, -replay or -synthetic is required")
	}
	if s.sampleRate < 1 {
		return fmt.Errorf("sample rate must be at least 1, got %d", s.sampleRate)
	}
	return nil
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("capture"))
		return
	}

	src := source{
		serialPort: *serialPort,
		serialOpts: capture.PortOptions{BaudRate: *baudRate},
		replay:     *replayPath,
		firstLine:  *firstLine,
		synthetic:  *synthetic,
		channels:   *channels,
		sampleRate: *sampleRate,
		loop:       *loop,
	}
	if *out == "" {
		log.Fatal("-out is required")
	}
	if err := src.validate(); err != nil {
		log.Fatal(err)
	}

	var diag io.Writer
	if *verbose {
		diag = os.Stderr
	}
	logger := monitoring.NewLogger("capture", os.Stderr, diag, nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rec := capture.NewRecorder(fsutil.OSFileSystem{}, *out, logger)
	if *header {
		rec.WithHeader(headerLines(src)...)
	}

	n, err := run(ctx, src, rec, fsutil.OSFileSystem{}, timeutil.RealClock{}, logger)
	log.Printf("wrote %d lines to %s", n, *out)
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("capture: %v", err)
	}
}

func headerLines(src source) []string {
	h := []string{"%Tailframe capture " + version.Version}
	if src.serialPort == "" {
		h = append(h, fmt.Sprintf("%%Sample Rate = %d Hz", src.sampleRate))
	}
	return h
}

// run records from src into rec until src is exhausted or ctx is done.
func run(ctx context.Context, src source, rec *capture.Recorder, fs fsutil.FileSystem, clock timeutil.Clock, logger *monitoring.Logger) (int, error) {
	if src.serialPort != "" {
		return recordSerial(ctx, src, rec, logger)
	}

	var lines []string
	if src.replay != "" {
		var err error
		lines, err = capture.ReadRecording(fs, src.replay, src.firstLine)
		if err != nil {
			return 0, err
		}
		logger.Opsf("replaying %d lines from %s at %d Hz", len(lines), src.replay, src.sampleRate)
	} else {
		// One minute of samples, looped.
		lines = capture.SyntheticLines(0, 60*src.sampleRate, src.sampleRate, src.channels)
		logger.Opsf("generating %d-channel samples at %d Hz", src.channels, src.sampleRate)
	}

	replayer := &capture.Replayer{
		Clock:      clock,
		SampleRate: src.sampleRate,
		Loop:       src.loop || src.synthetic,
	}
	return pipe(ctx, rec, func(ctx context.Context, w io.Writer) error {
		_, err := replayer.Run(ctx, lines, w)
		return err
	})
}

// pipe connects produce to rec through an in-memory pipe.
func pipe(ctx context.Context, rec *capture.Recorder, produce func(context.Context, io.Writer) error) (int, error) {
	pr, pw := io.Pipe()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		err := produce(gctx, pw)
		pw.CloseWithError(err)
		return err
	})

	var written int
	g.Go(func() error {
		var err error
		written, err = rec.Record(gctx, pr)
		// Unblocks the producer if the recorder stopped first.
		pr.CloseWithError(io.ErrClosedPipe)
		return err
	})

	err := g.Wait()
	return written, err
}

func recordSerial(ctx context.Context, src source, rec *capture.Recorder, logger *monitoring.Logger) (int, error) {
	port, err := capture.OpenSerial(src.serialPort, src.serialOpts)
	if err != nil {
		return 0, err
	}
	logger.Opsf("recording from %s", src.serialPort)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		if err := port.Close(); err != nil {
			logger.Diagf("close %s: %v", src.serialPort, err)
		}
	}()

	return rec.Record(ctx, port)
}
