// Command framestream tails one or more data files that an acquisition
// process is appending to and prints a summary of every frame it extracts.
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
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/banshee-data/tailframe/internal/config"
	"github.com/banshee-data/tailframe/internal/frames"
	"github.com/banshee-data/tailframe/internal/monitoring"
	"github.com/banshee-data/tailframe/internal/version"
)

var (
	configPath  = flag.String("config", "", "YAML/JSON file listing streams (overrides the single-stream flags)")
	frameRate   = flag.Int("frame-rate", 10, "Frames per second to emit")
	sampleRate  = flag.Int("sample-rate", 250, "Samples per second written by the acquisition board")
	indexColumn = flag.Int("index-column", config.DefaultSampleIndexColumn, "0-based column holding the sample index")
	window      = flag.Int("window", config.DefaultWindowSizeInSeconds, "Frame window size in seconds")
	firstLine   = flag.Int("first-line", config.DefaultFirstDataLine, "1-based line number of the first data line")
	timeout     = flag.Duration("timeout", 10*time.Second, "Fail when no frame is produced for this long")
	optional    = flag.Bool("optional", false, "Never fail on timeout; keep waiting for data")
	valueColumn = flag.Int("value-column", 1, "Column summarised for each frame")
	maxFrames   = flag.Int("max-frames", 0, "Stop each stream after this many frames (0 = unlimited)")
	debugListen = flag.String("debug-listen", "", "Serve /debug/ pages and /metrics on this address")
	verbose     = flag.Bool("v", false, "Log per-poll diagnostics")
	trace       = flag.Bool("trace", false, "Log every tail read (very noisy)")
	showVersion = flag.Bool("version", false, "Print version and exit")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] <data-file>\n       %s -config streams.yaml\n", os.Args[0], os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String("framestream"))
		return
	}

	streams, err := streamConfigs(flag.Args())
	if err != nil {
		log.Printf("%v", err)
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, streams, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("framestream: %v", err)
	}
	log.Printf("shutdown complete")
}

// streamConfigs resolves the streams to run from -config or from the
// single-stream flags plus one positional data file.
func streamConfigs(args []string) ([]config.StreamConfig, error) {
	if *configPath != "" {
		if len(args) > 0 {
			return nil, errors.New("data file arguments cannot be combined with -config")
		}
		fc, err := config.LoadFileConfig(*configPath)
		if err != nil {
			return nil, err
		}
		return fc.Streams, nil
	}

	if len(args) != 1 {
		return nil, errors.New("exactly one data file is required without -config")
	}
	cfg := config.NewStreamConfig(*frameRate, *sampleRate)
	cfg.Path = args[0]
	cfg.SampleIndexColumn = config.Int(*indexColumn)
	cfg.WindowSizeInSeconds = config.Int(*window)
	cfg.FirstDataLine = config.Int(*firstLine)
	cfg.TimeoutInSeconds = config.Float64(timeout.Seconds())
	cfg.IsFrameOptional = config.Bool(*optional)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return []config.StreamConfig{cfg}, nil
}

// run opens every stream up front, so configuration errors surface before
// any frame is read, then consumes them concurrently. The first stream to
// fail cancels the others.
func run(ctx context.Context, cfgs []config.StreamConfig, out io.Writer) error {
	reg := prometheus.NewRegistry()
	metrics := monitoring.NewMetrics(reg)

	var diag, traceW io.Writer
	if *verbose {
		diag = os.Stderr
	}
	if *trace {
		traceW = os.Stderr
	}
	logger := monitoring.NewLogger("framestream", os.Stderr, diag, traceW)

	streams := make([]*frames.Stream, 0, len(cfgs))
	for _, cfg := range cfgs {
		s, err := openStream(cfg, logger, metrics)
		if err != nil {
			return err
		}
		streams = append(streams, s)
	}

	// The debug server outlives individual streams but not the run.
	serveCtx, stopServe := context.WithCancel(ctx)
	defer stopServe()
	serveErr := make(chan error, 1)
	if *debugListen != "" {
		go func() { serveErr <- serveDebug(serveCtx, *debugListen, streams, reg) }()
	} else {
		close(serveErr)
	}

	g, gctx := errgroup.WithContext(ctx)
	var outMu sync.Mutex
	for _, s := range streams {
		g.Go(func() error {
			return consume(gctx, s, *valueColumn, *maxFrames, func(line string) {
				outMu.Lock()
				defer outMu.Unlock()
				fmt.Fprintln(out, line)
			})
		})
	}

	err := g.Wait()
	stopServe()
	if serr := <-serveErr; serr != nil && err == nil {
		err = fmt.Errorf("debug server: %w", serr)
	}
	if err != nil {
		return err
	}
	return ctx.Err()
}

// openStream picks the stream ID here rather than inside frames.Open so the
// same ID labels both the log prefix and the Prometheus series.
func openStream(cfg config.StreamConfig, logger *monitoring.Logger, metrics *monitoring.Metrics) (*frames.Stream, error) {
	id := uuid.NewString()[:8]
	return frames.Open(cfg.Path, cfg,
		frames.WithID(id),
		frames.WithLogger(logger),
		frames.WithReporter(metrics.ForStream(id)),
	)
}

// consume pulls frames from s and hands a one-line summary of each to emit.
// It returns nil once maxFrames frames were read (when positive).
func consume(ctx context.Context, s *frames.Stream, column, maxFrames int, emit func(string)) error {
	for frame, err := range s.Frames(ctx) {
		if err != nil {
			return fmt.Errorf("stream %s (%s): %w", s.ID(), s.Path(), err)
		}
		emit(Summarize(s.ID(), frame, column).String())
		if maxFrames > 0 && frame.Seq >= maxFrames {
			return nil
		}
	}
	return nil
}
