package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Reporter observes the polling loop of a single stream.
type Reporter interface {
	// Poll is called once per tail read attempt.
	Poll()
	// Detected is called when a frame is emitted. heuristic names the test
	// that accepted the window and wait is the time since the previous
	// detection (or stream start).
	Detected(heuristic string, wait time.Duration)
	// Insufficient is called when a poll did not yield a frame.
	Insufficient()
	// BudgetExceeded is called when the timeout budget elapsed. fatal is
	// false for optional streams, which keep polling.
	BudgetExceeded(fatal bool)
}

// NopReporter discards all observations.
type NopReporter struct{}

func (NopReporter) Poll()                          {}
func (NopReporter) Detected(string, time.Duration) {}
func (NopReporter) Insufficient()                  {}
func (NopReporter) BudgetExceeded(bool)            {}

// Metrics holds the Prometheus collectors shared by every stream of a
// process. Per-stream Reporters are obtained with ForStream.
type Metrics struct {
	Polls          *prometheus.CounterVec
	Frames         *prometheus.CounterVec
	Insufficient   *prometheus.CounterVec
	BudgetExceeded *prometheus.CounterVec
	FrameWait      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Polls: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tailframe_polls_total",
			Help: "Total number of tail read attempts",
		}, []string{"stream"}),
		Frames: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tailframe_frames_total",
			Help: "Total number of frames emitted, by the heuristic that accepted the window",
		}, []string{"stream", "heuristic"}),
		Insufficient: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tailframe_insufficient_polls_total",
			Help: "Total number of polls that did not find enough new lines for a frame",
		}, []string{"stream"}),
		BudgetExceeded: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "tailframe_timeout_budget_exceeded_total",
			Help: "Total number of times the timeout budget elapsed without a frame",
		}, []string{"stream", "fatal"}),
		FrameWait: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "tailframe_frame_wait_seconds",
			Help:    "Time between consecutive frame detections",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"stream"}),
	}
}

// ForStream returns a Reporter that records under the given stream label.
func (m *Metrics) ForStream(stream string) Reporter {
	return &streamMetrics{m: m, stream: stream}
}

type streamMetrics struct {
	m      *Metrics
	stream string
}

func (s *streamMetrics) Poll() {
	s.m.Polls.WithLabelValues(s.stream).Inc()
}

func (s *streamMetrics) Detected(heuristic string, wait time.Duration) {
	s.m.Frames.WithLabelValues(s.stream, heuristic).Inc()
	s.m.FrameWait.WithLabelValues(s.stream).Observe(wait.Seconds())
}

func (s *streamMetrics) Insufficient() {
	s.m.Insufficient.WithLabelValues(s.stream).Inc()
}

func (s *streamMetrics) BudgetExceeded(fatal bool) {
	label := "false"
	if fatal {
		label = "true"
	}
	s.m.BudgetExceeded.WithLabelValues(s.stream, label).Inc()
}
