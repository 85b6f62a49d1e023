package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_ForStream(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := m.ForStream("eeg")
	r.Poll()
	r.Poll()
	r.Insufficient()
	r.Detected("index", 100*time.Millisecond)
	r.Detected("position", 200*time.Millisecond)
	r.BudgetExceeded(false)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Polls.WithLabelValues("eeg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Insufficient.WithLabelValues("eeg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues("eeg", "index")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Frames.WithLabelValues("eeg", "position")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.BudgetExceeded.WithLabelValues("eeg", "false")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BudgetExceeded.WithLabelValues("eeg", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.FrameWait))
}

func TestMetrics_SeparateStreams(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ForStream("a").Poll()
	m.ForStream("b").Poll()
	m.ForStream("b").Poll()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Polls.WithLabelValues("a")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.Polls.WithLabelValues("b")))
}

func TestNopReporter(t *testing.T) {
	var r Reporter = NopReporter{}
	r.Poll()
	r.Detected("index", time.Second)
	r.Insufficient()
	r.BudgetExceeded(true)
}
