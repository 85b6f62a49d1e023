package main

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/banshee-data/tailframe/internal/frames"
)

func TestSummarize(t *testing.T) {
	f := frames.Frame{
		Seq:        3,
		Lines:      []string{"0, 1.0", "1, 2.0", "2, 3.0", "3, x", "4"},
		LastIndex:  4,
		Heuristic:  frames.HeuristicIndex,
		DetectedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	s := Summarize("s1", f, 1)

	assert.Equal(t, 5, s.Lines)
	assert.Equal(t, 3, s.Values)
	assert.InDelta(t, 2.0, s.Mean, 1e-9)
	assert.InDelta(t, 1.0, s.StdDev, 1e-9)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 3.0, s.Max)
	assert.Equal(t,
		"s1 frame=3 lines=5 last_index=4 via=index col1 n=3 mean=2.0000 sd=1.0000 min=1.0000 max=3.0000",
		s.String())
}

func TestSummarize_SingleValue(t *testing.T) {
	s := Summarize("s1", frames.Frame{Lines: []string{"7, -2.5"}}, 1)
	assert.Equal(t, 1, s.Values)
	assert.Equal(t, -2.5, s.Mean)
	assert.Equal(t, 0.0, s.StdDev)
}

func TestSummarize_NoValues(t *testing.T) {
	tests := []struct {
		name   string
		lines  []string
		column int
	}{
		{"empty frame", nil, 1},
		{"column out of range", []string{"1, 2"}, 5},
		{"negative column", []string{"1, 2"}, -1},
		{"not numeric", []string{"1, abc"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Summarize("s", frames.Frame{Lines: tt.lines}, tt.column)
			assert.Equal(t, 0, s.Values)
			assert.True(t, math.IsNaN(s.Mean))
			assert.True(t, math.IsNaN(s.Min))
		})
	}
}
