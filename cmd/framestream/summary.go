package main

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/tailframe/internal/frames"
)

// Summary condenses one frame into the figures printed per line.
type Summary struct {
	Stream    string
	Seq       int
	Lines     int
	LastIndex int
	Heuristic frames.Heuristic
	At        time.Time

	Column int
	Values int // lines whose column parsed as a number
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
}

// Summarize computes count, mean, standard deviation and range of column
// across the frame's lines. Lines where the column is missing or not a
// number are skipped.
func Summarize(stream string, f frames.Frame, column int) Summary {
	s := Summary{
		Stream:    stream,
		Seq:       f.Seq,
		Lines:     len(f.Lines),
		LastIndex: f.LastIndex,
		Heuristic: f.Heuristic,
		At:        f.DetectedAt,
		Column:    column,
		Min:       math.NaN(),
		Max:       math.NaN(),
		Mean:      math.NaN(),
		StdDev:    math.NaN(),
	}

	values := make([]float64, 0, len(f.Lines))
	for _, line := range f.Lines {
		v, ok := columnValue(line, column)
		if !ok {
			continue
		}
		values = append(values, v)
	}
	s.Values = len(values)
	if len(values) == 0 {
		return s
	}

	s.Min, s.Max = values[0], values[0]
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	if len(values) == 1 {
		s.Mean, s.StdDev = values[0], 0
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}

func columnValue(line string, column int) (float64, bool) {
	fields := strings.Split(line, frames.Separator)
	if column < 0 || column >= len(fields) {
		return 0, false
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(fields[column]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func (s Summary) String() string {
	return fmt.Sprintf("%s frame=%d lines=%d last_index=%d via=%s col%d n=%d mean=%.4f sd=%.4f min=%.4f max=%.4f",
		s.Stream, s.Seq, s.Lines, s.LastIndex, s.Heuristic, s.Column, s.Values, s.Mean, s.StdDev, s.Min, s.Max)
}
