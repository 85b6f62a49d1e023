package frames

import "slices"

// Window is the geometry the detector works with. FrameRate must already be
// clamped to [1, min(SampleRate, MaxFrameRate)].
type Window struct {
	SampleRate  int
	FrameRate   int
	Seconds     int
	IndexColumn int
}

// Lines is the number of data lines in one frame.
func (w Window) Lines() int {
	return w.SampleRate * w.Seconds
}

// State is the baseline of the last emitted frame. It is only ever replaced
// by a successful detection.
type State struct {
	LastLine  string
	LastIndex int
}

// Heuristic names the progress test that accepted a window.
type Heuristic string

const (
	// HeuristicIndex: the wrapping sample counter moved far enough.
	HeuristicIndex Heuristic = "index"
	// HeuristicPosition: the previous last line sits far enough back in
	// the window, or is no longer in it.
	HeuristicPosition Heuristic = "position"
)

// Detection is the outcome of one Detect call. When Ready is false there was
// not enough progress for a frame; Lines is nil and State is the input state.
type Detection struct {
	Ready     bool
	Lines     []string
	State     State
	Heuristic Heuristic
}

// Detect decides whether the newest window of tail constitutes a frame that
// has not been emitted yet.
//
// The window is the last w.Lines() lines of tail; tail must hold strictly
// more than that, so the possibly partial oldest line of a tail read never
// ends up in a frame. The index test measures how far the per-second counter
// advanced since state, modulo the sample rate. It is cheap but goes blind
// when the counter repeats or wraps a whole number of seconds, so it falls
// back to the position test: how many lines of the window follow the
// previously emitted last line (first exact match; absent counts as -1).
// Either test passes once at least SampleRate/FrameRate samples are new.
//
// Only a malformed last line produces an error.
func Detect(tail []string, state State, w Window) (Detection, error) {
	insufficient := Detection{State: state}

	n := w.Lines()
	if len(tail) <= n {
		return insufficient, nil
	}

	candidate := tail[len(tail)-n:]
	lastLine := candidate[n-1]
	lastIndex, err := ParseIndex(lastLine, w.IndexColumn)
	if err != nil {
		return insufficient, err
	}

	next := State{LastLine: lastLine, LastIndex: lastIndex}

	if IndexDelta(lastIndex, state.LastIndex, w.SampleRate)*w.FrameRate >= w.SampleRate {
		return Detection{Ready: true, Lines: slices.Clone(candidate), State: next, Heuristic: HeuristicIndex}, nil
	}

	position := -1
	if state.LastLine != "" {
		position = slices.Index(candidate, state.LastLine)
	}
	if (n-1-position)*w.FrameRate >= w.SampleRate {
		return Detection{Ready: true, Lines: slices.Clone(candidate), State: next, Heuristic: HeuristicPosition}, nil
	}

	return insufficient, nil
}

// IndexDelta is the forward distance from previous to last on a counter that
// wraps at sampleRate. 98 → 2 at 100 Hz is 4, not -96.
func IndexDelta(last, previous, sampleRate int) int {
	d := (last - previous) % sampleRate
	if d < 0 {
		d += sampleRate
	}
	return d
}
