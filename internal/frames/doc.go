// Package frames extracts fixed-size frames of samples from a line-oriented
// data file that an acquisition process is still appending to.
//
// Each data line carries a per-second sample counter in one of its ", "
// separated columns. A Stream repeatedly reads the tail of the file and emits
// the most recent sample_rate × window_size_in_seconds lines as a Frame once
// enough new samples have arrived for the requested frame rate. Progress is
// judged by two tests: the forward distance of the wrapping sample counter,
// and, when that is inconclusive, the distance of the previously emitted last
// line within the new window.
//
// The file is never locked and no descriptor is held between polls. A Stream
// is not safe for concurrent Next calls; independent Streams are.
package frames
