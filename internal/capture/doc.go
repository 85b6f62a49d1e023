// Package capture is the writing side of a data file: it appends complete
// sample lines coming from an acquisition board's serial port, or replays a
// previously recorded file at its sample rate so frame streams can be
// exercised without hardware.
package capture
