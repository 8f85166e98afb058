// Package poller implements the centralized poll-and-broadcast loop.
//
// One long-lived background task wakes on a fixed cadence, checks that a
// provider session exists and that anyone is actually watching, then
// fetches the current playback snapshot through the request cache and
// pushes it to every connected viewer. The interval is measured from the
// end of one tick to the start of the next, so ticks never overlap even
// when a fetch runs long.
package poller
