// Package session wires the engine together: one Session owns the feed
// adapter, the predictive clock, the timeline index, local storage, and the
// outbound NDJSON event stream.
//
// Concurrency model: three concurrent activities exist (the adapter's read
// loop, the 16ms ticker, and the adapter's reconnect timer), but all state
// mutation happens on the single Run loop goroutine. The read loop hands
// events over a channel and the ticker is a select case in the same loop.
// Storage writes leave the loop as fire-and-forget goroutines and are
// drained before Run returns.
//
// Replay drives the same handlers from a recorded feed transcript on a
// virtual wall clock, producing a byte-identical event stream for the same
// input. The golden tests pin that stream down.
package session
