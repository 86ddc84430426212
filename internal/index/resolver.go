// Package index maps a predicted playback time onto the active lyric line
// and its line-level and word-level progress fractions.
//
// Resolution is pure computation over the in-memory Timeline and is invoked
// on every clock tick plus immediately when a new Timeline arrives. Within
// one Timeline generation resolution is monotonic: once a later line has
// been reached the resolver never reports an earlier one, unless a seek or
// a new Timeline explicitly resets it.
package index

import (
	"sort"

	"github.com/tidewind/lyricwire/internal/lyrics"
)

const (
	// NoLine is the line index reported when no line owns the queried time.
	NoLine = -1

	// ProgressUnknown is reported when a line's interval is degenerate and
	// no meaningful fraction exists.
	ProgressUnknown = -1.0

	// TailGuardMs widens the end of a line's last segment: within this
	// window of the segment's end the fill is forced to 1, so feed jitter
	// that stalls the clock slightly short of the nominal end never leaves
	// the final glyph visibly unfilled.
	TailGuardMs int64 = 220
)

// State is the fully-resolved highlight state for one queried instant.
//
// Words is nil when the active line has no usable word timing; consumers
// then animate from Progress alone. Derived and cheap, State is recomputed
// every tick and never persisted.
type State struct {
	Line     int       // active line index, or NoLine
	Progress float64   // line progress in [0,1], or ProgressUnknown
	Words    []float64 // per-segment fill in [0,1], nil without karaoke
}

// Resolver resolves highlight state against a Timeline and enforces the
// per-generation monotonic-floor rule.
//
// Not safe for concurrent use; the session's event loop is its single owner.
type Resolver struct {
	generation string
	floor      int
}

// NewResolver creates a resolver with no floor.
func NewResolver() *Resolver {
	return &Resolver{floor: NoLine}
}

// Invalidate drops all tracked state. Called on seeks and on song changes
// so the next resolution starts fresh instead of holding the old floor.
func (r *Resolver) Invalidate() {
	r.generation = ""
	r.floor = NoLine
}

// Resolve computes the highlight state for time t against tl.
//
// A line owns the half-open interval [StartMs, EndMs). When t falls in a
// gap between lines the state reports NoLine. When the clock regresses
// slightly (a soft correction) the previously reached line is held rather
// than stepping backward.
func (r *Resolver) Resolve(tl *lyrics.Timeline, t int64) State {
	if tl.Empty() {
		r.Invalidate()
		return State{Line: NoLine, Progress: ProgressUnknown}
	}
	if tl.Generation != r.generation {
		r.generation = tl.Generation
		r.floor = NoLine
	}

	idx := lookup(tl.Lines, t)
	if idx < r.floor {
		// Either t regressed below the floor line (a soft correction moved
		// the clock backward a little) or it sits in a gap. Hold the floor
		// line while t is still left of its end; past it, this is a real
		// forward gap and the placeholder is correct.
		if r.floor != NoLine && t < tl.Lines[r.floor].EndMs {
			idx = r.floor
		} else if idx == NoLine {
			return State{Line: NoLine, Progress: ProgressUnknown}
		}
	}
	if idx == NoLine {
		return State{Line: NoLine, Progress: ProgressUnknown}
	}
	r.floor = idx

	line := tl.Lines[idx]
	st := State{Line: idx, Progress: lineProgress(line, t)}
	if line.WordTimingUsable() {
		st.Words = wordProgress(line, t)
	}
	return st
}

// lookup binary-searches for the last line with start <= t and validates
// that t is still inside it.
func lookup(lines []lyrics.LyricLine, t int64) int {
	n := sort.Search(len(lines), func(i int) bool {
		return lines[i].StartMs > t
	})
	if n == 0 {
		return NoLine
	}
	idx := n - 1
	if t >= lines[idx].EndMs {
		return NoLine
	}
	return idx
}

func lineProgress(line lyrics.LyricLine, t int64) float64 {
	dur := line.DurationMs()
	if dur <= 0 {
		return ProgressUnknown
	}
	return clamp01(float64(t-line.StartMs) / float64(dur))
}

// wordProgress computes each segment's fill independently: 0 before its
// start, 1 at or after its end, linear in between. The last segment gets
// the tail guard.
func wordProgress(line lyrics.LyricLine, t int64) []float64 {
	fills := make([]float64, len(line.Segments))
	last := len(line.Segments) - 1
	for i, seg := range line.Segments {
		end := seg.EndMs
		if i == last && t >= end-TailGuardMs {
			fills[i] = 1
			continue
		}
		switch {
		case t < seg.StartMs:
			fills[i] = 0
		case t >= end:
			fills[i] = 1
		default:
			fills[i] = clamp01(float64(t-seg.StartMs) / float64(end-seg.StartMs))
		}
	}
	return fills
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
