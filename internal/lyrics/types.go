package lyrics

// TimeUnset marks a missing per-word timestamp.
const TimeUnset int64 = -1

// WordTolerance is the allowed backward overlap, in milliseconds, between
// consecutive word segments before a line's karaoke timing is considered
// unusable. Providers routinely emit a few milliseconds of overlap at word
// boundaries; anything beyond this is treated as corrupt timing data.
const WordTolerance int64 = 50

// WordSegment is one karaoke-fillable unit within a line.
//
// StartMs/EndMs are absolute track times in milliseconds, or TimeUnset when
// the provider did not report them. A segment with unset or degenerate times
// does not invalidate the line's text, only its word-level animation.
type WordSegment struct {
	Text    string `json:"text"`
	StartMs int64  `json:"startMs"`
	EndMs   int64  `json:"endMs"`
	Roman   string `json:"roman,omitempty"`
}

// Timed reports whether the segment carries valid, non-degenerate timing.
func (w WordSegment) Timed() bool {
	return w.StartMs >= 0 && w.EndMs > w.StartMs
}

// LyricLine is a single display line with optional per-word timing.
//
// Lines are owned exclusively by their Timeline and immutable once built.
// A new provider emission replaces the whole Timeline; lines are never
// patched in place, because per-line and per-word timestamps are only
// valid together.
type LyricLine struct {
	StartMs     int64         `json:"startMs"`
	EndMs       int64         `json:"endMs"`
	Main        string        `json:"main"`
	Translation string        `json:"translation,omitempty"`
	Segments    []WordSegment `json:"segments,omitempty"`
	Background  bool          `json:"background,omitempty"`
}

// DurationMs returns the line's duration, which may be zero or negative for
// malformed input that normalization has not repaired.
func (l LyricLine) DurationMs() int64 {
	return l.EndMs - l.StartMs
}

// WordTimingUsable reports whether every segment in the line has valid
// timing and the segments are non-decreasing in time (within WordTolerance).
//
// A single violation disqualifies the whole line: consumers fall back to
// line-level progress rather than animating from inconsistent data.
func (l LyricLine) WordTimingUsable() bool {
	if len(l.Segments) == 0 {
		return false
	}
	for i, seg := range l.Segments {
		if !seg.Timed() {
			return false
		}
		if i > 0 && seg.StartMs < l.Segments[i-1].EndMs-WordTolerance {
			return false
		}
	}
	return true
}

// Timeline is the canonical, fully-resolved line sequence for one song.
//
// Generation is a unique token minted per emission. Consumers that track
// per-timeline state (the index's monotonic floor, primarily) reset that
// state when the generation changes.
type Timeline struct {
	SongKey    string      `json:"songKey"`
	Generation string      `json:"generation,omitempty"`
	Lines      []LyricLine `json:"lines"`
}

// Empty reports whether the timeline carries no lines.
func (t *Timeline) Empty() bool {
	return t == nil || len(t.Lines) == 0
}
