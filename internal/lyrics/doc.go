// Package lyrics defines the canonical lyric data model and the
// normalization of provider payloads into it.
//
// The model has three layers: WordSegment (one karaoke-fillable unit),
// LyricLine (one display line), and Timeline (the full ordered sequence for
// a song). A Timeline is built fresh from every lyric-definition emission
// and replaced wholesale, never merged, because per-line and per-word
// timestamps are only mutually consistent within one emission.
//
// Normalization is deliberately tolerant: missing end times are synthesized,
// out-of-order lines are sorted, and inconsistent word timing degrades a
// line to line-level progress instead of rejecting the payload.
package lyrics
