package lyrics

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Raw payload shapes, as decoded from a provider's lyric-definition message.
// Line-level ("lrc") entries carry only a start time; karaoke ("yrc") entries
// additionally carry a duration and a word list.
type RawLine struct {
	Time        int64     `json:"time"`
	Duration    int64     `json:"duration,omitempty"`
	Text        string    `json:"text"`
	Translation string    `json:"translation,omitempty"`
	Background  bool      `json:"background,omitempty"`
	Words       []RawWord `json:"words,omitempty"`
}

// RawWord is a single word entry inside a karaoke line.
type RawWord struct {
	Time     int64  `json:"time"`
	Duration int64  `json:"duration"`
	Text     string `json:"text"`
	Roman    string `json:"roman,omitempty"`
}

// LastLineTailMs is the synthesized duration of the final line when the
// provider reports no end time for it.
const LastLineTailMs int64 = 10000

// relativeCutoffMs separates "plausibly absolute" from "plausibly relative"
// word timestamps in the relative-offset heuristic. See normalizeWords.
const relativeCutoffMs int64 = 30000

// HasKaraoke reports whether any raw line carries at least one word with
// valid, non-degenerate timing. When true the karaoke payload is preferred
// over the line-level payload.
func HasKaraoke(lines []RawLine) bool {
	for _, l := range lines {
		for _, w := range l.Words {
			if w.Duration > 0 && w.Time >= 0 {
				return true
			}
		}
	}
	return false
}

// Normalize builds a canonical Timeline from the raw payloads of one
// lyric-definition message.
//
// Karaoke lines are chosen when any of them carries usable word timing;
// otherwise the line-level entries are used. The resulting lines are sorted
// ascending by start, have their end times synthesized where missing, and
// have background and empty-text lines filtered from the primary sequence
// unless filtering would leave it empty.
func Normalize(songKey, generation string, lrc, yrc []RawLine) *Timeline {
	raw := lrc
	if HasKaraoke(yrc) {
		raw = yrc
	}

	lines := make([]LyricLine, 0, len(raw))
	for _, rl := range raw {
		line := LyricLine{
			StartMs:     rl.Time,
			EndMs:       rl.Time + rl.Duration,
			Main:        cleanText(rl.Text),
			Translation: cleanText(rl.Translation),
			Background:  rl.Background,
		}
		line.Segments = normalizeWords(rl)
		lines = append(lines, line)
	}

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].StartMs < lines[j].StartMs
	})
	synthesizeEnds(lines)

	return &Timeline{
		SongKey:    songKey,
		Generation: generation,
		Lines:      filterPrimary(lines),
	}
}

// normalizeWords converts a raw line's word list to absolute-time segments.
//
// Heuristic, best effort: some providers emit word times relative to the
// owning line rather than absolute track time, and the protocol carries no
// flag distinguishing the two encodings. A word time under 30s on a line
// that starts at or past 30s cannot plausibly be absolute, so it is treated
// as line-relative and shifted by the line start. Words that genuinely start
// in the first 30 seconds of a late line are misclassified by this rule;
// there is no way to tell them apart upstream.
func normalizeWords(rl RawLine) []WordSegment {
	if len(rl.Words) == 0 {
		return nil
	}
	segs := make([]WordSegment, 0, len(rl.Words))
	for _, w := range rl.Words {
		start, end := w.Time, TimeUnset
		if start >= 0 && start < relativeCutoffMs && rl.Time >= relativeCutoffMs {
			start += rl.Time
		}
		if w.Duration > 0 && start >= 0 {
			end = start + w.Duration
		}
		segs = append(segs, WordSegment{
			Text:    cleanText(w.Text),
			StartMs: start,
			EndMs:   end,
			Roman:   w.Roman,
		})
	}
	return segs
}

// synthesizeEnds repairs missing or mis-reported line end times in a
// start-sorted slice: each line must end after it starts, defaulting to the
// next line's start, with the last line given a fixed tail.
func synthesizeEnds(lines []LyricLine) {
	for i := range lines {
		if lines[i].EndMs > lines[i].StartMs {
			continue
		}
		if i+1 < len(lines) {
			lines[i].EndMs = lines[i+1].StartMs
		} else {
			lines[i].EndMs = lines[i].StartMs + LastLineTailMs
		}
		// A duplicate start still leaves a degenerate line; give it the tail
		// so the interval is non-empty.
		if lines[i].EndMs <= lines[i].StartMs {
			lines[i].EndMs = lines[i].StartMs + LastLineTailMs
		}
	}
}

// filterPrimary drops background/duet lines and empty-text lines from the
// sequence used for indexing, unless that would drop everything.
func filterPrimary(lines []LyricLine) []LyricLine {
	primary := make([]LyricLine, 0, len(lines))
	for _, l := range lines {
		if l.Background || l.Main == "" {
			continue
		}
		primary = append(primary, l)
	}
	if len(primary) == 0 {
		return lines
	}
	return primary
}

// cleanText trims whitespace and applies NFC so visually identical provider
// strings compare equal regardless of their composition form.
func cleanText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
