package lyrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_EndTimeSynthesis(t *testing.T) {
	lrc := []RawLine{
		{Time: 0, Text: "first"},
		{Time: 5000, Text: "second"},
		{Time: 12000, Text: "third"},
	}

	tl := Normalize("song-1", "gen-1", lrc, nil)

	require.Len(t, tl.Lines, 3)
	assert.Equal(t, int64(5000), tl.Lines[0].EndMs)
	assert.Equal(t, int64(12000), tl.Lines[1].EndMs)
	assert.Equal(t, int64(22000), tl.Lines[2].EndMs, "last line gets a fixed tail")
}

func TestNormalize_SortsLinesByStart(t *testing.T) {
	lrc := []RawLine{
		{Time: 9000, Text: "late"},
		{Time: 1000, Text: "early"},
		{Time: 4000, Text: "middle"},
	}

	tl := Normalize("song-1", "gen-1", lrc, nil)

	require.Len(t, tl.Lines, 3)
	assert.Equal(t, "early", tl.Lines[0].Main)
	assert.Equal(t, "middle", tl.Lines[1].Main)
	assert.Equal(t, "late", tl.Lines[2].Main)
}

func TestNormalize_PrefersKaraokeWhenAnyWordTimed(t *testing.T) {
	lrc := []RawLine{{Time: 0, Text: "plain"}}
	yrc := []RawLine{
		{Time: 0, Duration: 2000, Text: "ka ra", Words: []RawWord{
			{Time: 0, Duration: 1000, Text: "ka"},
			{Time: 1000, Duration: 1000, Text: "ra"},
		}},
	}

	tl := Normalize("song-1", "gen-1", lrc, yrc)

	require.Len(t, tl.Lines, 1)
	assert.Len(t, tl.Lines[0].Segments, 2)
	assert.True(t, tl.Lines[0].WordTimingUsable())
}

func TestNormalize_FallsBackToLineLevelWithoutKaraoke(t *testing.T) {
	lrc := []RawLine{{Time: 0, Text: "plain"}}
	// Words present but all degenerate: no usable karaoke anywhere.
	yrc := []RawLine{
		{Time: 0, Duration: 2000, Text: "ka", Words: []RawWord{
			{Time: 0, Duration: 0, Text: "ka"},
		}},
	}

	tl := Normalize("song-1", "gen-1", lrc, yrc)

	require.Len(t, tl.Lines, 1)
	assert.Equal(t, "plain", tl.Lines[0].Main)
	assert.Empty(t, tl.Lines[0].Segments)
}

func TestNormalize_RelativeWordTimesShifted(t *testing.T) {
	// Line starts at 90s but its words report times near zero: the provider
	// emitted line-relative offsets. They must come back absolute.
	yrc := []RawLine{
		{Time: 90000, Duration: 3000, Text: "a b", Words: []RawWord{
			{Time: 0, Duration: 1500, Text: "a"},
			{Time: 1500, Duration: 1500, Text: "b"},
		}},
	}

	tl := Normalize("song-1", "gen-1", nil, yrc)

	require.Len(t, tl.Lines, 1)
	segs := tl.Lines[0].Segments
	require.Len(t, segs, 2)
	assert.Equal(t, int64(90000), segs[0].StartMs)
	assert.Equal(t, int64(91500), segs[0].EndMs)
	assert.Equal(t, int64(91500), segs[1].StartMs)
	assert.Equal(t, int64(93000), segs[1].EndMs)
}

func TestNormalize_AbsoluteWordTimesUntouched(t *testing.T) {
	yrc := []RawLine{
		{Time: 90000, Duration: 3000, Text: "a", Words: []RawWord{
			{Time: 90000, Duration: 3000, Text: "a"},
		}},
	}

	tl := Normalize("song-1", "gen-1", nil, yrc)

	require.Len(t, tl.Lines, 1)
	assert.Equal(t, int64(90000), tl.Lines[0].Segments[0].StartMs)
}

func TestNormalize_FiltersBackgroundAndEmptyLines(t *testing.T) {
	lrc := []RawLine{
		{Time: 0, Text: "lead"},
		{Time: 1000, Text: "echo", Background: true},
		{Time: 2000, Text: "   "},
		{Time: 3000, Text: "lead again"},
	}

	tl := Normalize("song-1", "gen-1", lrc, nil)

	require.Len(t, tl.Lines, 2)
	assert.Equal(t, "lead", tl.Lines[0].Main)
	assert.Equal(t, "lead again", tl.Lines[1].Main)
}

func TestNormalize_KeepsFilteredLinesWhenNothingElseRemains(t *testing.T) {
	lrc := []RawLine{
		{Time: 0, Text: "oooh", Background: true},
		{Time: 1000, Text: "aaah", Background: true},
	}

	tl := Normalize("song-1", "gen-1", lrc, nil)

	assert.Len(t, tl.Lines, 2, "filtering must not empty the sequence")
}

func TestWordTimingUsable_RejectsOverlap(t *testing.T) {
	line := LyricLine{
		StartMs: 0, EndMs: 3000,
		Segments: []WordSegment{
			{Text: "a", StartMs: 0, EndMs: 1500},
			{Text: "b", StartMs: 1200, EndMs: 3000}, // 300ms back-overlap
		},
	}
	assert.False(t, line.WordTimingUsable())
}

func TestWordTimingUsable_AllowsSmallOverlap(t *testing.T) {
	line := LyricLine{
		StartMs: 0, EndMs: 3000,
		Segments: []WordSegment{
			{Text: "a", StartMs: 0, EndMs: 1500},
			{Text: "b", StartMs: 1460, EndMs: 3000}, // within tolerance
		},
	}
	assert.True(t, line.WordTimingUsable())
}

func TestWordTimingUsable_RejectsUnsetTimes(t *testing.T) {
	line := LyricLine{
		StartMs: 0, EndMs: 3000,
		Segments: []WordSegment{
			{Text: "a", StartMs: 0, EndMs: 1500},
			{Text: "b", StartMs: 1500, EndMs: TimeUnset},
		},
	}
	assert.False(t, line.WordTimingUsable())
}

func TestNormalize_TextIsTrimmedAndNFC(t *testing.T) {
	// "é" as 'e' + combining acute must normalize to the precomposed form.
	lrc := []RawLine{{Time: 0, Text: "  café  "}}

	tl := Normalize("song-1", "gen-1", lrc, nil)

	require.Len(t, tl.Lines, 1)
	assert.Equal(t, "café", tl.Lines[0].Main)
}
