package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tidewind/lyricwire/internal/testutil"
)

func newTestClock(t *testing.T, opts ...Option) (*Clock, *testutil.ManualClock) {
	t.Helper()
	wall := testutil.NewManualClock()
	return New(append([]Option{WithNow(wall.Now)}, opts...)...), wall
}

func TestClock_NoPredictionBeforeFirstSample(t *testing.T) {
	c, _ := newTestClock(t)
	_, ok := c.PredictedMs()
	assert.False(t, ok)
}

func TestClock_FirstSampleSnaps(t *testing.T) {
	c, _ := newTestClock(t)
	c.Observe(42000, false)

	ms, ok := c.PredictedMs()
	require.True(t, ok)
	assert.Equal(t, int64(42000), ms)
}

func TestClock_ExtrapolatesBetweenSamples(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	wall.AdvanceMs(500)
	ms, ok := c.PredictedMs()
	require.True(t, ok)
	assert.Equal(t, int64(10500), ms, "unit rate extrapolation")
}

func TestClock_SmallDriftIgnored(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	wall.AdvanceMs(2500)
	// Reported time is 500ms behind the prediction (12500): under the snap
	// threshold, so the anchor must not move.
	c.Observe(12000, false)

	ms, _ := c.PredictedMs()
	assert.Equal(t, int64(12500), ms, "prediction keeps extrapolating from the old anchor")
}

func TestClock_SoftCorrectConverges(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	wall.AdvanceMs(2500)
	reported := int64(11000) // 1500ms behind the 12500 prediction
	before, _ := c.PredictedMs()
	driftBefore := before - reported

	c.Observe(reported, false)
	after, _ := c.PredictedMs()
	driftAfter := after - reported

	require.Positive(t, driftBefore)
	assert.Positive(t, driftAfter, "soft correction must not overshoot")
	assert.Less(t, driftAfter, driftBefore, "drift strictly decreases after a soft correction")
}

func TestClock_LargeDriftSnaps(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	wall.AdvanceMs(500)
	c.Observe(60000, false) // way past the seek threshold

	ms, _ := c.PredictedMs()
	assert.Equal(t, int64(60000), ms)
}

func TestClock_SeekedSampleSnapsRegardlessOfDrift(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	wall.AdvanceMs(500)
	// Only 1s of drift (below the undetected-seek threshold) but the
	// adapter flagged it: snap anyway.
	c.Observe(11500, true)

	ms, _ := c.PredictedMs()
	assert.Equal(t, int64(11500), ms)
}

func TestClock_StaleAnchorSnaps(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	wall.AdvanceMs(StaleAfterMs + 1000)
	assert.True(t, c.Stale())

	c.Observe(10100, false)
	ms, _ := c.PredictedMs()
	assert.Equal(t, int64(10100), ms, "sample after silence re-anchors hard")
}

func TestClock_FreezesDuringSilence(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	wall.AdvanceMs(StaleAfterMs)
	atHorizon, _ := c.PredictedMs()

	wall.AdvanceMs(60000)
	frozen, _ := c.PredictedMs()
	assert.Equal(t, atHorizon, frozen, "prediction must not extrapolate past a paused track")
}

func TestClock_RateEstimateTracksSlowPlayback(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	// Track advances at half speed: 250ms of track per 500ms of wall time.
	raw := int64(10000)
	for i := 0; i < 40; i++ {
		wall.AdvanceMs(500)
		raw += 250
		c.Observe(raw, false)
	}

	assert.InDelta(t, 0.5, c.Rate(), 0.05)
}

func TestClock_RateIgnoresOutOfWindowGaps(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(10000, false)

	// A burst pair 10ms apart and a 5s stall must both leave the estimate
	// at its prior value.
	wall.AdvanceMs(10)
	c.Observe(10010, false)
	wall.AdvanceMs(5000)
	c.Observe(15010, false)

	assert.Equal(t, 1.0, c.Rate())
}

func TestClock_IntervalEstimate(t *testing.T) {
	c, wall := newTestClock(t)
	c.Observe(0, false)
	raw := int64(0)
	for i := 0; i < 40; i++ {
		wall.AdvanceMs(200)
		raw += 200
		c.Observe(raw, false)
	}
	assert.InDelta(t, 200, float64(c.IntervalMs()), 10)
}

func TestClock_OffsetFoldedOnce(t *testing.T) {
	c, wall := newTestClock(t, WithOffset(300))
	c.Observe(10000, false)

	ms, _ := c.PredictedMs()
	assert.Equal(t, int64(10300), ms)

	// A follow-up sample consistent with the offset prediction stays in the
	// ignore band: the offset is not applied again.
	wall.AdvanceMs(500)
	c.Observe(10500, false)
	ms, _ = c.PredictedMs()
	assert.Equal(t, int64(10800), ms)
}
