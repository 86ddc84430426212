package clock

import (
	"math"
	"time"
)

// Tuning constants for the anchor-plus-rate model. All values are in
// milliseconds unless noted.
const (
	// rateGapMinMs/rateGapMaxMs bound the inter-sample wall gap used for
	// rate estimation. Gaps outside this window are either duplicate
	// deliveries or post-stall bursts and would corrupt the estimate.
	rateGapMinMs = 30
	rateGapMaxMs = 2000

	// rateMax clamps the instantaneous rate estimate. Playback never runs
	// meaningfully faster than 1.25x in practice; larger values are seeks
	// that slipped past detection.
	rateMax = 1.25

	// emaWeight is the weight of the newest sample in the exponential
	// smoothing of both the rate and the inter-sample interval estimates.
	emaWeight = 0.2

	// StaleAfterMs is the silence threshold: with no accepted sample for
	// this long the feed is assumed paused or stopped, the prediction stops
	// extrapolating, and the next sample hard-snaps.
	StaleAfterMs = 3500

	// seekThresholdMs is the prediction error beyond which a sample is
	// treated as an undetected seek and hard-snapped to.
	seekThresholdMs = 2500

	// snapThresholdMs is the drift beyond which the anchor is nudged toward
	// the sample. Drift under this is ignored entirely, which is what keeps
	// the output continuous instead of visibly correcting every tick.
	snapThresholdMs = 900

	// softCorrectFactor is how far a soft correction moves the anchor
	// toward the sample.
	softCorrectFactor = 0.25

	// DefaultIntervalMs seeds the inter-sample interval estimate before any
	// sample pair has been observed.
	DefaultIntervalMs = 500
)

// Clock converts sparse raw timestamp samples into a continuously-evaluable
// local time estimate:
//
//	predicted(now) = anchorMs + (now - anchorAt) * rate
//
// re-anchored on every accepted sample. Corrections follow a three-way
// policy: hard snap for seeks, stale anchors, and gross drift; a partial
// nudge for moderate drift; no correction at all for drift within the snap
// threshold.
//
// Clock is not safe for concurrent use. The session's event loop is its
// single owner; the ticker and the sample handler run on the same loop.
type Clock struct {
	now      func() time.Time
	offsetMs int64

	anchorMs  float64
	anchorAt  time.Time
	hasAnchor bool

	rate       float64
	intervalMs float64

	lastRawMs int64
	lastRawAt time.Time
	hasLast   bool
}

// Option configures a Clock.
type Option func(*Clock)

// WithNow replaces the wall-clock source. Tests inject a manual clock.
func WithNow(now func() time.Time) Option {
	return func(c *Clock) { c.now = now }
}

// WithOffset sets a constant presentation offset that is folded into the
// anchor whenever the clock snaps or corrects. It compensates for known
// feed latency and is never applied twice.
func WithOffset(offsetMs int64) Option {
	return func(c *Clock) { c.offsetMs = offsetMs }
}

// New creates a Clock with a unit playback rate and no anchor.
func New(opts ...Option) *Clock {
	c := &Clock{
		now:        time.Now,
		rate:       1.0,
		intervalMs: DefaultIntervalMs,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Observe feeds one raw sample into the model. seeked marks samples the
// source adapter already identified as seeks; they snap unconditionally.
func (c *Clock) Observe(rawMs int64, seeked bool) {
	now := c.now()

	if c.hasLast {
		gap := now.Sub(c.lastRawAt).Milliseconds()
		if gap > rateGapMinMs && gap <= rateGapMaxMs {
			inst := float64(rawMs-c.lastRawMs) / float64(gap)
			inst = math.Max(0, math.Min(rateMax, inst))
			c.rate = c.rate*(1-emaWeight) + inst*emaWeight
			c.intervalMs = c.intervalMs*(1-emaWeight) + float64(gap)*emaWeight
		}
	}
	c.lastRawMs, c.lastRawAt, c.hasLast = rawMs, now, true

	target := float64(rawMs + c.offsetMs)
	stale := c.hasAnchor && now.Sub(c.anchorAt).Milliseconds() > StaleAfterMs
	pred := c.predictAt(now)
	drift := math.Abs(pred - target)

	switch {
	case !c.hasAnchor || stale || seeked || drift > seekThresholdMs:
		c.anchorMs, c.anchorAt, c.hasAnchor = target, now, true
	case drift > snapThresholdMs:
		c.anchorMs = pred + (target-pred)*softCorrectFactor
		c.anchorAt = now
	}
	// Drift within the snap threshold: keep predicting from the existing
	// anchor. This is the common case.
}

// PredictedMs evaluates the model at the current wall instant. The second
// return is false until a first sample has anchored the clock.
//
// During feed silence the prediction is clamped at the stale horizon rather
// than extrapolating indefinitely past a paused track.
func (c *Clock) PredictedMs() (int64, bool) {
	if !c.hasAnchor {
		return 0, false
	}
	return int64(math.Round(c.predictAt(c.now()))), true
}

func (c *Clock) predictAt(now time.Time) float64 {
	if !c.hasAnchor {
		return 0
	}
	elapsed := now.Sub(c.anchorAt).Milliseconds()
	if elapsed > StaleAfterMs {
		elapsed = StaleAfterMs
	}
	return c.anchorMs + float64(elapsed)*c.rate
}

// Stale reports whether the feed has been silent past the stale horizon.
// Diagnostic; prediction already freezes on its own via the clamp above.
func (c *Clock) Stale() bool {
	return c.hasAnchor && c.now().Sub(c.anchorAt).Milliseconds() > StaleAfterMs
}

// Rate returns the smoothed playback-rate estimate.
func (c *Clock) Rate() float64 { return c.rate }

// IntervalMs returns the smoothed inter-sample interval estimate. The
// presentation layer sizes its animation durations from this.
func (c *Clock) IntervalMs() int64 { return int64(math.Round(c.intervalMs)) }

// DriftMs returns the signed difference between the current prediction and
// the most recently observed sample, measured at that sample's arrival.
// Diagnostic only.
func (c *Clock) DriftMs() int64 {
	if !c.hasAnchor || !c.hasLast {
		return 0
	}
	return int64(math.Round(c.predictAt(c.lastRawAt))) - (c.lastRawMs + c.offsetMs)
}
