package feed

import "time"

// Seek detection thresholds against the previously observed sample, both
// strict. Ordinary feed jitter moves time by at most a few hundred
// milliseconds between reports, but some providers re-report several
// seconds behind after a rebuffer, so backward jumps get the same slack as
// forward ones.
const (
	seekBackwardMs = 5000
	seekForwardMs  = 5000
)

// RelayIntervalMs is the minimum spacing of relayed progress events. The
// predictive clock still sees every sample; only the outbound relay to
// stream consumers is limited.
const RelayIntervalMs = 150

// SeekDetector classifies each raw sample against its predecessor. The
// zero value is ready to use. Not safe for concurrent use.
type SeekDetector struct {
	lastMs int64
	seen   bool
}

// Observe returns whether the sample is a seek and records it.
func (d *SeekDetector) Observe(rawMs int64) bool {
	if !d.seen {
		d.lastMs, d.seen = rawMs, true
		return false
	}
	delta := rawMs - d.lastMs
	d.lastMs = rawMs
	return delta < -seekBackwardMs || delta > seekForwardMs
}

// Reset forgets the previous sample, so the next one cannot be classified
// as a seek. Called on song changes and reconnects.
func (d *SeekDetector) Reset() {
	d.seen = false
}

// RelayLimiter rate-limits outbound progress relay. Seeked samples always
// pass: suppressing one would hide an explicit, observable trigger from
// consumers that reset state on it.
type RelayLimiter struct {
	now  func() time.Time
	last time.Time
	has  bool
}

// NewRelayLimiter creates a limiter reading wall time from now.
func NewRelayLimiter(now func() time.Time) *RelayLimiter {
	return &RelayLimiter{now: now}
}

// Allow reports whether this sample may be relayed.
func (l *RelayLimiter) Allow(seeked bool) bool {
	t := l.now()
	if seeked || !l.has || t.Sub(l.last).Milliseconds() >= RelayIntervalMs {
		l.last, l.has = t, true
		return true
	}
	return false
}
