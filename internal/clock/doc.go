// Package clock implements the predictive playback clock.
//
// The upstream feed reports playback position every 150ms to 1s, sometimes
// with multi-second gaps. Rendering wants a continuous 60Hz time signal with
// no visible snapping. The clock reconciles the two with an anchor-plus-rate
// model: every accepted sample re-anchors a linear extrapolation, and a
// three-way snap / soft-correct / ignore policy decides how hard each sample
// is allowed to pull the prediction.
package clock
