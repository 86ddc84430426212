package feed

import "time"

// Reconnect backoff schedule.
const (
	backoffInitial    = 500 * time.Millisecond
	backoffMultiplier = 1.6
	backoffMax        = 15 * time.Second
)

// backoff produces the exponential reconnect delay sequence:
// 500ms, 800ms, 1280ms, ... capped at 15s, reset on any successful connect.
//
// Not safe for concurrent use; the adapter serializes access under its lock.
type backoff struct {
	next time.Duration
}

func newBackoff() *backoff {
	return &backoff{next: backoffInitial}
}

// Next returns the delay to wait before the upcoming attempt and advances
// the schedule.
func (b *backoff) Next() time.Duration {
	d := b.next
	b.next = time.Duration(float64(b.next) * backoffMultiplier)
	if b.next > backoffMax {
		b.next = backoffMax
	}
	return d
}

// Reset returns the schedule to its initial delay.
func (b *backoff) Reset() {
	b.next = backoffInitial
}
