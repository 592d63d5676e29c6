package exchange

import "sync/atomic"

// Clock numbers the delivery attempts of a run. Seq values start at 1 and
// strictly increase, so the journal keeps attempt order without relying on
// wall-clock time.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// Next returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number without advancing.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
