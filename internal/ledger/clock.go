package ledger

import "sync/atomic"

// Clock is the ledger's sequence counter.
//
// Next returns 1 on first use, so Current always equals the number of
// sequence numbers issued (the ledger's block count).
//
// Thread-safety: Clock is safe for concurrent use. The ledger additionally
// calls Next inside its write lock so that claiming a number and storing the
// record appear as one step.
type Clock struct {
	seq atomic.Int64
}

// NewClock creates a clock whose first Next returns 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a clock that has already issued start numbers.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next claims and returns the next sequence number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number, 0 if none.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
