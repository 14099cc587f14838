package engine

import (
	"sync/atomic"
	"time"
)

// Clock supplies wall-clock time. Its location defines the user's day.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the system clock in the local time zone.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

// Sequence is a monotonic counter stamping events in enqueue order.
//
// Log lines carry the seq so the order in which events were accepted can be
// reconstructed even when they coalesce.
//
// Thread-safety: Sequence is safe for concurrent use (atomic operations).
type Sequence struct {
	seq atomic.Int64
}

// NewSequence creates a sequence starting at 0.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next sequence number and increments the counter.
// Calls are linearizable - each call returns a unique, increasing value.
func (s *Sequence) Next() int64 {
	return s.seq.Add(1)
}

// Current returns the current sequence number without incrementing.
func (s *Sequence) Current() int64 {
	return s.seq.Load()
}
