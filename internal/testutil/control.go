package testutil

import "sync"

// ControlSequence hands out control numbers starting at 1.
//
// It can be reset so the same scenario produces the same ISA13, GS06 and
// ST02 values on every run. Safe for concurrent use.
type ControlSequence struct {
	mu  sync.Mutex
	seq int64
}

// NewControlSequence creates a sequence whose first Next returns 1.
func NewControlSequence() *ControlSequence {
	return &ControlSequence{}
}

// Next increments and returns the next control number.
func (c *ControlSequence) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Current returns the last number handed out, or 0.
func (c *ControlSequence) Current() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.seq
}

// Reset rewinds the sequence so the next call to Next returns 1.
func (c *ControlSequence) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq = 0
}
