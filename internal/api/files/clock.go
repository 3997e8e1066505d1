package files

import (
	"sync"
	"time"
)

// Clock hands out strictly increasing Unix millisecond values. Two uploads
// in the same millisecond get distinct values, so file names and tokens
// derived from them never collide within a process.
type Clock struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{now: now}
}

// Next returns the wall clock in milliseconds, or last+1 when the wall
// clock has not moved past the previous value.
func (c *Clock) Next() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	ms := c.now().UnixMilli()
	if ms <= c.last {
		ms = c.last + 1
	}
	c.last = ms
	return ms
}

var processClock = NewClock(time.Now)

// ProcessClock is shared by every upload path of the process.
func ProcessClock() *Clock { return processClock }
