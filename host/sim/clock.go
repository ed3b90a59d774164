package sim

import (
	"sync/atomic"
	"time"

	"keylock/core"
)

// MonotonicClock counts timer ticks since it was created
type MonotonicClock struct {
	start time.Time
}

// NewMonotonicClock starts counting from now
func NewMonotonicClock() *MonotonicClock {
	return &MonotonicClock{start: time.Now()}
}

// Ticks returns the elapsed time in timer ticks. It wraps like the
// hardware counter.
func (c *MonotonicClock) Ticks() uint32 {
	return uint32(uint64(time.Since(c.start).Microseconds()) * core.TimerFreq / 1000000)
}

// ManualClock only moves when told to
type ManualClock struct {
	now uint32
}

// NewManualClock starts at ticks
func NewManualClock(ticks uint32) *ManualClock {
	return &ManualClock{now: ticks}
}

func (c *ManualClock) Ticks() uint32 {
	return atomic.LoadUint32(&c.now)
}

// Advance moves the clock forward by d
func (c *ManualClock) Advance(d time.Duration) {
	atomic.AddUint32(&c.now, core.TimerFromDuration(d))
}
