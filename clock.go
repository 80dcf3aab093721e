package ledaction

// This file contains the time source and the cooperative yield point the
// engine is driven by.  Both are supplied by the host, the defaults here
// are what the binaries use

import (
	"runtime"
	"sync"
	"time"
)

// Clock is a monotonic, non-decreasing time source.  Values are measured
// from an arbitrary origin so only differences are meaningful
type Clock interface {
	Now() time.Duration
}

// Yield hands control back to the host for a while.  The engine calls it in
// loops and makes no assumption about how long control is away
type Yield func()

type systemClock struct {
	origin time.Time
}

// SystemClock measures time since its creation using the monotonic clock
func SystemClock() Clock {
	return &systemClock{origin: time.Now()}
}

func (c *systemClock) Now() time.Duration {
	return time.Since(c.origin)
}

// ManualClock only moves when told to, used by tests and by hosts that
// replay frames at their own pace
type ManualClock struct {
	now time.Duration
	sync.Mutex
}

func (c *ManualClock) Now() time.Duration {
	c.Lock()
	defer c.Unlock()
	return c.now
}

// Advance moves the clock forward, negative values are ignored
func (c *ManualClock) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	c.Lock()
	c.now += d
	c.Unlock()
}

// Set moves the clock to t unless that would move it backwards
func (c *ManualClock) Set(t time.Duration) {
	c.Lock()
	if t > c.now {
		c.now = t
	}
	c.Unlock()
}

// SleepYield parks the calling goroutine for d, zero or less only
// reschedules
func SleepYield(d time.Duration) Yield {
	if d <= 0 {
		return runtime.Gosched
	}
	return func() {
		time.Sleep(d)
	}
}
