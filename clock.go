package rigid

import (
	"log"
	"sync"
	"time"
)

// Clock calls a tick function at a fixed period on its own goroutine. Each
// call receives the period in seconds as dt.
//
// Stop only signals the loop; it never waits for a tick in progress, so it
// is safe to call from inside the tick function or an event handler.
type Clock struct {
	mu      sync.Mutex
	stop    chan struct{}
	period  time.Duration
	tick    func(dt float32)
	running bool
}

// NewClock creates a stopped clock that will call tick.
func NewClock(tick func(dt float32)) *Clock {
	return &Clock{tick: tick}
}

// Start (re)starts the loop with the given period. A running loop is
// stopped first.
func (c *Clock) Start(period time.Duration) error {
	if period <= 0 {
		return invalidParam("tick period %v must be positive", period)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()

	stop := make(chan struct{})
	c.stop = stop
	c.period = period
	c.running = true
	go c.loop(stop, period)
	return nil
}

// Stop halts the loop. Calling Stop on a stopped clock does nothing.
func (c *Clock) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

func (c *Clock) stopLocked() {
	if !c.running {
		return
	}
	close(c.stop)
	c.stop = nil
	c.running = false
}

// Running reports whether the loop is active.
func (c *Clock) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.running
}

// Period returns the period of the current or last run.
func (c *Clock) Period() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.period
}

func (c *Clock) loop(stop <-chan struct{}, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	dt := float32(period.Seconds())

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		// The ticker and stop may both be ready; a stopped clock never ticks.
		select {
		case <-stop:
			return
		default:
		}
		c.safeTick(dt)
	}
}

// safeTick runs one tick, recovering a panic so the loop keeps going.
func (c *Clock) safeTick(dt float32) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("rigid: clock: recovered panic in tick: %v", r)
		}
	}()
	c.tick(dt)
}
