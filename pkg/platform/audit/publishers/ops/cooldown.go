package ops

import (
	"sync"
	"time"
)

// Cooldown stops writes to an unhealthy sink for a fixed period after
// threshold consecutive failures, then lets traffic through again.
type Cooldown struct {
	mu sync.Mutex

	threshold int
	period    time.Duration
	now       func() time.Time

	failures  int
	openUntil time.Time
	isOpen    bool
}

// NewCooldown creates a cooldown. Non-positive values fall back to 5 failures
// and one minute.
func NewCooldown(threshold int, period time.Duration) *Cooldown {
	if threshold <= 0 {
		threshold = 5
	}
	if period <= 0 {
		period = time.Minute
	}
	return &Cooldown{threshold: threshold, period: period, now: time.Now}
}

// Allow reports whether a write may be attempted.
func (c *Cooldown) Allow() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.isOpen && c.now().After(c.openUntil) {
		c.isOpen = false
		c.failures = 0
	}
	return !c.isOpen
}

func (c *Cooldown) RecordSuccess() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = 0
	c.isOpen = false
}

func (c *Cooldown) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.failures++
	if c.failures >= c.threshold {
		c.isOpen = true
		c.openUntil = c.now().Add(c.period)
	}
}

func (c *Cooldown) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isOpen
}
