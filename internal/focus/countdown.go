package focus

import (
	"time"

	"github.com/focusagent/focusagent/internal/clock"
)

// TickInterval is how often the local countdown advances
const TickInterval = time.Second

// CountdownTimer decrements a local remaining-seconds value once per tick
// while running. It never touches the network. Not safe for concurrent use.
type CountdownTimer struct {
	clock    clock.Clock
	interval time.Duration
	onTick   func(remaining int, running bool)

	remaining int
	running   bool
	tick      clock.Timer
	gen       uint64
}

// NewCountdownTimer creates a stopped countdown. onTick runs after every tick.
func NewCountdownTimer(clk clock.Clock, onTick func(remaining int, running bool)) *CountdownTimer {
	return &CountdownTimer{
		clock:    clk,
		interval: TickInterval,
		onTick:   onTick,
	}
}

// Start (re)starts the countdown from initialSeconds. Any pending tick is
// replaced, so restarting never double-ticks.
func (c *CountdownTimer) Start(initialSeconds int) {
	c.cancel()
	if initialSeconds <= 0 {
		c.remaining = 0
		c.running = false
		return
	}
	c.remaining = initialSeconds
	c.running = true
	c.schedule()
}

// Stop halts the countdown, keeping the remaining value
func (c *CountdownTimer) Stop() {
	c.cancel()
	c.running = false
}

// Remaining returns the current local value
func (c *CountdownTimer) Remaining() int {
	return c.remaining
}

// Running reports whether a tick is scheduled
func (c *CountdownTimer) Running() bool {
	return c.running
}

func (c *CountdownTimer) schedule() {
	c.gen++
	gen := c.gen
	c.tick = c.clock.AfterFunc(c.interval, func() {
		if gen != c.gen || !c.running {
			return
		}
		c.tick = nil
		c.advance()
	})
}

func (c *CountdownTimer) advance() {
	c.remaining--
	if c.remaining <= 0 {
		c.remaining = 0
		c.running = false
	} else {
		c.schedule()
	}
	if c.onTick != nil {
		c.onTick(c.remaining, c.running)
	}
}

func (c *CountdownTimer) cancel() {
	c.gen++
	if c.tick != nil {
		c.tick.Stop()
		c.tick = nil
	}
}
