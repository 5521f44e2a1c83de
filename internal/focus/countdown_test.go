package focus

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/focusagent/focusagent/internal/clock"
)

type tick struct {
	remaining int
	running   bool
}

func newTestCountdown() (*CountdownTimer, *clock.Fake, *[]tick) {
	clk := clock.NewFake(epoch)
	var ticks []tick
	c := NewCountdownTimer(clk, func(remaining int, running bool) {
		ticks = append(ticks, tick{remaining, running})
	})
	return c, clk, &ticks
}

func TestCountdownTimer_CountsDownAndStops(t *testing.T) {
	c, clk, ticks := newTestCountdown()

	c.Start(3)
	assert.True(t, c.Running())
	assert.Equal(t, 3, c.Remaining())

	clk.Advance(time.Second)
	assert.Equal(t, 2, c.Remaining())

	clk.Advance(2 * time.Second)
	assert.Equal(t, 0, c.Remaining())
	assert.False(t, c.Running())
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(10 * time.Second)
	assert.Equal(t, 0, c.Remaining(), "never goes negative")

	assert.Equal(t, []tick{{2, true}, {1, true}, {0, false}}, *ticks)
}

func TestCountdownTimer_RestartNeverDoubleTicks(t *testing.T) {
	c, clk, ticks := newTestCountdown()

	c.Start(10)
	clk.Advance(500 * time.Millisecond)
	c.Start(10)
	assert.Equal(t, 1, clk.Pending())

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, 10, c.Remaining(), "restart resets the tick phase")

	clk.Advance(500 * time.Millisecond)
	assert.Equal(t, 9, c.Remaining())
	assert.Len(t, *ticks, 1)
}

func TestCountdownTimer_StartNonPositive(t *testing.T) {
	c, clk, ticks := newTestCountdown()

	c.Start(5)
	c.Start(0)
	assert.False(t, c.Running())
	assert.Equal(t, 0, c.Remaining())
	assert.Equal(t, 0, clk.Pending())

	c.Start(-4)
	assert.Equal(t, 0, c.Remaining())

	clk.Advance(5 * time.Second)
	assert.Empty(t, *ticks)
}

func TestCountdownTimer_Stop(t *testing.T) {
	c, clk, _ := newTestCountdown()

	c.Start(60)
	clk.Advance(5 * time.Second)
	c.Stop()
	require.False(t, c.Running())
	assert.Equal(t, 55, c.Remaining())
	assert.Equal(t, 0, clk.Pending())

	clk.Advance(time.Minute)
	assert.Equal(t, 55, c.Remaining())

	c.Stop()
	assert.False(t, c.Running())
}

func TestCountdownTimer_NeverNegative(t *testing.T) {
	c, clk, ticks := newTestCountdown()

	for _, start := range []int{1, 2, 7, 0, 3} {
		c.Start(start)
		clk.Advance(time.Duration(start+3) * time.Second)
	}

	for _, tk := range *ticks {
		assert.GreaterOrEqual(t, tk.remaining, 0)
		if tk.remaining == 0 {
			assert.False(t, tk.running)
		}
	}
}
