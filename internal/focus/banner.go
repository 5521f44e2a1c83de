package focus

import (
	"time"

	"github.com/focusagent/focusagent/internal/clock"
	"github.com/focusagent/focusagent/internal/models"
)

// BannerState is the visibility of the off-task banner
type BannerState string

const (
	BannerHidden  BannerState = "hidden"
	BannerVisible BannerState = "visible"
)

// BannerScheduler shows the banner as soon as the user is off task and
// hides it after a delay. Every off-task signal re-arms the delay; an
// on-task signal hides it at once. Not safe for concurrent use.
type BannerScheduler struct {
	clock    clock.Clock
	delay    time.Duration
	onChange func(visible bool)

	state BannerState
	hide  clock.Timer
	gen   uint64
}

// NewBannerScheduler creates a hidden banner with the given hide delay
func NewBannerScheduler(clk clock.Clock, delay time.Duration, onChange func(visible bool)) *BannerScheduler {
	return &BannerScheduler{
		clock:    clk,
		delay:    delay,
		onChange: onChange,
		state:    BannerHidden,
	}
}

// OnFocusStateChanged is the only way to drive the banner
func (b *BannerScheduler) OnFocusStateChanged(state models.FocusState) {
	switch state {
	case models.FocusOffTask:
		b.cancel()
		b.arm()
		b.set(BannerVisible)
	case models.FocusOnTask:
		b.cancel()
		b.set(BannerHidden)
	}
}

// Stop hides the banner and cancels the hide timer
func (b *BannerScheduler) Stop() {
	b.cancel()
	b.set(BannerHidden)
}

// State returns the current visibility state
func (b *BannerScheduler) State() BannerState {
	return b.state
}

// Visible reports whether the banner is showing
func (b *BannerScheduler) Visible() bool {
	return b.state == BannerVisible
}

// HidePending reports whether a hide timer is armed
func (b *BannerScheduler) HidePending() bool {
	return b.hide != nil
}

func (b *BannerScheduler) arm() {
	b.gen++
	gen := b.gen
	b.hide = b.clock.AfterFunc(b.delay, func() {
		if gen != b.gen {
			return
		}
		b.hide = nil
		b.set(BannerHidden)
	})
}

func (b *BannerScheduler) cancel() {
	b.gen++
	if b.hide != nil {
		b.hide.Stop()
		b.hide = nil
	}
}

func (b *BannerScheduler) set(s BannerState) {
	if b.state == s {
		return
	}
	b.state = s
	if b.onChange != nil {
		b.onChange(s == BannerVisible)
	}
}
