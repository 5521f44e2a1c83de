// Package clock abstracts time so timer-driven components stay deterministic in tests.
package clock

import (
	"sort"
	"sync"
	"time"
)

// Timer is a cancellable one-shot callback.
type Timer interface {
	// Stop prevents the timer from firing. It returns false if the timer
	// already fired or was stopped.
	Stop() bool
}

// Clock schedules callbacks and reports the current time.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is the wall clock.
type Real struct{}

func (Real) Now() time.Time {
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Fake is a manually advanced clock. Callbacks run synchronously on the
// goroutine that calls Advance, in deadline order.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers []*fakeTimer
}

type fakeTimer struct {
	clock *Fake
	when  time.Time
	seq   uint64
	fn    func()
	done  bool
}

// NewFake returns a fake clock starting at the given time.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *Fake) AfterFunc(d time.Duration, fn func()) Timer {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t := &fakeTimer{clock: f, when: f.now.Add(d), seq: f.seq, fn: fn}
	f.timers = append(f.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.clock.remove(t)
	return true
}

// Advance moves time forward by d, firing every timer that falls due,
// including timers scheduled by callbacks during the advance.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	target := f.now.Add(d)
	f.mu.Unlock()

	for {
		f.mu.Lock()
		next := f.nextDue(target)
		if next == nil {
			f.now = target
			f.mu.Unlock()
			return
		}
		f.now = next.when
		next.done = true
		f.remove(next)
		f.mu.Unlock()

		next.fn()
	}
}

// Pending reports how many timers are scheduled and not yet fired or stopped.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.timers)
}

func (f *Fake) nextDue(target time.Time) *fakeTimer {
	if len(f.timers) == 0 {
		return nil
	}
	sort.SliceStable(f.timers, func(i, j int) bool {
		if f.timers[i].when.Equal(f.timers[j].when) {
			return f.timers[i].seq < f.timers[j].seq
		}
		return f.timers[i].when.Before(f.timers[j].when)
	})
	if f.timers[0].when.After(target) {
		return nil
	}
	return f.timers[0]
}

func (f *Fake) remove(t *fakeTimer) {
	for i, candidate := range f.timers {
		if candidate == t {
			f.timers = append(f.timers[:i], f.timers[i+1:]...)
			return
		}
	}
}
