// Package gesture turns rapid repeated clicks on a single element into a
// one-shot navigation. Three clicks, each within Threshold of the one
// before, fire the navigator; a pause of IdleTimeout forgets partial
// progress.
package gesture

import (
	"sync"
	"time"
)

const (
	// Threshold is the largest gap between two clicks that still counts as
	// consecutive. The boundary is inclusive.
	Threshold = 500 * time.Millisecond

	// IdleTimeout clears a partial sequence when no further click arrives.
	IdleTimeout = Threshold + 100*time.Millisecond

	// Clicks is the number of consecutive clicks that fire the navigation.
	Clicks = 3

	// AuthPath is where a completed gesture navigates.
	AuthPath = "/auth"
)

// State is the detector's progress through a click sequence. The zero
// value is idle.
type State struct {
	Pending int
	Last    time.Time // zero when Pending is 0
}

// Step applies a click at now to s. It returns the next state and whether
// the click completed the gesture, in which case the state is already
// reset to idle.
func Step(s State, now time.Time) (State, bool) {
	if s.Pending == 0 || now.Sub(s.Last) > Threshold {
		s = State{Pending: 1, Last: now}
	} else {
		s = State{Pending: s.Pending + 1, Last: now}
	}
	if s.Pending >= Clicks {
		return State{}, true
	}
	return s, false
}

// Navigator performs the navigation once a gesture completes.
type Navigator interface {
	NavigateTo(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(path string)

func (f NavigatorFunc) NavigateTo(path string) { f(path) }

// Timer is the subset of *time.Timer the detector needs.
type Timer interface {
	Stop() bool
}

// Clock supplies the current time and delayed callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// SystemClock is the wall clock.
var SystemClock Clock = systemClock{}

// Detector tracks clicks on one trigger element.
//
// Idle timers fire on their own goroutine, so every state change happens
// under mu. Each click bumps gen; a timer only resets the state if gen has
// not moved since it was armed.
type Detector struct {
	clock Clock
	nav   Navigator

	mu     sync.Mutex
	state  State
	timer  Timer
	gen    uint64
	closed bool
}

// New returns an idle detector. A nil clock means SystemClock.
func New(clock Clock, nav Navigator) *Detector {
	if clock == nil {
		clock = SystemClock
	}
	return &Detector{clock: clock, nav: nav}
}

// Click records a click at the clock's current time and reports whether it
// completed the gesture. Clicks after Close are ignored.
func (d *Detector) Click() bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}

	next, fired := Step(d.state, d.clock.Now())
	d.state = next
	d.gen++
	d.stopTimerLocked()
	if next.Pending > 0 {
		gen := d.gen
		d.timer = d.clock.AfterFunc(IdleTimeout, func() { d.expire(gen) })
	}
	d.mu.Unlock()

	// Navigate outside the lock; the navigator may click again.
	if fired && d.nav != nil {
		d.nav.NavigateTo(AuthPath)
	}
	return fired
}

func (d *Detector) expire(gen uint64) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed || gen != d.gen {
		return
	}
	d.state = State{}
	d.timer = nil
}

// Pending returns how many consecutive clicks are currently counted.
func (d *Detector) Pending() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state.Pending
}

// State returns a copy of the current state.
func (d *Detector) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Close cancels any pending idle timer and stops accepting clicks.
func (d *Detector) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopTimerLocked()
	d.state = State{}
}

func (d *Detector) stopTimerLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
