// Package clock provides the time source used by the firmloop runtime.
//
// The runtime measures iteration budgets and scheduler deadlines against a
// Clock, which allows tests to drive time deterministically with Manual.
package clock

import (
	"sync"
	"time"
)

// Clock is a monotonic time source that can also block the caller.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

// System is the wall clock. Times returned by Now carry a monotonic reading.
type System struct{}

func (System) Now() time.Time { return time.Now() }

func (System) Sleep(d time.Duration) { time.Sleep(d) }

// Manual is a Clock that only moves when told to. Sleep advances the clock
// immediately and records the requested duration.
type Manual struct {
	now    time.Time
	sleeps []time.Duration
	mu     sync.Mutex
}

// NewManual returns a Manual clock starting at start.
func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *Manual) Sleep(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sleeps = append(m.sleeps, d)
	if d > 0 {
		m.now = m.now.Add(d)
	}
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Sleeps returns a copy of every duration passed to Sleep.
func (m *Manual) Sleeps() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.sleeps...)
}

// LastSleep returns the most recent duration passed to Sleep.
func (m *Manual) LastSleep() (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sleeps) == 0 {
		return 0, false
	}
	return m.sleeps[len(m.sleeps)-1], true
}
