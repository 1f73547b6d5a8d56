// Package watchdog provides a software watchdog for host builds.
//
// On hardware the watchdog resets the device when the main loop stops
// feeding it. Soft reproduces the deadline with a timer: if Feed is not
// called within the timeout, the expiry action runs.
package watchdog

import (
	"sync"
	"sync/atomic"
	"time"
)

// Soft is a software watchdog. Feed is safe for concurrent use.
type Soft struct {
	timer    *time.Timer
	onExpire func()
	timeout  time.Duration
	feeds    atomic.Uint64
	expiries atomic.Uint64
	mu       sync.Mutex
	stopped  bool
}

// NewSoft returns a stopped watchdog. onExpire runs on its own goroutine each
// time the deadline passes without a feed.
func NewSoft(timeout time.Duration, onExpire func()) *Soft {
	return &Soft{timeout: timeout, onExpire: onExpire}
}

// Start arms the deadline.
func (w *Soft) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = false
	if w.timer == nil {
		w.timer = time.AfterFunc(w.timeout, w.expire)
		return
	}
	w.timer.Reset(w.timeout)
}

// Feed pushes the deadline out by the timeout.
func (w *Soft) Feed() {
	w.feeds.Add(1)
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil && !w.stopped {
		w.timer.Reset(w.timeout)
	}
}

// Stop disarms the deadline.
func (w *Soft) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	if w.timer != nil {
		w.timer.Stop()
	}
}

// Feeds returns the number of Feed calls.
func (w *Soft) Feeds() uint64 { return w.feeds.Load() }

// Expiries returns the number of times the deadline passed.
func (w *Soft) Expiries() uint64 { return w.expiries.Load() }

// Timeout returns the configured deadline.
func (w *Soft) Timeout() time.Duration { return w.timeout }

func (w *Soft) expire() {
	w.mu.Lock()
	stopped := w.stopped
	w.mu.Unlock()
	if stopped {
		return
	}
	w.expiries.Add(1)
	if w.onExpire != nil {
		w.onExpire()
	}
}
