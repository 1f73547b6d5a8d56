package firmloop

import (
	"time"
)

// socketWaiter waits for any of a set of descriptors to become readable.
type socketWaiter interface {
	register(fd int) error
	unregister(fd int)
	isReady(fd int) bool
	// wait returns errWaitInterrupted if the wait was cut short by a signal.
	wait(timeout time.Duration) error
	len() int
	close() error
}

// RegisterSocketFD adds fd to the set the loop waits on between iterations.
// It reports false if fd is negative or cannot be monitored. Registering a
// descriptor twice has no further effect.
func (a *Application) RegisterSocketFD(fd int) bool {
	if fd < 0 {
		return false
	}
	if a.waiter == nil {
		w, err := newSocketWaiter()
		if err != nil {
			a.logger.Err().Err(err).Int("fd", fd).Log("cannot monitor socket")
			return false
		}
		a.waiter = w
	}
	if err := a.waiter.register(fd); err != nil {
		a.logger.Err().Err(err).Int("fd", fd).Log("cannot monitor socket")
		return false
	}
	return true
}

// UnregisterSocketFD removes fd from the wait set. Unknown descriptors are
// ignored.
func (a *Application) UnregisterSocketFD(fd int) {
	if fd < 0 || a.waiter == nil {
		return
	}
	a.waiter.unregister(fd)
}

// IsSocketReady reports whether fd was readable when the last wait returned.
func (a *Application) IsSocketReady(fd int) bool {
	return fd >= 0 && a.waiter != nil && a.waiter.isReady(fd)
}
