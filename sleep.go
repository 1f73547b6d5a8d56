package firmloop

import (
	"errors"
	"runtime"
	"time"
)

// sleepBudget returns how long the loop should wait after an iteration that
// took elapsed. Nothing is left of the tick when a high frequency loop is
// requested or the iteration overran; otherwise the remainder of the tick is
// shortened to the next scheduled callback, but never below half of it.
func sleepBudget(interval, elapsed, next time.Duration, hasNext, highFrequency bool) time.Duration {
	if highFrequency || elapsed >= interval {
		return 0
	}
	delay := interval - elapsed
	if !hasNext {
		return delay
	}
	return min(delay, max(next, delay/2))
}

// wait blocks for up to d, returning early if a registered socket becomes
// readable.
func (a *Application) wait(d time.Duration) {
	if d <= 0 {
		runtime.Gosched()
		return
	}
	if a.waiter == nil || a.waiter.len() == 0 {
		a.clock.Sleep(d)
		return
	}
	err := a.waiter.wait(d)
	switch {
	case err == nil:
	case errors.Is(err, errWaitInterrupted):
		a.logger.Trace().Log("socket wait interrupted")
	default:
		if _, ok := a.diagLimiter.Allow(diagWaitFailed); ok {
			a.logger.Warning().
				Err(err).
				Dur("timeout", d).
				Log("socket wait failed, sleeping instead")
		}
		a.clock.Sleep(d)
	}
}

// timeoutMillis rounds d up to whole milliseconds.
func timeoutMillis(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	ms := d / time.Millisecond
	if d%time.Millisecond != 0 {
		ms++
	}
	return int(ms)
}
