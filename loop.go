package firmloop

import (
	"context"
	"errors"
	"runtime"
	"slices"
	"time"

	"github.com/joeycumines/go-firmloop/component"
)

type diagCategory uint8

const (
	diagWaitFailed diagCategory = iota
	diagDumpPanicked
)

const (
	rebootNone uint32 = iota
	rebootForced
	rebootSafe
)

// Loop runs one iteration of the main loop, running Setup first if it has
// not been run.
func (a *Application) Loop() {
	if a.phase.load() == PhaseConstructed {
		a.Setup()
	}

	start := a.clock.Now()
	a.scheduler.Call()
	lastOpEnd := a.clock.Now()
	a.FeedWatchdog(lastOpEnd)

	var (
		state  component.Status
		failed bool
	)
	for _, c := range a.looping {
		a.loopComponentStart = lastOpEnd
		a.current = c
		lastOpEnd = a.callComponent(c, lastOpEnd)
		b := c.ComponentBase()
		state |= b.Status()
		failed = failed || b.IsFailed()
		a.FeedWatchdog(lastOpEnd)
	}
	a.current = nil
	a.appState = state
	if failed {
		a.looping = slices.DeleteFunc(a.looping, func(c component.Component) bool {
			return c.ComponentBase().IsFailed()
		})
	}

	var next time.Duration
	var hasNext bool
	highFrequency := a.HighFrequency()
	if !highFrequency {
		next, hasNext = a.scheduler.NextScheduleIn()
	}
	a.wait(sleepBudget(a.loopInterval, lastOpEnd.Sub(start), next, hasNext, highFrequency))
	a.lastLoop = start

	a.dumpConfigStep()
}

// Run sets up the application, if necessary, then loops on the calling
// goroutine, which is locked to its OS thread, until ctx is done or a
// reboot is requested. Shutdown hooks run before it returns, the safe
// variants included unless a forced reboot was requested.
func (a *Application) Run(ctx context.Context) error {
	if !a.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer a.running.Store(false)

	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	err := a.setup(ctx)
	for err == nil {
		if err = ctx.Err(); err != nil {
			break
		}
		switch a.reboot.Swap(rebootNone) {
		case rebootForced:
			a.logger.Warning().Log("forced reboot requested")
			a.stop(false)
			return ErrRebootRequested
		case rebootSafe:
			a.logger.Info().Log("safe reboot requested")
			a.stop(true)
			return ErrRebootRequested
		}
		a.Loop()
	}
	a.stop(true)
	return err
}

func (a *Application) stop(safe bool) {
	a.phase.store(PhaseShuttingDown)
	if safe {
		a.SafeShutdown()
	} else {
		a.Shutdown()
	}
	if a.waiter != nil {
		if err := a.waiter.close(); err != nil {
			a.logger.Warning().Err(err).Log("failed to close socket waiter")
		}
		a.waiter = nil
	}
	a.phase.store(PhaseStopped)
}

// RequestReboot asks Run to return ErrRebootRequested at the start of its
// next iteration. It is safe for concurrent use.
func (a *Application) RequestReboot(safe bool) {
	if safe {
		a.reboot.CompareAndSwap(rebootNone, rebootSafe)
	} else {
		a.reboot.Store(rebootForced)
	}
}

// callComponent invokes c and returns the time the call ended.
func (a *Application) callComponent(c component.Component, start time.Time) time.Time {
	b := c.ComponentBase()
	wasFailed := b.IsFailed()
	err := component.Call(c)
	end := a.clock.Now()

	if err != nil {
		var panicErr component.PanicError
		if errors.As(err, &panicErr) {
			a.logger.Crit().
				Str("component", component.Source(c)).
				Any("panic", panicErr.Value).
				Log("component panicked, marking it failed")
		} else {
			a.logger.Err().
				Str("component", component.Source(c)).
				Stringer("lifecycle", b.Lifecycle()).
				Err(err).
				Log("component failed")
		}
	} else if !wasFailed && b.IsFailed() {
		a.logger.Err().
			Str("component", component.Source(c)).
			Log("component was marked failed")
	}

	a.warnIfBlocking(c, end.Sub(start))
	return end
}

func (a *Application) warnIfBlocking(c component.Component, took time.Duration) {
	b := c.ComponentBase()
	threshold := b.WarnIfBlockingOver()
	if threshold <= 0 {
		threshold = a.blockingThreshold
	}
	if took <= threshold {
		return
	}
	if _, ok := a.blockingLimiter.Allow(b); !ok {
		return
	}
	a.logger.Warning().
		Str("component", component.Source(c)).
		Dur("took", took).
		Dur("threshold", threshold).
		Log("component took a long time for an operation")
}
