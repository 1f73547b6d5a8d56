package firmloop

import (
	"context"
	"runtime"
	"slices"

	"github.com/joeycumines/go-firmloop/component"
)

// bringUpState is the state of the setup sequence. While retrying, the
// components set up so far are kept in loop priority order.
//
//	bringUpAdvance → bringUpAdvance  [component i proceeds, more remain]
//	bringUpAdvance → bringUpRetry    [component i cannot proceed]
//	bringUpRetry → bringUpRetry      [still cannot proceed after a cycle]
//	bringUpRetry → bringUpAdvance    [component i proceeds]
//	bringUpAdvance → bringUpDone     [all components set up]
type bringUpState uint8

const (
	bringUpAdvance bringUpState = iota
	bringUpRetry
	bringUpDone
)

func (s bringUpState) String() string {
	switch s {
	case bringUpAdvance:
		return "Advance"
	case bringUpRetry:
		return "Retry"
	case bringUpDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// bringUp sets components up one at a time, in setup priority order.
type bringUp struct {
	app     *Application
	order   []component.Component
	waiting component.Component
	index   int
	retries int
	state   bringUpState
}

func (a *Application) newBringUp() *bringUp {
	order := slices.Clone(a.components)
	component.SortBySetupPriority(order)
	b := &bringUp{app: a, order: order}
	if len(order) == 0 {
		b.state = bringUpDone
	}
	return b
}

// step performs one transition and returns the new state.
func (b *bringUp) step() bringUpState {
	switch b.state {
	case bringUpAdvance:
		c := b.order[b.index]
		b.app.setupComponent(c)
		if !component.Proceeds(c) {
			b.app.logger.Debug().
				Str("component", component.Source(c)).
				Int("index", b.index).
				Log("component cannot proceed, retrying earlier components")
			b.waiting = c
			component.SortByLoopPriority(b.order[:b.index+1])
			b.state = bringUpRetry
			return b.state
		}
		b.next()
	case bringUpRetry:
		b.retries++
		b.app.retryCycle(b.order[:b.index+1])
		if component.Proceeds(b.waiting) {
			b.waiting = nil
			b.next()
		}
	}
	return b.state
}

func (b *bringUp) next() {
	b.index++
	if b.index >= len(b.order) {
		b.state = bringUpDone
	} else {
		b.state = bringUpAdvance
	}
}

// Setup runs bring-up to completion. It has no effect unless called first,
// in PhaseConstructed.
func (a *Application) Setup() {
	_ = a.setup(context.Background())
}

func (a *Application) setup(ctx context.Context) error {
	if !a.phase.tryTransition(PhaseConstructed, PhaseBringUp) {
		return nil
	}
	a.logger.Info().
		Int("components", len(a.components)).
		Log("running through setup")

	b := a.newBringUp()
	for b.state != bringUpDone {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.step()
	}

	a.order = b.order
	a.looping = make([]component.Component, 0, len(b.order))
	for _, c := range b.order {
		if _, ok := c.(component.Looper); ok && !c.ComponentBase().IsFailed() {
			a.looping = append(a.looping, c)
		}
	}
	component.SortByLoopPriority(a.looping)
	a.lastLoop = a.clock.Now()
	a.ScheduleDumpConfig()
	a.phase.store(PhaseRunning)

	a.logger.Info().
		Int("looping", len(a.looping)).
		Int("retries", b.retries).
		Log("setup complete")
	return nil
}

func (a *Application) setupComponent(c component.Component) {
	now := a.clock.Now()
	a.loopComponentStart = now
	a.current = c
	a.callComponent(c, now)
	a.current = nil
	a.scheduler.ProcessToAdd()
	a.FeedWatchdog(a.clock.Now())
}

// retryCycle runs one pass over every component set up so far while bring-up
// waits on the last of them.
func (a *Application) retryCycle(active []component.Component) {
	state := component.StatusWarning
	a.scheduler.Call()
	a.FeedWatchdog(a.clock.Now())
	for _, c := range active {
		now := a.clock.Now()
		a.loopComponentStart = now
		a.current = c
		a.callComponent(c, now)
		state |= c.ComponentBase().Status()
	}
	a.current = nil
	a.appState = state
	runtime.Gosched()
}
