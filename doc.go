// Package firmloop is a cooperative firmware runtime.
//
// An Application drives registered components through a single main loop.
// Setup runs once: components are stable sorted by descending setup priority
// and set up in turn, and a component that cannot yet proceed holds bring-up
// in a retry state, re-running the scheduler and every earlier component
// until it can. The steady-state Loop then runs, one iteration per call:
//
//  1. due scheduler callbacks
//  2. every looping component, in a fixed priority order, feeding the
//     watchdog between components
//  3. a bounded wait, either a plain sleep or a wait on the registered
//     socket descriptors, of min(delay, max(nextDue, delay/2)) where delay
//     is what remains of the tick interval
//  4. one step of the rolling configuration dump
//
// Producer goroutines hand work to the loop through an eventpool.Exchange
// and cut the wait short through a wakeup.Notifier whose descriptor is
// registered with RegisterSocketFD.
//
// All Application methods other than RequestReboot, Phase and the
// HighFrequencyRequester methods must be called from the main loop.
package firmloop
