package firmloop

import (
	"sync/atomic"
)

// Phase is the Application's position in its lifecycle.
//
//	PhaseConstructed → PhaseBringUp      [Setup()]
//	PhaseBringUp → PhaseRunning          [bring-up complete]
//	PhaseBringUp → PhaseShuttingDown     [Run() context done]
//	PhaseRunning → PhaseShuttingDown     [Run() exit]
//	PhaseShuttingDown → PhaseStopped     [shutdown hooks complete]
type Phase uint64

const (
	// PhaseConstructed indicates components may still be registered.
	PhaseConstructed Phase = iota
	// PhaseBringUp indicates Setup is in progress.
	PhaseBringUp
	// PhaseRunning indicates the steady-state loop is active.
	PhaseRunning
	// PhaseShuttingDown indicates the shutdown hooks are running.
	PhaseShuttingDown
	// PhaseStopped indicates Run has returned.
	PhaseStopped
)

// String returns a human-readable representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseConstructed:
		return "Constructed"
	case PhaseBringUp:
		return "BringUp"
	case PhaseRunning:
		return "Running"
	case PhaseShuttingDown:
		return "ShuttingDown"
	case PhaseStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// phaseState is written by the main loop and may be read from anywhere.
type phaseState struct { // betteralign:ignore
	_ [64]byte      //nolint:unused
	v atomic.Uint64 // Phase
	_ [56]byte      //nolint:unused
}

func (s *phaseState) load() Phase { return Phase(s.v.Load()) }

func (s *phaseState) store(p Phase) { s.v.Store(uint64(p)) }

func (s *phaseState) tryTransition(from, to Phase) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}
