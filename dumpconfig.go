package firmloop

import (
	"fmt"

	"github.com/joeycumines/go-firmloop/component"
)

// ScheduleDumpConfig restarts the rolling configuration dump. The loop dumps
// one component per iteration, in setup order, so a long dump never holds
// up a single iteration.
func (a *Application) ScheduleDumpConfig() { a.dumpAt = 0 }

func (a *Application) dumpConfigStep() {
	if a.dumpAt < 0 {
		return
	}
	if a.dumpAt >= len(a.order) {
		a.dumpAt = -1
		return
	}
	if a.dumpAt == 0 {
		a.logger.Info().
			Str("name", a.name).
			Str("friendly_name", a.friendlyName).
			Str("version", a.version).
			Int("components", len(a.order)).
			Log("firmloop application")
	}
	c := a.order[a.dumpAt]
	a.dumpAt++
	a.dumpConfig(c)
}

func (a *Application) dumpConfig(c component.Component) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := a.diagLimiter.Allow(diagDumpPanicked); ok {
				a.logger.Err().
					Str("component", component.Source(c)).
					Str("panic", fmt.Sprint(r)).
					Log("config dump panicked")
			}
		}
	}()
	c.DumpConfig()
	if c.ComponentBase().IsFailed() {
		a.logger.Err().
			Str("component", component.Source(c)).
			Log("component is marked FAILED")
	}
}
