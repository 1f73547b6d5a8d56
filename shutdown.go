package firmloop

import (
	"fmt"

	"github.com/joeycumines/go-firmloop/component"
)

// Shutdown runs every OnShutdown hook, in reverse registration order.
func (a *Application) Shutdown() {
	a.logger.Info().Int("components", len(a.components)).Log("running shutdown hooks")
	for i := len(a.components) - 1; i >= 0; i-- {
		c := a.components[i]
		a.runHook(c, "shutdown", c.OnShutdown)
	}
}

// SafeShutdown runs every OnSafeShutdown hook, then every OnShutdown hook,
// each in reverse registration order.
func (a *Application) SafeShutdown() {
	a.logger.Info().Int("components", len(a.components)).Log("running safe shutdown hooks")
	for i := len(a.components) - 1; i >= 0; i-- {
		c := a.components[i]
		a.runHook(c, "safe_shutdown", c.OnSafeShutdown)
	}
	a.Shutdown()
}

func (a *Application) runHook(c component.Component, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Err().
				Str("component", component.Source(c)).
				Str("hook", hook).
				Str("panic", fmt.Sprint(r)).
				Log("shutdown hook panicked")
		}
	}()
	fn()
}
