// Package component defines the lifecycle contract implemented by every unit
// of firmware behaviour driven by a firmloop Application.
//
// Implementations embed Base, which provides the default priorities, the
// no-op hooks, and the lifecycle state the runtime needs:
//
//	type Sensor struct {
//		component.Base
//	}
//
//	func (s *Sensor) Setup() error { return nil }
//	func (s *Sensor) Loop() error  { return nil }
package component

import (
	"fmt"
	"time"
)

// Component is a unit of firmware behaviour with a uniform setup/loop
// lifecycle.
type Component interface {
	// Setup performs one-time initialisation. A non-nil error marks the
	// component failed.
	Setup() error

	// SetupPriority orders bring-up, higher values are set up earlier.
	SetupPriority() float32

	// LoopPriority orders steady-state looping, higher values loop earlier.
	LoopPriority() float32

	// CanProceed is consulted after Setup, and after every bring-up retry
	// cycle, until it reports true.
	CanProceed() bool

	// DumpConfig logs the component's configuration, once, after setup.
	DumpConfig()

	// OnShutdown is invoked, in reverse registration order, before a reboot.
	OnShutdown()

	// OnSafeShutdown is invoked, in reverse registration order, before the
	// OnShutdown hooks of a safe reboot.
	OnSafeShutdown()

	// ComponentBase returns the embedded Base.
	ComponentBase() *Base
}

// Looper is implemented by components that participate in steady-state
// looping. A non-nil error marks the component failed.
type Looper interface {
	Loop() error
}

// PanicError wraps a value recovered from a panicking Setup or Loop.
type PanicError struct {
	Value any
}

func (e PanicError) Error() string {
	return fmt.Sprintf("component: panicked: %v", e.Value)
}

// Unwrap returns the panic value if it is an error.
func (e PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Call invokes the lifecycle entry point appropriate to c's state: Setup for
// a constructed component, Loop for a set up Looper, and nothing for a failed
// one. A returned error or a panic marks c failed, and is returned.
func Call(c Component) (err error) {
	b := c.ComponentBase()
	switch b.lifecycle {
	case LifecycleConstructed:
		b.lifecycle = LifecycleSetup
		err = invoke(c.Setup)
		if err == nil && b.lifecycle == LifecycleSetup {
			b.lifecycle = LifecycleLoop
		}
	case LifecycleLoop:
		if l, ok := c.(Looper); ok {
			err = invoke(l.Loop)
		}
	}
	if err != nil {
		b.MarkFailed()
	}
	return err
}

// Proceeds reports whether bring-up may move past c. Failed components always
// proceed.
func Proceeds(c Component) bool {
	return c.ComponentBase().IsFailed() || c.CanProceed()
}

// ActualSetupPriority returns the override set by Base.SetSetupPriority, if
// any, otherwise c.SetupPriority().
func ActualSetupPriority(c Component) float32 {
	if b := c.ComponentBase(); b.hasSetupPriority {
		return b.setupPriority
	}
	return c.SetupPriority()
}

// Source returns the name used to identify c in logs.
func Source(c Component) string {
	if s := c.ComponentBase().source; s != `` {
		return s
	}
	return fmt.Sprintf("%T", c)
}

func invoke(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = PanicError{Value: r}
		}
	}()
	return fn()
}

// Base is embedded by every Component. The zero value is a constructed
// component with default priorities.
type Base struct {
	source           string
	warnBlocking     time.Duration
	setupPriority    float32
	hasSetupPriority bool
	lifecycle        Lifecycle
	status           Status
}

// ComponentBase implements Component.
func (b *Base) ComponentBase() *Base { return b }

// SetupPriority defaults to SetupPriorityData.
func (b *Base) SetupPriority() float32 { return SetupPriorityData }

// LoopPriority defaults to 0.
func (b *Base) LoopPriority() float32 { return 0 }

// CanProceed defaults to true.
func (b *Base) CanProceed() bool { return true }

func (b *Base) DumpConfig() {}

func (b *Base) OnShutdown() {}

func (b *Base) OnSafeShutdown() {}

// SetSetupPriority overrides the component's own SetupPriority.
func (b *Base) SetSetupPriority(priority float32) {
	b.setupPriority = priority
	b.hasSetupPriority = true
}

// SetSource sets the name used in logs.
func (b *Base) SetSource(source string) { b.source = source }

// SetWarnIfBlockingOver overrides the application's blocking threshold for
// this component. Zero restores the default.
func (b *Base) SetWarnIfBlockingOver(d time.Duration) { b.warnBlocking = d }

// WarnIfBlockingOver returns the per-component blocking threshold, or zero.
func (b *Base) WarnIfBlockingOver() time.Duration { return b.warnBlocking }

// Lifecycle returns the lifecycle state.
func (b *Base) Lifecycle() Lifecycle { return b.lifecycle }

// MarkFailed permanently excludes the component from looping.
func (b *Base) MarkFailed() {
	b.lifecycle = LifecycleFailed
	b.status |= StatusError
}

// IsFailed reports whether MarkFailed has been called.
func (b *Base) IsFailed() bool { return b.lifecycle == LifecycleFailed }

// Status returns the status flags, including StatusFailed.
func (b *Base) Status() Status {
	if b.lifecycle == LifecycleFailed {
		return b.status | StatusFailed
	}
	return b.status
}

func (b *Base) StatusSetWarning() { b.status |= StatusWarning }

func (b *Base) StatusClearWarning() { b.status &^= StatusWarning }

func (b *Base) StatusSetError() { b.status |= StatusError }

func (b *Base) StatusClearError() { b.status &^= StatusError }

func (b *Base) StatusHasWarning() bool { return b.status&StatusWarning != 0 }

func (b *Base) StatusHasError() bool { return b.status&StatusError != 0 }
