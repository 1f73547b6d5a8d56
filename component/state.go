package component

import (
	"strings"
)

// Lifecycle is the position of a component in its setup/loop lifecycle.
//
//	LifecycleConstructed → LifecycleSetup → LifecycleLoop
//	any → LifecycleFailed (terminal)
type Lifecycle uint8

const (
	// LifecycleConstructed indicates Setup has not been attempted.
	LifecycleConstructed Lifecycle = iota
	// LifecycleSetup indicates Setup is in progress.
	LifecycleSetup
	// LifecycleLoop indicates Setup completed and the component is runnable.
	LifecycleLoop
	// LifecycleFailed indicates the component is permanently excluded.
	LifecycleFailed
)

// String returns a human-readable representation of the lifecycle state.
func (l Lifecycle) String() string {
	switch l {
	case LifecycleConstructed:
		return "Constructed"
	case LifecycleSetup:
		return "Setup"
	case LifecycleLoop:
		return "Loop"
	case LifecycleFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Status is a set of bitwise-combinable status flags. The application
// aggregates the flags of every component into a single status word.
type Status uint8

// StatusNone indicates a healthy component.
const StatusNone Status = 0

const (
	StatusWarning Status = 1 << iota
	StatusError
	StatusFailed
)

// String lists the set flags, e.g. "warning|error".
func (s Status) String() string {
	if s == StatusNone {
		return "none"
	}
	var parts []string
	if s&StatusWarning != 0 {
		parts = append(parts, "warning")
	}
	if s&StatusError != 0 {
		parts = append(parts, "error")
	}
	if s&StatusFailed != 0 {
		parts = append(parts, "failed")
	}
	return strings.Join(parts, "|")
}
