package component

import (
	"cmp"
	"slices"
)

// Setup priorities, higher values are set up first.
const (
	// SetupPriorityBus is for communication buses, e.g. I2C or SPI.
	SetupPriorityBus float32 = 1000
	// SetupPriorityIO is for components that other components read from.
	SetupPriorityIO float32 = 900
	// SetupPriorityHardware is for hardware initialisation.
	SetupPriorityHardware float32 = 800
	// SetupPriorityData is the default, for components that produce data.
	SetupPriorityData float32 = 600
	// SetupPriorityProcessor is for components that consume data.
	SetupPriorityProcessor float32 = 400
	// SetupPriorityBluetooth is for the Bluetooth stack.
	SetupPriorityBluetooth float32 = 350
	// SetupPriorityAfterBluetooth is for users of the Bluetooth stack.
	SetupPriorityAfterBluetooth float32 = 300
	// SetupPriorityWiFi is for the network interface.
	SetupPriorityWiFi float32 = 250
	// SetupPriorityBeforeConnection is for components that must run before
	// the network is connected.
	SetupPriorityBeforeConnection float32 = 220
	// SetupPriorityAfterWiFi is for components that need the network up.
	SetupPriorityAfterWiFi float32 = 200
	// SetupPriorityAfterConnection is for components that need a connection.
	SetupPriorityAfterConnection float32 = 100
	// SetupPriorityLate is for components that must be set up last.
	SetupPriorityLate float32 = -100
)

// SortBySetupPriority stable sorts components by descending actual setup
// priority. Ties keep their registration order.
func SortBySetupPriority(components []Component) {
	slices.SortStableFunc(components, func(a, b Component) int {
		return cmp.Compare(ActualSetupPriority(b), ActualSetupPriority(a))
	})
}

// SortByLoopPriority stable sorts components by descending loop priority.
func SortByLoopPriority(components []Component) {
	slices.SortStableFunc(components, func(a, b Component) int {
		return cmp.Compare(b.LoopPriority(), a.LoopPriority())
	})
}
