package ble

// GAPHandler receives GAP events on the main loop. p is only valid for the
// duration of the call.
type GAPHandler interface {
	HandleGAP(t GAPType, p *GAPParams)
}

// GATTSHandler receives GATT server events on the main loop. e is only valid
// for the duration of the call.
type GATTSHandler interface {
	HandleGATTS(e *GATTSEvent)
}

// GATTCHandler receives GATT client events on the main loop. e is only valid
// for the duration of the call.
type GATTCHandler interface {
	HandleGATTC(e *GATTCEvent)
}

// StatusHandler is notified of bridge state changes.
type StatusHandler interface {
	// BeforeDisabled is called before the stack is torn down.
	BeforeDisabled()
}

// GAPHandlerFunc adapts a function to GAPHandler.
type GAPHandlerFunc func(t GAPType, p *GAPParams)

func (f GAPHandlerFunc) HandleGAP(t GAPType, p *GAPParams) { f(t, p) }

// GATTSHandlerFunc adapts a function to GATTSHandler.
type GATTSHandlerFunc func(e *GATTSEvent)

func (f GATTSHandlerFunc) HandleGATTS(e *GATTSEvent) { f(e) }

// GATTCHandlerFunc adapts a function to GATTCHandler.
type GATTCHandlerFunc func(e *GATTCEvent)

func (f GATTCHandlerFunc) HandleGATTC(e *GATTCEvent) { f(e) }

// Sink is implemented by Bridge, and called by a Stack from any goroutine.
// Each method reports whether the event was queued.
type Sink interface {
	PostGAP(t GAPType, p *GAPParams) bool
	PostGATTS(e *GATTSEvent) bool
	PostGATTC(e *GATTCEvent) bool
}

// Stack is the radio stack driven by a Bridge. Its methods are called from
// the main loop only.
type Stack interface {
	// Init prepares the stack, once, during Bridge setup.
	Init() error
	// Enable starts the radio, delivering events of the listed kinds to sink.
	Enable(sink Sink, kinds []Kind) error
	// SetDeviceName sets the advertised name.
	SetDeviceName(name string) error
	// SetIOCapability sets the pairing IO capability.
	SetIOCapability(c IOCapability) error
	// Disable stops the radio. No events may be posted once it returns.
	Disable() error
	// Address returns the device address, if the stack has one.
	Address() (Address, bool)
}

// IOCapability is the pairing IO capability advertised by the device.
type IOCapability uint8

const (
	IOCapDisplayOnly IOCapability = iota
	IOCapDisplayYesNo
	IOCapKeyboardOnly
	IOCapNone
	IOCapKeyboardDisplay
)

func (c IOCapability) String() string {
	switch c {
	case IOCapDisplayOnly:
		return "display_only"
	case IOCapDisplayYesNo:
		return "display_yes_no"
	case IOCapKeyboardOnly:
		return "keyboard_only"
	case IOCapNone:
		return "none"
	case IOCapKeyboardDisplay:
		return "keyboard_display"
	default:
		return "invalid"
	}
}

// ParseIOCapability is the inverse of IOCapability.String.
func ParseIOCapability(s string) (IOCapability, bool) {
	for c := IOCapDisplayOnly; c <= IOCapKeyboardDisplay; c++ {
		if c.String() == s {
			return c, true
		}
	}
	return 0, false
}
