package ble

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
	"github.com/joeycumines/go-firmloop/component"
	"github.com/joeycumines/go-firmloop/eventpool"
	"github.com/joeycumines/go-firmloop/wakeup"
	"github.com/joeycumines/logiface"
)

const (
	// DefaultEventPoolSize is the number of events that may be queued.
	DefaultEventPoolSize = 64
	// MaxDeviceNameLen is the longest advertised name derived from the
	// application name.
	MaxDeviceNameLen = 20
)

// ErrInvalidConfig is returned by NewBridge.
var ErrInvalidConfig = errors.New("ble: invalid config")

// State is the Bridge state. Enable and Disable request a transition, which
// Loop performs.
//
//	StateOff → StateDisabled       [Setup]
//	StateDisabled → StateEnable    [Enable]
//	StateEnable → StateOff         [Loop, stack starting]
//	StateOff → StateActive         [Loop, stack started]
//	StateActive → StateDisable     [Disable]
//	StateDisable → StateDisabled   [Loop, stack stopped]
type State uint8

const (
	StateOff State = iota
	StateDisabled
	StateEnable
	StateActive
	StateDisable
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "off"
	case StateDisabled:
		return "disabled"
	case StateEnable:
		return "enable"
	case StateActive:
		return "active"
	case StateDisable:
		return "disable"
	default:
		return "unknown"
	}
}

// Host is the part of the application a Bridge needs, see
// firmloop.Application.
type Host interface {
	RegisterSocketFD(fd int) bool
	UnregisterSocketFD(fd int)
	IsSocketReady(fd int) bool
	Name() string
	NameAddMACSuffix() bool
	Logger() *logiface.Logger[logiface.Event]
}

// Config configures a Bridge.
type Config struct {
	// DropWarnRates limits how often dropped events are reported, see
	// catrate.NewLimiter. Defaults to once per second, ten per minute.
	DropWarnRates map[time.Duration]int
	// Name is the advertised name. Defaults to the application name.
	Name string
	// EventPoolSize defaults to DefaultEventPoolSize.
	EventPoolSize int
	IOCapability  IOCapability
	EnableOnBoot  bool
}

// Bridge is a component that owns a Stack and dispatches its events on the
// main loop. Apart from the Sink methods, its methods must be called from
// the main loop.
type Bridge struct {
	component.Base
	host           Host
	stack          Stack
	logger         *logiface.Logger[logiface.Event]
	exchange       *eventpool.Exchange[Event]
	notifier       atomic.Pointer[wakeup.Notifier]
	dropLimiter    *catrate.Limiter
	gapHandlers    []GAPHandler
	gattsHandlers  []GATTSHandler
	gattcHandlers  []GATTCHandler
	statusHandlers []StatusHandler
	name           string
	dropped        uint64
	ioCap          IOCapability
	state          State
	enableOnBoot   bool
}

var (
	_ component.Component = (*Bridge)(nil)
	_ component.Looper    = (*Bridge)(nil)
	_ Sink                = (*Bridge)(nil)
)

// NewBridge returns a Bridge in StateOff. Register it with the application,
// along with any handlers, before setup.
func NewBridge(host Host, stack Stack, cfg Config) (b *Bridge, err error) {
	if host == nil || stack == nil {
		return nil, fmt.Errorf("%w: host and stack are required", ErrInvalidConfig)
	}
	if cfg.EventPoolSize == 0 {
		cfg.EventPoolSize = DefaultEventPoolSize
	}
	if cfg.DropWarnRates == nil {
		cfg.DropWarnRates = map[time.Duration]int{
			time.Second: 1,
			time.Minute: 10,
		}
	}
	exchange, err := eventpool.NewExchange[Event](cfg.EventPoolSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	defer func() {
		if r := recover(); r != nil {
			b, err = nil, fmt.Errorf("%w: drop warn rates: %v", ErrInvalidConfig, r)
		}
	}()
	b = &Bridge{
		host:         host,
		stack:        stack,
		logger:       host.Logger(),
		exchange:     exchange,
		dropLimiter:  catrate.NewLimiter(cfg.DropWarnRates),
		name:         cfg.Name,
		ioCap:        cfg.IOCapability,
		enableOnBoot: cfg.EnableOnBoot,
	}
	b.SetSource("ble")
	return b, nil
}

func (b *Bridge) SetupPriority() float32 { return component.SetupPriorityBluetooth }

// RegisterGAPHandler adds h to the GAP handlers. Handlers must be registered
// before the bridge is first enabled, as only kinds that have handlers are
// requested from the stack.
func (b *Bridge) RegisterGAPHandler(h GAPHandler) { b.gapHandlers = append(b.gapHandlers, h) }

// RegisterGATTSHandler adds h to the GATT server handlers.
func (b *Bridge) RegisterGATTSHandler(h GATTSHandler) {
	b.gattsHandlers = append(b.gattsHandlers, h)
}

// RegisterGATTCHandler adds h to the GATT client handlers.
func (b *Bridge) RegisterGATTCHandler(h GATTCHandler) {
	b.gattcHandlers = append(b.gattcHandlers, h)
}

// RegisterStatusHandler adds h to the status handlers.
func (b *Bridge) RegisterStatusHandler(h StatusHandler) {
	b.statusHandlers = append(b.statusHandlers, h)
}

func (b *Bridge) Setup() error {
	if err := b.stack.Init(); err != nil {
		return fmt.Errorf("ble: prepare stack: %w", err)
	}

	if n, err := wakeup.New(); err != nil {
		b.logger.Warning().Err(err).Log("ble: no wake-up notifier, events wait for the next tick")
	} else if !b.host.RegisterSocketFD(n.FD()) {
		_ = n.Close()
		b.logger.Warning().Log("ble: cannot monitor wake-up notifier, events wait for the next tick")
	} else {
		b.notifier.Store(n)
	}

	b.state = StateDisabled
	if b.enableOnBoot {
		b.Enable()
	}
	return nil
}

// Enable requests the stack be started. It has no effect unless disabled.
func (b *Bridge) Enable() {
	if b.state != StateDisabled {
		return
	}
	b.state = StateEnable
}

// Disable requests the stack be stopped.
func (b *Bridge) Disable() {
	if b.state == StateDisabled {
		return
	}
	b.state = StateDisable
}

// State returns the current state.
func (b *Bridge) State() State { return b.state }

// IsActive reports whether the stack is running.
func (b *Bridge) IsActive() bool { return b.state == StateActive }

// Dropped returns the number of events dropped since setup, as of the last
// Loop.
func (b *Bridge) Dropped() uint64 { return b.dropped }

func (b *Bridge) Loop() error {
	switch b.state {
	case StateOff, StateDisabled:
		return nil

	case StateDisable:
		b.logger.Debug().Log("ble: disabling")
		for _, h := range b.statusHandlers {
			h.BeforeDisabled()
		}
		if err := b.stack.Disable(); err != nil {
			return fmt.Errorf("ble: dismantle stack: %w", err)
		}
		// events from before the stack stopped are stale
		b.exchange.Drain(func(*Event) {})
		b.collectDropped()
		b.state = StateDisabled
		return nil

	case StateEnable:
		b.logger.Debug().Log("ble: enabling")
		b.state = StateOff
		if err := b.start(); err != nil {
			return err
		}
		b.state = StateActive
		return nil
	}

	if n := b.notifier.Load(); n != nil && (n.Pending() || b.host.IsSocketReady(n.FD())) {
		n.Drain()
	}
	b.exchange.Drain(b.dispatch)
	b.collectDropped()
	return nil
}

func (b *Bridge) start() error {
	if err := b.stack.Enable(b, b.kinds()); err != nil {
		return fmt.Errorf("ble: enable stack: %w", err)
	}
	name := b.DeviceName()
	if err := b.stack.SetDeviceName(name); err != nil {
		return fmt.Errorf("ble: set device name %q: %w", name, err)
	}
	if err := b.stack.SetIOCapability(b.ioCap); err != nil {
		return fmt.Errorf("ble: set io capability %s: %w", b.ioCap, err)
	}
	return nil
}

// kinds returns the kinds that have handlers.
func (b *Bridge) kinds() []Kind {
	var kinds []Kind
	if len(b.gapHandlers) != 0 {
		kinds = append(kinds, KindGAP)
	}
	if len(b.gattsHandlers) != 0 {
		kinds = append(kinds, KindGATTS)
	}
	if len(b.gattcHandlers) != 0 {
		kinds = append(kinds, KindGATTC)
	}
	return kinds
}

func (b *Bridge) collectDropped() {
	n := b.exchange.Dropped().TakeAndReset()
	if n == 0 {
		return
	}
	b.dropped += n
	if _, ok := b.dropLimiter.Allow(b); ok {
		b.logger.Warning().
			Uint64("dropped", n).
			Uint64("total", b.dropped).
			Int("pool", b.exchange.Cap()).
			Log("ble: event pool exhausted, events dropped")
	}
}

func (b *Bridge) dispatch(e *Event) {
	switch e.Kind {
	case KindGAP:
		if CategoryOf(e.GAPType) == CategoryNone {
			return
		}
		b.logger.Trace().Stringer("type", e.GAPType).Log("ble: gap event")
		for _, h := range b.gapHandlers {
			h.HandleGAP(e.GAPType, &e.GAP)
		}
	case KindGATTS:
		b.logger.Trace().Int("interface", int(e.GATTS.Interface)).Int("type", int(e.GATTS.Type)).Log("ble: gatts event")
		for _, h := range b.gattsHandlers {
			h.HandleGATTS(&e.GATTS)
		}
	case KindGATTC:
		b.logger.Trace().Int("interface", int(e.GATTC.Interface)).Int("type", int(e.GATTC.Type)).Log("ble: gattc event")
		for _, h := range b.gattcHandlers {
			h.HandleGATTC(&e.GATTC)
		}
	}
}

// PostGAP queues a GAP event. Sub-kinds with no category, and nil payloads,
// are not queued.
func (b *Bridge) PostGAP(t GAPType, p *GAPParams) bool {
	c := CategoryOf(t)
	if c == CategoryNone || p == nil {
		return false
	}
	return b.post(func(e *Event) {
		e.Kind = KindGAP
		e.GAPType = t
		e.GAP.copyFor(c, p)
	})
}

// PostGATTS queues a GATT server event.
func (b *Bridge) PostGATTS(ev *GATTSEvent) bool {
	if ev == nil {
		return false
	}
	return b.post(func(e *Event) {
		e.Kind = KindGATTS
		e.GATTS = *ev
	})
}

// PostGATTC queues a GATT client event.
func (b *Bridge) PostGATTC(ev *GATTCEvent) bool {
	if ev == nil {
		return false
	}
	return b.post(func(e *Event) {
		e.Kind = KindGATTC
		e.GATTC = *ev
	})
}

func (b *Bridge) post(fill func(*Event)) bool {
	if !b.exchange.Send(fill) {
		return false
	}
	if n := b.notifier.Load(); n != nil {
		_ = n.Notify()
	}
	return true
}

// DeviceName returns the name the stack advertises. A configured name is
// used without a suffix while the stack has no address.
func (b *Bridge) DeviceName() string {
	mac, ok := b.stack.Address()
	addSuffix := b.host.NameAddMACSuffix()
	if !ok && addSuffix && b.name != `` {
		b.logger.Warning().
			Str("name", b.name).
			Log("ble: no device address, advertising the configured name without a suffix")
		return b.name
	}
	return DeviceName(b.name, b.host.Name(), addSuffix, mac)
}

// DeviceName derives an advertised name. A configured name is used as is,
// plus the last three address bytes if addSuffix is set. Otherwise the
// application name is used, which already carries any suffix, shortened to
// MaxDeviceNameLen by cutting from the middle so the suffix survives.
func DeviceName(configured, appName string, addSuffix bool, mac Address) string {
	if configured != `` {
		if addSuffix {
			return configured + "-" + mac.Hex()[6:]
		}
		return configured
	}
	if len(appName) <= MaxDeviceNameLen {
		return appName
	}
	if addSuffix {
		return appName[:13] + appName[len(appName)-7:]
	}
	return appName[:MaxDeviceNameLen]
}

func (b *Bridge) DumpConfig() {
	addr, ok := b.stack.Address()
	if !ok {
		b.logger.Info().Stringer("state", b.state).Log("ble: stack is not enabled")
		return
	}
	b.logger.Info().
		Stringer("address", addr).
		Stringer("io_capability", b.ioCap).
		Stringer("state", b.state).
		Int("pool", b.exchange.Cap()).
		Uint64("dropped", b.dropped).
		Log("ble bridge")
}

func (b *Bridge) OnShutdown() {
	if b.state == StateActive || b.state == StateDisable {
		for _, h := range b.statusHandlers {
			h.BeforeDisabled()
		}
		if err := b.stack.Disable(); err != nil {
			b.logger.Err().Err(err).Log("ble: failed to stop stack on shutdown")
		}
		b.state = StateDisabled
	}
	if n := b.notifier.Swap(nil); n != nil {
		b.host.UnregisterSocketFD(n.FD())
		_ = n.Close()
	}
}
