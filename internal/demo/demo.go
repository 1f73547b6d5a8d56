// Package demo holds the example components run by the host binary.
package demo

import (
	"time"

	"github.com/joeycumines/go-firmloop/ble"
	"github.com/joeycumines/go-firmloop/clock"
	"github.com/joeycumines/go-firmloop/component"
	"github.com/joeycumines/logiface"
)

// Timers is implemented by scheduler.Scheduler.
type Timers interface {
	SetInterval(owner any, name string, d time.Duration, fn func())
	CancelInterval(owner any, name string) bool
}

// Heartbeat logs the application status on an interval. It has no Loop, and
// runs entirely from the scheduler.
type Heartbeat struct {
	component.Base
	timers   Timers
	clock    clock.Clock
	state    func() component.Status
	logger   *logiface.Logger[logiface.Event]
	started  time.Time
	interval time.Duration
	beats    int
}

func NewHeartbeat(timers Timers, c clock.Clock, state func() component.Status, logger *logiface.Logger[logiface.Event], interval time.Duration) *Heartbeat {
	h := &Heartbeat{timers: timers, clock: c, state: state, logger: logger, interval: interval}
	h.SetSource("heartbeat")
	return h
}

func (h *Heartbeat) SetupPriority() float32 { return component.SetupPriorityLate }

func (h *Heartbeat) Setup() error {
	h.started = h.clock.Now()
	if h.interval > 0 {
		h.timers.SetInterval(h, "beat", h.interval, h.beat)
	}
	return nil
}

func (h *Heartbeat) beat() {
	h.beats++
	h.logger.Info().
		Int("beat", h.beats).
		Dur("uptime", h.clock.Now().Sub(h.started)).
		Stringer("status", h.state()).
		Log("heartbeat")
}

// Beats returns the number of heartbeats logged.
func (h *Heartbeat) Beats() int { return h.beats }

func (h *Heartbeat) DumpConfig() {
	h.logger.Info().Dur("interval", h.interval).Log("heartbeat")
}

func (h *Heartbeat) OnShutdown() { h.timers.CancelInterval(h, "beat") }

// SlowStart holds bring-up until a delay has passed since its setup, the way
// a peripheral that needs time to power up would.
type SlowStart struct {
	component.Base
	clock  clock.Clock
	logger *logiface.Logger[logiface.Event]
	ready  time.Time
	delay  time.Duration
	loops  int
}

func NewSlowStart(c clock.Clock, logger *logiface.Logger[logiface.Event], delay time.Duration) *SlowStart {
	s := &SlowStart{clock: c, logger: logger, delay: delay}
	s.SetSource("slow_start")
	return s
}

func (s *SlowStart) SetupPriority() float32 { return component.SetupPriorityHardware }

func (s *SlowStart) Setup() error {
	s.ready = s.clock.Now().Add(s.delay)
	return nil
}

func (s *SlowStart) CanProceed() bool { return !s.clock.Now().Before(s.ready) }

func (s *SlowStart) Loop() error {
	s.loops++
	return nil
}

// Loops returns the number of Loop calls.
func (s *SlowStart) Loops() int { return s.loops }

func (s *SlowStart) DumpConfig() {
	s.logger.Info().Dur("delay", s.delay).Log("slow start")
}

// ScanLogger tracks advertisers seen by a ble.Bridge, and logs a summary on
// each Loop after summaryEvery has passed.
type ScanLogger struct {
	component.Base
	clock        clock.Clock
	logger       *logiface.Logger[logiface.Event]
	devices      map[ble.Address]int8
	lastSummary  time.Time
	summaryEvery time.Duration
	results      int
	completions  int
	notifies     int
}

var (
	_ ble.GAPHandler   = (*ScanLogger)(nil)
	_ ble.GATTCHandler = (*ScanLogger)(nil)
)

func NewScanLogger(c clock.Clock, logger *logiface.Logger[logiface.Event], summaryEvery time.Duration) *ScanLogger {
	s := &ScanLogger{
		clock:        c,
		logger:       logger,
		devices:      make(map[ble.Address]int8),
		summaryEvery: summaryEvery,
	}
	s.SetSource("scan_logger")
	return s
}

func (s *ScanLogger) SetupPriority() float32 { return component.SetupPriorityAfterBluetooth }

func (s *ScanLogger) Setup() error {
	s.lastSummary = s.clock.Now()
	return nil
}

func (s *ScanLogger) HandleGAP(t ble.GAPType, p *ble.GAPParams) {
	switch ble.CategoryOf(t) {
	case ble.CategoryScanResult:
		s.results++
		s.devices[p.ScanResult.Address] = p.ScanResult.RSSI
	case ble.CategoryStatusComplete:
		s.completions++
		if !p.Complete.Success() {
			s.logger.Warning().Stringer("type", t).Int("status", int(p.Complete.Status)).Log("ble operation failed")
		}
	}
}

func (s *ScanLogger) HandleGATTC(e *ble.GATTCEvent) {
	if e.IsNotify {
		s.notifies++
	}
}

func (s *ScanLogger) Loop() error {
	now := s.clock.Now()
	if now.Sub(s.lastSummary) < s.summaryEvery {
		return nil
	}
	s.lastSummary = now
	s.logger.Info().
		Int("devices", len(s.devices)).
		Int("results", s.results).
		Int("notifications", s.notifies).
		Log("ble scan summary")
	return nil
}

// Devices returns the number of distinct advertisers seen.
func (s *ScanLogger) Devices() int { return len(s.devices) }

// Results returns the number of scan results handled.
func (s *ScanLogger) Results() int { return s.results }

// Completions returns the number of status complete events handled.
func (s *ScanLogger) Completions() int { return s.completions }
