// Package blesim is a simulated radio stack for ble.Bridge, for hosts
// without Bluetooth hardware. Each enabled event kind is produced by its own
// goroutine, as a real stack would deliver them from its own task.
package blesim

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-firmloop/ble"
)

var ErrAlreadyEnabled = errors.New("blesim: already enabled")

// Config configures a Stack.
type Config struct {
	// Address defaults to a fixed locally administered address.
	Address ble.Address
	// ScanInterval is the time between scan results, 100ms by default.
	ScanInterval time.Duration
	// NotifyInterval is the time between GATT client notifications, 1s by
	// default.
	NotifyInterval time.Duration
	// Devices is the number of distinct advertisers, 8 by default.
	Devices int
	Seed    uint64
}

// Stack implements ble.Stack.
type Stack struct {
	cancel   context.CancelFunc
	sink     ble.Sink
	name     string
	cfg      Config
	wg       sync.WaitGroup
	posted   atomic.Uint64
	rejected atomic.Uint64
	mu       sync.Mutex
	ioCap    ble.IOCapability
	inited   bool
}

var _ ble.Stack = (*Stack)(nil)

func New(cfg Config) *Stack {
	if cfg.Address == (ble.Address{}) {
		cfg.Address = ble.Address{0x02, 0x00, 0x5E, 0x10, 0x00, 0x01}
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 100 * time.Millisecond
	}
	if cfg.NotifyInterval <= 0 {
		cfg.NotifyInterval = time.Second
	}
	if cfg.Devices <= 0 {
		cfg.Devices = 8
	}
	return &Stack{cfg: cfg}
}

func (s *Stack) Init() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inited = true
	return nil
}

func (s *Stack) Enable(sink ble.Sink, kinds []ble.Kind) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return ErrAlreadyEnabled
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.sink = sink
	for _, k := range kinds {
		switch k {
		case ble.KindGAP:
			s.start(ctx, s.scan)
		case ble.KindGATTC:
			s.start(ctx, s.notify)
		}
	}
	return nil
}

func (s *Stack) start(ctx context.Context, fn func(ctx context.Context)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		fn(ctx)
	}()
}

// Disable stops every producer goroutine before returning.
func (s *Stack) Disable() error {
	s.mu.Lock()
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()
	if cancel != nil {
		cancel()
		s.wg.Wait()
	}
	return nil
}

func (s *Stack) SetDeviceName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.name = name
	return nil
}

func (s *Stack) SetIOCapability(c ble.IOCapability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ioCap = c
	return nil
}

func (s *Stack) Address() (ble.Address, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Address, s.inited
}

// DeviceName returns the last name set.
func (s *Stack) DeviceName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// IOCapability returns the last capability set.
func (s *Stack) IOCapability() ble.IOCapability {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ioCap
}

// Posted returns the number of events the sink accepted.
func (s *Stack) Posted() uint64 { return s.posted.Load() }

// Rejected returns the number of events the sink did not accept.
func (s *Stack) Rejected() uint64 { return s.rejected.Load() }

func (s *Stack) count(ok bool) {
	if ok {
		s.posted.Add(1)
	} else {
		s.rejected.Add(1)
	}
}

func (s *Stack) scan(ctx context.Context) {
	rng := rand.New(rand.NewPCG(s.cfg.Seed, 1))
	var p ble.GAPParams
	p.Complete = ble.StatusComplete(ble.ScanStartComplete{})
	s.count(s.sink.PostGAP(ble.GAPScanStartComplete, &p))

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			p.Complete = ble.StatusComplete(ble.ScanStopComplete{})
			s.count(s.sink.PostGAP(ble.GAPScanStopComplete, &p))
			return
		case <-ticker.C:
		}
		device := rng.IntN(s.cfg.Devices)
		r := &p.ScanResult
		r.Address = ble.Address{0xC0, 0xFF, 0xEE, 0x00, 0x00, byte(device)}
		r.RSSI = int8(-30 - rng.IntN(70))
		r.DataLen = uint8(copy(r.Data[:], advertisement(device)))
		s.count(s.sink.PostGAP(ble.GAPScanResult, &p))
	}
}

func (s *Stack) notify(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.NotifyInterval)
	defer ticker.Stop()
	var seq byte
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		seq++
		e := ble.GATTCEvent{Type: ble.GATTCNotify, Handle: 0x2A, IsNotify: true}
		e.SetData([]byte{seq})
		s.count(s.sink.PostGATTC(&e))
	}
}

// advertisement returns flags plus a complete local name.
func advertisement(device int) []byte {
	name := []byte{'s', 'i', 'm', '-', byte('0' + device%10)}
	b := []byte{0x02, 0x01, 0x06, byte(len(name) + 1), 0x09}
	return append(b, name...)
}
