package demo

import (
	"fmt"

	firmloop "github.com/joeycumines/go-firmloop"
	"github.com/joeycumines/go-firmloop/ble"
	"github.com/joeycumines/go-firmloop/ble/blesim"
	"github.com/joeycumines/go-firmloop/internal/config"
)

var _ ble.Host = (*firmloop.Application)(nil)

// Installed holds the components registered by Install. Fields for disabled
// features are nil.
type Installed struct {
	Heartbeat  *Heartbeat
	SlowStart  *SlowStart
	ScanLogger *ScanLogger
	Bridge     *ble.Bridge
	Stack      *blesim.Stack
}

// Install registers the demo components with app, plus a ble.Bridge over a
// simulated stack if cfg enables BLE. cfg must be valid.
func Install(app *firmloop.Application, timers Timers, cfg *config.Config) (*Installed, error) {
	var (
		out    Installed
		logger = app.Logger()
		clk    = app.Clock()
	)

	out.Heartbeat = NewHeartbeat(timers, clk, app.AppState, logger, cfg.Demo.HeartbeatInterval)
	app.RegisterComponent(out.Heartbeat)

	if cfg.Demo.SlowStart > 0 {
		out.SlowStart = NewSlowStart(clk, logger, cfg.Demo.SlowStart)
		app.RegisterComponent(out.SlowStart)
	}

	if !cfg.BLE.Enabled {
		return &out, nil
	}

	ioCap, ok := ble.ParseIOCapability(cfg.BLE.IOCapability)
	if !ok {
		return nil, fmt.Errorf("demo: io capability %q", cfg.BLE.IOCapability)
	}
	out.Stack = blesim.New(blesim.Config{ScanInterval: cfg.BLE.ScanInterval})
	bridge, err := ble.NewBridge(app, out.Stack, ble.Config{
		Name:          cfg.BLE.Name,
		EventPoolSize: cfg.BLE.EventPoolSize,
		IOCapability:  ioCap,
		EnableOnBoot:  cfg.BLE.EnableOnBoot,
	})
	if err != nil {
		return nil, err
	}
	out.Bridge = bridge
	out.ScanLogger = NewScanLogger(clk, logger, cfg.Demo.HeartbeatInterval)
	bridge.RegisterGAPHandler(out.ScanLogger)
	bridge.RegisterGATTCHandler(out.ScanLogger)
	app.RegisterComponent(bridge)
	app.RegisterComponent(out.ScanLogger)
	return &out, nil
}
