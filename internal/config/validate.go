package config

import (
	"errors"
	"fmt"

	"github.com/joeycumines/go-firmloop/ble"
	"github.com/joeycumines/go-firmloop/internal/logging"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Validate checks cfg without modifying it, returning every problem found.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", ErrInvalid)
	}
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if cfg.Name == `` {
		fail("name is required")
	}
	for i := 0; i < len(cfg.Name); i++ {
		if c := cfg.Name[i]; c > 0x7F || c == ' ' {
			fail("name %q must be ASCII without spaces", cfg.Name)
			break
		}
	}

	if cfg.Loop.Interval <= 0 {
		fail("loop.interval must be positive, got %v", cfg.Loop.Interval)
	}
	if cfg.Loop.BlockingThreshold <= 0 {
		fail("loop.blocking_threshold must be positive, got %v", cfg.Loop.BlockingThreshold)
	}

	if cfg.Watchdog.Timeout < 0 {
		fail("watchdog.timeout must not be negative, got %v", cfg.Watchdog.Timeout)
	}
	if cfg.Watchdog.FeedInterval < 0 {
		fail("watchdog.feed_interval must not be negative, got %v", cfg.Watchdog.FeedInterval)
	}
	if cfg.Watchdog.Timeout > 0 && cfg.Watchdog.Timeout <= cfg.Loop.Interval {
		fail("watchdog.timeout %v must exceed loop.interval %v", cfg.Watchdog.Timeout, cfg.Loop.Interval)
	}

	if _, err := logging.ParseBackend(cfg.Logging.Backend); err != nil {
		fail("logging.backend: %v", err)
	}
	if _, err := logging.ParseLevel(cfg.Logging.Level); err != nil {
		fail("logging.level: %v", err)
	}

	if cfg.BLE.Enabled {
		if cfg.BLE.EventPoolSize < 1 {
			fail("ble.event_pool_size must be positive, got %d", cfg.BLE.EventPoolSize)
		}
		if _, ok := ble.ParseIOCapability(cfg.BLE.IOCapability); !ok {
			fail("ble.io_capability %q is not one of display_only, display_yes_no, keyboard_only, none, keyboard_display", cfg.BLE.IOCapability)
		}
		if cfg.BLE.ScanInterval <= 0 {
			fail("ble.scan_interval must be positive, got %v", cfg.BLE.ScanInterval)
		}
	}

	if cfg.Demo.HeartbeatInterval < 0 || cfg.Demo.SlowStart < 0 {
		fail("demo intervals must not be negative")
	}

	return errors.Join(errs...)
}
