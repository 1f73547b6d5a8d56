// Package config loads the host runtime configuration.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root of the YAML document.
type Config struct {
	Name             string         `yaml:"name"`
	FriendlyName     string         `yaml:"friendly_name"`
	Logging          LoggingConfig  `yaml:"logging"`
	BLE              BLEConfig      `yaml:"ble"`
	Demo             DemoConfig     `yaml:"demo"`
	Loop             LoopConfig     `yaml:"loop"`
	Watchdog         WatchdogConfig `yaml:"watchdog"`
	NameAddMACSuffix bool           `yaml:"name_add_mac_suffix"`
}

type LoopConfig struct {
	Interval          time.Duration `yaml:"interval"`
	BlockingThreshold time.Duration `yaml:"blocking_threshold"`
}

type WatchdogConfig struct {
	// Timeout of zero disables the software watchdog.
	Timeout      time.Duration `yaml:"timeout"`
	FeedInterval time.Duration `yaml:"feed_interval"`
}

type LoggingConfig struct {
	// Backend is one of stumpy, zerolog or logrus.
	Backend string `yaml:"backend"`
	Level   string `yaml:"level"`
}

type BLEConfig struct {
	Name          string        `yaml:"name"`
	IOCapability  string        `yaml:"io_capability"`
	EventPoolSize int           `yaml:"event_pool_size"`
	ScanInterval  time.Duration `yaml:"scan_interval"`
	Enabled       bool          `yaml:"enabled"`
	EnableOnBoot  bool          `yaml:"enable_on_boot"`
}

type DemoConfig struct {
	HeartbeatInterval time.Duration `yaml:"heartbeat_interval"`
	// SlowStart holds bring-up for this long, exercising the retry cycle.
	SlowStart time.Duration `yaml:"slow_start"`
}

// Default returns the configuration used for absent keys.
func Default() *Config {
	return &Config{
		Name: "firmloop",
		Loop: LoopConfig{
			Interval:          16 * time.Millisecond,
			BlockingThreshold: 50 * time.Millisecond,
		},
		Watchdog: WatchdogConfig{
			Timeout:      5 * time.Second,
			FeedInterval: 3 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Backend: "stumpy",
			Level:   "info",
		},
		BLE: BLEConfig{
			IOCapability:  "none",
			EventPoolSize: 64,
			ScanInterval:  100 * time.Millisecond,
			Enabled:       true,
			EnableOnBoot:  true,
		},
		Demo: DemoConfig{
			HeartbeatInterval: 10 * time.Second,
		},
	}
}

// Load reads and decodes the file at path over Default. It does not
// validate.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	cfg, err := Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode decodes a YAML document over Default. Unknown keys are an error.
// An empty document yields Default.
func Decode(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return cfg, nil
}
