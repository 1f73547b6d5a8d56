package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	require.NoError(t, Validate(Default()))
}

func TestDecode_Empty(t *testing.T) {
	cfg, err := Decode(strings.NewReader(``))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDecode_OverridesDefaults(t *testing.T) {
	cfg, err := Decode(strings.NewReader(`
name: kitchen
name_add_mac_suffix: true
loop:
  interval: 20ms
logging:
  backend: zerolog
  level: debug
ble:
  io_capability: keyboard_display
  event_pool_size: 8
`))
	require.NoError(t, err)
	require.NoError(t, Validate(cfg))
	assert.Equal(t, "kitchen", cfg.Name)
	assert.True(t, cfg.NameAddMACSuffix)
	assert.Equal(t, 20*time.Millisecond, cfg.Loop.Interval)
	assert.Equal(t, 50*time.Millisecond, cfg.Loop.BlockingThreshold, "absent keys keep their defaults")
	assert.Equal(t, "zerolog", cfg.Logging.Backend)
	assert.Equal(t, 8, cfg.BLE.EventPoolSize)
	assert.True(t, cfg.BLE.EnableOnBoot)
}

func TestDecode_UnknownKey(t *testing.T) {
	_, err := Decode(strings.NewReader("nmae: typo\n"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "firmloop.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: garage\n"), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "garage", cfg.Name)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "missing.yaml")
}

func TestValidate(t *testing.T) {
	for _, tc := range []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"empty name", func(c *Config) { c.Name = `` }, "name is required"},
		{"non ascii name", func(c *Config) { c.Name = "küche" }, "must be ASCII"},
		{"zero interval", func(c *Config) { c.Loop.Interval = 0 }, "loop.interval"},
		{"zero threshold", func(c *Config) { c.Loop.BlockingThreshold = 0 }, "loop.blocking_threshold"},
		{"watchdog too short", func(c *Config) { c.Watchdog.Timeout = time.Millisecond }, "must exceed loop.interval"},
		{"negative feed", func(c *Config) { c.Watchdog.FeedInterval = -1 }, "watchdog.feed_interval"},
		{"backend", func(c *Config) { c.Logging.Backend = "syslog" }, "logging.backend"},
		{"level", func(c *Config) { c.Logging.Level = "loud" }, "logging.level"},
		{"pool", func(c *Config) { c.BLE.EventPoolSize = 0 }, "ble.event_pool_size"},
		{"io cap", func(c *Config) { c.BLE.IOCapability = "telepathy" }, "ble.io_capability"},
		{"scan", func(c *Config) { c.BLE.ScanInterval = 0 }, "ble.scan_interval"},
		{"demo", func(c *Config) { c.Demo.SlowStart = -time.Second }, "demo intervals"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := Validate(cfg)
			assert.ErrorIs(t, err, ErrInvalid)
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestValidate_DisabledBLEIgnored(t *testing.T) {
	cfg := Default()
	cfg.BLE.Enabled = false
	cfg.BLE.EventPoolSize = 0
	assert.NoError(t, Validate(cfg))
}

func TestValidate_ReportsAll(t *testing.T) {
	cfg := Default()
	cfg.Name = ``
	cfg.Loop.Interval = 0
	err := Validate(cfg)
	assert.ErrorContains(t, err, "name is required")
	assert.ErrorContains(t, err, "loop.interval")
	assert.Error(t, Validate(nil))
}
