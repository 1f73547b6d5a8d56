package logging

import (
	"bytes"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logiface.Level{
		``:         logiface.LevelInformational,
		"info":     logiface.LevelInformational,
		"DEBUG":    logiface.LevelDebug,
		"trace":    logiface.LevelTrace,
		"err":      logiface.LevelError,
		"error":    logiface.LevelError,
		"warn":     logiface.LevelWarning,
		"warning":  logiface.LevelWarning,
		"crit":     logiface.LevelCritical,
		"disabled": logiface.LevelDisabled,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("verbose")
	assert.ErrorIs(t, err, ErrUnknownLevel)
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend(``)
	require.NoError(t, err)
	assert.Equal(t, BackendStumpy, b)
	b, err = ParseBackend("Logrus")
	require.NoError(t, err)
	assert.Equal(t, BackendLogrus, b)
	_, err = ParseBackend("syslog")
	assert.ErrorIs(t, err, ErrUnknownBackend)
}

func TestNew_Backends(t *testing.T) {
	for _, backend := range []Backend{BackendStumpy, BackendZerolog, BackendLogrus} {
		t.Run(string(backend), func(t *testing.T) {
			var buf bytes.Buffer
			logger, err := New(&buf, backend, logiface.LevelInformational)
			require.NoError(t, err)
			logger.Info().Str("component", "ble").Log("hello")
			logger.Debug().Log("filtered")
			out := buf.String()
			assert.Contains(t, out, "hello")
			assert.Contains(t, out, `"component":"ble"`)
			assert.NotContains(t, out, "filtered")
		})
	}
}

func TestNew_UnknownBackend(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Backend("syslog"), logiface.LevelInformational)
	assert.ErrorIs(t, err, ErrUnknownBackend)
}
