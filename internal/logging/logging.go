// Package logging builds the logiface logger used by the host binary.
package logging

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/joeycumines/ilogrus"
	"github.com/joeycumines/izerolog"
	"github.com/joeycumines/logiface"
	"github.com/joeycumines/stumpy"
	"github.com/rs/zerolog"
	"github.com/sirupsen/logrus"
)

// Backend selects the logger implementation.
type Backend string

const (
	BackendStumpy  Backend = "stumpy"
	BackendZerolog Backend = "zerolog"
	BackendLogrus  Backend = "logrus"
)

var (
	ErrUnknownBackend = errors.New("logging: unknown backend")
	ErrUnknownLevel   = errors.New("logging: unknown level")
)

// ParseBackend accepts the Backend names, case insensitively. The empty
// string selects BackendStumpy.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(s)); b {
	case ``:
		return BackendStumpy, nil
	case BackendStumpy, BackendZerolog, BackendLogrus:
		return b, nil
	default:
		return ``, fmt.Errorf("%w: %q", ErrUnknownBackend, s)
	}
}

// ParseLevel accepts the syslog keywords used by logiface.Level.String, the
// deprecated panic, error and warn forms, and "disabled". The empty string
// selects informational.
func ParseLevel(s string) (logiface.Level, error) {
	switch s = strings.ToLower(s); s {
	case ``:
		return logiface.LevelInformational, nil
	case "panic":
		return logiface.LevelEmergency, nil
	case "error":
		return logiface.LevelError, nil
	case "warn":
		return logiface.LevelWarning, nil
	}
	for l := logiface.LevelDisabled; l <= logiface.LevelTrace; l++ {
		if l.String() == s {
			return l, nil
		}
	}
	return logiface.LevelDisabled, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// New returns a logger writing JSON lines to w.
func New(w io.Writer, backend Backend, level logiface.Level) (*logiface.Logger[logiface.Event], error) {
	switch backend {
	case BackendStumpy, ``:
		return stumpy.L.New(
			stumpy.L.WithStumpy(stumpy.WithWriter(w)),
			stumpy.L.WithLevel(level),
		).Logger(), nil

	case BackendZerolog:
		return izerolog.L.New(
			izerolog.L.WithZerolog(zerolog.New(w).With().Timestamp().Logger()),
			izerolog.L.WithLevel(level),
		).Logger(), nil

	case BackendLogrus:
		l := logrus.New()
		l.SetOutput(w)
		l.SetFormatter(&logrus.JSONFormatter{})
		// logiface does the filtering
		l.SetLevel(logrus.TraceLevel)
		return ilogrus.L.New(
			ilogrus.L.WithLogrus(l),
			ilogrus.L.WithLevel(level),
		).Logger(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, backend)
	}
}
