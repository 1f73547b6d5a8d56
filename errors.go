package firmloop

import (
	"errors"
)

// Standard errors.
var (
	ErrAlreadyRunning  = errors.New("firmloop: application already running")
	ErrRebootRequested = errors.New("firmloop: reboot requested")
	ErrInvalidOption   = errors.New("firmloop: invalid option")
)

var (
	errWaitInterrupted   = errors.New("firmloop: socket wait interrupted")
	errFDOutOfRange      = errors.New("firmloop: fd exceeds the wait set size")
	errSocketUnsupported = errors.New("firmloop: socket wait unsupported on this platform")
)
