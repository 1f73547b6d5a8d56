//go:build darwin

package wakeup

import (
	"golang.org/x/sys/unix"
)

// createWakeFD creates a non-blocking, close-on-exec self-pipe.
func createWakeFD() (int, int, error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return 0, 0, err
	}
	cleanup := func() {
		_ = unix.Close(fds[0])
		_ = unix.Close(fds[1])
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	if err := unix.SetNonblock(fds[0], true); err != nil {
		cleanup()
		return 0, 0, err
	}
	if err := unix.SetNonblock(fds[1], true); err != nil {
		cleanup()
		return 0, 0, err
	}
	return fds[0], fds[1], nil
}
