//go:build darwin

package firmloop

import (
	"fmt"
	"slices"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

var fdSetSize = int(unsafe.Sizeof(unix.FdSet{})) * 8

// selectWaiter rebuilds its master set only when registrations change.
type selectWaiter struct {
	fds     []int
	maxFD   int
	base    unix.FdSet
	read    unix.FdSet
	changed bool
}

func newSocketWaiter() (socketWaiter, error) {
	return &selectWaiter{maxFD: -1}, nil
}

func (w *selectWaiter) register(fd int) error {
	if fd >= fdSetSize {
		return fmt.Errorf("%w: fd %d, limit %d", errFDOutOfRange, fd, fdSetSize)
	}
	if slices.Contains(w.fds, fd) {
		return nil
	}
	w.fds = append(w.fds, fd)
	w.maxFD = max(w.maxFD, fd)
	w.changed = true
	return nil
}

func (w *selectWaiter) unregister(fd int) {
	i := slices.Index(w.fds, fd)
	if i < 0 {
		return
	}
	last := len(w.fds) - 1
	w.fds[i] = w.fds[last]
	w.fds = w.fds[:last]
	if fd == w.maxFD {
		w.maxFD = -1
		for _, v := range w.fds {
			w.maxFD = max(w.maxFD, v)
		}
	}
	w.read.Clear(fd)
	w.changed = true
}

func (w *selectWaiter) isReady(fd int) bool {
	return fd < fdSetSize && w.read.IsSet(fd)
}

func (w *selectWaiter) wait(timeout time.Duration) error {
	if w.changed {
		w.base.Zero()
		for _, fd := range w.fds {
			w.base.Set(fd)
		}
		w.changed = false
	}
	w.read = w.base
	tv := unix.NsecToTimeval(timeout.Nanoseconds())
	if _, err := unix.Select(w.maxFD+1, &w.read, nil, nil, &tv); err != nil {
		w.read.Zero()
		if err == unix.EINTR {
			return errWaitInterrupted
		}
		return err
	}
	return nil
}

func (w *selectWaiter) len() int { return len(w.fds) }

func (w *selectWaiter) close() error { return nil }
