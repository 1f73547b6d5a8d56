//go:build linux

package firmloop

import (
	"slices"
	"time"

	"golang.org/x/sys/unix"
)

const maxEpollEvents = 64

// epollWaiter has no limit on descriptor values.
type epollWaiter struct {
	ready  map[int]struct{}
	fds    []int
	epfd   int
	events [maxEpollEvents]unix.EpollEvent
}

func newSocketWaiter() (socketWaiter, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &epollWaiter{epfd: epfd, ready: make(map[int]struct{})}, nil
}

func (w *epollWaiter) register(fd int) error {
	if slices.Contains(w.fds, fd) {
		return nil
	}
	ev := unix.EpollEvent{Events: unix.EPOLLIN, Fd: int32(fd)}
	if err := unix.EpollCtl(w.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		return err
	}
	w.fds = append(w.fds, fd)
	return nil
}

func (w *epollWaiter) unregister(fd int) {
	i := slices.Index(w.fds, fd)
	if i < 0 {
		return
	}
	last := len(w.fds) - 1
	w.fds[i] = w.fds[last]
	w.fds = w.fds[:last]
	delete(w.ready, fd)
	// may already be gone, if fd was closed
	_ = unix.EpollCtl(w.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (w *epollWaiter) isReady(fd int) bool {
	_, ok := w.ready[fd]
	return ok
}

func (w *epollWaiter) wait(timeout time.Duration) error {
	clear(w.ready)
	n, err := unix.EpollWait(w.epfd, w.events[:], timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return errWaitInterrupted
		}
		return err
	}
	for i := range n {
		if w.events[i].Events&(unix.EPOLLIN|unix.EPOLLERR|unix.EPOLLHUP) != 0 {
			w.ready[int(w.events[i].Fd)] = struct{}{}
		}
	}
	return nil
}

func (w *epollWaiter) len() int { return len(w.fds) }

func (w *epollWaiter) close() error { return unix.Close(w.epfd) }
