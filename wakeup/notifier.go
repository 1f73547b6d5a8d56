// Package wakeup provides a loopback notifier that lets producer goroutines
// cut short the main loop's bounded wait.
//
// The main loop registers FD with its wait mechanism. Producers call Notify
// after publishing work; the consumer calls Drain before consuming it, so the
// descriptor does not stay readable across waits.
package wakeup

import (
	"errors"
	"sync/atomic"
	"unsafe"
)

var (
	ErrClosed      = errors.New("wakeup: notifier closed")
	ErrUnsupported = errors.New("wakeup: unsupported platform")
)

// Notifier is an eventfd (Linux) or self-pipe (Darwin). Notify is safe for
// concurrent use. Drain must only be called by the consumer.
type Notifier struct {
	readFD  int
	writeFD int
	pending atomic.Uint32
	closed  atomic.Bool
	buf     [64]byte
}

// New creates the underlying descriptors.
func New() (*Notifier, error) {
	r, w, err := createWakeFD()
	if err != nil {
		return nil, err
	}
	return &Notifier{readFD: r, writeFD: w}, nil
}

// FD returns the descriptor to wait on for readability.
func (n *Notifier) FD() int { return n.readFD }

// Notify makes FD readable. Calls made while a previous notification is
// still undrained do not write again.
func (n *Notifier) Notify() error {
	if n.closed.Load() {
		return ErrClosed
	}
	if !n.pending.CompareAndSwap(0, 1) {
		return nil
	}

	// native endianness, the value only needs to be non-zero
	var one uint64 = 1
	buf := (*[8]byte)(unsafe.Pointer(&one))[:]

	if _, err := writeFD(n.writeFD, buf); err != nil && !isWouldBlock(err) {
		n.pending.Store(0)
		return err
	}
	return nil
}

// Drain reads until the descriptor would block, then clears the pending
// flag. It returns the number of bytes read.
func (n *Notifier) Drain() int {
	var total int
	for {
		c, err := readFD(n.readFD, n.buf[:])
		if err != nil || c <= 0 {
			break
		}
		total += c
	}
	n.pending.Store(0)
	return total
}

// Pending reports whether a notification has been written and not drained.
func (n *Notifier) Pending() bool { return n.pending.Load() != 0 }

// Close releases the descriptors. Subsequent Notify calls fail.
func (n *Notifier) Close() error {
	if !n.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	err := closeFD(n.readFD)
	if n.writeFD != n.readFD {
		if werr := closeFD(n.writeFD); err == nil {
			err = werr
		}
	}
	return err
}
