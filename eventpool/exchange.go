package eventpool

import (
	"errors"
	"sync/atomic"
)

var errQueueFull = errors.New("eventpool: queue full")

// DropCounter counts records discarded because the pool was exhausted. The
// consumer reads and resets it once per iteration for diagnostics.
type DropCounter struct {
	n atomic.Uint64
}

func (c *DropCounter) Increment() { c.n.Add(1) }

func (c *DropCounter) Load() uint64 { return c.n.Load() }

// TakeAndReset returns the count and sets it to zero, atomically.
func (c *DropCounter) TakeAndReset() uint64 { return c.n.Swap(0) }

// Exchange hands records of type T from producers to a single consumer.
// Pool and queue share the same capacity, so a successful allocation always
// finds queue space.
type Exchange[T any] struct {
	pool    *Pool[T]
	queue   *Queue
	dropped DropCounter
}

// NewExchange preallocates capacity records.
func NewExchange[T any](capacity int) (*Exchange[T], error) {
	pool, err := NewPool[T](capacity)
	if err != nil {
		return nil, err
	}
	queue, err := NewQueue(capacity)
	if err != nil {
		return nil, err
	}
	return &Exchange[T]{pool: pool, queue: queue}, nil
}

// Send allocates a record, passes it to fill, and enqueues it. Any failure,
// a panicking fill included, releases the record, counts a drop and returns
// false. Send never blocks and is safe for concurrent use.
func (x *Exchange[T]) Send(fill func(*T)) bool {
	h, ok := x.pool.Allocate()
	if !ok {
		x.dropped.Increment()
		return false
	}
	if fill != nil && !x.fill(h, fill) {
		_ = x.pool.Release(h)
		x.dropped.Increment()
		return false
	}
	if err := x.publish(h); err != nil {
		_ = x.pool.Release(h)
		x.dropped.Increment()
		return false
	}
	return true
}

func (x *Exchange[T]) fill(h Handle, fn func(*T)) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	fn(x.pool.Get(h))
	return true
}

// publish enqueues an allocated record. A record is queued at most once
// between allocation and release.
func (x *Exchange[T]) publish(h Handle) error {
	if err := x.pool.markQueued(h); err != nil {
		return err
	}
	if !x.queue.Push(h) {
		x.pool.markDequeued(h)
		return errQueueFull
	}
	return nil
}

// Drain pops every queued record in FIFO order, passes it to fn, then
// releases it. The record must not be retained after fn returns. Drain must
// only be called by the consumer. It returns the number of records consumed.
func (x *Exchange[T]) Drain(fn func(*T)) int {
	var n int
	for {
		h, ok := x.queue.Pop()
		if !ok {
			return n
		}
		x.consume(h, fn)
		n++
	}
}

func (x *Exchange[T]) consume(h Handle, fn func(*T)) {
	x.pool.markDequeued(h)
	defer func() { _ = x.pool.Release(h) }()
	if fn != nil {
		fn(x.pool.Get(h))
	}
}

// Pending returns the number of queued records.
func (x *Exchange[T]) Pending() int { return x.queue.Len() }

// Dropped returns the drop counter.
func (x *Exchange[T]) Dropped() *DropCounter { return &x.dropped }

// Pool returns the underlying pool.
func (x *Exchange[T]) Pool() *Pool[T] { return x.pool }

// Cap returns the capacity.
func (x *Exchange[T]) Cap() int { return x.pool.Cap() }
