package eventpool

import (
	"errors"
	"math"
	"sync/atomic"
)

// MaxCapacity bounds the number of slots in a Pool or Queue.
const MaxCapacity = math.MaxUint32 >> 1

var (
	// ErrInvalidCapacity is returned when a capacity is not in [1, MaxCapacity].
	ErrInvalidCapacity = errors.New("eventpool: capacity out of range")
	// ErrInvalidHandle is returned for a handle the pool never issued.
	ErrInvalidHandle = errors.New("eventpool: invalid handle")
	// ErrNotAllocated is returned when releasing a slot that is free, or
	// still queued.
	ErrNotAllocated = errors.New("eventpool: slot not allocated")
	// ErrAlreadyQueued is returned when enqueuing a slot that is free, or
	// already queued.
	ErrAlreadyQueued = errors.New("eventpool: slot not allocated or already queued")
)

// slot ownership, one per slot
const (
	slotFree uint32 = iota
	slotAllocated
	slotQueued
)

// Handle identifies an allocated slot. Handles are only meaningful to the
// Pool that issued them.
type Handle uint32

// Pool is a fixed-capacity arena of T with a lock-free free index.
//
// Allocate may be called concurrently from any number of producers and never
// blocks. Get and Release are called by whichever goroutine currently owns the
// handle.
type Pool[T any] struct {
	slots  []T
	states []atomic.Uint32
	free   *indexRing
	inUse  atomic.Int64
}

// NewPool allocates every slot up front.
func NewPool[T any](capacity int) (*Pool[T], error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	p := &Pool[T]{
		slots:  make([]T, capacity),
		states: make([]atomic.Uint32, capacity),
		free:   newIndexRing(capacity),
	}
	for i := range capacity {
		p.free.push(uint32(i))
	}
	return p, nil
}

// Allocate takes a free slot, or returns false if the pool is exhausted.
func (p *Pool[T]) Allocate() (Handle, bool) {
	i, ok := p.free.pop()
	if !ok {
		return 0, false
	}
	p.states[i].Store(slotAllocated)
	p.inUse.Add(1)
	return Handle(i), true
}

// Get returns the slot for h. The pointer is valid until h is released.
func (p *Pool[T]) Get(h Handle) *T {
	return &p.slots[h]
}

// Release zeroes the slot and returns it to the free index. It fails with
// ErrNotAllocated, leaving the pool untouched, if h is free or still queued,
// so a slot is never released twice.
func (p *Pool[T]) Release(h Handle) error {
	if int64(h) >= int64(len(p.slots)) {
		return ErrInvalidHandle
	}
	if !p.states[h].CompareAndSwap(slotAllocated, slotFree) {
		return ErrNotAllocated
	}
	var zero T
	p.slots[h] = zero
	p.inUse.Add(-1)
	if !p.free.push(uint32(h)) {
		// each index is in the free ring at most once, and it holds them all
		panic("eventpool: release overflowed the free index")
	}
	return nil
}

// markQueued transfers h from its allocator to a queue. It fails unless h is
// allocated and not yet queued.
func (p *Pool[T]) markQueued(h Handle) error {
	if int64(h) >= int64(len(p.slots)) {
		return ErrInvalidHandle
	}
	if !p.states[h].CompareAndSwap(slotAllocated, slotQueued) {
		return ErrAlreadyQueued
	}
	return nil
}

// markDequeued returns a popped h to the allocated state.
func (p *Pool[T]) markDequeued(h Handle) {
	p.states[h].CompareAndSwap(slotQueued, slotAllocated)
}

// Cap returns N, the number of slots.
func (p *Pool[T]) Cap() int { return len(p.slots) }

// InUse returns the number of allocated, unreleased slots.
func (p *Pool[T]) InUse() int { return int(p.inUse.Load()) }

// Free returns Cap() - InUse().
func (p *Pool[T]) Free() int { return p.Cap() - p.InUse() }
