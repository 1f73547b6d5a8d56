package eventpool

import (
	"sync/atomic"
)

// Queue is a bounded FIFO of handles. Push may be called concurrently by any
// number of producers, Pop only by a single consumer. Neither blocks.
type Queue struct {
	ring *indexRing
	len  atomic.Int64
	cap  int64
}

// NewQueue returns a queue holding at most capacity handles.
func NewQueue(capacity int) (*Queue, error) {
	if capacity < 1 || capacity > MaxCapacity {
		return nil, ErrInvalidCapacity
	}
	return &Queue{
		ring: newIndexRing(capacity),
		cap:  int64(capacity),
	}, nil
}

// Push appends h, or returns false if the queue is at capacity.
func (q *Queue) Push(h Handle) bool {
	// reserve first, the ring is sized to at least cap so a reservation
	// guarantees a cell
	if q.len.Add(1) > q.cap {
		q.len.Add(-1)
		return false
	}
	if !q.ring.push(uint32(h)) {
		q.len.Add(-1)
		return false
	}
	return true
}

// Pop removes the oldest handle, or returns false if the queue is empty.
func (q *Queue) Pop() (Handle, bool) {
	v, ok := q.ring.pop()
	if !ok {
		return 0, false
	}
	q.len.Add(-1)
	return Handle(v), true
}

// Len returns the number of queued handles, including reservations that are
// still being published.
func (q *Queue) Len() int { return int(q.len.Load()) }

// Cap returns the capacity.
func (q *Queue) Cap() int { return int(q.cap) }
