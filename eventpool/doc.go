// Package eventpool moves fixed-size records from producer goroutines into a
// single consumer without allocating and without blocking the producer.
//
// A Pool is a slab of N records plus a lock-free index of the free slots. A
// Queue is a bounded FIFO of slot handles. An Exchange composes the two with
// a DropCounter: producers Send (allocate, fill in place, push), and the
// consumer Drain-s (pop, dispatch, release). When the pool is exhausted a
// Send fails fast and the drop is counted.
//
// Ownership of a slot moves strictly forward:
//
//	free → allocated (producer fills) → queued → popped (consumer reads) → free
//
// The only contended operations are the index hand-offs, so a slot's payload
// is never written by two goroutines at once.
package eventpool
