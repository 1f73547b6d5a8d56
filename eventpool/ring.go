package eventpool

import (
	"sync/atomic"
)

// indexRing is a bounded lock-free MPMC ring of slot indices, using per-cell
// sequence numbers (Vyukov). The enqueue and dequeue cursors live on separate
// cache lines.
type indexRing struct { // betteralign:ignore
	_     [sizeOfCacheLine]byte                      //nolint:unused
	head  atomic.Uint64                              // next enqueue position
	_     [sizeOfCacheLine - sizeOfAtomicUint64]byte //nolint:unused
	tail  atomic.Uint64                              // next dequeue position
	_     [sizeOfCacheLine - sizeOfAtomicUint64]byte //nolint:unused
	mask  uint64
	cells []indexCell
}

type indexCell struct {
	seq atomic.Uint64
	val uint32
}

// newIndexRing returns a ring with room for at least capacity indices.
func newIndexRing(capacity int) *indexRing {
	size := 1
	for size < capacity {
		size <<= 1
	}
	r := &indexRing{
		mask:  uint64(size - 1),
		cells: make([]indexCell, size),
	}
	for i := range r.cells {
		r.cells[i].seq.Store(uint64(i))
	}
	return r
}

// push returns false if the ring is full.
func (r *indexRing) push(v uint32) bool {
	pos := r.head.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch diff := int64(seq) - int64(pos); {
		case diff == 0:
			if r.head.CompareAndSwap(pos, pos+1) {
				c.val = v
				c.seq.Store(pos + 1)
				return true
			}
			pos = r.head.Load()
		case diff < 0:
			return false
		default:
			pos = r.head.Load()
		}
	}
}

// pop returns false if the ring is empty.
func (r *indexRing) pop() (uint32, bool) {
	pos := r.tail.Load()
	for {
		c := &r.cells[pos&r.mask]
		seq := c.seq.Load()
		switch diff := int64(seq) - int64(pos+1); {
		case diff == 0:
			if r.tail.CompareAndSwap(pos, pos+1) {
				v := c.val
				c.seq.Store(pos + r.mask + 1)
				return v, true
			}
			pos = r.tail.Load()
		case diff < 0:
			return 0, false
		default:
			pos = r.tail.Load()
		}
	}
}
