// Package scheduler holds the timed and deferred callbacks of a firmloop
// Application.
//
// Callbacks may be scheduled from any goroutine. They are staged until the
// main loop calls ProcessToAdd (or Call), and only ever run on the main loop,
// from Call. Items are keyed by owner and name: scheduling a named item
// replaces the pending item of the same kind, owner and name.
package scheduler

import (
	"container/heap"
	"sync"
	"time"

	"github.com/eapache/queue"
	"github.com/joeycumines/go-firmloop/clock"
	"github.com/joeycumines/logiface"
)

type itemKind uint8

const (
	kindTimeout itemKind = iota
	kindInterval
)

func (k itemKind) String() string {
	if k == kindInterval {
		return "interval"
	}
	return "timeout"
}

type item struct {
	owner    any
	fn       func()
	next     time.Time
	name     string
	interval time.Duration
	seq      uint64
	kind     itemKind
	removed  bool
}

// itemHeap orders by due time, then by scheduling order.
type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].next.Equal(h[j].next) {
		return h[i].seq < h[j].seq
	}
	return h[i].next.Before(h[j].next)
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x any) { *h = append(*h, x.(*item)) }

func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}

// Scheduler is a timer heap with a staging FIFO for newly added items.
type Scheduler struct {
	clock   clock.Clock
	logger  *logiface.Logger[logiface.Event]
	toAdd   *queue.Queue
	// current is the item whose callback is running, so it can cancel itself
	current *item
	items   itemHeap
	seq     uint64
	mu      sync.Mutex
}

// New returns an empty scheduler. A nil clock uses clock.System, a nil
// logger disables logging.
func New(c clock.Clock, logger *logiface.Logger[logiface.Event]) *Scheduler {
	if c == nil {
		c = clock.System{}
	}
	return &Scheduler{
		clock:  c,
		logger: logger,
		toAdd:  queue.New(),
	}
}

// SetTimeout runs fn once, after d. A non-empty name replaces any pending
// timeout of the same owner and name.
func (s *Scheduler) SetTimeout(owner any, name string, d time.Duration, fn func()) {
	s.add(owner, name, kindTimeout, d, fn)
}

// SetInterval runs fn every d, first after d. A non-empty name replaces any
// pending interval of the same owner and name.
func (s *Scheduler) SetInterval(owner any, name string, d time.Duration, fn func()) {
	s.add(owner, name, kindInterval, d, fn)
}

// Defer runs fn on the next Call.
func (s *Scheduler) Defer(owner any, fn func()) {
	s.add(owner, ``, kindTimeout, 0, fn)
}

// CancelTimeout cancels the pending named timeout, reporting whether one
// existed.
func (s *Scheduler) CancelTimeout(owner any, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(owner, name, kindTimeout)
}

// CancelInterval cancels the named interval, reporting whether one existed.
func (s *Scheduler) CancelInterval(owner any, name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelLocked(owner, name, kindInterval)
}

func (s *Scheduler) add(owner any, name string, kind itemKind, d time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if d < 0 {
		d = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if name != `` {
		s.cancelLocked(owner, name, kind)
	}
	s.seq++
	s.toAdd.Add(&item{
		owner:    owner,
		fn:       fn,
		next:     s.clock.Now().Add(d),
		name:     name,
		interval: d,
		seq:      s.seq,
		kind:     kind,
	})
}

func (s *Scheduler) cancelLocked(owner any, name string, kind itemKind) bool {
	if name == `` {
		return false
	}
	var found bool
	match := func(it *item) {
		if !it.removed && it.kind == kind && it.name == name && it.owner == owner {
			it.removed = true
			found = true
		}
	}
	if s.current != nil {
		match(s.current)
	}
	for _, it := range s.items {
		match(it)
	}
	for i := 0; i < s.toAdd.Length(); i++ {
		match(s.toAdd.Get(i).(*item))
	}
	return found
}

// ProcessToAdd moves staged items into the active set.
func (s *Scheduler) ProcessToAdd() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processToAddLocked()
}

func (s *Scheduler) processToAddLocked() {
	for s.toAdd.Length() > 0 {
		it := s.toAdd.Remove().(*item)
		if it.removed {
			continue
		}
		heap.Push(&s.items, it)
	}
}

// Call runs every item that is due. Callbacks run without the lock held, so
// they may schedule or cancel items; anything they add runs on a later Call.
func (s *Scheduler) Call() {
	now := s.clock.Now()
	s.ProcessToAdd()
	for {
		it := s.popDue(now)
		if it == nil {
			return
		}
		s.run(it)
		s.mu.Lock()
		s.current = nil
		if it.kind == kindInterval && !it.removed {
			it.next = now.Add(it.interval)
			s.seq++
			it.seq = s.seq
			s.toAdd.Add(it)
		}
		s.mu.Unlock()
	}
}

func (s *Scheduler) popDue(now time.Time) *item {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.items) > 0 {
		it := s.items[0]
		if it.removed {
			heap.Pop(&s.items)
			continue
		}
		if it.next.After(now) {
			return nil
		}
		heap.Pop(&s.items)
		s.current = it
		return it
	}
	return nil
}

func (s *Scheduler) run(it *item) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Err().
				Str("name", it.name).
				Stringer("kind", it.kind).
				Any("panic", r).
				Log("scheduled callback panicked")
		}
	}()
	it.fn()
}

// NextScheduleIn returns the time until the earliest pending item, zero if
// one is already due, and false if nothing is scheduled.
func (s *Scheduler) NextScheduleIn() (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processToAddLocked()
	for len(s.items) > 0 && s.items[0].removed {
		heap.Pop(&s.items)
	}
	if len(s.items) == 0 {
		return 0, false
	}
	d := s.items[0].next.Sub(s.clock.Now())
	if d < 0 {
		d = 0
	}
	return d, true
}

// Len returns the number of pending items, staged or active.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, it := range s.items {
		if !it.removed {
			n++
		}
	}
	for i := 0; i < s.toAdd.Length(); i++ {
		if !s.toAdd.Get(i).(*item).removed {
			n++
		}
	}
	return n
}
