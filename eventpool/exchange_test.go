package eventpool

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExchange_LossyBackpressure(t *testing.T) {
	x, err := NewExchange[record](2)
	require.NoError(t, err)

	require.True(t, x.Send(func(r *record) { r.seq = 1 }))
	require.True(t, x.Send(func(r *record) { r.seq = 2 }))

	filled := false
	assert.False(t, x.Send(func(r *record) { filled = true }))
	assert.False(t, filled, "fill must not run when no slot is free")
	assert.Equal(t, uint64(1), x.Dropped().Load())

	var got []int
	x.Drain(func(r *record) { got = append(got, r.seq) })
	assert.Equal(t, []int{1, 2}, got, "in-flight records corrupted or duplicated")
	assert.Equal(t, 0, x.Pool().InUse())
}

// TestExchange_TwoProducerScenario pushes five records into a pool of three
// from two producer goroutines interleaved P1,P2,P1,P2,P1.
func TestExchange_TwoProducerScenario(t *testing.T) {
	x, err := NewExchange[record](3)
	require.NoError(t, err)

	type result struct {
		producer, seq int
		ok            bool
	}
	var (
		requests = [2]chan int{make(chan int), make(chan int)}
		results  = make(chan result)
		wg       sync.WaitGroup
	)
	for p := range requests {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seq := range requests[p] {
				ok := x.Send(func(r *record) {
					r.producer = p + 1
					r.seq = seq
				})
				results <- result{producer: p + 1, seq: seq, ok: ok}
			}
		}()
	}

	var accepted []result
	drops := 0
	for i, p := range []int{0, 1, 0, 1, 0} {
		requests[p] <- i
		r := <-results
		if r.ok {
			accepted = append(accepted, r)
		} else {
			drops++
		}
	}
	close(requests[0])
	close(requests[1])
	wg.Wait()

	assert.Len(t, accepted, 3)
	assert.Equal(t, 2, drops)

	var drained []result
	n := x.Drain(func(r *record) {
		drained = append(drained, result{producer: r.producer, seq: r.seq, ok: true})
	})
	assert.Equal(t, 3, n)
	assert.Equal(t, accepted, drained, "drain order must match arrival order")
	assert.Equal(t, []result{
		{producer: 1, seq: 0, ok: true},
		{producer: 2, seq: 1, ok: true},
		{producer: 1, seq: 2, ok: true},
	}, drained)

	assert.Equal(t, uint64(2), x.Dropped().TakeAndReset())
	assert.Equal(t, uint64(0), x.Dropped().Load())
	assert.Equal(t, 3, x.Pool().Free())
}

func TestExchange_ConcurrentSendAndDrain(t *testing.T) {
	const (
		producers = 6
		each      = 3000
	)
	x, err := NewExchange[record](32)
	require.NoError(t, err)

	var (
		wg       sync.WaitGroup
		accepted [producers]int
	)
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				if x.Send(func(r *record) {
					r.producer = p
					r.seq = i
				}) {
					accepted[p]++
				}
			}
		}()
	}

	stop := make(chan struct{})
	consumed := make(chan [producers]int)
	go func() {
		var (
			counts [producers]int
			last   [producers]int
		)
		for i := range last {
			last[i] = -1
		}
		check := func(r *record) {
			if r.seq <= last[r.producer] {
				t.Errorf("producer %d: seq %d after %d", r.producer, r.seq, last[r.producer])
			}
			last[r.producer] = r.seq
			counts[r.producer]++
		}
		for {
			select {
			case <-stop:
				x.Drain(check)
				consumed <- counts
				return
			default:
				x.Drain(check)
			}
		}
	}()

	wg.Wait()
	close(stop)
	counts := <-consumed

	var total, sent int
	for p := range producers {
		assert.Equal(t, accepted[p], counts[p], "producer %d", p)
		total += counts[p]
		sent += each
	}
	assert.Equal(t, uint64(sent-total), x.Dropped().Load())
	assert.Equal(t, 0, x.Pool().InUse())
}

func TestExchange_DrainReleasesOnPanic(t *testing.T) {
	x, err := NewExchange[record](1)
	require.NoError(t, err)
	require.True(t, x.Send(nil))

	assert.Panics(t, func() {
		x.Drain(func(*record) { panic("handler") })
	})
	assert.Equal(t, 0, x.Pool().InUse())
	assert.Equal(t, 0, x.Pending())
}

func TestExchange_DoubleEnqueueRejected(t *testing.T) {
	x, err := NewExchange[record](3)
	require.NoError(t, err)

	h, ok := x.Pool().Allocate()
	require.True(t, ok)
	x.Pool().Get(h).seq = 7
	require.NoError(t, x.publish(h))
	assert.ErrorIs(t, x.publish(h), ErrAlreadyQueued)
	assert.Equal(t, 1, x.Pending())
	assert.ErrorIs(t, x.Pool().Release(h), ErrNotAllocated, "queued slots belong to the consumer")

	var got []int
	assert.Equal(t, 1, x.Drain(func(r *record) { got = append(got, r.seq) }))
	assert.Equal(t, []int{7}, got)
	assert.Equal(t, 0, x.Pool().InUse())
	assert.ErrorIs(t, x.publish(h), ErrAlreadyQueued, "released slots cannot be queued")
	assert.Equal(t, 0, x.Pending())
}

func TestExchange_FillPanicCountsDrop(t *testing.T) {
	x, err := NewExchange[record](3)
	require.NoError(t, err)

	var p *record
	assert.NotPanics(t, func() {
		assert.False(t, x.Send(func(r *record) { r.seq = p.seq }))
	})
	assert.Equal(t, uint64(1), x.Dropped().Load())
	assert.Equal(t, 0, x.Pool().InUse())
	assert.Equal(t, 0, x.Pending())

	for i := range 3 {
		assert.True(t, x.Send(func(r *record) { r.seq = i }), "slot lost after a failed fill")
	}
}
