package eventpool

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFO(t *testing.T) {
	q, err := NewQueue(16)
	require.NoError(t, err)

	want := []Handle{3, 1, 4, 1, 5, 9, 2, 6}
	for _, h := range want {
		require.True(t, q.Push(h))
	}
	assert.Equal(t, len(want), q.Len())

	var got []Handle
	for {
		h, ok := q.Pop()
		if !ok {
			break
		}
		got = append(got, h)
	}
	if diff := cmp.Diff(want, got); diff != `` {
		t.Errorf("unexpected order (-want +got):\n%s", diff)
	}
	assert.Equal(t, 0, q.Len())
}

func TestQueue_ExactCapacity(t *testing.T) {
	// 3 is not a power of two, the ring is larger than the logical capacity
	q, err := NewQueue(3)
	require.NoError(t, err)
	assert.Equal(t, 3, q.Cap())

	for i := range 3 {
		require.True(t, q.Push(Handle(i)))
	}
	assert.False(t, q.Push(99))

	h, ok := q.Pop()
	require.True(t, ok)
	assert.Equal(t, Handle(0), h)
	assert.True(t, q.Push(3))
	assert.False(t, q.Push(100))
}

func TestQueue_WrapAround(t *testing.T) {
	q, err := NewQueue(4)
	require.NoError(t, err)
	for i := range 1000 {
		require.True(t, q.Push(Handle(i)))
		require.True(t, q.Push(Handle(i+1)))
		h, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, Handle(i), h)
		h, ok = q.Pop()
		require.True(t, ok)
		require.Equal(t, Handle(i+1), h)
	}
	_, ok := q.Pop()
	assert.False(t, ok)
}

// TestQueue_FIFOAcrossProducers alternates two producer goroutines, each push
// completing before the next begins.
func TestQueue_FIFOAcrossProducers(t *testing.T) {
	q, err := NewQueue(64)
	require.NoError(t, err)

	turns := [2]chan Handle{make(chan Handle), make(chan Handle)}
	done := make(chan bool)
	var wg sync.WaitGroup
	for _, ch := range turns {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for h := range ch {
				done <- q.Push(h)
			}
		}()
	}

	var want []Handle
	for i := range 40 {
		h := Handle(i * 7)
		turns[i%2] <- h
		require.True(t, <-done)
		want = append(want, h)
	}
	close(turns[0])
	close(turns[1])
	wg.Wait()

	for _, w := range want {
		h, ok := q.Pop()
		require.True(t, ok)
		require.Equal(t, w, h)
	}
}

func TestQueue_ConcurrentProducersPreservePerProducerOrder(t *testing.T) {
	const (
		producers = 4
		each      = 5000
	)
	q, err := NewQueue(producers * each)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for p := range producers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range each {
				if !q.Push(Handle(p*each + i)) {
					t.Errorf("push failed below capacity")
					return
				}
			}
		}()
	}
	wg.Wait()

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	count := 0
	for {
		h, ok := q.Pop()
		if !ok {
			break
		}
		p, i := int(h)/each, int(h)%each
		require.Greater(t, i, last[p], "producer %d reordered", p)
		last[p] = i
		count++
	}
	assert.Equal(t, producers*each, count)
}
