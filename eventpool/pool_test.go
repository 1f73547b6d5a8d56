package eventpool

import (
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type record struct {
	producer int
	seq      int
	payload  [16]byte
}

func TestNewPool_InvalidCapacity(t *testing.T) {
	for _, n := range []int{-1, 0, MaxCapacity + 1} {
		_, err := NewPool[record](n)
		assert.ErrorIs(t, err, ErrInvalidCapacity, "capacity %d", n)
	}
}

func TestPool_CapacityExhaustion(t *testing.T) {
	const n = 5
	p, err := NewPool[record](n)
	require.NoError(t, err)

	seen := make(map[Handle]bool)
	for range n {
		h, ok := p.Allocate()
		require.True(t, ok)
		require.False(t, seen[h], "handle %d issued twice", h)
		seen[h] = true
	}
	assert.Equal(t, n, p.InUse())
	assert.Equal(t, 0, p.Free())

	_, ok := p.Allocate()
	assert.False(t, ok, "allocation N+1 must fail")

	for h := range seen {
		require.NoError(t, p.Release(h))
		break
	}
	_, ok = p.Allocate()
	assert.True(t, ok)
}

func TestPool_ReleaseZeroesSlot(t *testing.T) {
	p, err := NewPool[record](1)
	require.NoError(t, err)

	h, ok := p.Allocate()
	require.True(t, ok)
	p.Get(h).seq = 42
	require.NoError(t, p.Release(h))

	h, ok = p.Allocate()
	require.True(t, ok)
	assert.Equal(t, record{}, *p.Get(h))
}

func TestPool_RandomSequenceInvariant(t *testing.T) {
	const n = 7
	p, err := NewPool[record](n)
	require.NoError(t, err)

	rng := rand.New(rand.NewPCG(1, 2))
	var held []Handle
	for i := 0; i < 10000; i++ {
		if rng.IntN(2) == 0 {
			h, ok := p.Allocate()
			if len(held) == n {
				require.False(t, ok, "step %d: allocate beyond capacity", i)
			} else {
				require.True(t, ok, "step %d: allocate below capacity failed", i)
				held = append(held, h)
			}
		} else if len(held) > 0 {
			j := rng.IntN(len(held))
			require.NoError(t, p.Release(held[j]))
			held = append(held[:j], held[j+1:]...)
		}
		require.Equal(t, len(held), p.InUse())
		require.Equal(t, n, p.InUse()+p.Free())
	}
}

func TestPool_ConcurrentNeverExceedsCapacity(t *testing.T) {
	const (
		n       = 8
		workers = 16
		rounds  = 2000
	)
	p, err := NewPool[record](n)
	require.NoError(t, err)

	var (
		outstanding atomic.Int64
		maxSeen     atomic.Int64
		owners      [n]atomic.Int32
		wg          sync.WaitGroup
	)
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				h, ok := p.Allocate()
				if !ok {
					continue
				}
				if !owners[h].CompareAndSwap(0, int32(w+1)) {
					t.Errorf("slot %d aliased by two live handles", h)
				}
				cur := outstanding.Add(1)
				for {
					m := maxSeen.Load()
					if cur <= m || maxSeen.CompareAndSwap(m, cur) {
						break
					}
				}
				p.Get(h).producer = w
				outstanding.Add(-1)
				owners[h].Store(0)
				if err := p.Release(h); err != nil {
					t.Errorf("release slot %d: %v", h, err)
				}
			}
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, maxSeen.Load(), int64(n))
	assert.Equal(t, 0, p.InUse())
	assert.Equal(t, n, p.Free())
}

func TestPool_DoubleReleaseRejected(t *testing.T) {
	for _, n := range []int{1, 3, 4, 5} {
		t.Run(fmt.Sprint(n), func(t *testing.T) {
			p, err := NewPool[record](n)
			require.NoError(t, err)

			h, ok := p.Allocate()
			require.True(t, ok)
			require.NoError(t, p.Release(h))
			assert.ErrorIs(t, p.Release(h), ErrNotAllocated)
			assert.Equal(t, 0, p.InUse())
			assert.Equal(t, n, p.Free())

			issued := make(map[Handle]bool)
			for range n {
				h, ok := p.Allocate()
				require.True(t, ok)
				require.False(t, issued[h], "handle %d issued twice while live", h)
				issued[h] = true
			}
			_, ok = p.Allocate()
			assert.False(t, ok, "allocation N+1 must fail")
			assert.Equal(t, n, p.InUse())
		})
	}
}

func TestPool_ReleaseInvalidHandle(t *testing.T) {
	p, err := NewPool[record](3)
	require.NoError(t, err)
	assert.ErrorIs(t, p.Release(3), ErrInvalidHandle)
	assert.ErrorIs(t, p.Release(0), ErrNotAllocated, "never allocated")
	assert.Equal(t, 0, p.InUse())
	assert.Equal(t, 3, p.Free())
}
