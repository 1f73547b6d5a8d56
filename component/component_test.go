package component

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testComponent struct {
	Base
	name      string
	priority  float32
	loopPrio  float32
	setupErr  error
	loopErr   error
	setups    int
	loops     int
	panicLoop bool
}

func (c *testComponent) Setup() error {
	c.setups++
	return c.setupErr
}

func (c *testComponent) Loop() error {
	c.loops++
	if c.panicLoop {
		panic("boom")
	}
	return c.loopErr
}

func (c *testComponent) SetupPriority() float32 { return c.priority }

func (c *testComponent) LoopPriority() float32 { return c.loopPrio }

type setupOnly struct {
	Base
	setups int
}

func (c *setupOnly) Setup() error {
	c.setups++
	return nil
}

func names(cs []Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.(*testComponent).name
	}
	return out
}

func TestCall_Lifecycle(t *testing.T) {
	c := &testComponent{}
	assert.Equal(t, LifecycleConstructed, c.Lifecycle())

	require.NoError(t, Call(c))
	assert.Equal(t, 1, c.setups)
	assert.Equal(t, 0, c.loops)
	assert.Equal(t, LifecycleLoop, c.Lifecycle())

	require.NoError(t, Call(c))
	require.NoError(t, Call(c))
	assert.Equal(t, 1, c.setups)
	assert.Equal(t, 2, c.loops)
}

func TestCall_SetupErrorMarksFailed(t *testing.T) {
	c := &testComponent{setupErr: errors.New("no sensor")}
	err := Call(c)
	require.Error(t, err)
	assert.True(t, c.IsFailed())
	assert.Equal(t, StatusError|StatusFailed, c.Status())

	require.NoError(t, Call(c))
	assert.Equal(t, 0, c.loops)
}

func TestCall_LoopPanicMarksFailed(t *testing.T) {
	c := &testComponent{panicLoop: true}
	require.NoError(t, Call(c))

	err := Call(c)
	var pe PanicError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "boom", pe.Value)
	assert.True(t, c.IsFailed())

	require.NoError(t, Call(c))
	assert.Equal(t, 1, c.loops)
}

func TestCall_MarkFailedDuringSetup(t *testing.T) {
	var f failingSetup
	require.NoError(t, Call(&f))
	assert.True(t, f.IsFailed())
	assert.Equal(t, LifecycleFailed, f.Lifecycle())
}

type failingSetup struct {
	Base
}

func (f *failingSetup) Setup() error {
	f.MarkFailed()
	return nil
}

func TestCall_NonLooperIsNotLooped(t *testing.T) {
	c := &setupOnly{}
	require.NoError(t, Call(c))
	require.NoError(t, Call(c))
	assert.Equal(t, 1, c.setups)
	assert.Equal(t, LifecycleLoop, c.Lifecycle())
}

func TestPanicError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	assert.ErrorIs(t, PanicError{Value: cause}, cause)
	assert.NoError(t, PanicError{Value: "text"}.Unwrap())
}

func TestProceeds(t *testing.T) {
	c := &blocked{}
	assert.False(t, Proceeds(c))
	c.MarkFailed()
	assert.True(t, Proceeds(c))
}

type blocked struct {
	Base
}

func (*blocked) Setup() error { return nil }

func (*blocked) CanProceed() bool { return false }

func TestActualSetupPriority(t *testing.T) {
	c := &testComponent{priority: 10}
	assert.Equal(t, float32(10), ActualSetupPriority(c))
	c.SetSetupPriority(-5)
	assert.Equal(t, float32(-5), ActualSetupPriority(c))

	assert.Equal(t, SetupPriorityData, ActualSetupPriority(&setupOnly{}))
}

func TestSource(t *testing.T) {
	c := &setupOnly{}
	assert.Equal(t, "*component.setupOnly", Source(c))
	c.SetSource("uptime")
	assert.Equal(t, "uptime", Source(c))
}

func TestSortBySetupPriority_Stable(t *testing.T) {
	// every permutation of equal-priority components keeps registration order
	perms := [][]string{
		{"a", "b", "c"},
		{"a", "c", "b"},
		{"b", "a", "c"},
		{"b", "c", "a"},
		{"c", "a", "b"},
		{"c", "b", "a"},
	}
	for _, perm := range perms {
		t.Run(fmt.Sprint(perm), func(t *testing.T) {
			cs := []Component{&testComponent{name: "high", priority: 100}}
			for _, n := range perm {
				cs = append(cs, &testComponent{name: n, priority: 5})
			}
			cs = append(cs, &testComponent{name: "low", priority: -1})
			// reverse so the sort has work to do
			cs[0], cs[len(cs)-1] = cs[len(cs)-1], cs[0]

			SortBySetupPriority(cs)

			want := append(append([]string{"high"}, perm...), "low")
			if diff := cmp.Diff(want, names(cs)); diff != `` {
				t.Errorf("unexpected order (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSortByLoopPriority(t *testing.T) {
	cs := []Component{
		&testComponent{name: "a"},
		&testComponent{name: "b", loopPrio: 2},
		&testComponent{name: "c"},
		&testComponent{name: "d", loopPrio: 2},
	}
	SortByLoopPriority(cs)
	assert.Equal(t, []string{"b", "d", "a", "c"}, names(cs))
}

func TestStatus_Flags(t *testing.T) {
	var b Base
	b.StatusSetWarning()
	assert.True(t, b.StatusHasWarning())
	b.StatusSetError()
	assert.Equal(t, "warning|error", b.Status().String())
	b.StatusClearWarning()
	b.StatusClearError()
	assert.Equal(t, StatusNone, b.Status())
	assert.Equal(t, "none", b.Status().String())
}

func TestLifecycle_String(t *testing.T) {
	assert.Equal(t, "Constructed", LifecycleConstructed.String())
	assert.Equal(t, "Failed", LifecycleFailed.String())
	assert.Equal(t, "Unknown", Lifecycle(99).String())
}
