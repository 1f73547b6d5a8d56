package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestManual_SleepAdvances(t *testing.T) {
	start := time.Unix(1700000000, 0)
	m := NewManual(start)

	m.Sleep(11 * time.Millisecond)
	m.Advance(time.Millisecond)
	m.Sleep(0)

	assert.Equal(t, start.Add(12*time.Millisecond), m.Now())
	assert.Equal(t, []time.Duration{11 * time.Millisecond, 0}, m.Sleeps())

	d, ok := m.LastSleep()
	assert.True(t, ok)
	assert.Equal(t, time.Duration(0), d)
}

func TestManual_LastSleepEmpty(t *testing.T) {
	_, ok := NewManual(time.Time{}).LastSleep()
	assert.False(t, ok)
}

func TestSystem_Monotonic(t *testing.T) {
	var c Clock = System{}
	a := c.Now()
	c.Sleep(time.Millisecond)
	assert.GreaterOrEqual(t, c.Now().Sub(a), time.Millisecond)
}
