package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRand_SameSeedProducesSameSequence(t *testing.T) {
	a := NewRand(123)
	b := NewRand(123)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Intn(100), b.Intn(100))
	}
}

func TestNewRand_DifferentSeedsDiverge(t *testing.T) {
	a := NewRand(1)
	b := NewRand(2)
	same := true
	for i := 0; i < 20; i++ {
		if a.Intn(1_000_000) != b.Intn(1_000_000) {
			same = false
			break
		}
	}
	assert.False(t, same, "two distinct seeds should not produce an identical run of draws")
}

func TestIDCounter_MonotonicAndCollisionFree(t *testing.T) {
	c := newIDCounter()
	first := c.next("ts")
	second := c.next("ts")
	other := c.next("ls")

	assert.NotEqual(t, first, second)
	assert.Equal(t, "ts-0001", first)
	assert.Equal(t, "ts-0002", second)
	assert.Equal(t, "ls-0001", other)
}

func TestWindow_End(t *testing.T) {
	w := Window{Day: Monday, Start: 9 * 60, DurationHours: 1.5}
	assert.Equal(t, 10*60+30, w.End())
}
