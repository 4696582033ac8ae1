package scheduler

import (
	"fmt"
	"math/rand"
)

// Rand wraps a single seeded generator threaded through every stage and the
// refiner. The pipeline never reads a process-wide random source (spec §9
// design notes flag exactly this as a defect in the source material).
type Rand struct {
	r *rand.Rand
}

// NewRand builds a deterministic generator from an integer seed.
func NewRand(seed int64) *Rand {
	return &Rand{r: rand.New(rand.NewSource(seed))}
}

// ShuffleWindows deterministically shuffles a slice of candidate windows in place.
func (rg *Rand) ShuffleWindows(windows []Window) {
	rg.r.Shuffle(len(windows), func(i, j int) { windows[i], windows[j] = windows[j], windows[i] })
}

// Intn returns a pseudo-random non-negative integer in [0,n).
func (rg *Rand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return rg.r.Intn(n)
}

// Float64 returns a pseudo-random float in [0,1).
func (rg *Rand) Float64() float64 {
	return rg.r.Float64()
}

// Window is a candidate (day, start) placement slot of a known duration.
type Window struct {
	Day           Weekday
	Start         int
	DurationHours float64
}

// End returns the window's end-of-slot minute.
func (w Window) End() int {
	return w.Start + int(w.DurationHours*60)
}

// idCounter hands out small deterministic, collision-free IDs within a store
// generation run, so two runs with the same seed produce byte-identical output
// (spec §8 property 10) without depending on a random ID source.
type idCounter struct {
	counts map[string]int
}

func newIDCounter() *idCounter {
	return &idCounter{counts: make(map[string]int)}
}

func (c *idCounter) next(prefix string) string {
	c.counts[prefix]++
	return fmt.Sprintf("%s-%04d", prefix, c.counts[prefix])
}
