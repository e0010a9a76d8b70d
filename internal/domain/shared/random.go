package shared

import (
	"math/rand"
	"sync"
)

// RandomSource yields uniform values in [0, 1). Probability triggers draw from it.
type RandomSource interface {
	Float64() float64
}

// SeededRandom is a goroutine-safe RandomSource backed by math/rand
type SeededRandom struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeededRandom creates a deterministic source for the given seed
func NewSeededRandom(seed int64) *SeededRandom {
	return &SeededRandom{rng: rand.New(rand.NewSource(seed))}
}

// Float64 returns the next value in [0, 1)
func (s *SeededRandom) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// FixedRandom replays a fixed sequence of values, cycling when exhausted.
// An empty sequence always yields 0.
type FixedRandom struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewFixedRandom creates a FixedRandom over the given values
func NewFixedRandom(values ...float64) *FixedRandom {
	return &FixedRandom{values: values}
}

// Float64 returns the next value of the sequence
func (f *FixedRandom) Float64() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.values) == 0 {
		return 0
	}
	v := f.values[f.next%len(f.values)]
	f.next++
	return v
}
