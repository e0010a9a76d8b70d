package ledger

import (
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// Scoreboard holds the live counter values and produces an Entry for every change
type Scoreboard struct {
	mu     sync.RWMutex
	values map[Counter]int
	bounds map[Counter]Bounds
	clock  shared.Clock
}

// NewScoreboard creates a scoreboard at the default start values.
// If clock is nil, uses RealClock.
func NewScoreboard(clock shared.Clock) *Scoreboard {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	s := &Scoreboard{
		values: make(map[Counter]int),
		bounds: make(map[Counter]Bounds),
		clock:  clock,
	}
	for c, b := range DefaultBounds {
		s.bounds[c] = b
		s.values[c] = DefaultStart[c]
	}
	return s
}

// Set overwrites a counter (clamped), without producing an entry. Used when seeding a scenario.
func (s *Scoreboard) Set(counter Counter, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[counter] = s.clampUnsafe(counter, value)
}

// Value returns a counter's current value
func (s *Scoreboard) Value(counter Counter) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[counter]
}

// Values returns a copy of all counters
func (s *Scoreboard) Values() map[Counter]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make(map[Counter]int, len(s.values))
	for c, v := range s.values {
		result[c] = v
	}
	return result
}

// Apply adds delta (clamped to the counter's bounds) and returns the resulting entry.
// A change fully absorbed by the bounds returns a nil entry.
func (s *Scoreboard) Apply(counter Counter, delta int, source Source, description, taskID string, round int) (*Entry, error) {
	if !counter.IsValid() {
		return nil, &ErrInvalidEntry{Field: "counter", Reason: "unknown counter " + string(counter)}
	}

	s.mu.Lock()
	before := s.values[counter]
	after := s.clampUnsafe(counter, before+delta)
	s.values[counter] = after
	s.mu.Unlock()

	if after == before {
		return nil, nil
	}
	return NewEntry(counter, source, after-before, before, after, description, taskID, round, s.clock.Now())
}

// clampUnsafe must be called while holding mu
func (s *Scoreboard) clampUnsafe(counter Counter, value int) int {
	b, ok := s.bounds[counter]
	if !ok {
		return value
	}
	if value < b.Min {
		return b.Min
	}
	if value > b.Max {
		return b.Max
	}
	return value
}
