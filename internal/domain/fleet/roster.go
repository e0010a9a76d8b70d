package fleet

import (
	"fmt"
	"sort"
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

// Roster holds every truck of the session
type Roster struct {
	mu     sync.RWMutex
	trucks map[string]*Truck
}

// NewRoster creates an empty roster
func NewRoster() *Roster {
	return &Roster{trucks: make(map[string]*Truck)}
}

// Add registers a truck; IDs must be unique
func (r *Roster) Add(t *Truck) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.trucks[t.ID()]; exists {
		return fmt.Errorf("vehicle already registered: %s", t.ID())
	}
	r.trucks[t.ID()] = t
	return nil
}

// Get returns the truck with the given ID
func (r *Roster) Get(id string) (*Truck, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.trucks[id]
	return t, ok
}

// Trucks returns every truck ordered by ID
func (r *Roster) Trucks() []*Truck {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Truck, 0, len(r.trucks))
	for _, t := range r.trucks {
		result = append(result, t)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// Vehicles returns every truck through the read-only Vehicle interface
func (r *Roster) Vehicles() []Vehicle {
	trucks := r.Trucks()
	result := make([]Vehicle, len(trucks))
	for i, t := range trucks {
		result[i] = t
	}
	return result
}

// HasCapable reports whether any undamaged truck may carry the cargo
func (r *Roster) HasCapable(cargo facility.Cargo) bool {
	for _, t := range r.Trucks() {
		if t.Status() != StatusDamaged && CanCarry(t, cargo) {
			return true
		}
	}
	return false
}

// RepairDamaged returns up to limit damaged trucks to service, in ID order,
// and reports the repaired IDs
func (r *Roster) RepairDamaged(limit int) []string {
	var repaired []string
	for _, t := range r.Trucks() {
		if len(repaired) >= limit {
			break
		}
		if t.Status() == StatusDamaged {
			t.Repair()
			repaired = append(repaired, t.ID())
		}
	}
	return repaired
}

// CountByStatus returns how many trucks are in the given status
func (r *Roster) CountByStatus(status Status) int {
	count := 0
	for _, t := range r.Trucks() {
		if t.Status() == status {
			count++
		}
	}
	return count
}
