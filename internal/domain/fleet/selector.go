package fleet

import (
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// SelectionResult contains the result of vehicle selection
type SelectionResult struct {
	Vehicle  *Truck
	Distance float64
	Score    float64
	Trips    int
}

// Selector implements vehicle selection for a pending delivery
type Selector struct{}

// NewSelector creates a new vehicle selector
func NewSelector() *Selector {
	return &Selector{}
}

// Suitability scores a vehicle for a load picked up at origin.
//
// Score = 100/(1+distance) + (quantity/capacity)*50 + speed*10
func Suitability(v Vehicle, origin shared.Position, quantity int) float64 {
	distance := v.Position().DistanceTo(origin)
	efficiency := float64(quantity) / float64(v.MaxCapacity())
	if efficiency > 1 {
		efficiency = 1
	}
	return 100.0/(1.0+distance) + efficiency*50.0 + v.Speed()*10.0
}

// SelectForLoad picks the idle truck best suited to carry quantity units of cargo from origin.
//
// Business Rules:
// 1. Only idle trucks allowed to carry the cargo are considered
// 2. Trucks that fit the whole load in one trip beat trucks that need several
// 3. Highest suitability score wins; ties go to the lowest vehicle ID
func (s *Selector) SelectForLoad(trucks []*Truck, cargo facility.Cargo, quantity int, origin shared.Position) (*SelectionResult, error) {
	var best *SelectionResult
	bestFits := false

	for _, t := range trucks {
		if t.Status() != StatusIdle || !CanCarry(t, cargo) {
			continue
		}

		fits := t.MaxCapacity() >= quantity
		score := Suitability(t, origin, quantity)
		trips := 1
		if !fits {
			trips = (quantity + t.MaxCapacity() - 1) / t.MaxCapacity()
		}

		better := best == nil ||
			(fits && !bestFits) ||
			(fits == bestFits && score > best.Score)
		if better {
			best = &SelectionResult{
				Vehicle:  t,
				Distance: t.Position().DistanceTo(origin),
				Score:    score,
				Trips:    trips,
			}
			bestFits = fits
		}
	}

	if best == nil {
		return nil, fmt.Errorf("no idle vehicle can carry %s", cargo)
	}
	return best, nil
}
