package trigger

import (
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
)

// World is the read-only view of simulation state that triggers evaluate against
type World interface {
	CurrentRound() int
	CurrentDay() int
	Facilities() []facility.Facility
	Vehicles() []fleet.Vehicle
	FloodedTileCount() int
	RouteBlocked(from, to facility.Facility) bool
	Budget() int
	Satisfaction() int
	Workforce() int
	Weather() string

	// Roll returns a fresh uniform value in [0, 1)
	Roll() float64
}
