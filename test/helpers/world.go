package helpers

import (
	"testing"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// StaticWorld is a hand-set trigger.World for tests
type StaticWorld struct {
	Round             int
	Day               int
	Directory         *facility.Directory
	Roster            *fleet.Roster
	Flooded           int
	BlockedRoutes     map[[2]facility.ID]bool
	BudgetValue       int
	SatisfactionValue int
	WorkforceValue    int
	WeatherValue      string
	Random            shared.RandomSource
}

// NewStaticWorld creates an empty world at round 1 whose rolls are always 0.5
func NewStaticWorld() *StaticWorld {
	return &StaticWorld{
		Round:             1,
		Day:               1,
		Directory:         facility.NewDirectory(),
		Roster:            fleet.NewRoster(),
		BlockedRoutes:     make(map[[2]facility.ID]bool),
		BudgetValue:       10000,
		SatisfactionValue: 50,
		WeatherValue:      "clear",
		Random:            shared.NewFixedRandom(0.5),
	}
}

func (w *StaticWorld) CurrentRound() int { return w.Round }
func (w *StaticWorld) CurrentDay() int   { return w.Day }

func (w *StaticWorld) Facilities() []facility.Facility { return w.Directory.All() }
func (w *StaticWorld) Vehicles() []fleet.Vehicle       { return w.Roster.Vehicles() }
func (w *StaticWorld) FloodedTileCount() int           { return w.Flooded }

func (w *StaticWorld) RouteBlocked(from, to facility.Facility) bool {
	return w.BlockedRoutes[[2]facility.ID{from.ID(), to.ID()}]
}

func (w *StaticWorld) Budget() int       { return w.BudgetValue }
func (w *StaticWorld) Satisfaction() int { return w.SatisfactionValue }
func (w *StaticWorld) Workforce() int    { return w.WorkforceValue }
func (w *StaticWorld) Weather() string   { return w.WeatherValue }
func (w *StaticWorld) Roll() float64     { return w.Random.Float64() }

// AddFacility registers a building holding amount of cargo out of capacity
func (w *StaticWorld) AddFacility(t *testing.T, id facility.ID, name string, kind facility.Type, cargo facility.Cargo, capacity, amount int) *facility.Building {
	t.Helper()
	b, err := facility.NewBuilding(id, name, kind, shared.Position{}, map[facility.Cargo]int{cargo: capacity})
	if err != nil {
		t.Fatalf("failed to create facility %s: %v", id, err)
	}
	b.SetAmount(cargo, amount)
	if err := w.Directory.Register(b); err != nil {
		t.Fatalf("failed to register facility %s: %v", id, err)
	}
	return b
}

// AddTruck adds an idle truck at the origin
func (w *StaticWorld) AddTruck(t *testing.T, id string, capacity int, cargo ...facility.Cargo) *fleet.Truck {
	t.Helper()
	truck, err := fleet.NewTruck(id, id, cargo, capacity, 1, shared.Position{})
	if err != nil {
		t.Fatalf("failed to create truck %s: %v", id, err)
	}
	if err := w.Roster.Add(truck); err != nil {
		t.Fatalf("failed to add truck %s: %v", id, err)
	}
	return truck
}
