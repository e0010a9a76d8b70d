package trigger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

type stubWorld struct {
	round        int
	day          int
	facilities   []facility.Facility
	vehicles     []fleet.Vehicle
	floodedTiles int
	blocked      map[[2]facility.ID]bool
	budget       int
	satisfaction int
	workforce    int
	weather      string
	rng          shared.RandomSource
}

func (w *stubWorld) CurrentRound() int               { return w.round }
func (w *stubWorld) CurrentDay() int                 { return w.day }
func (w *stubWorld) Facilities() []facility.Facility { return w.facilities }
func (w *stubWorld) Vehicles() []fleet.Vehicle       { return w.vehicles }
func (w *stubWorld) FloodedTileCount() int           { return w.floodedTiles }
func (w *stubWorld) Budget() int                     { return w.budget }
func (w *stubWorld) Satisfaction() int               { return w.satisfaction }
func (w *stubWorld) Workforce() int                  { return w.workforce }
func (w *stubWorld) Weather() string                 { return w.weather }
func (w *stubWorld) Roll() float64                   { return w.rng.Float64() }
func (w *stubWorld) RouteBlocked(a, b facility.Facility) bool {
	return w.blocked[[2]facility.ID{a.ID(), b.ID()}]
}

func building(t *testing.T, id facility.ID, kind facility.Type, cargo facility.Cargo, capacity, amount int) *facility.Building {
	t.Helper()
	b, err := facility.NewBuilding(id, string(id), kind, shared.Position{}, map[facility.Cargo]int{cargo: capacity})
	require.NoError(t, err)
	b.SetAmount(cargo, amount)
	return b
}

func TestRoundTrigger_ExactAndAtLeast(t *testing.T) {
	w := &stubWorld{round: 5}

	assert.True(t, OnRound(5, true).Evaluate(w, nil))
	assert.False(t, OnRound(4, true).Evaluate(w, nil))
	assert.True(t, OnRound(4, false).Evaluate(w, nil))
	assert.False(t, OnRound(6, false).Evaluate(w, nil))
}

func TestCombine_EmptyNeverActivates(t *testing.T) {
	assert.False(t, Combine(nil, true))
	assert.False(t, Combine(nil, false))
	assert.False(t, EvaluateAll(nil, false, &stubWorld{}, nil))
}

func TestCombine_AndOr(t *testing.T) {
	assert.True(t, Combine([]bool{true, true}, true))
	assert.False(t, Combine([]bool{true, false}, true))
	assert.True(t, Combine([]bool{false, true}, false))
	assert.False(t, Combine([]bool{false, false}, false))
}

func TestResourceTrigger_GlobalChecksAnyOperationalFacility(t *testing.T) {
	// Arrange
	full := building(t, "K1", facility.TypeKitchen, facility.CargoFoodPacks, 50, 50)
	empty := building(t, "K2", facility.TypeKitchen, facility.CargoFoodPacks, 50, 0)
	w := &stubWorld{facilities: []facility.Facility{full, empty}}
	trig := OnResource(facility.TypeKitchen, facility.CargoFoodPacks, StorageEmpty, 0)

	// Act + Assert
	assert.True(t, trig.Evaluate(w, nil))

	empty.SetOperational(false)
	assert.False(t, trig.Evaluate(w, nil))
}

func TestPopulationTrigger_ScopedChecksOnlyThatFacility(t *testing.T) {
	crowded := building(t, "S1", facility.TypeShelter, facility.CargoPopulation, 20, 20)
	quiet := building(t, "S2", facility.TypeShelter, facility.CargoPopulation, 20, 2)
	w := &stubWorld{facilities: []facility.Facility{crowded, quiet}}
	trig := OnPopulation(facility.TypeShelter, StorageFull, 0)

	assert.True(t, trig.Evaluate(w, nil))
	assert.True(t, trig.Evaluate(w, crowded))
	assert.False(t, trig.Evaluate(w, quiet))
}

func TestPopulationTrigger_Thresholds(t *testing.T) {
	shelter := building(t, "S1", facility.TypeShelter, facility.CargoPopulation, 20, 8)
	w := &stubWorld{facilities: []facility.Facility{shelter}}

	assert.True(t, OnPopulation(facility.TypeShelter, StorageLessThan, 10).Evaluate(w, shelter))
	assert.False(t, OnPopulation(facility.TypeShelter, StorageMoreThan, 10).Evaluate(w, shelter))
	assert.True(t, OnPopulation(facility.TypeShelter, StorageHasAny, 0).Evaluate(w, shelter))
}

func TestScopedTrigger_OtherTypeFallsBackToGlobal(t *testing.T) {
	kitchen := building(t, "K1", facility.TypeKitchen, facility.CargoFoodPacks, 50, 0)
	shelter := building(t, "S1", facility.TypeShelter, facility.CargoPopulation, 20, 5)
	w := &stubWorld{facilities: []facility.Facility{kitchen, shelter}}

	// a shelter-scoped evaluation of a kitchen trigger looks at every kitchen
	assert.True(t, OnResource(facility.TypeKitchen, facility.CargoFoodPacks, StorageEmpty, 0).Evaluate(w, shelter))
}

func TestProbabilityTrigger_RerollsEveryEvaluation(t *testing.T) {
	w := &stubWorld{rng: shared.NewFixedRandom(0.2, 0.8)}
	trig := WithProbability(0.5)

	assert.True(t, trig.Evaluate(w, nil))
	assert.False(t, trig.Evaluate(w, nil))
	assert.True(t, trig.Evaluate(w, nil))
}

func TestFloodTrigger(t *testing.T) {
	shelter := building(t, "S1", facility.TypeShelter, facility.CargoPopulation, 20, 0)
	w := &stubWorld{floodedTiles: 12}

	assert.True(t, OnFlood(FloodExists, 0).Evaluate(w, nil))
	assert.True(t, OnFlood(FloodAbove, 10).Evaluate(w, nil))
	assert.False(t, OnFlood(FloodNone, 0).Evaluate(w, nil))

	assert.False(t, OnFlood(FloodExists, 0).Evaluate(w, shelter))
	shelter.SetFlooded(true)
	assert.True(t, OnFlood(FloodExists, 0).Evaluate(w, shelter))
}

func TestVehicleDamagedTrigger(t *testing.T) {
	truck, err := fleet.NewTruck("T1", "", []facility.Cargo{facility.CargoFoodPacks}, 10, 1, shared.Position{})
	require.NoError(t, err)
	w := &stubWorld{vehicles: []fleet.Vehicle{truck}}
	trig := OnVehicleDamaged(1)

	assert.False(t, trig.Evaluate(w, nil))
	truck.Damage()
	assert.True(t, trig.Evaluate(w, nil))
}

func TestBlockedRouteTrigger(t *testing.T) {
	kitchen := building(t, "K1", facility.TypeKitchen, facility.CargoFoodPacks, 10, 0)
	shelter := building(t, "S1", facility.TypeShelter, facility.CargoPopulation, 10, 0)
	w := &stubWorld{
		facilities: []facility.Facility{kitchen, shelter},
		blocked:    map[[2]facility.ID]bool{},
	}
	trig := OnBlockedRoute(facility.TypeKitchen, facility.TypeShelter)

	assert.False(t, trig.Evaluate(w, nil))
	w.blocked[[2]facility.ID{"K1", "S1"}] = true
	assert.True(t, trig.Evaluate(w, nil))
}

func TestCounterAndWeatherTriggers(t *testing.T) {
	w := &stubWorld{budget: 900, satisfaction: 30, workforce: 4, weather: "storm", day: 2}

	assert.True(t, OnBudget(CompareLessThan, 1000).Evaluate(w, nil))
	assert.True(t, OnSatisfaction(CompareAtMost, 30).Evaluate(w, nil))
	assert.False(t, OnWorkforce(CompareAtLeast, 5).Evaluate(w, nil))
	assert.True(t, OnWeather("storm").Evaluate(w, nil))
	assert.True(t, OnDay(2, true).Evaluate(w, nil))
}

func TestFacilityStatusTrigger(t *testing.T) {
	shelter := building(t, "S1", facility.TypeShelter, facility.CargoPopulation, 10, 0)
	w := &stubWorld{facilities: []facility.Facility{shelter}}
	trig := OnFacilityStatus(facility.TypeShelter, StatusNotOperational)

	assert.False(t, trig.Evaluate(w, nil))
	shelter.SetOperational(false)
	assert.True(t, trig.Evaluate(w, nil))
	assert.True(t, trig.Evaluate(w, shelter))
}

func TestValidate(t *testing.T) {
	assert.NoError(t, OnRound(1, true).Validate())
	assert.Error(t, Trigger{Kind: KindRound}.Validate())
	assert.Error(t, WithProbability(1.5).Validate())
	assert.Error(t, OnPopulation(facility.TypeShelter, StorageCondition("crowded"), 0).Validate())
	assert.Error(t, Trigger{Kind: "earthquake"}.Validate())
	assert.False(t, Trigger{Kind: KindRound}.Evaluate(&stubWorld{}, nil))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Round 3", OnRound(3, true).Describe())
	assert.Equal(t, "Shelter population full", OnPopulation(facility.TypeShelter, StorageFull, 0).Describe())
	assert.Equal(t, "25% chance", WithProbability(0.25).Describe())
	assert.Equal(t, "Budget less than 1000", OnBudget(CompareLessThan, 1000).Describe())
	assert.Equal(t, "Round 3 AND 25% chance", DescribeAll([]Trigger{OnRound(3, true), WithProbability(0.25)}, true))
	assert.Equal(t, "Never", DescribeAll(nil, false))
}
