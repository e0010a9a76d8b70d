package trigger

import (
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
)

// Evaluate checks the trigger against the world.
//
// scope is nil for global evaluation. With a scope, facility-bound kinds
// (resource, population, facility status, flood presence) look only at that
// facility when the trigger targets its type or names no type; every other
// kind is evaluated globally. Malformed triggers never fire.
func (t Trigger) Evaluate(w World, scope facility.Facility) bool {
	switch t.Kind {
	case KindRound:
		return t.Round != nil && matchTarget(w.CurrentRound(), *t.Round)
	case KindDay:
		return t.Day != nil && matchTarget(w.CurrentDay(), *t.Day)
	case KindResource:
		if t.Resource == nil {
			return false
		}
		cargo := t.Resource.Cargo
		if cargo == "" {
			cargo = facility.CargoFoodPacks
		}
		return evaluateStorage(w, scope, t.Resource.FacilityType, cargo, t.Resource.Condition, t.Resource.Threshold)
	case KindPopulation:
		if t.Population == nil {
			return false
		}
		return evaluateStorage(w, scope, t.Population.FacilityType, facility.CargoPopulation, t.Population.Condition, t.Population.Threshold)
	case KindProbability:
		return t.Probability != nil && w.Roll() < t.Probability.Chance
	case KindFlood:
		return t.Flood != nil && evaluateFlood(w, scope, *t.Flood)
	case KindVehicleDamaged:
		return t.VehicleDamaged != nil && countDamaged(w.Vehicles()) >= max(t.VehicleDamaged.Minimum, 1)
	case KindBlockedRoute:
		return t.BlockedRoute != nil && evaluateBlockedRoute(w, *t.BlockedRoute)
	case KindFacilityStatus:
		return t.FacilityStatus != nil && evaluateStatus(w, scope, *t.FacilityStatus)
	case KindBudget:
		return t.Budget != nil && compare(w.Budget(), *t.Budget)
	case KindSatisfaction:
		return t.Satisfaction != nil && compare(w.Satisfaction(), *t.Satisfaction)
	case KindWorkforce:
		return t.Workforce != nil && compare(w.Workforce(), *t.Workforce)
	case KindWeather:
		return t.Weather != nil && w.Weather() == t.Weather.Condition
	default:
		return false
	}
}

// Combine folds individual results. An empty list never activates.
func Combine(results []bool, requireAll bool) bool {
	if len(results) == 0 {
		return false
	}
	for _, r := range results {
		if requireAll && !r {
			return false
		}
		if !requireAll && r {
			return true
		}
	}
	return requireAll
}

// EvaluateAll evaluates every trigger (each probability trigger rolls once) and combines the results
func EvaluateAll(triggers []Trigger, requireAll bool, w World, scope facility.Facility) bool {
	results := make([]bool, len(triggers))
	for i, t := range triggers {
		results[i] = t.Evaluate(w, scope)
	}
	return Combine(results, requireAll)
}

func matchTarget(current int, p RoundParams) bool {
	if p.Exact {
		return current == p.Target
	}
	return current >= p.Target
}

func inScope(scope facility.Facility, facilityType facility.Type) bool {
	return scope != nil && (facilityType == "" || scope.Type() == facilityType)
}

func evaluateStorage(w World, scope facility.Facility, facilityType facility.Type, cargo facility.Cargo, cond StorageCondition, threshold int) bool {
	if inScope(scope, facilityType) {
		return checkStorage(scope, cargo, cond, threshold)
	}

	for _, f := range w.Facilities() {
		if !f.IsOperational() {
			continue
		}
		if facilityType != "" && f.Type() != facilityType {
			continue
		}
		if facilityType == "" && f.Capacity(cargo) == 0 {
			continue
		}
		if checkStorage(f, cargo, cond, threshold) {
			return true
		}
	}
	return false
}

func checkStorage(f facility.Facility, cargo facility.Cargo, cond StorageCondition, threshold int) bool {
	amount := f.Amount(cargo)
	switch cond {
	case StorageEmpty:
		return amount == 0
	case StorageFull:
		capacity := f.Capacity(cargo)
		return capacity > 0 && amount >= capacity
	case StorageLessThan:
		return amount < threshold
	case StorageMoreThan:
		return amount > threshold
	case StorageHasAny:
		return amount > 0
	default:
		return false
	}
}

func evaluateFlood(w World, scope facility.Facility, p FloodParams) bool {
	if scope != nil && p.Condition != FloodAbove {
		if p.Condition == FloodExists {
			return scope.IsFlooded()
		}
		return !scope.IsFlooded()
	}

	tiles := w.FloodedTileCount()
	switch p.Condition {
	case FloodExists:
		return tiles > 0
	case FloodAbove:
		return tiles > p.Threshold
	case FloodNone:
		return tiles == 0
	default:
		return false
	}
}

func countDamaged(vehicles []fleet.Vehicle) int {
	count := 0
	for _, v := range vehicles {
		if v.Status() == fleet.StatusDamaged {
			count++
		}
	}
	return count
}

func evaluateBlockedRoute(w World, p BlockedRouteParams) bool {
	var sources, destinations []facility.Facility
	for _, f := range w.Facilities() {
		if !f.IsOperational() {
			continue
		}
		if f.Type() == p.SourceType {
			sources = append(sources, f)
		}
		if f.Type() == p.DestinationType {
			destinations = append(destinations, f)
		}
	}

	for _, src := range sources {
		for _, dst := range destinations {
			if src.ID() == dst.ID() {
				continue
			}
			if w.RouteBlocked(src, dst) {
				return true
			}
		}
	}
	return false
}

func evaluateStatus(w World, scope facility.Facility, p FacilityStatusParams) bool {
	if inScope(scope, p.FacilityType) {
		return checkStatus(scope, p.Condition)
	}
	for _, f := range w.Facilities() {
		if p.FacilityType != "" && f.Type() != p.FacilityType {
			continue
		}
		if checkStatus(f, p.Condition) {
			return true
		}
	}
	return false
}

func checkStatus(f facility.Facility, cond StatusCondition) bool {
	switch cond {
	case StatusOperational:
		return f.IsOperational()
	case StatusNotOperational:
		return !f.IsOperational()
	case StatusFlooded:
		return f.IsFlooded()
	default:
		return false
	}
}

func compare(value int, p ThresholdParams) bool {
	switch p.Comparison {
	case CompareLessThan:
		return value < p.Value
	case CompareMoreThan:
		return value > p.Value
	case CompareAtLeast:
		return value >= p.Value
	case CompareAtMost:
		return value <= p.Value
	case CompareEquals:
		return value == p.Value
	default:
		return false
	}
}
