package trigger

import (
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

// Kind selects which parameter block of a Trigger is meaningful
type Kind string

const (
	KindRound          Kind = "round"
	KindDay            Kind = "day"
	KindResource       Kind = "resource"
	KindPopulation     Kind = "population"
	KindProbability    Kind = "probability"
	KindFlood          Kind = "flood"
	KindVehicleDamaged Kind = "vehicle_damaged"
	KindBlockedRoute   Kind = "blocked_route"
	KindFacilityStatus Kind = "facility_status"
	KindBudget         Kind = "budget"
	KindSatisfaction   Kind = "satisfaction"
	KindWorkforce      Kind = "workforce"
	KindWeather        Kind = "weather"
)

// StorageCondition is a predicate over one facility's stored amount
type StorageCondition string

const (
	StorageEmpty    StorageCondition = "empty"
	StorageFull     StorageCondition = "full"
	StorageLessThan StorageCondition = "less_than"
	StorageMoreThan StorageCondition = "more_than"
	StorageHasAny   StorageCondition = "has_any"
)

// FloodCondition is a predicate over the flood map
type FloodCondition string

const (
	FloodExists FloodCondition = "exists"
	FloodAbove  FloodCondition = "above"
	FloodNone   FloodCondition = "none"
)

// StatusCondition is a predicate over a facility's operational state
type StatusCondition string

const (
	StatusOperational    StatusCondition = "operational"
	StatusNotOperational StatusCondition = "not_operational"
	StatusFlooded        StatusCondition = "flooded"
)

// Comparison is used by counter thresholds (budget, satisfaction, workforce)
type Comparison string

const (
	CompareLessThan Comparison = "less_than"
	CompareMoreThan Comparison = "more_than"
	CompareAtLeast  Comparison = "at_least"
	CompareAtMost   Comparison = "at_most"
	CompareEquals   Comparison = "equals"
)

// RoundParams matches the current round (or day) against a target
type RoundParams struct {
	Target int
	Exact  bool
}

// ResourceParams checks stored cargo at facilities of a type
type ResourceParams struct {
	FacilityType facility.Type
	Cargo        facility.Cargo
	Condition    StorageCondition
	Threshold    int
}

// PopulationParams checks people housed at facilities of a type
type PopulationParams struct {
	FacilityType facility.Type
	Condition    StorageCondition
	Threshold    int
}

// ProbabilityParams fires when a fresh uniform roll is below Chance
type ProbabilityParams struct {
	Chance float64
}

// FloodParams checks the flooded tile count, or the scoped facility's flood state
type FloodParams struct {
	Condition FloodCondition
	Threshold int
}

// VehicleDamagedParams fires when at least Minimum vehicles are damaged
type VehicleDamagedParams struct {
	Minimum int
}

// BlockedRouteParams fires when any straight route between the two types crosses flood water
type BlockedRouteParams struct {
	SourceType      facility.Type
	DestinationType facility.Type
}

// FacilityStatusParams checks facilities of a type for a status
type FacilityStatusParams struct {
	FacilityType facility.Type
	Condition    StatusCondition
}

// ThresholdParams compares a global counter against Value
type ThresholdParams struct {
	Comparison Comparison
	Value      int
}

// WeatherParams matches the current weather label
type WeatherParams struct {
	Condition string
}

// Trigger is a tagged variant: Kind picks the one populated parameter block.
type Trigger struct {
	Kind Kind

	Round          *RoundParams
	Day            *RoundParams
	Resource       *ResourceParams
	Population     *PopulationParams
	Probability    *ProbabilityParams
	Flood          *FloodParams
	VehicleDamaged *VehicleDamagedParams
	BlockedRoute   *BlockedRouteParams
	FacilityStatus *FacilityStatusParams
	Budget         *ThresholdParams
	Satisfaction   *ThresholdParams
	Workforce      *ThresholdParams
	Weather        *WeatherParams
}

// Constructors

func OnRound(target int, exact bool) Trigger {
	return Trigger{Kind: KindRound, Round: &RoundParams{Target: target, Exact: exact}}
}

func OnDay(target int, exact bool) Trigger {
	return Trigger{Kind: KindDay, Day: &RoundParams{Target: target, Exact: exact}}
}

func OnResource(kind facility.Type, cargo facility.Cargo, cond StorageCondition, threshold int) Trigger {
	return Trigger{Kind: KindResource, Resource: &ResourceParams{FacilityType: kind, Cargo: cargo, Condition: cond, Threshold: threshold}}
}

func OnPopulation(kind facility.Type, cond StorageCondition, threshold int) Trigger {
	return Trigger{Kind: KindPopulation, Population: &PopulationParams{FacilityType: kind, Condition: cond, Threshold: threshold}}
}

func WithProbability(chance float64) Trigger {
	return Trigger{Kind: KindProbability, Probability: &ProbabilityParams{Chance: chance}}
}

func OnFlood(cond FloodCondition, threshold int) Trigger {
	return Trigger{Kind: KindFlood, Flood: &FloodParams{Condition: cond, Threshold: threshold}}
}

func OnVehicleDamaged(minimum int) Trigger {
	return Trigger{Kind: KindVehicleDamaged, VehicleDamaged: &VehicleDamagedParams{Minimum: minimum}}
}

func OnBlockedRoute(source, destination facility.Type) Trigger {
	return Trigger{Kind: KindBlockedRoute, BlockedRoute: &BlockedRouteParams{SourceType: source, DestinationType: destination}}
}

func OnFacilityStatus(kind facility.Type, cond StatusCondition) Trigger {
	return Trigger{Kind: KindFacilityStatus, FacilityStatus: &FacilityStatusParams{FacilityType: kind, Condition: cond}}
}

func OnBudget(cmp Comparison, value int) Trigger {
	return Trigger{Kind: KindBudget, Budget: &ThresholdParams{Comparison: cmp, Value: value}}
}

func OnSatisfaction(cmp Comparison, value int) Trigger {
	return Trigger{Kind: KindSatisfaction, Satisfaction: &ThresholdParams{Comparison: cmp, Value: value}}
}

func OnWorkforce(cmp Comparison, value int) Trigger {
	return Trigger{Kind: KindWorkforce, Workforce: &ThresholdParams{Comparison: cmp, Value: value}}
}

func OnWeather(condition string) Trigger {
	return Trigger{Kind: KindWeather, Weather: &WeatherParams{Condition: condition}}
}

// Validate checks that the parameter block for Kind is present and sane
func (t Trigger) Validate() error {
	missing := func() error { return &ErrInvalidTrigger{Kind: t.Kind, Reason: "missing parameters"} }

	switch t.Kind {
	case KindRound:
		if t.Round == nil {
			return missing()
		}
	case KindDay:
		if t.Day == nil {
			return missing()
		}
	case KindResource:
		if t.Resource == nil {
			return missing()
		}
		if t.Resource.Cargo != "" && !t.Resource.Cargo.IsValid() {
			return &ErrInvalidTrigger{Kind: t.Kind, Reason: fmt.Sprintf("unknown cargo %s", t.Resource.Cargo)}
		}
		return validateStorage(t.Kind, t.Resource.FacilityType, t.Resource.Condition)
	case KindPopulation:
		if t.Population == nil {
			return missing()
		}
		return validateStorage(t.Kind, t.Population.FacilityType, t.Population.Condition)
	case KindProbability:
		if t.Probability == nil {
			return missing()
		}
		if t.Probability.Chance < 0 || t.Probability.Chance > 1 {
			return &ErrInvalidTrigger{Kind: t.Kind, Reason: fmt.Sprintf("chance %.2f outside [0,1]", t.Probability.Chance)}
		}
	case KindFlood:
		if t.Flood == nil {
			return missing()
		}
		switch t.Flood.Condition {
		case FloodExists, FloodAbove, FloodNone:
		default:
			return &ErrInvalidTrigger{Kind: t.Kind, Reason: fmt.Sprintf("unknown condition %s", t.Flood.Condition)}
		}
	case KindVehicleDamaged:
		if t.VehicleDamaged == nil {
			return missing()
		}
	case KindBlockedRoute:
		if t.BlockedRoute == nil {
			return missing()
		}
		if !t.BlockedRoute.SourceType.IsValid() || !t.BlockedRoute.DestinationType.IsValid() {
			return &ErrInvalidTrigger{Kind: t.Kind, Reason: "source and destination types are required"}
		}
	case KindFacilityStatus:
		if t.FacilityStatus == nil {
			return missing()
		}
		switch t.FacilityStatus.Condition {
		case StatusOperational, StatusNotOperational, StatusFlooded:
		default:
			return &ErrInvalidTrigger{Kind: t.Kind, Reason: fmt.Sprintf("unknown condition %s", t.FacilityStatus.Condition)}
		}
	case KindBudget, KindSatisfaction, KindWorkforce:
		p := t.threshold()
		if p == nil {
			return missing()
		}
		switch p.Comparison {
		case CompareLessThan, CompareMoreThan, CompareAtLeast, CompareAtMost, CompareEquals:
		default:
			return &ErrInvalidTrigger{Kind: t.Kind, Reason: fmt.Sprintf("unknown comparison %s", p.Comparison)}
		}
	case KindWeather:
		if t.Weather == nil || t.Weather.Condition == "" {
			return missing()
		}
	default:
		return &ErrInvalidTrigger{Kind: t.Kind, Reason: "unknown trigger kind"}
	}
	return nil
}

func validateStorage(kind Kind, facilityType facility.Type, cond StorageCondition) error {
	if facilityType != "" && !facilityType.IsValid() {
		return &ErrInvalidTrigger{Kind: kind, Reason: fmt.Sprintf("unknown facility type %s", facilityType)}
	}
	switch cond {
	case StorageEmpty, StorageFull, StorageLessThan, StorageMoreThan, StorageHasAny:
		return nil
	default:
		return &ErrInvalidTrigger{Kind: kind, Reason: fmt.Sprintf("unknown condition %s", cond)}
	}
}

func (t Trigger) threshold() *ThresholdParams {
	switch t.Kind {
	case KindBudget:
		return t.Budget
	case KindSatisfaction:
		return t.Satisfaction
	case KindWorkforce:
		return t.Workforce
	}
	return nil
}

// ErrInvalidTrigger indicates a malformed trigger definition
type ErrInvalidTrigger struct {
	Kind   Kind
	Reason string
}

func (e *ErrInvalidTrigger) Error() string {
	return fmt.Sprintf("invalid %s trigger: %s", e.Kind, e.Reason)
}
