package trigger

import (
	"fmt"
	"strings"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

// Describe returns a human-readable summary for debug panels and catalog listings
func (t Trigger) Describe() string {
	switch t.Kind {
	case KindRound:
		if t.Round == nil {
			break
		}
		if t.Round.Exact {
			return fmt.Sprintf("Round %d", t.Round.Target)
		}
		return fmt.Sprintf("Round %d or later", t.Round.Target)
	case KindDay:
		if t.Day == nil {
			break
		}
		if t.Day.Exact {
			return fmt.Sprintf("Day %d", t.Day.Target)
		}
		return fmt.Sprintf("Day %d or later", t.Day.Target)
	case KindResource:
		if t.Resource == nil {
			break
		}
		cargo := t.Resource.Cargo
		if cargo == "" {
			cargo = facility.CargoFoodPacks
		}
		return fmt.Sprintf("%s %s %s", typeLabel(t.Resource.FacilityType), cargo.Unit(), storageLabel(t.Resource.Condition, t.Resource.Threshold))
	case KindPopulation:
		if t.Population == nil {
			break
		}
		return fmt.Sprintf("%s population %s", typeLabel(t.Population.FacilityType), storageLabel(t.Population.Condition, t.Population.Threshold))
	case KindProbability:
		if t.Probability == nil {
			break
		}
		return fmt.Sprintf("%.0f%% chance", t.Probability.Chance*100)
	case KindFlood:
		if t.Flood == nil {
			break
		}
		switch t.Flood.Condition {
		case FloodExists:
			return "Flooding present"
		case FloodAbove:
			return fmt.Sprintf("More than %d flooded tiles", t.Flood.Threshold)
		case FloodNone:
			return "No flooding"
		}
	case KindVehicleDamaged:
		if t.VehicleDamaged == nil {
			break
		}
		return fmt.Sprintf("At least %d damaged vehicles", max(t.VehicleDamaged.Minimum, 1))
	case KindBlockedRoute:
		if t.BlockedRoute == nil {
			break
		}
		return fmt.Sprintf("Route blocked between %s and %s", typeLabel(t.BlockedRoute.SourceType), typeLabel(t.BlockedRoute.DestinationType))
	case KindFacilityStatus:
		if t.FacilityStatus == nil {
			break
		}
		return fmt.Sprintf("%s is %s", typeLabel(t.FacilityStatus.FacilityType), strings.ReplaceAll(string(t.FacilityStatus.Condition), "_", " "))
	case KindBudget, KindSatisfaction, KindWorkforce:
		if p := t.threshold(); p != nil {
			name := strings.ToUpper(string(t.Kind[:1])) + string(t.Kind[1:])
			return fmt.Sprintf("%s %s %d", name, strings.ReplaceAll(string(p.Comparison), "_", " "), p.Value)
		}
	case KindWeather:
		if t.Weather == nil {
			break
		}
		return fmt.Sprintf("Weather is %s", t.Weather.Condition)
	}
	return fmt.Sprintf("Invalid %s trigger", t.Kind)
}

// DescribeAll joins the descriptions with the combinator word
func DescribeAll(triggers []Trigger, requireAll bool) string {
	if len(triggers) == 0 {
		return "Never"
	}
	parts := make([]string, len(triggers))
	for i, t := range triggers {
		parts[i] = t.Describe()
	}
	joiner := " OR "
	if requireAll {
		joiner = " AND "
	}
	return strings.Join(parts, joiner)
}

func typeLabel(t facility.Type) string {
	if t == "" {
		return "Any facility"
	}
	words := strings.Split(strings.ToLower(string(t)), "_")
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

func storageLabel(cond StorageCondition, threshold int) string {
	switch cond {
	case StorageEmpty:
		return "empty"
	case StorageFull:
		return "full"
	case StorageLessThan:
		return fmt.Sprintf("below %d", threshold)
	case StorageMoreThan:
		return fmt.Sprintf("above %d", threshold)
	case StorageHasAny:
		return "present"
	}
	return string(cond)
}
