package task

import (
	"fmt"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/trigger"
)

// Template is the authored, read-only definition tasks are instantiated from
type Template struct {
	ID          string
	Title       string
	Type        Type
	Description string

	// Targeting: Global templates activate once with no facility. Otherwise the
	// template targets SpecificFacilityID when set, or every operational facility
	// of TargetFacilityType when AutoSelectFacility is on.
	Global             bool
	TargetFacilityType facility.Type
	AutoSelectFacility bool
	SpecificFacilityID facility.ID

	Triggers           []trigger.Trigger
	RequireAllTriggers bool

	RoundsRemaining  int
	RealTimeLimit    time.Duration
	HasRealTimeLimit bool

	Impacts       []Impact
	Messages      []Message
	Choices       []Choice
	NumericInputs []NumericInput

	DeliveryFailurePenalty int
	DeliveryTimeLimit      time.Duration
}

// Validate checks authoring invariants
func (t *Template) Validate() error {
	invalid := func(field, reason string) error {
		return &ErrInvalidTemplate{TemplateID: t.ID, Field: field, Reason: reason}
	}

	if t.ID == "" {
		return invalid("id", "id cannot be empty")
	}
	if t.Title == "" {
		return invalid("title", "title cannot be empty")
	}
	if !t.Type.IsValid() {
		return invalid("type", fmt.Sprintf("unknown task type %s", t.Type))
	}
	if !t.Global {
		if t.SpecificFacilityID == "" && !t.TargetFacilityType.IsValid() {
			return invalid("target", "non-global templates need a facility type or a specific facility")
		}
	}
	if t.RoundsRemaining < 0 {
		return invalid("rounds", "rounds cannot be negative")
	}
	if t.HasRealTimeLimit && t.RealTimeLimit <= 0 {
		return invalid("real_time_limit", "real-time limit must be positive when enabled")
	}
	for i, trig := range t.Triggers {
		if err := trig.Validate(); err != nil {
			return invalid(fmt.Sprintf("triggers[%d]", i), err.Error())
		}
	}
	for _, impact := range t.Impacts {
		if !impact.Type.IsValid() {
			return invalid("impacts", fmt.Sprintf("unknown impact type %s", impact.Type))
		}
	}

	seen := make(map[int]bool, len(t.Choices))
	for _, c := range t.Choices {
		if seen[c.ID] {
			return invalid("choices", fmt.Sprintf("duplicate choice id %d", c.ID))
		}
		seen[c.ID] = true
		if c.RepairVehicles < 0 {
			return invalid(fmt.Sprintf("choices[%d].repair_vehicles", c.ID), "cannot be negative")
		}
		if c.Delivery != nil {
			if err := validateDelivery(c.Delivery); err != nil {
				return invalid(fmt.Sprintf("choices[%d].delivery", c.ID), err.Error())
			}
		}
	}

	for _, n := range t.NumericInputs {
		if n.Min > n.Max {
			return invalid("numeric_inputs", fmt.Sprintf("input %d has min > max", n.ID))
		}
	}
	return nil
}

func validateDelivery(d *DeliverySpec) error {
	if !d.Cargo.IsValid() {
		return fmt.Errorf("unknown cargo %s", d.Cargo)
	}
	if !d.Source.Strategy.IsFixed() && !d.Destination.Strategy.IsFixed() {
		return fmt.Errorf("at least one endpoint must be fixed")
	}
	for _, sel := range []EndpointSelector{d.Source, d.Destination} {
		switch sel.Strategy {
		case StrategyAutoFind, StrategyRequestingFacility:
		case StrategyByType:
			if !sel.FacilityType.IsValid() {
				return fmt.Errorf("by_type endpoint needs a facility type")
			}
		case StrategySpecificInstance:
			if sel.FacilityID == "" {
				return fmt.Errorf("specific endpoint needs a facility id")
			}
		case StrategyManualName:
			if sel.Name == "" {
				return fmt.Errorf("name endpoint needs a facility name")
			}
		default:
			return fmt.Errorf("unknown endpoint strategy %q", sel.Strategy)
		}
	}
	if d.QuantityMode == QuantityPercentageOfAvailable && (d.Percentage <= 0 || d.Percentage > 100) {
		return fmt.Errorf("percentage must be in (0,100]")
	}
	return nil
}
