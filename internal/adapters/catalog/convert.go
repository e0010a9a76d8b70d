package catalog

import (
	"fmt"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
	"github.com/andrescamacho/reliefops-go/internal/domain/trigger"
)

// toTemplate converts an authored template. Omitted rounds fall back to the
// default timing of the task type.
func toTemplate(dto TemplateDTO) (*task.Template, error) {
	tpl := &task.Template{
		ID:                     dto.ID,
		Title:                  dto.Title,
		Type:                   task.Type(dto.Type),
		Description:            dto.Description,
		Global:                 dto.Global,
		RequireAllTriggers:     dto.RequireAll,
		RoundsRemaining:        dto.Rounds,
		DeliveryFailurePenalty: dto.DeliveryFailurePenalty,
	}
	if tpl.RoundsRemaining == 0 {
		tpl.RoundsRemaining = task.DefaultTiming(tpl.Type).Rounds
	}

	if dto.Target != nil {
		tpl.TargetFacilityType = facility.Type(dto.Target.FacilityType)
		tpl.AutoSelectFacility = dto.Target.AutoSelect
		tpl.SpecificFacilityID = facility.ID(dto.Target.FacilityID)
	}

	if dto.RealTimeLimit != "" {
		limit, err := time.ParseDuration(dto.RealTimeLimit)
		if err != nil {
			return nil, fmt.Errorf("real_time_limit: %w", err)
		}
		tpl.RealTimeLimit = limit
		tpl.HasRealTimeLimit = true
	}
	if dto.DeliveryTimeLimit != "" {
		limit, err := time.ParseDuration(dto.DeliveryTimeLimit)
		if err != nil {
			return nil, fmt.Errorf("delivery_time_limit: %w", err)
		}
		tpl.DeliveryTimeLimit = limit
	}

	for _, t := range dto.Triggers {
		tpl.Triggers = append(tpl.Triggers, toTrigger(t))
	}
	tpl.Impacts = toImpacts(dto.Impacts)
	for _, m := range dto.Messages {
		tpl.Messages = append(tpl.Messages, task.Message{Speaker: m.Speaker, Text: m.Text})
	}
	for _, c := range dto.Choices {
		choice := task.Choice{ID: c.ID, Text: c.Text, Impacts: toImpacts(c.Impacts), RepairVehicles: c.RepairVehicles}
		if c.Delivery != nil {
			choice.Delivery = toDelivery(*c.Delivery)
		}
		tpl.Choices = append(tpl.Choices, choice)
	}
	for _, n := range dto.NumericInputs {
		tpl.NumericInputs = append(tpl.NumericInputs, task.NumericInput{
			ID:      n.ID,
			Label:   n.Label,
			Current: n.Current,
			Min:     n.Min,
			Max:     n.Max,
			Step:    n.Step,
		})
	}

	if err := tpl.Validate(); err != nil {
		return nil, err
	}
	return tpl, nil
}

func toTrigger(d TriggerDTO) trigger.Trigger {
	kind := facility.Type(d.FacilityType)
	switch trigger.Kind(d.Kind) {
	case trigger.KindRound:
		return trigger.OnRound(d.Target, d.Exact)
	case trigger.KindDay:
		return trigger.OnDay(d.Target, d.Exact)
	case trigger.KindResource:
		return trigger.OnResource(kind, facility.Cargo(d.Cargo), trigger.StorageCondition(d.Condition), d.Threshold)
	case trigger.KindPopulation:
		return trigger.OnPopulation(kind, trigger.StorageCondition(d.Condition), d.Threshold)
	case trigger.KindProbability:
		return trigger.WithProbability(d.Chance)
	case trigger.KindFlood:
		return trigger.OnFlood(trigger.FloodCondition(d.Condition), d.Threshold)
	case trigger.KindVehicleDamaged:
		minimum := d.Minimum
		if minimum == 0 {
			minimum = 1
		}
		return trigger.OnVehicleDamaged(minimum)
	case trigger.KindBlockedRoute:
		return trigger.OnBlockedRoute(facility.Type(d.SourceType), facility.Type(d.DestinationType))
	case trigger.KindFacilityStatus:
		return trigger.OnFacilityStatus(kind, trigger.StatusCondition(d.Condition))
	case trigger.KindBudget:
		return trigger.OnBudget(trigger.Comparison(d.Comparison), d.Value)
	case trigger.KindSatisfaction:
		return trigger.OnSatisfaction(trigger.Comparison(d.Comparison), d.Value)
	case trigger.KindWorkforce:
		return trigger.OnWorkforce(trigger.Comparison(d.Comparison), d.Value)
	case trigger.KindWeather:
		return trigger.OnWeather(d.Condition)
	}
	// left without parameters so template validation reports it
	return trigger.Trigger{Kind: trigger.Kind(d.Kind)}
}

func toImpacts(dtos []ImpactDTO) []task.Impact {
	if len(dtos) == 0 {
		return nil
	}
	impacts := make([]task.Impact, 0, len(dtos))
	for _, i := range dtos {
		impacts = append(impacts, task.Impact{
			Type:        task.ImpactType(i.Type),
			Value:       i.Value,
			IsCountdown: i.Countdown,
			Label:       i.Label,
		})
	}
	return impacts
}

func toDelivery(d DeliveryDTO) *task.DeliverySpec {
	mode := task.QuantityMode(d.QuantityMode)
	if mode == "" {
		mode = task.QuantityFixed
	}
	return &task.DeliverySpec{
		Cargo:         facility.Cargo(d.Cargo),
		QuantityMode:  mode,
		Quantity:      d.Quantity,
		Percentage:    d.Percentage,
		Source:        toEndpoint(d.Source),
		Destination:   toEndpoint(d.Destination),
		Immediate:     d.Immediate,
		MultiEndpoint: d.MultiEndpoint,
		Priority:      d.Priority,
		IncludeTypes:  toTypes(d.IncludeTypes),
		ExcludeTypes:  toTypes(d.ExcludeTypes),
		PreferTypes:   toTypes(d.PreferTypes),
	}
}

func toEndpoint(e EndpointDTO) task.EndpointSelector {
	return task.EndpointSelector{
		Strategy:     task.Strategy(e.Strategy),
		FacilityType: facility.Type(e.FacilityType),
		FacilityID:   facility.ID(e.FacilityID),
		Name:         e.Name,
	}
}

func toTypes(names []string) []facility.Type {
	if len(names) == 0 {
		return nil
	}
	types := make([]facility.Type, len(names))
	for i, n := range names {
		types[i] = facility.Type(n)
	}
	return types
}
