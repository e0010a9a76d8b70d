package task

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
	"github.com/andrescamacho/reliefops-go/internal/domain/trigger"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func foodTemplate() *Template {
	return &Template{
		ID:                 "food-demand",
		Title:              "Food Shortage",
		Type:               TypeDemand,
		TargetFacilityType: facility.TypeShelter,
		AutoSelectFacility: true,
		Triggers:           []trigger.Trigger{trigger.OnRound(2, true)},
		RoundsRemaining:    2,
		RealTimeLimit:      30 * time.Second,
		HasRealTimeLimit:   true,
		Impacts:            []Impact{{Type: ImpactSatisfaction, Value: -10}},
		Choices: []Choice{
			{ID: 1, Text: "Send food", Delivery: &DeliverySpec{
				Cargo:       facility.CargoFoodPacks,
				Quantity:    30,
				Source:      EndpointSelector{Strategy: StrategyByType, FacilityType: facility.TypeKitchen},
				Destination: EndpointSelector{Strategy: StrategyRequestingFacility},
			}},
			{ID: 2, Text: "Wait", Impacts: []Impact{{Type: ImpactSatisfaction, Value: -5}}},
		},
		NumericInputs: []NumericInput{{ID: 1, Label: "Volunteers", Min: 0, Max: 10, Step: 2}},
	}
}

func shelter(t *testing.T) *facility.Building {
	t.Helper()
	b, err := facility.NewBuilding("S1", "North Shelter", facility.TypeShelter, shared.Position{}, map[facility.Cargo]int{facility.CargoFoodPacks: 100})
	require.NoError(t, err)
	return b
}

func TestNewTask_CopiesTemplateAndResolvesFacility(t *testing.T) {
	tpl := foodTemplate()

	task := NewTask(tpl, shelter(t), 2, now)
	tpl.Choices[0].Delivery.Quantity = 99

	assert.Equal(t, StatusActive, task.Status())
	assert.Equal(t, facility.ID("S1"), task.FacilityID())
	assert.Equal(t, "North Shelter", task.FacilityName())
	assert.Equal(t, 2, task.RoundsRemaining())
	assert.Equal(t, 30, task.Choices()[0].Delivery.Quantity)
	assert.False(t, task.ID().IsZero())
}

func TestTask_CountdownNeverGoesNegative(t *testing.T) {
	task := NewTask(foodTemplate(), nil, 0, now)

	task.DecrementRound()
	task.DecrementRound()
	task.DecrementRound()
	task.ElapseRealTime(time.Minute)

	assert.Equal(t, 0, task.RoundsRemaining())
	assert.Equal(t, time.Duration(0), task.RealTimeRemaining())
	assert.True(t, task.IsOutOfTime())
}

func TestTask_ExpireOutcomeByType(t *testing.T) {
	demand := NewTask(foodTemplate(), nil, 0, now)
	status, err := demand.Expire(now)
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, status)

	advisoryTpl := foodTemplate()
	advisoryTpl.Type = TypeAdvisory
	advisory := NewTask(advisoryTpl, nil, 0, now)
	status, err = advisory.Expire(now)
	require.NoError(t, err)
	assert.Equal(t, StatusExpired, status)

	inProgressTpl := foodTemplate()
	inProgressTpl.Type = TypeAlert
	inProgress := NewTask(inProgressTpl, nil, 0, now)
	require.NoError(t, inProgress.StartProgress())
	status, err = inProgress.Expire(now)
	require.NoError(t, err)
	assert.Equal(t, StatusIncomplete, status)
}

func TestTask_StatusIsMonotonic(t *testing.T) {
	task := NewTask(foodTemplate(), nil, 0, now)
	require.NoError(t, task.StartProgress())
	require.NoError(t, task.Complete(now))

	var transition *ErrInvalidTransition
	assert.True(t, errors.As(task.MarkIncomplete(now), &transition))
	assert.True(t, errors.As(task.StartProgress(), &transition))
	assert.True(t, errors.As(task.Complete(now), &transition))
	assert.Equal(t, StatusCompleted, task.Status())
	require.NotNil(t, task.FinishedAt())
}

func TestTask_InProgressCannotQuietlyExpire(t *testing.T) {
	task := NewTask(foodTemplate(), nil, 0, now)
	require.NoError(t, task.StartProgress())

	assert.Error(t, task.MarkExpired(now))
}

func TestTask_ChooseOnlyOnce(t *testing.T) {
	task := NewTask(foodTemplate(), nil, 0, now)
	_, chosen := task.ChosenChoice()
	assert.False(t, chosen)

	choice, err := task.Choose(2)
	require.NoError(t, err)
	assert.Equal(t, "Wait", choice.Text)
	current, chosen := task.ChosenChoice()
	require.True(t, chosen)
	assert.Equal(t, 2, current.ID)

	_, err = task.Choose(1)
	assert.Error(t, err)

	task.ClearChoice()
	_, err = task.Choose(7)
	var missing *ErrChoiceNotFound
	assert.True(t, errors.As(err, &missing))
}

func TestTask_NumericInputIsClamped(t *testing.T) {
	task := NewTask(foodTemplate(), nil, 0, now)

	v, err := task.SetNumericInput(1, 7)
	require.NoError(t, err)
	assert.Equal(t, 6, v)

	v, err = task.SetNumericInput(1, 50)
	require.NoError(t, err)
	assert.Equal(t, 10, v)

	_, err = task.SetNumericInput(9, 1)
	assert.Error(t, err)
}

func TestTask_LinkDeliveries(t *testing.T) {
	task := NewTask(foodTemplate(), nil, 0, now)
	a, b := delivery.NewID(), delivery.NewID()

	task.LinkDeliveries(a, b)

	assert.True(t, task.IsLinkedTo(a))
	assert.False(t, task.IsLinkedTo(delivery.NewID()))
	assert.Len(t, task.Snapshot().LinkedDeliveries, 2)
}

func TestDeliverySpec_ResolveQuantity(t *testing.T) {
	spec := DeliverySpec{QuantityMode: QuantityFixed, Quantity: 25}
	assert.Equal(t, 25, spec.ResolveQuantity(10))

	spec = DeliverySpec{QuantityMode: QuantityFixed}
	assert.Equal(t, 10, spec.ResolveQuantity(10))

	spec = DeliverySpec{QuantityMode: QuantityPercentageOfAvailable, Percentage: 50}
	assert.Equal(t, 15, spec.ResolveQuantity(30))

	spec = DeliverySpec{QuantityMode: QuantityAllAvailable}
	assert.Equal(t, 30, spec.ResolveQuantity(30))
	assert.Equal(t, 0, spec.ResolveQuantity(-3))
}

func TestTemplate_Validate(t *testing.T) {
	assert.NoError(t, foodTemplate().Validate())

	tpl := foodTemplate()
	tpl.TargetFacilityType = ""
	assert.Error(t, tpl.Validate())

	tpl = foodTemplate()
	tpl.Choices[0].Delivery.Destination = EndpointSelector{Strategy: StrategyAutoFind}
	assert.Error(t, tpl.Validate(), "both endpoints floating")

	tpl = foodTemplate()
	tpl.Choices = append(tpl.Choices, Choice{ID: 1})
	assert.Error(t, tpl.Validate(), "duplicate choice")

	tpl = foodTemplate()
	tpl.Choices[1].RepairVehicles = -1
	assert.Error(t, tpl.Validate(), "negative repairs")

	tpl = foodTemplate()
	tpl.Triggers = []trigger.Trigger{{Kind: trigger.KindPopulation}}
	assert.Error(t, tpl.Validate())
}

func TestDefaultTiming(t *testing.T) {
	assert.Equal(t, Timing{Rounds: 1, RealTimeLimit: 180 * time.Second, HasRealTimeLimit: true}, DefaultTiming(TypeEmergency))
	assert.Equal(t, Timing{Rounds: 1, RealTimeLimit: 300 * time.Second, HasRealTimeLimit: true}, DefaultTiming(TypeDemand))
	assert.Equal(t, Timing{Rounds: 3}, DefaultTiming(TypeAdvisory))
	assert.Equal(t, Timing{Rounds: 2, RealTimeLimit: 600 * time.Second, HasRealTimeLimit: true}, DefaultTiming(TypeAlert))
}

func TestImpactLabel(t *testing.T) {
	assert.Equal(t, "Food Packs", ImpactLabel(Impact{Type: ImpactFoodPacks}))
	assert.Equal(t, "Meals", ImpactLabel(Impact{Type: ImpactFoodPacks, Label: "Meals"}))
	assert.Equal(t, "-10 Satisfaction", Impact{Type: ImpactSatisfaction, Value: -10}.Describe())
}
