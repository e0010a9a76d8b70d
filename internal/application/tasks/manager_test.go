package tasks_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/application/delivery"
	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
	"github.com/andrescamacho/reliefops-go/test/helpers"
)

type fixture struct {
	world      *helpers.StaticWorld
	queue      *events.Queue
	seen       []events.Event
	engine     *delivery.Engine
	dispatcher *delivery.Dispatcher
	manager    *tasks.Manager
	entries    *helpers.MockEntryRepository
	clock      *shared.MockClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWith(t, tasks.Options{})
}

func newFixtureWith(t *testing.T, opts tasks.Options) *fixture {
	t.Helper()
	f := &fixture{
		world:   helpers.NewStaticWorld(),
		queue:   events.NewQueue(),
		entries: helpers.NewMockEntryRepository(),
		clock:   shared.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)),
	}
	f.queue.Subscribe(events.ObserverFunc(func(ctx context.Context, e events.Event) {
		f.seen = append(f.seen, e)
	}))

	f.world.AddFacility(t, "K1", "Central Kitchen", facility.TypeKitchen, facility.CargoFoodPacks, 200, 20)
	f.world.AddFacility(t, "K2", "Harbor Kitchen", facility.TypeKitchen, facility.CargoFoodPacks, 200, 20)
	f.world.AddFacility(t, "S1", "North Shelter", facility.TypeShelter, facility.CargoFoodPacks, 100, 0)
	f.world.AddTruck(t, "T1", 50, facility.CargoFoodPacks)

	if opts.Fleet == nil {
		opts.Fleet = f.world.Roster
	}
	f.engine = delivery.NewEngine(f.world.Directory, f.world.Roster, domainDelivery.NewReservationLedger(), f.queue, f.clock, delivery.Options{})
	f.dispatcher = delivery.NewDispatcher(f.engine, f.world.Roster, f.world.Directory)
	f.manager = tasks.NewManager(f.engine, ledger.NewScoreboard(f.clock), f.entries, f.queue, f.clock, f.world, opts)
	f.engine.AddListener(f.manager.DeliveryListener())
	return f
}

func (f *fixture) shelter(t *testing.T) facility.Facility {
	s, ok := f.world.Directory.Get("S1")
	require.True(t, ok)
	return s
}

func (f *fixture) drain() []events.Event {
	f.seen = nil
	f.queue.Drain(context.Background())
	return f.seen
}

func (f *fixture) satisfaction() int {
	return f.manager.Scoreboard().Value(ledger.CounterSatisfaction)
}

func foodTemplate() *task.Template {
	return &task.Template{
		ID:                 "food-shortage",
		Title:              "Food Shortage",
		Type:               task.TypeDemand,
		TargetFacilityType: facility.TypeShelter,
		AutoSelectFacility: true,
		RoundsRemaining:    2,
		Impacts:            []task.Impact{{Type: task.ImpactSatisfaction, Value: -5}},
		Choices: []task.Choice{
			{
				ID:      1,
				Text:    "Send food packs",
				Impacts: []task.Impact{{Type: task.ImpactSatisfaction, Value: 5}},
				Delivery: &task.DeliverySpec{
					Cargo:         facility.CargoFoodPacks,
					Quantity:      30,
					Source:        task.EndpointSelector{Strategy: task.StrategyByType, FacilityType: facility.TypeKitchen},
					Destination:   task.EndpointSelector{Strategy: task.StrategyRequestingFacility},
					MultiEndpoint: true,
				},
			},
			{
				ID:      2,
				Text:    "Ask volunteers to cook",
				Impacts: []task.Impact{{Type: task.ImpactBudget, Value: -200}, {Type: task.ImpactTotalTime, Value: 3}},
			},
		},
	}
}

func TestCreateFromTemplate_PublishesAndTracksLiveTask(t *testing.T) {
	// Arrange
	f := newFixture(t)
	f.world.Round = 4

	// Act
	created, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.StatusActive, created.Status())
	assert.Equal(t, "North Shelter", created.FacilityName())
	assert.Equal(t, 4, created.CreatedRound())
	assert.Equal(t, tasks.DefaultDeliveryFailurePenalty, created.DeliveryFailurePenalty())
	assert.True(t, f.manager.HasLive("Food Shortage", "S1"))
	assert.False(t, f.manager.HasLive("Food Shortage", "S2"))

	published := f.drain()
	require.Len(t, published, 1)
	assert.Equal(t, events.TaskCreated, published[0].Type)
	assert.Equal(t, created.ID().String(), published[0].Task.ID)
}

func TestCreateFromTemplate_NilTemplate(t *testing.T) {
	f := newFixture(t)

	_, err := f.manager.CreateFromTemplate(context.Background(), nil, nil)

	assert.Error(t, err)
}

func TestExpireDue_DemandBecomesIncompleteWithPenaltyOnce(t *testing.T) {
	// Arrange
	f := newFixture(t)
	tpl := foodTemplate()
	tpl.RoundsRemaining = 1
	created, err := f.manager.CreateFromTemplate(context.Background(), tpl, f.shelter(t))
	require.NoError(t, err)

	// Act
	f.manager.OnRoundAdvanced(context.Background())
	expired := f.manager.ExpireDue(context.Background())
	again := f.manager.ExpireDue(context.Background())

	// Assert
	require.Len(t, expired, 1)
	assert.Empty(t, again)
	assert.Equal(t, task.StatusIncomplete, created.Status())
	assert.Equal(t, 45, f.satisfaction())
	penalties := f.entries.BySource(ledger.SourcePenalty)
	require.Len(t, penalties, 1)
	assert.Equal(t, -5, penalties[0].Amount())
	assert.False(t, f.manager.HasLive("Food Shortage", "S1"))
}

func TestExpireDue_AdvisoryBecomesExpired(t *testing.T) {
	f := newFixture(t)
	created, err := f.manager.CreateAdHoc(context.Background(), tasks.AdHocTask{
		Title:   "Sandbag the levee",
		Type:    task.TypeAdvisory,
		Impacts: []task.Impact{{Type: task.ImpactBudget, Value: -100}},
	})
	require.NoError(t, err)
	require.Equal(t, 3, created.RoundsRemaining())

	for i := 0; i < 3; i++ {
		f.manager.OnRoundAdvanced(context.Background())
	}
	f.manager.ExpireDue(context.Background())

	assert.Equal(t, task.StatusExpired, created.Status())
	assert.Equal(t, 9900, f.manager.Scoreboard().Value(ledger.CounterBudget))
}

func TestIgnore_AdvisoryWithoutPenalty(t *testing.T) {
	f := newFixture(t)
	advisory, err := f.manager.CreateAdHoc(context.Background(), tasks.AdHocTask{
		Title:   "Check the forecast",
		Type:    task.TypeAdvisory,
		Impacts: []task.Impact{{Type: task.ImpactSatisfaction, Value: -20}},
	})
	require.NoError(t, err)
	demand, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)

	require.NoError(t, f.manager.Ignore(context.Background(), advisory.ID().String()))
	err = f.manager.Ignore(context.Background(), demand.ID().String())

	assert.Equal(t, task.StatusExpired, advisory.Status())
	assert.Equal(t, 50, f.satisfaction())
	var notIgnorable *tasks.ErrNotIgnorable
	assert.True(t, errors.As(err, &notIgnorable))
	assert.Equal(t, task.StatusActive, demand.Status())
}

func TestAdvanceRealTime_OnlyWhileRunning(t *testing.T) {
	f := newFixture(t)
	emergency, err := f.manager.CreateAdHoc(context.Background(), tasks.AdHocTask{
		Title:    "Roof collapse",
		Type:     task.TypeEmergency,
		Facility: f.shelter(t),
	})
	require.NoError(t, err)
	require.Equal(t, 180*time.Second, emergency.RealTimeRemaining())

	f.manager.AdvanceRealTime(context.Background(), 200*time.Second, false)
	assert.Empty(t, f.manager.ExpireDue(context.Background()))
	assert.Equal(t, 180*time.Second, emergency.RealTimeRemaining())

	f.manager.AdvanceRealTime(context.Background(), 200*time.Second, true)
	f.manager.ExpireDue(context.Background())
	assert.Equal(t, task.StatusIncomplete, emergency.Status())
}

func TestSelectChoice_WithoutDeliveryCompletesAndAppliesChoiceImpacts(t *testing.T) {
	// Arrange
	f := newFixture(t)
	created, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	f.drain()

	// Act
	result, err := f.manager.SelectChoice(context.Background(), created.ID().String(), 2)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, result.Status)
	assert.Equal(t, 9800, f.manager.Scoreboard().Value(ledger.CounterBudget))
	assert.Equal(t, 50, f.satisfaction())
	require.Len(t, f.entries.BySource(ledger.SourceChoice), 1)

	types := make([]events.Type, 0)
	for _, e := range f.drain() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []events.Type{events.CounterChanged, events.TaskCompleted}, types)

	_, err = f.manager.SelectChoice(context.Background(), created.ID().String(), 1)
	var invalid *task.ErrInvalidTransition
	assert.True(t, errors.As(err, &invalid))
}

func TestSelectChoice_QueuedDeliveryCompletesTaskWhenAllRecordsArrive(t *testing.T) {
	// Arrange
	f := newFixture(t)
	created, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)

	// Act
	result, err := f.manager.SelectChoice(context.Background(), created.ID().String(), 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.StatusInProgress, result.Status)
	assert.Equal(t, 2, result.Deliveries)
	assert.Equal(t, 30, result.Allocated)
	assert.Len(t, created.LinkedDeliveries(), 2)
	assert.Equal(t, 50, f.satisfaction())

	for i := 0; i < 10 && created.Status() == task.StatusInProgress; i++ {
		f.dispatcher.Tick(context.Background(), time.Second)
	}

	assert.Equal(t, task.StatusCompleted, created.Status())
	assert.Equal(t, 55, f.satisfaction())
	assert.Equal(t, 30, f.shelter(t).Amount(facility.CargoFoodPacks))
	assert.Equal(t, 0, f.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
}

func TestSelectChoice_RejectionKeepsTaskActiveAndEmitsNotice(t *testing.T) {
	// Arrange
	f := newFixture(t)
	for _, id := range []facility.ID{"K1", "K2"} {
		k, _ := f.world.Directory.Get(id)
		k.(*facility.Building).SetAmount(facility.CargoFoodPacks, 0)
	}
	created, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	f.drain()

	// Act
	_, err = f.manager.SelectChoice(context.Background(), created.ID().String(), 1)

	// Assert
	var rejected *delivery.ErrAllocationRejected
	require.True(t, errors.As(err, &rejected))
	assert.Equal(t, task.StatusActive, created.Status())
	_, chosen := created.ChosenChoiceID()
	assert.False(t, chosen)

	published := f.drain()
	require.Len(t, published, 1)
	assert.Equal(t, events.TaskNotice, published[0].Type)
	assert.Equal(t, "No food packs available at any kitchen", published[0].Message)

	// the player may still pick another choice
	result, err := f.manager.SelectChoice(context.Background(), created.ID().String(), 2)
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, result.Status)
}

func TestSelectChoice_CoveredNeedCompletesImmediately(t *testing.T) {
	f := newFixture(t)
	first, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	_, err = f.manager.SelectChoice(context.Background(), first.ID().String(), 1)
	require.NoError(t, err)
	second, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)

	result, err := f.manager.SelectChoice(context.Background(), second.ID().String(), 1)

	require.NoError(t, err)
	assert.True(t, result.Covered)
	assert.Equal(t, task.StatusCompleted, second.Status())
	assert.Empty(t, second.LinkedDeliveries())
	assert.Equal(t, 55, f.satisfaction())
}

func TestSelectChoice_ImmediateDeliveryMovesStockNow(t *testing.T) {
	f := newFixture(t)
	tpl := foodTemplate()
	tpl.Choices[0].Delivery.Immediate = true
	created, err := f.manager.CreateFromTemplate(context.Background(), tpl, f.shelter(t))
	require.NoError(t, err)

	result, err := f.manager.SelectChoice(context.Background(), created.ID().String(), 1)

	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, result.Status)
	assert.Equal(t, 30, result.Delivered)
	assert.Equal(t, 30, f.shelter(t).Amount(facility.CargoFoodPacks))
	assert.Empty(t, f.engine.Records())
}

func TestOnDeliveryFailed_MarksIncompleteCancelsSiblingsAndPenalises(t *testing.T) {
	// Arrange
	f := newFixture(t)
	created, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	_, err = f.manager.SelectChoice(context.Background(), created.ID().String(), 1)
	require.NoError(t, err)
	linked := created.LinkedDeliveries()
	require.Len(t, linked, 2)

	// Act
	require.NoError(t, f.engine.Fail(context.Background(), linked[0], "bridge washed out"))

	// Assert
	assert.Equal(t, task.StatusIncomplete, created.Status())
	sibling, ok := f.engine.Record(linked[1])
	require.True(t, ok)
	assert.Equal(t, domainDelivery.StatusCancelled, sibling.Status())
	assert.Equal(t, 0, f.engine.Ledger().ReservedOutgoing("K2", facility.CargoFoodPacks))
	assert.Equal(t, 0, f.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
	assert.Equal(t, 40, f.satisfaction())
	failures := f.entries.BySource(ledger.SourceDeliveryFailure)
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0].Description(), "bridge washed out")
}

func TestOnDeliveryFailed_ZeroPenaltyLeavesSatisfaction(t *testing.T) {
	// Arrange
	disabled := 0
	f := newFixtureWith(t, tasks.Options{DeliveryFailurePenalty: &disabled})
	created, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	_, err = f.manager.SelectChoice(context.Background(), created.ID().String(), 1)
	require.NoError(t, err)

	// Act
	require.NoError(t, f.engine.Fail(context.Background(), created.LinkedDeliveries()[0], "bridge washed out"))

	// Assert
	assert.Equal(t, task.StatusIncomplete, created.Status())
	assert.Equal(t, 0, created.DeliveryFailurePenalty())
	assert.Equal(t, 50, f.satisfaction())
	assert.Empty(t, f.entries.BySource(ledger.SourceDeliveryFailure))
}

func TestSelectChoice_RepairChoiceReturnsDamagedTruckToService(t *testing.T) {
	// Arrange
	f := newFixture(t)
	truck, ok := f.world.Roster.Get("T1")
	require.True(t, ok)
	truck.Damage()
	repair := &task.Template{
		ID:              "vehicle-repair",
		Title:           "Vehicle Repair",
		Type:            task.TypeDemand,
		Global:          true,
		RoundsRemaining: 2,
		Choices: []task.Choice{{
			ID:             1,
			Text:           "Pay the mechanic",
			Impacts:        []task.Impact{{Type: task.ImpactBudget, Value: -800}},
			RepairVehicles: 1,
		}},
	}
	created, err := f.manager.CreateFromTemplate(context.Background(), repair, nil)
	require.NoError(t, err)

	// Act
	result, err := f.manager.SelectChoice(context.Background(), created.ID().String(), 1)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, result.Status)
	assert.Equal(t, fleet.StatusIdle, truck.Status())
	assert.Equal(t, 9200, f.manager.Scoreboard().Value(ledger.CounterBudget))
}

func TestExpireDue_InProgressCancelsLinkedDeliveries(t *testing.T) {
	// Arrange
	f := newFixture(t)
	created, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	_, err = f.manager.SelectChoice(context.Background(), created.ID().String(), 1)
	require.NoError(t, err)

	// Act
	f.manager.OnRoundAdvanced(context.Background())
	f.manager.OnRoundAdvanced(context.Background())
	f.manager.ExpireDue(context.Background())

	// Assert
	assert.Equal(t, task.StatusIncomplete, created.Status())
	for _, id := range created.LinkedDeliveries() {
		r, ok := f.engine.Record(id)
		require.True(t, ok)
		assert.Equal(t, domainDelivery.StatusCancelled, r.Status())
	}
	assert.Equal(t, 0, f.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
	assert.Equal(t, 45, f.satisfaction())
	assert.Empty(t, f.entries.BySource(ledger.SourceDeliveryFailure))
}

func TestConfirm(t *testing.T) {
	f := newFixture(t)
	delivering, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	notice, err := f.manager.CreateAdHoc(context.Background(), tasks.AdHocTask{Title: "Road reopened", Type: task.TypeOther})
	require.NoError(t, err)

	err = f.manager.Confirm(context.Background(), delivering.ID().String())
	var required *tasks.ErrChoiceRequired
	assert.True(t, errors.As(err, &required))

	require.NoError(t, f.manager.Confirm(context.Background(), notice.ID().String()))
	assert.Equal(t, task.StatusCompleted, notice.Status())
	assert.Equal(t, 50, f.satisfaction())
}

func TestSetNumericInput_Clamps(t *testing.T) {
	f := newFixture(t)
	tpl := foodTemplate()
	tpl.NumericInputs = []task.NumericInput{{ID: 1, Label: "Volunteers", Min: 0, Max: 20, Step: 5}}
	created, err := f.manager.CreateFromTemplate(context.Background(), tpl, f.shelter(t))
	require.NoError(t, err)

	stored, err := f.manager.SetNumericInput(context.Background(), created.ID().String(), 1, 47)
	require.NoError(t, err)
	assert.Equal(t, 20, stored)

	stored, err = f.manager.SetNumericInput(context.Background(), created.ID().String(), 1, 13)
	require.NoError(t, err)
	assert.Equal(t, 10, stored)

	_, err = f.manager.SetNumericInput(context.Background(), created.ID().String(), 9, 1)
	var missing *task.ErrInputNotFound
	assert.True(t, errors.As(err, &missing))
}

func TestQueriesAndStats(t *testing.T) {
	f := newFixture(t)
	demand, err := f.manager.CreateFromTemplate(context.Background(), foodTemplate(), f.shelter(t))
	require.NoError(t, err)
	advisory, err := f.manager.CreateAdHoc(context.Background(), tasks.AdHocTask{Title: "Stock check", Type: task.TypeAdvisory})
	require.NoError(t, err)
	require.NoError(t, f.manager.Ignore(context.Background(), advisory.ID().String()))

	assert.Len(t, f.manager.ByType(task.TypeDemand), 1)
	assert.Len(t, f.manager.ByStatus(task.StatusExpired), 1)
	assert.Equal(t, []*task.Task{demand}, f.manager.Active())
	assert.Len(t, f.manager.Archived(), 1)

	_, err = f.manager.Get("missing")
	var notFound *task.ErrTaskNotFound
	assert.True(t, errors.As(err, &notFound))

	stats := f.manager.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.ByType[task.TypeAdvisory])
	assert.Equal(t, 1, stats.ByStatus[task.StatusActive])
}
