package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

type world struct {
	dir    *facility.Directory
	roster *fleet.Roster
	queue  *events.Queue
	engine *Engine
}

func newWorld(t *testing.T, opts Options) *world {
	t.Helper()
	w := &world{
		dir:    facility.NewDirectory(),
		roster: fleet.NewRoster(),
		queue:  events.NewQueue(),
	}
	clock := shared.NewMockClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	w.engine = NewEngine(w.dir, w.roster, domainDelivery.NewReservationLedger(), w.queue, clock, opts)
	return w
}

func (w *world) add(t *testing.T, id facility.ID, kind facility.Type, pos shared.Position, cargo facility.Cargo, capacity, amount int) *facility.Building {
	t.Helper()
	b, err := facility.NewBuilding(id, string(id)+" Site", kind, pos, map[facility.Cargo]int{cargo: capacity})
	require.NoError(t, err)
	b.SetAmount(cargo, amount)
	require.NoError(t, w.dir.Register(b))
	return b
}

func (w *world) truck(t *testing.T, id string, capacity int, speed float64, pos shared.Position, cargo ...facility.Cargo) *fleet.Truck {
	t.Helper()
	tr, err := fleet.NewTruck(id, "", cargo, capacity, speed, pos)
	require.NoError(t, err)
	require.NoError(t, w.roster.Add(tr))
	return tr
}

// relocationWorld: A holds 30 people; B is a full shelter, C a half-full shelter, D an empty motel
func relocationWorld(t *testing.T) *world {
	w := newWorld(t, Options{PreferShelters: true})
	w.add(t, "A", facility.TypeCommunity, shared.Position{}, facility.CargoPopulation, 40, 30)
	w.add(t, "B", facility.TypeShelter, shared.Position{X: 1}, facility.CargoPopulation, 20, 20)
	w.add(t, "C", facility.TypeShelter, shared.Position{X: 2}, facility.CargoPopulation, 20, 10)
	w.add(t, "D", facility.TypeMotel, shared.Position{X: 3}, facility.CargoPopulation, 20, 0)
	w.truck(t, "BUS-1", 30, 2, shared.Position{}, facility.CargoPopulation)
	return w
}

func relocationRequest(from facility.ID, qty int) Request {
	return Request{
		Spec: task.DeliverySpec{
			Cargo:         facility.CargoPopulation,
			QuantityMode:  task.QuantityFixed,
			Quantity:      qty,
			Source:        task.EndpointSelector{Strategy: task.StrategyRequestingFacility},
			Destination:   task.EndpointSelector{Strategy: task.StrategyAutoFind},
			MultiEndpoint: true,
			Priority:      3,
		},
		RequestingFacilityID: from,
		TaskID:               "task-relocate",
	}
}

func allocationsByDestination(records []*domainDelivery.Record) map[facility.ID]int {
	result := make(map[facility.ID]int)
	for _, r := range records {
		result[r.DestinationID] += r.Quantity
	}
	return result
}

func TestExecuteQueued_SplitsAcrossSheltersThenMotels(t *testing.T) {
	// Arrange
	w := relocationWorld(t)
	ledger := w.engine.Ledger()

	// Act
	result, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 25))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 25, result.Requested)
	assert.Equal(t, 25, result.Allocated)
	assert.False(t, result.Partial())
	assert.Equal(t, map[facility.ID]int{"C": 10, "D": 15}, allocationsByDestination(result.Records))

	assert.Equal(t, 10, ledger.ReservedIncoming("C", facility.CargoPopulation))
	assert.Equal(t, 15, ledger.ReservedIncoming("D", facility.CargoPopulation))
	assert.Equal(t, 0, ledger.ReservedIncoming("B", facility.CargoPopulation))
	assert.Equal(t, 25, ledger.ReservedOutgoing("A", facility.CargoPopulation))

	for _, r := range result.Records {
		assert.Equal(t, 3, r.Priority)
		assert.Equal(t, domainDelivery.StatusQueued, r.Status())
	}
	assert.Equal(t, 2, w.queue.Pending())
}

func TestExecuteQueued_SecondRequestSeesReservations(t *testing.T) {
	w := relocationWorld(t)
	w.add(t, "A2", facility.TypeCommunity, shared.Position{}, facility.CargoPopulation, 40, 10)

	_, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 25))
	require.NoError(t, err)

	second, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A2", 10))

	require.NoError(t, err)
	assert.Equal(t, map[facility.ID]int{"D": 5}, allocationsByDestination(second.Records))
	assert.True(t, second.Partial())
	assert.Equal(t, 20, w.engine.Ledger().ReservedIncoming("D", facility.CargoPopulation))
}

func TestExecuteQueued_RejectsWhenReservationsExhaustCapacity(t *testing.T) {
	w := relocationWorld(t)
	w.add(t, "A2", facility.TypeCommunity, shared.Position{}, facility.CargoPopulation, 40, 30)
	_, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 30))
	require.NoError(t, err)

	result := w.engine.Validate(context.Background(), relocationRequest("A2", 5))

	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "No space available")
}

func TestExecuteQueued_SingleEndpointUsesBestCandidateOnly(t *testing.T) {
	w := relocationWorld(t)
	req := relocationRequest("A", 25)
	req.Spec.MultiEndpoint = false

	result, err := w.engine.ExecuteQueued(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, map[facility.ID]int{"C": 10}, allocationsByDestination(result.Records))
}

func TestExecuteQueued_WithoutPreferenceSortsByCapacity(t *testing.T) {
	w := relocationWorld(t)
	w.engine.preferShelters = false

	result, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 25))

	require.NoError(t, err)
	assert.Equal(t, map[facility.ID]int{"D": 20, "C": 5}, allocationsByDestination(result.Records))
}

func TestExecuteQueued_TiesBreakByFacilityID(t *testing.T) {
	w := newWorld(t, Options{})
	w.add(t, "K2", facility.TypeKitchen, shared.Position{}, facility.CargoFoodPacks, 50, 20)
	w.add(t, "K1", facility.TypeKitchen, shared.Position{}, facility.CargoFoodPacks, 50, 20)
	w.add(t, "S1", facility.TypeShelter, shared.Position{}, facility.CargoFoodPacks, 100, 0)
	w.truck(t, "T1", 50, 1, shared.Position{}, facility.CargoFoodPacks)

	result, err := w.engine.ExecuteQueued(context.Background(), foodRequest("S1", 30))

	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, facility.ID("K1"), result.Records[0].SourceID)
	assert.Equal(t, 20, result.Records[0].Quantity)
	assert.Equal(t, facility.ID("K2"), result.Records[1].SourceID)
	assert.Equal(t, 10, result.Records[1].Quantity)
}

func foodRequest(dest facility.ID, qty int) Request {
	return Request{
		Spec: task.DeliverySpec{
			Cargo:         facility.CargoFoodPacks,
			Quantity:      qty,
			Source:        task.EndpointSelector{Strategy: task.StrategyByType, FacilityType: facility.TypeKitchen},
			Destination:   task.EndpointSelector{Strategy: task.StrategyRequestingFacility},
			MultiEndpoint: true,
			Priority:      3,
		},
		RequestingFacilityID: dest,
		TaskID:               "task-food",
	}
}

func foodWorld(t *testing.T) *world {
	w := newWorld(t, Options{})
	w.add(t, "K1", facility.TypeKitchen, shared.Position{}, facility.CargoFoodPacks, 200, 100)
	w.add(t, "S1", facility.TypeShelter, shared.Position{X: 3, Y: 4}, facility.CargoFoodPacks, 100, 0)
	w.truck(t, "T1", 50, 5, shared.Position{}, facility.CargoFoodPacks)
	return w
}

func TestValidate_AlreadyCovered(t *testing.T) {
	// Arrange
	w := foodWorld(t)
	_, err := w.engine.ExecuteQueued(context.Background(), foodRequest("S1", 30))
	require.NoError(t, err)

	// Act
	result := w.engine.Validate(context.Background(), foodRequest("S1", 30))
	queued, execErr := w.engine.ExecuteQueued(context.Background(), foodRequest("S1", 30))

	// Assert
	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "already covered")
	require.NoError(t, execErr)
	assert.True(t, queued.Covered)
	assert.Empty(t, queued.Records)
	assert.Len(t, w.engine.Records(), 1)
}

func TestValidate_NetsInboundAgainstLargerRequest(t *testing.T) {
	w := foodWorld(t)
	_, err := w.engine.ExecuteQueued(context.Background(), foodRequest("S1", 30))
	require.NoError(t, err)

	result, err := w.engine.ExecuteQueued(context.Background(), foodRequest("S1", 50))

	require.NoError(t, err)
	assert.Equal(t, 20, result.Requested)
	assert.Equal(t, 20, result.Allocated)
}

func TestExecuteQueued_PercentageShareCountsInbound(t *testing.T) {
	// Arrange
	w := foodWorld(t)
	half := foodRequest("S1", 0)
	half.Spec.QuantityMode = task.QuantityPercentageOfAvailable
	half.Spec.Percentage = 50
	_, err := w.engine.ExecuteQueued(context.Background(), foodRequest("S1", 40))
	require.NoError(t, err)

	// Act
	topUp, err := w.engine.ExecuteQueued(context.Background(), half)

	// Assert
	require.NoError(t, err)
	assert.False(t, topUp.Covered, "40 inbound is below half of the 100 free")
	assert.Equal(t, 10, topUp.Requested)

	covered, err := w.engine.ExecuteQueued(context.Background(), half)
	require.NoError(t, err)
	assert.True(t, covered.Covered)
	assert.Empty(t, covered.Records)
}

func TestValidate_NoUndamagedVehicle(t *testing.T) {
	w := foodWorld(t)
	truck, _ := w.roster.Get("T1")
	truck.Damage()

	result := w.engine.Validate(context.Background(), foodRequest("S1", 30))

	assert.False(t, result.OK)
	assert.Equal(t, "No undamaged vehicle available for food packs delivery", result.Reason)
}

func TestValidate_ImmediateModeNeedsNoVehicle(t *testing.T) {
	w := foodWorld(t)
	truck, _ := w.roster.Get("T1")
	truck.Damage()
	req := foodRequest("S1", 30)
	req.Spec.Immediate = true

	assert.True(t, w.engine.Validate(context.Background(), req).OK)
}

func TestValidate_ManualNameMustMatchExactly(t *testing.T) {
	w := foodWorld(t)
	req := foodRequest("", 10)
	req.Spec.Destination = task.EndpointSelector{Strategy: task.StrategyManualName, Name: "S1"}

	result := w.engine.Validate(context.Background(), req)

	assert.False(t, result.OK)
	assert.Equal(t, "Cannot find destination facility 'S1'", result.Reason)

	req.Spec.Destination.Name = "s1 site"
	assert.True(t, w.engine.Validate(context.Background(), req).OK)
}

func TestValidate_NoStockAnywhere(t *testing.T) {
	w := newWorld(t, Options{})
	w.add(t, "K1", facility.TypeKitchen, shared.Position{}, facility.CargoFoodPacks, 200, 0)
	w.add(t, "S1", facility.TypeShelter, shared.Position{}, facility.CargoFoodPacks, 100, 0)
	w.truck(t, "T1", 50, 5, shared.Position{}, facility.CargoFoodPacks)

	result := w.engine.Validate(context.Background(), foodRequest("S1", 10))

	assert.False(t, result.OK)
	assert.Equal(t, "No food packs available at any kitchen", result.Reason)
}

func TestValidate_RejectsSelfDelivery(t *testing.T) {
	w := foodWorld(t)
	req := foodRequest("S1", 10)
	req.Spec.Source = task.EndpointSelector{Strategy: task.StrategySpecificInstance, FacilityID: "S1"}

	result := w.engine.Validate(context.Background(), req)

	assert.False(t, result.OK)
	assert.Contains(t, result.Reason, "cannot deliver to itself")
}

func TestExecuteQueued_ExcludedTypesAreSkipped(t *testing.T) {
	w := relocationWorld(t)
	req := relocationRequest("A", 25)
	req.Spec.ExcludeTypes = []facility.Type{facility.TypeMotel}

	result, err := w.engine.ExecuteQueued(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, map[facility.ID]int{"C": 10}, allocationsByDestination(result.Records))
}

func TestExecuteQueued_QueueLimitTruncates(t *testing.T) {
	w := relocationWorld(t)
	w.engine.queueLimit = 1

	result, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 25))
	require.NoError(t, err)
	assert.Len(t, result.Records, 1)
	assert.Equal(t, 10, result.Allocated)

	_, err = w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 5))
	var full *ErrQueueFull
	assert.True(t, errors.As(err, &full))
}

func TestExecuteQueued_RejectionIsTyped(t *testing.T) {
	w := foodWorld(t)

	_, err := w.engine.ExecuteQueued(context.Background(), foodRequest("NOPE", 10))

	var rejected *ErrAllocationRejected
	require.True(t, errors.As(err, &rejected))
	assert.Contains(t, rejected.Reason, "Cannot find destination facility")
}

// stingyFacility accepts fewer units than it advertises
type stingyFacility struct {
	*facility.Building
	limit int
}

func (s *stingyFacility) Add(cargo facility.Cargo, amount int) int {
	return s.Building.Add(cargo, min(amount, s.limit))
}

func TestExecuteImmediate_ReturnsOverflowToSource(t *testing.T) {
	// Arrange
	w := newWorld(t, Options{})
	src := w.add(t, "A", facility.TypeCommunity, shared.Position{}, facility.CargoPopulation, 40, 30)
	motel, err := facility.NewBuilding("M1", "Roadside Motel", facility.TypeMotel, shared.Position{}, map[facility.Cargo]int{facility.CargoPopulation: 20})
	require.NoError(t, err)
	require.NoError(t, w.dir.Register(&stingyFacility{Building: motel, limit: 8}))
	req := relocationRequest("A", 12)
	req.Spec.Immediate = true

	// Act
	result, err := w.engine.ExecuteImmediate(context.Background(), req)

	// Assert
	require.NoError(t, err)
	require.Len(t, result.Transfers, 1)
	assert.Equal(t, Transfer{SourceID: "A", DestinationID: "M1", Sent: 12, Delivered: 8, Returned: 4}, result.Transfers[0])
	assert.Equal(t, 22, src.Amount(facility.CargoPopulation))
	assert.Equal(t, 8, motel.Amount(facility.CargoPopulation))
	assert.Empty(t, w.engine.Records())
}

func TestExecuteImmediate_MovesAcrossCandidates(t *testing.T) {
	w := relocationWorld(t)
	req := relocationRequest("A", 25)
	req.Spec.Immediate = true

	result, err := w.engine.ExecuteImmediate(context.Background(), req)

	require.NoError(t, err)
	assert.Equal(t, 25, result.Delivered)
	c, _ := w.dir.Get("C")
	d, _ := w.dir.Get("D")
	a, _ := w.dir.Get("A")
	assert.Equal(t, 20, c.Amount(facility.CargoPopulation))
	assert.Equal(t, 15, d.Amount(facility.CargoPopulation))
	assert.Equal(t, 5, a.Amount(facility.CargoPopulation))
}

type recordingListener struct {
	completed []domainDelivery.ID
	failed    []domainDelivery.ID
}

func (l *recordingListener) DeliveryCompleted(ctx context.Context, r *domainDelivery.Record) {
	l.completed = append(l.completed, r.ID)
}

func (l *recordingListener) DeliveryFailed(ctx context.Context, r *domainDelivery.Record) {
	l.failed = append(l.failed, r.ID)
}

func TestCancel_ReleasesReservationsWithoutNotifying(t *testing.T) {
	w := relocationWorld(t)
	listener := &recordingListener{}
	w.engine.AddListener(listener)
	result, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 25))
	require.NoError(t, err)

	for _, r := range result.Records {
		require.NoError(t, w.engine.Cancel(context.Background(), r.ID, "task expired"))
		require.NoError(t, w.engine.Cancel(context.Background(), r.ID, "again"))
	}

	ledger := w.engine.Ledger()
	assert.Equal(t, 0, ledger.ReservedOutgoing("A", facility.CargoPopulation))
	assert.Equal(t, 0, ledger.ReservedIncoming("C", facility.CargoPopulation))
	assert.Equal(t, 0, ledger.ReservedIncoming("D", facility.CargoPopulation))
	assert.Empty(t, listener.failed)
	assert.Equal(t, 2, w.engine.Stats().Cancelled)
}

func TestFail_NotifiesListenerAndReleases(t *testing.T) {
	w := foodWorld(t)
	listener := &recordingListener{}
	w.engine.AddListener(listener)
	result, err := w.engine.ExecuteQueued(context.Background(), foodRequest("S1", 30))
	require.NoError(t, err)
	id := result.Records[0].ID

	require.NoError(t, w.engine.Fail(context.Background(), id, "road washed out"))

	assert.Equal(t, []domainDelivery.ID{id}, listener.failed)
	assert.Equal(t, 0, w.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
	assert.Error(t, w.engine.Complete(context.Background(), id, 30))
}

func TestStats(t *testing.T) {
	w := relocationWorld(t)
	w.truck(t, "BUS-2", 10, 1, shared.Position{}, facility.CargoPopulation).Damage()
	_, err := w.engine.ExecuteQueued(context.Background(), relocationRequest("A", 25))
	require.NoError(t, err)

	s := w.engine.Stats()

	assert.Equal(t, 2, s.TotalVehicles)
	assert.Equal(t, 1, s.AvailableVehicles)
	assert.Equal(t, 1, s.DamagedVehicles)
	assert.Equal(t, 2, s.Queued)
}
