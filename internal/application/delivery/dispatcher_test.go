package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/fleet"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

func queueFood(t *testing.T, w *world, qty int, limit time.Duration) *domainDelivery.Record {
	t.Helper()
	req := foodRequest("S1", qty)
	req.TimeLimit = limit
	result, err := w.engine.ExecuteQueued(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, result.Records, 1)
	return result.Records[0]
}

func TestDispatcher_CompletesDelivery(t *testing.T) {
	// Arrange
	w := foodWorld(t)
	listener := &recordingListener{}
	w.engine.AddListener(listener)
	d := NewDispatcher(w.engine, w.roster, w.dir)
	rec := queueFood(t, w, 20, 0)
	kitchen, _ := w.dir.Get("K1")
	shelter, _ := w.dir.Get("S1")
	truck, _ := w.roster.Get("T1")

	// Act: first tick assigns and picks up at the co-located kitchen
	d.Tick(context.Background(), time.Second)

	// Assert
	assert.Equal(t, domainDelivery.StatusInTransit, rec.Status())
	assert.True(t, rec.PickedUp())
	assert.Equal(t, 80, kitchen.Amount(facility.CargoFoodPacks))
	assert.Equal(t, 0, w.engine.Ledger().ReservedOutgoing("K1", facility.CargoFoodPacks))
	assert.Equal(t, 20, w.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
	assert.Equal(t, fleet.StatusInTransit, truck.Status())

	// Act: distance 5 at speed 5 takes one more second
	d.Tick(context.Background(), time.Second)

	assert.Equal(t, domainDelivery.StatusCompleted, rec.Status())
	assert.Equal(t, 20, rec.Delivered())
	assert.Equal(t, 20, shelter.Amount(facility.CargoFoodPacks))
	assert.Equal(t, 0, w.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
	assert.Equal(t, []domainDelivery.ID{rec.ID}, listener.completed)
	assert.Equal(t, fleet.StatusIdle, truck.Status())
	assert.Equal(t, shared.Position{X: 3, Y: 4}, truck.Position())
	assert.Zero(t, d.ActiveTrips())
}

func TestDispatcher_OversizedLoadNeedsSeveralTrips(t *testing.T) {
	w := newWorld(t, Options{})
	w.add(t, "K1", facility.TypeKitchen, shared.Position{}, facility.CargoFoodPacks, 200, 100)
	w.add(t, "S1", facility.TypeShelter, shared.Position{X: 3, Y: 4}, facility.CargoFoodPacks, 100, 0)
	w.truck(t, "T1", 10, 5, shared.Position{}, facility.CargoFoodPacks)
	d := NewDispatcher(w.engine, w.roster, w.dir)
	rec := queueFood(t, w, 20, 0)

	// pickup, then three one-second legs
	for i := 0; i < 3; i++ {
		d.Tick(context.Background(), time.Second)
	}
	assert.Equal(t, domainDelivery.StatusInTransit, rec.Status())

	d.Tick(context.Background(), time.Second)
	assert.Equal(t, domainDelivery.StatusCompleted, rec.Status())
	assert.Equal(t, 20, rec.Delivered())
}

func TestDispatcher_TimesOutWaitingRecords(t *testing.T) {
	// Arrange
	w := foodWorld(t)
	listener := &recordingListener{}
	w.engine.AddListener(listener)
	d := NewDispatcher(w.engine, w.roster, w.dir)
	truck, _ := w.roster.Get("T1")
	require.NoError(t, truck.SetStatus(fleet.StatusReturning))
	rec := queueFood(t, w, 20, 3*time.Second)

	// Act
	for i := 0; i < 3; i++ {
		d.Tick(context.Background(), time.Second)
	}
	assert.Equal(t, domainDelivery.StatusQueued, rec.Status())
	d.Tick(context.Background(), time.Second)

	// Assert
	assert.Equal(t, domainDelivery.StatusFailed, rec.Status())
	assert.Equal(t, "delivery timed out", rec.Reason())
	assert.Equal(t, []domainDelivery.ID{rec.ID}, listener.failed)
	assert.Equal(t, 0, w.engine.Ledger().ReservedOutgoing("K1", facility.CargoFoodPacks))
	assert.Equal(t, 0, w.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
}

func TestDispatcher_DamagedTruckReturnsCargo(t *testing.T) {
	w := foodWorld(t)
	d := NewDispatcher(w.engine, w.roster, w.dir)
	rec := queueFood(t, w, 20, 0)
	kitchen, _ := w.dir.Get("K1")
	truck, _ := w.roster.Get("T1")

	d.Tick(context.Background(), time.Second)
	require.True(t, rec.PickedUp())
	truck.Damage()
	d.Tick(context.Background(), time.Second)

	assert.Equal(t, domainDelivery.StatusFailed, rec.Status())
	assert.Equal(t, 100, kitchen.Amount(facility.CargoFoodPacks))
	assert.Equal(t, fleet.StatusDamaged, truck.Status())
	assert.Zero(t, d.ActiveTrips())
}

type capturedLog struct {
	level    string
	message  string
	metadata map[string]interface{}
}

type capturingLogger struct {
	entries []capturedLog
}

func (l *capturingLogger) Log(level, message string, metadata map[string]interface{}) {
	l.entries = append(l.entries, capturedLog{level: level, message: message, metadata: metadata})
}

func TestDispatcher_ReturnedCargoThatNoLongerFitsIsWrittenOff(t *testing.T) {
	// Arrange
	w := foodWorld(t)
	d := NewDispatcher(w.engine, w.roster, w.dir)
	rec := queueFood(t, w, 20, 0)
	kitchen, _ := w.dir.Get("K1")
	truck, _ := w.roster.Get("T1")
	logger := &capturingLogger{}
	ctx := logging.WithLogger(context.Background(), logger)

	d.Tick(ctx, time.Second)
	require.True(t, rec.PickedUp())
	// the kitchen restocks to capacity while the truck is away
	require.Equal(t, 120, kitchen.Add(facility.CargoFoodPacks, 120))
	truck.Damage()

	// Act
	d.Tick(ctx, time.Second)

	// Assert
	assert.Equal(t, domainDelivery.StatusFailed, rec.Status())
	assert.Equal(t, 200, kitchen.Amount(facility.CargoFoodPacks))
	assert.Equal(t, 20, w.engine.Stats().LostUnits)

	var warning *capturedLog
	for i := range logger.entries {
		if logger.entries[i].message == "Cargo lost returning to source" {
			warning = &logger.entries[i]
		}
	}
	require.NotNil(t, warning)
	assert.Equal(t, "WARNING", warning.level)
	assert.Equal(t, 20, warning.metadata["lost"])
	assert.Equal(t, 0, warning.metadata["returned"])
}

func TestDispatcher_CancelledTripReturnsCargoAndFreesTruck(t *testing.T) {
	w := foodWorld(t)
	d := NewDispatcher(w.engine, w.roster, w.dir)
	rec := queueFood(t, w, 20, 0)
	kitchen, _ := w.dir.Get("K1")
	truck, _ := w.roster.Get("T1")

	d.Tick(context.Background(), time.Second)
	require.NoError(t, w.engine.Cancel(context.Background(), rec.ID, "task expired"))
	d.Tick(context.Background(), time.Second)

	assert.Equal(t, domainDelivery.StatusCancelled, rec.Status())
	assert.Equal(t, 100, kitchen.Amount(facility.CargoFoodPacks))
	assert.Equal(t, fleet.StatusIdle, truck.Status())
	assert.Equal(t, 0, w.engine.Ledger().ReservedIncoming("S1", facility.CargoFoodPacks))
}

func TestDispatcher_HigherPriorityAssignedFirst(t *testing.T) {
	w := foodWorld(t)
	w.add(t, "S2", facility.TypeShelter, shared.Position{X: 1}, facility.CargoFoodPacks, 100, 0)
	d := NewDispatcher(w.engine, w.roster, w.dir)
	low := queueFood(t, w, 10, 0)
	req := foodRequest("S2", 10)
	req.Spec.Priority = 5
	high, err := w.engine.ExecuteQueued(context.Background(), req)
	require.NoError(t, err)

	d.Tick(context.Background(), time.Second)

	assert.Equal(t, domainDelivery.StatusInTransit, high.Records[0].Status())
	assert.Equal(t, domainDelivery.StatusQueued, low.Status())
}
