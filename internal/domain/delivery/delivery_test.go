package delivery

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

var now = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newRecord(t *testing.T, src, dst facility.ID, qty int) *Record {
	t.Helper()
	r, err := NewRecord(src, dst, facility.CargoFoodPacks, qty, 3, "task-1", now, time.Minute)
	require.NoError(t, err)
	return r
}

func TestReservationLedger_ReserveAndRelease(t *testing.T) {
	// Arrange
	ledger := NewReservationLedger()
	a := newRecord(t, "K1", "S1", 10)
	b := newRecord(t, "K1", "S2", 5)

	// Act
	ledger.Reserve(a)
	ledger.Reserve(b)

	// Assert
	assert.Equal(t, 15, ledger.ReservedOutgoing("K1", facility.CargoFoodPacks))
	assert.Equal(t, 10, ledger.ReservedIncoming("S1", facility.CargoFoodPacks))
	assert.Equal(t, 5, ledger.ReservedIncoming("S2", facility.CargoFoodPacks))
	assert.Equal(t, 0, ledger.ReservedIncoming("K1", facility.CargoFoodPacks))
	assert.Equal(t, 0, ledger.ReservedOutgoing("K1", facility.CargoPopulation))

	require.NoError(t, ledger.Release(a))
	assert.Equal(t, 5, ledger.ReservedOutgoing("K1", facility.CargoFoodPacks))
	assert.Equal(t, 0, ledger.ReservedIncoming("S1", facility.CargoFoodPacks))
}

func TestReservationLedger_SplitRelease(t *testing.T) {
	ledger := NewReservationLedger()
	r := newRecord(t, "K1", "S1", 10)
	ledger.Reserve(r)

	require.NoError(t, ledger.ReleaseOutgoing(r))
	assert.Equal(t, 0, ledger.ReservedOutgoing("K1", facility.CargoFoodPacks))
	assert.Equal(t, 10, ledger.ReservedIncoming("S1", facility.CargoFoodPacks))

	require.NoError(t, ledger.ReleaseIncoming(r))
	assert.Equal(t, 0, ledger.ReservedIncoming("S1", facility.CargoFoodPacks))
}

func TestReservationLedger_OverReleaseClampsAndErrors(t *testing.T) {
	ledger := NewReservationLedger()
	r := newRecord(t, "K1", "S1", 10)

	err := ledger.Release(r)

	var negative *ErrNegativeReservation
	require.True(t, errors.As(err, &negative))
	assert.Equal(t, 10, negative.Released)
	assert.Equal(t, 0, ledger.ReservedOutgoing("K1", facility.CargoFoodPacks))
	assert.Equal(t, 0, ledger.ReservedIncoming("S1", facility.CargoFoodPacks))
}

func TestNewRecord_Validation(t *testing.T) {
	_, err := NewRecord("K1", "S1", facility.CargoFoodPacks, 0, 1, "", now, 0)
	assert.Error(t, err)

	_, err = NewRecord("", "S1", facility.CargoFoodPacks, 1, 1, "", now, 0)
	assert.Error(t, err)

	r, err := NewRecord("K1", "S1", facility.CargoFoodPacks, 1, 0, "", now, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultPriority, r.Priority)
	assert.Equal(t, StatusQueued, r.Status())
}

func TestRecord_Lifecycle(t *testing.T) {
	r := newRecord(t, "K1", "S1", 10)

	require.NoError(t, r.Assign("T1"))
	require.NoError(t, r.MarkPickedUp())
	require.NoError(t, r.Complete(8, now.Add(time.Minute)))

	snap := r.Snapshot()
	assert.Equal(t, "COMPLETED", snap.Status)
	assert.Equal(t, 8, snap.Delivered)
	assert.Equal(t, "T1", snap.VehicleID)
	require.NotNil(t, snap.FinishedAt)

	var transition *ErrInvalidRecordTransition
	assert.True(t, errors.As(r.Cancel("late", now), &transition))
}

func TestRecord_CannotPickUpBeforeAssignment(t *testing.T) {
	r := newRecord(t, "K1", "S1", 10)
	assert.Error(t, r.MarkPickedUp())

	require.NoError(t, r.Fail("no route", now))
	assert.Equal(t, StatusFailed, r.Status())
	assert.Equal(t, "no route", r.Reason())
}

func TestID_FromString(t *testing.T) {
	id := NewID()

	parsed, err := IDFromString(id.String())
	require.NoError(t, err)
	assert.True(t, parsed.Equals(id))

	_, err = IDFromString("not-a-uuid")
	assert.Error(t, err)
	assert.True(t, ID{}.IsZero())
}
