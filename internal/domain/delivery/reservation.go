package delivery

import (
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

type reservationKey struct {
	facility facility.ID
	cargo    facility.Cargo
}

// ReservationLedger tracks cargo committed to in-flight deliveries.
//
// Effective stock at a source is raw stock minus ReservedOutgoing; effective
// space at a destination is raw space minus ReservedIncoming. The allocation
// engine reads only effective values so a second request cannot double-book
// stock or space already promised to a queued delivery.
//
// Invariants:
// - counters never go negative; an over-release is clamped and reported
// - Reserve and Release of one record touch both sides in one critical section
type ReservationLedger struct {
	mu       sync.RWMutex
	outgoing map[reservationKey]int
	incoming map[reservationKey]int
}

// NewReservationLedger creates an empty ledger
func NewReservationLedger() *ReservationLedger {
	return &ReservationLedger{
		outgoing: make(map[reservationKey]int),
		incoming: make(map[reservationKey]int),
	}
}

// Reserve books the record's quantity outbound at its source and inbound at its destination
func (l *ReservationLedger) Reserve(r *Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.outgoing[reservationKey{r.SourceID, r.Cargo}] += r.Quantity
	l.incoming[reservationKey{r.DestinationID, r.Cargo}] += r.Quantity
}

// Release undoes both sides of Reserve
func (l *ReservationLedger) Release(r *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	errOut := l.decrementUnsafe(l.outgoing, reservationKey{r.SourceID, r.Cargo}, r.Quantity, "outgoing")
	errIn := l.decrementUnsafe(l.incoming, reservationKey{r.DestinationID, r.Cargo}, r.Quantity, "incoming")
	if errOut != nil {
		return errOut
	}
	return errIn
}

// ReleaseOutgoing undoes only the source side, once cargo has physically left it
func (l *ReservationLedger) ReleaseOutgoing(r *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decrementUnsafe(l.outgoing, reservationKey{r.SourceID, r.Cargo}, r.Quantity, "outgoing")
}

// ReleaseIncoming undoes only the destination side
func (l *ReservationLedger) ReleaseIncoming(r *Record) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.decrementUnsafe(l.incoming, reservationKey{r.DestinationID, r.Cargo}, r.Quantity, "incoming")
}

// ReservedOutgoing returns units promised to leave the facility
func (l *ReservationLedger) ReservedOutgoing(id facility.ID, cargo facility.Cargo) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.outgoing[reservationKey{id, cargo}]
}

// ReservedIncoming returns units promised to arrive at the facility
func (l *ReservationLedger) ReservedIncoming(id facility.ID, cargo facility.Cargo) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.incoming[reservationKey{id, cargo}]
}

// decrementUnsafe must be called while holding mu
func (l *ReservationLedger) decrementUnsafe(counters map[reservationKey]int, key reservationKey, amount int, side string) error {
	current := counters[key]
	if current < amount {
		delete(counters, key)
		return &ErrNegativeReservation{
			FacilityID: key.facility,
			Cargo:      key.cargo,
			Side:       side,
			Reserved:   current,
			Released:   amount,
		}
	}
	if current == amount {
		delete(counters, key)
		return nil
	}
	counters[key] = current - amount
	return nil
}
