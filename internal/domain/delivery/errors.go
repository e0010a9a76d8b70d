package delivery

import (
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

// ErrInvalidRecord represents validation errors for delivery records
type ErrInvalidRecord struct {
	Field  string
	Reason string
}

func (e *ErrInvalidRecord) Error() string {
	return fmt.Sprintf("invalid delivery: %s - %s", e.Field, e.Reason)
}

// ErrInvalidRecordTransition indicates a status change the lifecycle does not allow
type ErrInvalidRecordTransition struct {
	ID   ID
	From Status
	To   Status
}

func (e *ErrInvalidRecordTransition) Error() string {
	return fmt.Sprintf("cannot move delivery %s from %s to %s", e.ID, e.From, e.To)
}

// ErrNegativeReservation indicates a release larger than the outstanding reservation
type ErrNegativeReservation struct {
	FacilityID facility.ID
	Cargo      facility.Cargo
	Side       string
	Reserved   int
	Released   int
}

func (e *ErrNegativeReservation) Error() string {
	return fmt.Sprintf("reservation invariant violated: releasing %d %s %s at %s but only %d reserved",
		e.Released, e.Side, e.Cargo, e.FacilityID, e.Reserved)
}

// ErrRecordNotFound indicates no record exists with the ID
type ErrRecordNotFound struct {
	ID string
}

func (e *ErrRecordNotFound) Error() string {
	return fmt.Sprintf("delivery not found: %s", e.ID)
}
