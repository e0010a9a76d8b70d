package delivery

import (
	"context"
	"fmt"
	"time"

	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// Request asks the engine to move cargo for a task
type Request struct {
	Spec                 task.DeliverySpec
	RequestingFacilityID facility.ID
	TaskID               string
	TimeLimit            time.Duration
}

// ValidationResult explains whether a request can be fulfilled right now
type ValidationResult struct {
	OK     bool
	Reason string

	// Covered is set when inbound reservations already meet the need
	Covered bool
}

// Allocation is the quantity assigned to one candidate facility
type Allocation struct {
	SourceID      facility.ID
	DestinationID facility.ID
	Quantity      int
}

// QueuedResult describes the records created for a queued request
type QueuedResult struct {
	Records   []*domainDelivery.Record
	Requested int
	Allocated int

	// Covered is set when inbound reservations already satisfy the request
	Covered bool
}

// Partial reports whether less than requested was allocated
func (r *QueuedResult) Partial() bool {
	return !r.Covered && r.Allocated < r.Requested
}

// Transfer is one synchronous move performed in immediate mode
type Transfer struct {
	SourceID      facility.ID
	DestinationID facility.ID
	Sent          int
	Delivered     int
	Returned      int
}

// ImmediateResult describes the transfers performed for an immediate request
type ImmediateResult struct {
	Transfers []Transfer
	Requested int
	Delivered int
}

// Listener is notified when a record reaches a terminal state on its own
// (completed or failed, not cancelled by the caller)
type Listener interface {
	DeliveryCompleted(ctx context.Context, record *domainDelivery.Record)
	DeliveryFailed(ctx context.Context, record *domainDelivery.Record)
}

// Stats summarises vehicles and records
type Stats struct {
	TotalVehicles     int
	AvailableVehicles int
	BusyVehicles      int
	DamagedVehicles   int
	Queued            int
	InTransit         int
	Completed         int
	Failed            int
	Cancelled         int
	LostUnits         int
}

// ErrAllocationRejected is returned when a request fails validation
type ErrAllocationRejected struct {
	Reason string
}

func (e *ErrAllocationRejected) Error() string {
	return fmt.Sprintf("delivery rejected: %s", e.Reason)
}

// ErrQueueFull indicates the pending queue reached its limit
type ErrQueueFull struct {
	Limit int
}

func (e *ErrQueueFull) Error() string {
	return fmt.Sprintf("delivery queue is full (%d pending)", e.Limit)
}
