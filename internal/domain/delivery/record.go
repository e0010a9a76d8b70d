package delivery

import (
	"fmt"
	"sync"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
)

// Status is the lifecycle state of a delivery record
type Status string

const (
	StatusQueued    Status = "QUEUED"
	StatusInTransit Status = "IN_TRANSIT"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// IsTerminal reports whether no further transitions are possible
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusCancelled
}

// DefaultPriority is used when a request does not set one
const DefaultPriority = 1

// Record is a single requested cargo movement between two facilities.
//
// Invariants:
// - SourceID != DestinationID unless the request explicitly allows self-delivery
// - Quantity > 0
// - status only moves forward: QUEUED -> IN_TRANSIT -> COMPLETED|FAILED, or QUEUED|IN_TRANSIT -> CANCELLED|FAILED
type Record struct {
	mu sync.RWMutex

	ID            ID
	SourceID      facility.ID
	DestinationID facility.ID
	Cargo         facility.Cargo
	Quantity      int
	Priority      int
	TaskID        string
	CreatedAt     time.Time
	TimeLimit     time.Duration

	status     Status
	vehicleID  string
	pickedUp   bool
	delivered  int
	finishedAt *time.Time
	reason     string
}

// NewRecord creates a queued record
func NewRecord(source, destination facility.ID, cargo facility.Cargo, quantity, priority int, taskID string, createdAt time.Time, timeLimit time.Duration) (*Record, error) {
	if source == "" || destination == "" {
		return nil, &ErrInvalidRecord{Field: "endpoint", Reason: "source and destination are required"}
	}
	if !cargo.IsValid() {
		return nil, &ErrInvalidRecord{Field: "cargo", Reason: fmt.Sprintf("unknown cargo %s", cargo)}
	}
	if quantity <= 0 {
		return nil, &ErrInvalidRecord{Field: "quantity", Reason: "quantity must be positive"}
	}
	if priority <= 0 {
		priority = DefaultPriority
	}

	return &Record{
		ID:            NewID(),
		SourceID:      source,
		DestinationID: destination,
		Cargo:         cargo,
		Quantity:      quantity,
		Priority:      priority,
		TaskID:        taskID,
		CreatedAt:     createdAt,
		TimeLimit:     timeLimit,
		status:        StatusQueued,
	}, nil
}

func (r *Record) Status() Status {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

func (r *Record) VehicleID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.vehicleID
}

// PickedUp reports whether cargo has left the source
func (r *Record) PickedUp() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.pickedUp
}

// Delivered returns the units actually accepted by the destination
func (r *Record) Delivered() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.delivered
}

func (r *Record) Reason() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.reason
}

// Assign attaches a vehicle and moves the record in transit
func (r *Record) Assign(vehicleID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusQueued {
		return &ErrInvalidRecordTransition{ID: r.ID, From: r.status, To: StatusInTransit}
	}
	r.vehicleID = vehicleID
	r.status = StatusInTransit
	return nil
}

// MarkPickedUp records that the cargo left the source
func (r *Record) MarkPickedUp() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status != StatusInTransit {
		return fmt.Errorf("cannot pick up delivery %s from %s state", r.ID, r.status)
	}
	r.pickedUp = true
	return nil
}

// Complete finishes the record with the units accepted at the destination
func (r *Record) Complete(delivered int, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status.IsTerminal() {
		return &ErrInvalidRecordTransition{ID: r.ID, From: r.status, To: StatusCompleted}
	}
	r.status = StatusCompleted
	r.delivered = delivered
	r.finishedAt = &at
	return nil
}

// Fail finishes the record unsuccessfully
func (r *Record) Fail(reason string, at time.Time) error {
	return r.finish(StatusFailed, reason, at)
}

// Cancel withdraws the record
func (r *Record) Cancel(reason string, at time.Time) error {
	return r.finish(StatusCancelled, reason, at)
}

func (r *Record) finish(status Status, reason string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.status.IsTerminal() {
		return &ErrInvalidRecordTransition{ID: r.ID, From: r.status, To: status}
	}
	r.status = status
	r.reason = reason
	r.finishedAt = &at
	return nil
}

// Snapshot is an immutable copy of a record for events, persistence and display
type Snapshot struct {
	ID            string     `json:"id"`
	SourceID      string     `json:"source_id"`
	DestinationID string     `json:"destination_id"`
	Cargo         string     `json:"cargo"`
	Quantity      int        `json:"quantity"`
	Delivered     int        `json:"delivered"`
	Priority      int        `json:"priority"`
	Status        string     `json:"status"`
	TaskID        string     `json:"task_id,omitempty"`
	VehicleID     string     `json:"vehicle_id,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	FinishedAt    *time.Time `json:"finished_at,omitempty"`
}

// Snapshot copies the record's current state
func (r *Record) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return Snapshot{
		ID:            r.ID.String(),
		SourceID:      string(r.SourceID),
		DestinationID: string(r.DestinationID),
		Cargo:         string(r.Cargo),
		Quantity:      r.Quantity,
		Delivered:     r.delivered,
		Priority:      r.Priority,
		Status:        string(r.status),
		TaskID:        r.TaskID,
		VehicleID:     r.vehicleID,
		Reason:        r.reason,
		CreatedAt:     r.CreatedAt,
		FinishedAt:    r.finishedAt,
	}
}
