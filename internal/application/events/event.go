package events

import (
	"time"

	"github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// Type names an event on the simulation queue
type Type string

const (
	TaskCreated       Type = "task.created"
	TaskCompleted     Type = "task.completed"
	TaskExpired       Type = "task.expired"
	TaskNotice        Type = "task.notice"
	DeliveryCreated   Type = "delivery.created"
	DeliveryCompleted Type = "delivery.completed"
	DeliveryFailed    Type = "delivery.failed"
	RoundAdvanced     Type = "round.advanced"
	CounterChanged    Type = "counter.changed"
)

// Event is a notification for presentation and persistence adapters.
// Payloads are snapshots, so observers never hold live domain objects.
type Event struct {
	Type      Type               `json:"type"`
	Round     int                `json:"round"`
	Timestamp time.Time          `json:"timestamp"`
	Task      *task.Snapshot     `json:"task,omitempty"`
	Delivery  *delivery.Snapshot `json:"delivery,omitempty"`
	Counter   *CounterChange     `json:"counter,omitempty"`
	Message   string             `json:"message,omitempty"`
}

// CounterChange describes a satisfaction/budget/workforce change
type CounterChange struct {
	EntryID     string `json:"entry_id"`
	Counter     string `json:"counter"`
	Source      string `json:"source"`
	Amount      int    `json:"amount"`
	ValueBefore int    `json:"value_before"`
	ValueAfter  int    `json:"value_after"`
	TaskID      string `json:"task_id,omitempty"`
	Description string `json:"description,omitempty"`
}
