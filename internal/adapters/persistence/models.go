package persistence

import (
	"time"
)

// TaskArchiveModel represents the task_archive table: one row per finished task
type TaskArchiveModel struct {
	ID               string     `gorm:"column:id;primaryKey"`
	Session          string     `gorm:"column:session;not null;index"`
	TemplateID       string     `gorm:"column:template_id;not null"`
	Title            string     `gorm:"column:title;not null"`
	TaskType         string     `gorm:"column:task_type;not null;index"`
	Status           string     `gorm:"column:status;not null;index"`
	FacilityID       string     `gorm:"column:facility_id"`
	FacilityName     string     `gorm:"column:facility_name"`
	ChosenChoiceID   *int       `gorm:"column:chosen_choice_id"`
	LinkedDeliveries string     `gorm:"column:linked_deliveries;type:text"` // JSON array
	Impacts          string     `gorm:"column:impacts;type:text"`           // JSON array
	Message          string     `gorm:"column:message;type:text"`
	CreatedRound     int        `gorm:"column:created_round;not null"`
	FinishedRound    int        `gorm:"column:finished_round;not null"`
	CreatedAt        time.Time  `gorm:"column:created_at;not null"`
	FinishedAt       *time.Time `gorm:"column:finished_at"`
}

func (TaskArchiveModel) TableName() string {
	return "task_archive"
}

// DeliveryHistoryModel represents the delivery_history table: one row per finished record
type DeliveryHistoryModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	Session       string     `gorm:"column:session;not null;index"`
	TaskID        string     `gorm:"column:task_id;index"`
	SourceID      string     `gorm:"column:source_id;not null"`
	DestinationID string     `gorm:"column:destination_id;not null"`
	Cargo         string     `gorm:"column:cargo;not null"`
	Quantity      int        `gorm:"column:quantity;not null"`
	Delivered     int        `gorm:"column:delivered;not null;default:0"`
	Priority      int        `gorm:"column:priority;not null;default:1"`
	Status        string     `gorm:"column:status;not null;index"`
	VehicleID     string     `gorm:"column:vehicle_id"`
	Reason        string     `gorm:"column:reason;type:text"`
	Round         int        `gorm:"column:round;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null"`
	FinishedAt    *time.Time `gorm:"column:finished_at"`
}

func (DeliveryHistoryModel) TableName() string {
	return "delivery_history"
}

// LedgerEntryModel represents the ledger_entries table
type LedgerEntryModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	Session     string    `gorm:"column:session;not null;index"`
	Counter     string    `gorm:"column:counter;not null;index"`
	Source      string    `gorm:"column:source;not null"`
	Amount      int       `gorm:"column:amount;not null"`
	ValueBefore int       `gorm:"column:value_before;not null"`
	ValueAfter  int       `gorm:"column:value_after;not null"`
	Description string    `gorm:"column:description;type:text"`
	TaskID      string    `gorm:"column:task_id;index"`
	Round       int       `gorm:"column:round;not null"`
	Timestamp   time.Time `gorm:"column:timestamp;not null;index"`
}

func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// SimulationLogModel represents the simulation_logs table
type SimulationLogModel struct {
	ID        int       `gorm:"column:id;primaryKey;autoIncrement"`
	Session   string    `gorm:"column:session;not null;index"`
	Timestamp time.Time `gorm:"column:timestamp;not null"`
	Level     string    `gorm:"column:level;not null;default:'INFO'"`
	Message   string    `gorm:"column:message;type:text;not null"`
	Metadata  string    `gorm:"column:metadata;type:text"` // JSON stored as string
}

func (SimulationLogModel) TableName() string {
	return "simulation_logs"
}
