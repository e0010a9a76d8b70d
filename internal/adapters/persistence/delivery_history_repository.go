package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/reliefops-go/internal/domain/delivery"
)

// DeliveryHistoryEntry is a finished delivery record as stored in the history
type DeliveryHistoryEntry struct {
	delivery.Snapshot
	Session string
	Round   int
}

// DeliveryHistoryQuery filters the delivery history. Empty fields match everything.
type DeliveryHistoryQuery struct {
	Session string
	Status  string
	TaskID  string
	Limit   int
	Offset  int
}

// GormDeliveryHistoryRepository stores finished delivery records
type GormDeliveryHistoryRepository struct {
	db *gorm.DB
}

// NewGormDeliveryHistoryRepository creates a new delivery history repository
func NewGormDeliveryHistoryRepository(db *gorm.DB) *GormDeliveryHistoryRepository {
	return &GormDeliveryHistoryRepository{db: db}
}

// Save upserts a finished record
func (r *GormDeliveryHistoryRepository) Save(ctx context.Context, entry DeliveryHistoryEntry) error {
	model := &DeliveryHistoryModel{
		ID:            entry.ID,
		Session:       entry.Session,
		TaskID:        entry.TaskID,
		SourceID:      entry.SourceID,
		DestinationID: entry.DestinationID,
		Cargo:         entry.Cargo,
		Quantity:      entry.Quantity,
		Delivered:     entry.Delivered,
		Priority:      entry.Priority,
		Status:        entry.Status,
		VehicleID:     entry.VehicleID,
		Reason:        entry.Reason,
		Round:         entry.Round,
		CreatedAt:     entry.CreatedAt,
		FinishedAt:    entry.FinishedAt,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error; err != nil {
		return fmt.Errorf("failed to save delivery history: %w", err)
	}
	return nil
}

// Find returns finished records, newest first
func (r *GormDeliveryHistoryRepository) Find(ctx context.Context, q DeliveryHistoryQuery) ([]DeliveryHistoryEntry, error) {
	query := r.db.WithContext(ctx)
	if q.Session != "" {
		query = query.Where("session = ?", q.Session)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.TaskID != "" {
		query = query.Where("task_id = ?", q.TaskID)
	}
	query = query.Order("round DESC").Order("created_at DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var models []DeliveryHistoryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find delivery history: %w", err)
	}

	result := make([]DeliveryHistoryEntry, len(models))
	for i, m := range models {
		result[i] = DeliveryHistoryEntry{
			Snapshot: delivery.Snapshot{
				ID:            m.ID,
				SourceID:      m.SourceID,
				DestinationID: m.DestinationID,
				Cargo:         m.Cargo,
				Quantity:      m.Quantity,
				Delivered:     m.Delivered,
				Priority:      m.Priority,
				Status:        m.Status,
				TaskID:        m.TaskID,
				VehicleID:     m.VehicleID,
				Reason:        m.Reason,
				CreatedAt:     m.CreatedAt,
				FinishedAt:    m.FinishedAt,
			},
			Session: m.Session,
			Round:   m.Round,
		}
	}
	return result, nil
}
