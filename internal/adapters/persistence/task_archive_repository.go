package persistence

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// ArchivedTask is a finished task as stored in the archive
type ArchivedTask struct {
	task.Snapshot
	Session       string
	Message       string
	FinishedRound int
}

// TaskArchiveQuery filters archived tasks. Empty fields match everything.
type TaskArchiveQuery struct {
	Session string
	Status  string
	Type    string
	Limit   int
	Offset  int
}

// GormTaskArchiveRepository stores finished tasks
type GormTaskArchiveRepository struct {
	db *gorm.DB
}

// NewGormTaskArchiveRepository creates a new task archive repository
func NewGormTaskArchiveRepository(db *gorm.DB) *GormTaskArchiveRepository {
	return &GormTaskArchiveRepository{db: db}
}

// Save upserts a finished task; a later save of the same task replaces the row
func (r *GormTaskArchiveRepository) Save(ctx context.Context, archived ArchivedTask) error {
	linked, err := json.Marshal(archived.LinkedDeliveries)
	if err != nil {
		return fmt.Errorf("failed to marshal linked deliveries: %w", err)
	}
	impacts, err := json.Marshal(archived.Impacts)
	if err != nil {
		return fmt.Errorf("failed to marshal impacts: %w", err)
	}

	model := &TaskArchiveModel{
		ID:               archived.ID,
		Session:          archived.Session,
		TemplateID:       archived.TemplateID,
		Title:            archived.Title,
		TaskType:         archived.Type,
		Status:           archived.Status,
		FacilityID:       archived.FacilityID,
		FacilityName:     archived.FacilityName,
		ChosenChoiceID:   archived.ChosenChoiceID,
		LinkedDeliveries: string(linked),
		Impacts:          string(impacts),
		Message:          archived.Message,
		CreatedRound:     archived.CreatedRound,
		FinishedRound:    archived.FinishedRound,
		CreatedAt:        archived.CreatedAt,
		FinishedAt:       archived.FinishedAt,
	}

	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(model).Error; err != nil {
		return fmt.Errorf("failed to archive task: %w", err)
	}
	return nil
}

// Find returns archived tasks, most recently finished first
func (r *GormTaskArchiveRepository) Find(ctx context.Context, q TaskArchiveQuery) ([]ArchivedTask, error) {
	query := r.db.WithContext(ctx)
	if q.Session != "" {
		query = query.Where("session = ?", q.Session)
	}
	if q.Status != "" {
		query = query.Where("status = ?", q.Status)
	}
	if q.Type != "" {
		query = query.Where("task_type = ?", q.Type)
	}
	query = query.Order("finished_round DESC").Order("finished_at DESC")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	if q.Offset > 0 {
		query = query.Offset(q.Offset)
	}

	var models []TaskArchiveModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find archived tasks: %w", err)
	}

	result := make([]ArchivedTask, len(models))
	for i, m := range models {
		result[i] = ArchivedTask{
			Snapshot: task.Snapshot{
				ID:               m.ID,
				TemplateID:       m.TemplateID,
				Title:            m.Title,
				Type:             m.TaskType,
				Status:           m.Status,
				FacilityID:       m.FacilityID,
				FacilityName:     m.FacilityName,
				ChosenChoiceID:   m.ChosenChoiceID,
				LinkedDeliveries: decodeStrings(m.LinkedDeliveries),
				Impacts:          decodeStrings(m.Impacts),
				CreatedRound:     m.CreatedRound,
				CreatedAt:        m.CreatedAt,
				FinishedAt:       m.FinishedAt,
			},
			Session:       m.Session,
			Message:       m.Message,
			FinishedRound: m.FinishedRound,
		}
	}
	return result, nil
}

// CountByStatus counts archived tasks of a session per status
func (r *GormTaskArchiveRepository) CountByStatus(ctx context.Context, session string) (map[string]int, error) {
	var rows []struct {
		Status string
		Count  int
	}
	query := r.db.WithContext(ctx).Model(&TaskArchiveModel{}).Select("status, COUNT(*) AS count")
	if session != "" {
		query = query.Where("session = ?", session)
	}
	if err := query.Group("status").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count archived tasks: %w", err)
	}

	counts := make(map[string]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func decodeStrings(raw string) []string {
	if raw == "" || raw == "null" {
		return nil
	}
	var values []string
	if err := json.Unmarshal([]byte(raw), &values); err != nil {
		return nil
	}
	return values
}
