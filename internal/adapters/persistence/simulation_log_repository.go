package persistence

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// SimulationLogEntry represents a log entry
type SimulationLogEntry struct {
	ID        int
	Session   string
	Timestamp time.Time
	Level     string
	Message   string
	Metadata  map[string]interface{}
}

// GormSimulationLogRepository persists simulation logs with time-windowed deduplication
type GormSimulationLogRepository struct {
	db    *gorm.DB
	clock shared.Clock

	dedupCache   map[string]time.Time // key: session+message, value: last logged time
	dedupMu      sync.Mutex
	dedupWindow  time.Duration
	dedupMaxSize int
}

// NewGormSimulationLogRepository creates a new simulation log repository.
// If clock is nil, uses RealClock.
func NewGormSimulationLogRepository(db *gorm.DB, clock shared.Clock, dedupWindow time.Duration) *GormSimulationLogRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormSimulationLogRepository{
		db:           db,
		clock:        clock,
		dedupCache:   make(map[string]time.Time),
		dedupWindow:  dedupWindow,
		dedupMaxSize: 10000,
	}
}

// Log writes a log entry unless the same message was logged for the session within the window
func (r *GormSimulationLogRepository) Log(ctx context.Context, session, message, level string, metadata map[string]interface{}) error {
	now := r.clock.Now()
	cacheKey := session + "|" + message

	r.dedupMu.Lock()
	if lastLogged, exists := r.dedupCache[cacheKey]; exists && now.Sub(lastLogged) < r.dedupWindow {
		r.dedupMu.Unlock()
		return nil
	}
	if len(r.dedupCache) >= r.dedupMaxSize {
		r.cleanupDedupCache(now)
	}
	r.dedupCache[cacheKey] = now
	r.dedupMu.Unlock()

	var metadataJSON string
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			metadataJSON = string(raw)
		}
	}

	return r.db.WithContext(ctx).Create(&SimulationLogModel{
		Session:   session,
		Timestamp: now,
		Level:     level,
		Message:   message,
		Metadata:  metadataJSON,
	}).Error
}

// cleanupDedupCache must be called while holding dedupMu
func (r *GormSimulationLogRepository) cleanupDedupCache(now time.Time) {
	cutoff := now.Add(-r.dedupWindow)
	for key, timestamp := range r.dedupCache {
		if timestamp.Before(cutoff) {
			delete(r.dedupCache, key)
		}
	}
}

// GetLogs retrieves logs newest first, with pagination. An empty session matches every session.
func (r *GormSimulationLogRepository) GetLogs(ctx context.Context, session string, limit, offset int, level *string, since *time.Time) ([]SimulationLogEntry, error) {
	var models []SimulationLogModel

	query := r.db.WithContext(ctx)
	if session != "" {
		query = query.Where("session = ?", session)
	}
	if level != nil {
		query = query.Where("level = ?", *level)
	}
	if since != nil {
		query = query.Where("timestamp > ?", *since)
	}
	query = query.Order("timestamp DESC").Order("id DESC").Limit(limit).Offset(offset)

	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	entries := make([]SimulationLogEntry, len(models))
	for i, model := range models {
		var metadata map[string]interface{}
		if model.Metadata != "" {
			if err := json.Unmarshal([]byte(model.Metadata), &metadata); err != nil {
				metadata = nil
			}
		}
		entries[i] = SimulationLogEntry{
			ID:        model.ID,
			Session:   model.Session,
			Timestamp: model.Timestamp,
			Level:     model.Level,
			Message:   model.Message,
			Metadata:  metadata,
		}
	}
	return entries, nil
}

// SessionLogger adapts the repository to logging.Logger for one session.
// Entries below minLevel are dropped before reaching the database.
type SessionLogger struct {
	repo     *GormSimulationLogRepository
	session  string
	minLevel string
}

// NewSessionLogger creates a logger writing to the repository
func NewSessionLogger(repo *GormSimulationLogRepository, session, minLevel string) *SessionLogger {
	return &SessionLogger{repo: repo, session: session, minLevel: minLevel}
}

// Log implements logging.Logger; persistence errors are swallowed
func (l *SessionLogger) Log(level, message string, metadata map[string]interface{}) {
	if !logging.Enabled(level, l.minLevel) {
		return
	}
	_ = l.repo.Log(context.Background(), l.session, message, strings.ToUpper(level), metadata)
}
