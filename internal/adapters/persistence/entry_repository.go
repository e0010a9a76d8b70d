package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
)

// GormEntryRepository implements ledger.EntryRepository using GORM.
// Entries are written under the repository's session; Find looks at that
// session only, or at every session when the repository was created without one.
type GormEntryRepository struct {
	db      *gorm.DB
	session string
}

// NewGormEntryRepository creates a new GORM ledger entry repository
func NewGormEntryRepository(db *gorm.DB, session string) *GormEntryRepository {
	return &GormEntryRepository{db: db, session: session}
}

// Create persists a new entry
func (r *GormEntryRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	if entry == nil {
		return fmt.Errorf("entry cannot be nil")
	}
	if err := entry.Validate(); err != nil {
		return err
	}

	model := r.entryToModel(entry)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return nil
}

// Find retrieves entries newest first with optional filtering
func (r *GormEntryRepository) Find(ctx context.Context, opts ledger.QueryOptions) ([]*ledger.Entry, error) {
	query := r.applyFilters(r.db.WithContext(ctx), opts).Order("timestamp DESC")

	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		query = query.Offset(opts.Offset)
	}

	var models []LedgerEntryModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find ledger entries: %w", err)
	}

	entries := make([]*ledger.Entry, 0, len(models))
	for i := range models {
		entry, err := r.modelToEntry(&models[i])
		if err != nil {
			return nil, fmt.Errorf("failed to convert ledger entry model: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// applyFilters applies query options to a GORM query
func (r *GormEntryRepository) applyFilters(query *gorm.DB, opts ledger.QueryOptions) *gorm.DB {
	if r.session != "" {
		query = query.Where("session = ?", r.session)
	}
	if opts.Counter != nil {
		query = query.Where("counter = ?", string(*opts.Counter))
	}
	if opts.Source != nil {
		query = query.Where("source = ?", string(*opts.Source))
	}
	if opts.TaskID != nil {
		query = query.Where("task_id = ?", *opts.TaskID)
	}
	if opts.Since != nil {
		query = query.Where("timestamp >= ?", *opts.Since)
	}
	return query
}

func (r *GormEntryRepository) modelToEntry(model *LedgerEntryModel) (*ledger.Entry, error) {
	id, err := ledger.EntryIDFromString(model.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid entry ID in database: %w", err)
	}
	counter := ledger.Counter(model.Counter)
	if !counter.IsValid() {
		return nil, &ledger.ErrInvalidEntry{Field: "counter", Reason: "unknown counter " + model.Counter}
	}

	return ledger.ReconstructEntry(
		id,
		counter,
		ledger.Source(model.Source),
		model.Amount,
		model.ValueBefore,
		model.ValueAfter,
		model.Description,
		model.TaskID,
		model.Round,
		model.Timestamp,
	), nil
}

func (r *GormEntryRepository) entryToModel(entry *ledger.Entry) *LedgerEntryModel {
	return &LedgerEntryModel{
		ID:          entry.ID().String(),
		Session:     r.session,
		Counter:     string(entry.Counter()),
		Source:      string(entry.Source()),
		Amount:      entry.Amount(),
		ValueBefore: entry.ValueBefore(),
		ValueAfter:  entry.ValueAfter(),
		Description: entry.Description(),
		TaskID:      entry.TaskID(),
		Round:       entry.Round(),
		Timestamp:   entry.Timestamp(),
	}
}
