package helpers

import (
	"context"
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
)

// MockEntryRepository is an in-memory implementation of ledger.EntryRepository for testing
type MockEntryRepository struct {
	mu        sync.Mutex
	Entries   []*ledger.Entry
	CreateErr error
}

// NewMockEntryRepository creates a new mock entry repository
func NewMockEntryRepository() *MockEntryRepository {
	return &MockEntryRepository{}
}

// Create stores an entry (in-memory only for testing)
func (m *MockEntryRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	if m.CreateErr != nil {
		return m.CreateErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Entries = append(m.Entries, entry)
	return nil
}

// Find filters stored entries, newest first
func (m *MockEntryRepository) Find(ctx context.Context, opts ledger.QueryOptions) ([]*ledger.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	filtered := make([]*ledger.Entry, 0)
	for i := len(m.Entries) - 1; i >= 0; i-- {
		e := m.Entries[i]
		if opts.Counter != nil && e.Counter() != *opts.Counter {
			continue
		}
		if opts.Source != nil && e.Source() != *opts.Source {
			continue
		}
		if opts.TaskID != nil && e.TaskID() != *opts.TaskID {
			continue
		}
		if opts.Since != nil && e.Timestamp().Before(*opts.Since) {
			continue
		}
		filtered = append(filtered, e)
	}

	if opts.Offset >= len(filtered) {
		return []*ledger.Entry{}, nil
	}
	filtered = filtered[opts.Offset:]
	if opts.Limit > 0 && opts.Limit < len(filtered) {
		filtered = filtered[:opts.Limit]
	}
	return filtered, nil
}

// BySource returns stored entries with the given source, oldest first
func (m *MockEntryRepository) BySource(source ledger.Source) []*ledger.Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*ledger.Entry
	for _, e := range m.Entries {
		if e.Source() == source {
			result = append(result, e)
		}
	}
	return result
}
