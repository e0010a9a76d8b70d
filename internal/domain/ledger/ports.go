package ledger

import (
	"context"
	"time"
)

// EntryRepository defines persistence operations for ledger entries
type EntryRepository interface {
	// Create persists a new entry
	Create(ctx context.Context, entry *Entry) error

	// Find retrieves entries with optional filtering
	Find(ctx context.Context, opts QueryOptions) ([]*Entry, error)
}

// QueryOptions defines filtering and pagination options for entry queries
type QueryOptions struct {
	Counter *Counter
	Source  *Source
	TaskID  *string
	Since   *time.Time

	Limit  int
	Offset int
}

// DefaultQueryOptions returns default query options
func DefaultQueryOptions() QueryOptions {
	return QueryOptions{Limit: 50}
}
