package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
)

// ListEntriesQuery represents a query to retrieve counter changes
type ListEntriesQuery struct {
	Counter *string
	Source  *string
	TaskID  *string
	Since   *time.Time
	Limit   int
	Offset  int
}

// ListEntriesResponse represents the result of the query
type ListEntriesResponse struct {
	Entries []*EntryDTO
}

// EntryDTO represents a ledger entry data transfer object
type EntryDTO struct {
	ID          string
	Counter     string
	Source      string
	Amount      int
	ValueBefore int
	ValueAfter  int
	Description string
	TaskID      string
	Round       int
	Timestamp   time.Time
}

// ListEntriesHandler handles the ListEntries query
type ListEntriesHandler struct {
	entryRepo ledger.EntryRepository
}

// NewListEntriesHandler creates a new ListEntriesHandler
func NewListEntriesHandler(entryRepo ledger.EntryRepository) *ListEntriesHandler {
	return &ListEntriesHandler{entryRepo: entryRepo}
}

// Handle executes the ListEntries query
func (h *ListEntriesHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListEntriesQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListEntriesQuery")
	}

	opts, err := h.buildQueryOptions(query)
	if err != nil {
		return nil, err
	}

	entries, err := h.entryRepo.Find(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}

	dtos := make([]*EntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toDTO(e)
	}
	return &ListEntriesResponse{Entries: dtos}, nil
}

func (h *ListEntriesHandler) buildQueryOptions(query *ListEntriesQuery) (ledger.QueryOptions, error) {
	opts := ledger.DefaultQueryOptions()

	if query.Counter != nil {
		counter := ledger.Counter(*query.Counter)
		if !counter.IsValid() {
			return opts, fmt.Errorf("invalid counter filter: %s", *query.Counter)
		}
		opts.Counter = &counter
	}
	if query.Source != nil {
		source := ledger.Source(*query.Source)
		opts.Source = &source
	}
	opts.TaskID = query.TaskID
	opts.Since = query.Since

	if query.Limit > 0 {
		opts.Limit = query.Limit
	}
	if query.Offset > 0 {
		opts.Offset = query.Offset
	}
	return opts, nil
}

func toDTO(e *ledger.Entry) *EntryDTO {
	return &EntryDTO{
		ID:          e.ID().String(),
		Counter:     string(e.Counter()),
		Source:      string(e.Source()),
		Amount:      e.Amount(),
		ValueBefore: e.ValueBefore(),
		ValueAfter:  e.ValueAfter(),
		Description: e.Description(),
		TaskID:      e.TaskID(),
		Round:       e.Round(),
		Timestamp:   e.Timestamp(),
	}
}
