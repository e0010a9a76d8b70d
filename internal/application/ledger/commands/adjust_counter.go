package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
)

// AdjustCounterCommand changes a counter outside any task (scenario scripts, debug panel)
type AdjustCounterCommand struct {
	Counter     string
	Amount      int // Positive raises the counter, negative lowers it
	Description string
	Round       int
}

// AdjustCounterResponse represents the result of the adjustment
type AdjustCounterResponse struct {
	EntryID    string // Empty when the bounds absorbed the whole change
	Applied    int
	ValueAfter int
}

// AdjustCounterHandler handles the AdjustCounter command
type AdjustCounterHandler struct {
	scoreboard *ledger.Scoreboard
	entryRepo  ledger.EntryRepository
	publisher  events.Publisher
}

// NewAdjustCounterHandler creates a new AdjustCounterHandler. entryRepo and publisher may be nil.
func NewAdjustCounterHandler(
	scoreboard *ledger.Scoreboard,
	entryRepo ledger.EntryRepository,
	publisher events.Publisher,
) *AdjustCounterHandler {
	return &AdjustCounterHandler{
		scoreboard: scoreboard,
		entryRepo:  entryRepo,
		publisher:  publisher,
	}
}

// Handle executes the AdjustCounter command
func (h *AdjustCounterHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*AdjustCounterCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AdjustCounterCommand")
	}

	counter := ledger.Counter(cmd.Counter)
	if !counter.IsValid() {
		return nil, &ledger.ErrInvalidEntry{Field: "counter", Reason: "unknown counter " + cmd.Counter}
	}

	entry, err := h.scoreboard.Apply(counter, cmd.Amount, ledger.SourceManual, cmd.Description, "", cmd.Round)
	if err != nil {
		return nil, fmt.Errorf("failed to adjust %s: %w", counter, err)
	}
	if entry == nil {
		return &AdjustCounterResponse{ValueAfter: h.scoreboard.Value(counter)}, nil
	}

	if h.entryRepo != nil {
		if err := h.entryRepo.Create(ctx, entry); err != nil {
			return nil, fmt.Errorf("failed to persist ledger entry: %w", err)
		}
	}
	if h.publisher != nil {
		h.publisher.Publish(events.Event{
			Type:      events.CounterChanged,
			Timestamp: entry.Timestamp(),
			Counter: &events.CounterChange{
				EntryID:     entry.ID().String(),
				Counter:     string(entry.Counter()),
				Source:      string(entry.Source()),
				Amount:      entry.Amount(),
				ValueBefore: entry.ValueBefore(),
				ValueAfter:  entry.ValueAfter(),
				Description: entry.Description(),
			},
		})
	}

	return &AdjustCounterResponse{
		EntryID:    entry.ID().String(),
		Applied:    entry.Amount(),
		ValueAfter: entry.ValueAfter(),
	}, nil
}
