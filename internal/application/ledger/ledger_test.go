package ledger_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/ledger/commands"
	"github.com/andrescamacho/reliefops-go/internal/application/ledger/queries"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/test/helpers"
)

func TestAdjustCounter_RecordsAndPublishes(t *testing.T) {
	// Arrange
	scoreboard := ledger.NewScoreboard(nil)
	repo := helpers.NewMockEntryRepository()
	queue := events.NewQueue()
	handler := commands.NewAdjustCounterHandler(scoreboard, repo, queue)

	// Act
	resp, err := handler.Handle(context.Background(), &commands.AdjustCounterCommand{
		Counter:     "SATISFACTION",
		Amount:      80,
		Description: "Community meeting",
		Round:       3,
	})

	// Assert
	require.NoError(t, err)
	adjusted := resp.(*commands.AdjustCounterResponse)
	assert.Equal(t, 50, adjusted.Applied)
	assert.Equal(t, 100, adjusted.ValueAfter)
	require.Len(t, repo.Entries, 1)
	assert.Equal(t, ledger.SourceManual, repo.Entries[0].Source())
	assert.Equal(t, 1, queue.Pending())
}

func TestAdjustCounter_AbsorbedChangeWritesNothing(t *testing.T) {
	scoreboard := ledger.NewScoreboard(nil)
	scoreboard.Set(ledger.CounterSatisfaction, 0)
	repo := helpers.NewMockEntryRepository()
	handler := commands.NewAdjustCounterHandler(scoreboard, repo, nil)

	resp, err := handler.Handle(context.Background(), &commands.AdjustCounterCommand{Counter: "SATISFACTION", Amount: -5})

	require.NoError(t, err)
	assert.Empty(t, resp.(*commands.AdjustCounterResponse).EntryID)
	assert.Empty(t, repo.Entries)
}

func TestAdjustCounter_UnknownCounter(t *testing.T) {
	handler := commands.NewAdjustCounterHandler(ledger.NewScoreboard(nil), nil, nil)

	_, err := handler.Handle(context.Background(), &commands.AdjustCounterCommand{Counter: "MORALE", Amount: 1})

	var invalid *ledger.ErrInvalidEntry
	assert.ErrorAs(t, err, &invalid)
}

func TestListEntries_FiltersByCounter(t *testing.T) {
	scoreboard := ledger.NewScoreboard(nil)
	repo := helpers.NewMockEntryRepository()
	adjust := commands.NewAdjustCounterHandler(scoreboard, repo, nil)
	for _, cmd := range []*commands.AdjustCounterCommand{
		{Counter: "BUDGET", Amount: -500},
		{Counter: "SATISFACTION", Amount: 5},
		{Counter: "BUDGET", Amount: 250},
	} {
		_, err := adjust.Handle(context.Background(), cmd)
		require.NoError(t, err)
	}
	list := queries.NewListEntriesHandler(repo)
	budget := "BUDGET"

	resp, err := list.Handle(context.Background(), &queries.ListEntriesQuery{Counter: &budget})

	require.NoError(t, err)
	entries := resp.(*queries.ListEntriesResponse).Entries
	require.Len(t, entries, 2)
	assert.Equal(t, 250, entries[0].Amount)
	assert.Equal(t, 9750, entries[0].ValueAfter)
}
