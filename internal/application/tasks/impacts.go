package tasks

import (
	"context"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// counterFor maps an impact onto the counter it changes. Other impact types are display-only.
func counterFor(kind task.ImpactType) (ledger.Counter, bool) {
	switch kind {
	case task.ImpactSatisfaction:
		return ledger.CounterSatisfaction, true
	case task.ImpactBudget:
		return ledger.CounterBudget, true
	case task.ImpactWorkforce:
		return ledger.CounterWorkforce, true
	default:
		return "", false
	}
}

// applyImpacts adds each impact's signed value to its counter
func (m *Manager) applyImpacts(ctx context.Context, t *task.Task, impacts []task.Impact, source ledger.Source) {
	for _, impact := range impacts {
		counter, ok := counterFor(impact.Type)
		if !ok {
			logging.LoggerFromContext(ctx).Log("DEBUG", "Impact is display-only", map[string]interface{}{
				"task_id": t.ID().String(),
				"impact":  impact.Describe(),
			})
			continue
		}
		m.applyCounter(ctx, t, counter, impact.Value, source, impact.Describe()+" ("+t.Title()+")")
	}
}

// applyChoice carries out a completed choice: its counter impacts, then any repairs
func (m *Manager) applyChoice(ctx context.Context, t *task.Task, choice task.Choice) {
	m.applyImpacts(ctx, t, choice.Impacts, ledger.SourceChoice)
	if choice.RepairVehicles <= 0 {
		return
	}

	logger := logging.LoggerFromContext(ctx)
	if m.fleet == nil {
		logger.Log("WARNING", "Repair chosen but no fleet is attached", map[string]interface{}{
			"task_id": t.ID().String(),
		})
		return
	}
	repaired := m.fleet.RepairDamaged(choice.RepairVehicles)
	logger.Log("INFO", "Vehicles repaired", map[string]interface{}{
		"task_id":   t.ID().String(),
		"requested": choice.RepairVehicles,
		"vehicles":  repaired,
	})
}

// applyCounter changes one counter, records the ledger entry and publishes the change
func (m *Manager) applyCounter(ctx context.Context, t *task.Task, counter ledger.Counter, delta int, source ledger.Source, description string) {
	logger := logging.LoggerFromContext(ctx)
	if delta == 0 {
		return
	}

	entry, err := m.scoreboard.Apply(counter, delta, source, description, t.ID().String(), m.currentRound())
	if err != nil {
		logger.Log("ERROR", "Failed to apply counter change", map[string]interface{}{
			"task_id": t.ID().String(),
			"counter": string(counter),
			"error":   err.Error(),
		})
		return
	}
	if entry == nil {
		return
	}

	if m.entries != nil {
		if err := m.entries.Create(ctx, entry); err != nil {
			logger.Log("ERROR", "Failed to persist ledger entry", map[string]interface{}{
				"entry_id": entry.ID().String(),
				"error":    err.Error(),
			})
		}
	}

	logger.Log("INFO", "Counter changed", map[string]interface{}{
		"task_id": t.ID().String(),
		"counter": string(counter),
		"source":  string(source),
		"amount":  entry.Amount(),
		"value":   entry.ValueAfter(),
	})

	if m.publisher != nil {
		m.publisher.Publish(events.Event{
			Type:      events.CounterChanged,
			Timestamp: entry.Timestamp(),
			Counter: &events.CounterChange{
				EntryID:     entry.ID().String(),
				Counter:     string(entry.Counter()),
				Source:      string(entry.Source()),
				Amount:      entry.Amount(),
				ValueBefore: entry.ValueBefore(),
				ValueAfter:  entry.ValueAfter(),
				TaskID:      entry.TaskID(),
				Description: entry.Description(),
			},
		})
	}
}
