package persistence

import (
	"context"

	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
)

// Archiver is an event observer that writes finished tasks and deliveries to the database
type Archiver struct {
	tasks      *GormTaskArchiveRepository
	deliveries *GormDeliveryHistoryRepository
	session    string
}

// NewArchiver creates an archiver for one session
func NewArchiver(tasks *GormTaskArchiveRepository, deliveries *GormDeliveryHistoryRepository, session string) *Archiver {
	return &Archiver{tasks: tasks, deliveries: deliveries, session: session}
}

// Notify implements events.Observer
func (a *Archiver) Notify(ctx context.Context, e events.Event) {
	var err error
	switch e.Type {
	case events.TaskCompleted, events.TaskExpired:
		if e.Task == nil {
			return
		}
		err = a.tasks.Save(ctx, ArchivedTask{
			Snapshot:      *e.Task,
			Session:       a.session,
			Message:       e.Message,
			FinishedRound: e.Round,
		})
	case events.DeliveryCompleted, events.DeliveryFailed:
		if e.Delivery == nil {
			return
		}
		err = a.deliveries.Save(ctx, DeliveryHistoryEntry{
			Snapshot: *e.Delivery,
			Session:  a.session,
			Round:    e.Round,
		})
	default:
		return
	}

	if err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Failed to archive event", map[string]interface{}{
			"event": string(e.Type),
			"error": err.Error(),
		})
	}
}
