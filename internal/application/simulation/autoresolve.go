package simulation

import (
	"context"

	"github.com/andrescamacho/reliefops-go/internal/application/delivery"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	taskCmd "github.com/andrescamacho/reliefops-go/internal/application/tasks/commands"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// AutoResolver plays headless sessions: every round it answers the tasks still
// waiting for the player, through the same mediator commands a UI would send.
//
// Business Rules:
//  1. A task without choices is ignored when it is an advisory, confirmed otherwise
//  2. Otherwise the first choice that can be carried out is selected, in choice order;
//     a delivery choice counts if the allocation engine validates it or its need is already covered
//  3. A task none of whose choices can be carried out is left to expire
type AutoResolver struct {
	c *Context
}

// NewAutoResolver creates a resolver over the session
func NewAutoResolver(c *Context) *AutoResolver {
	return &AutoResolver{c: c}
}

// ResolveWaiting answers every ACTIVE task and returns how many it acted on
func (r *AutoResolver) ResolveWaiting(ctx context.Context) int {
	logger := logging.LoggerFromContext(ctx)
	acted := 0

	for _, t := range r.c.manager.ByStatus(task.StatusActive) {
		snap := r.c.manager.Snapshot(t)
		request := r.pick(ctx, snap)
		if request == nil {
			logger.Log("DEBUG", "No workable choice, leaving task", map[string]interface{}{
				"task_id": snap.ID,
				"title":   snap.Title,
			})
			continue
		}
		if _, err := r.c.mediator.Send(ctx, request); err != nil {
			logger.Log("WARNING", "Auto-resolution failed", map[string]interface{}{
				"task_id": snap.ID,
				"error":   err.Error(),
			})
			continue
		}
		acted++
	}
	if acted > 0 {
		r.c.queue.Drain(ctx)
	}
	return acted
}

func (r *AutoResolver) pick(ctx context.Context, snap task.Snapshot) mediator.Request {
	t, err := r.c.manager.Get(snap.ID)
	if err != nil {
		return nil
	}
	choices := t.Choices()
	if len(choices) == 0 {
		if task.Type(snap.Type) == task.TypeAdvisory {
			return &taskCmd.IgnoreTaskCommand{TaskID: snap.ID}
		}
		return &taskCmd.ConfirmTaskCommand{TaskID: snap.ID}
	}

	for _, choice := range choices {
		if !choice.RequestsDelivery() {
			return &taskCmd.SelectChoiceCommand{TaskID: snap.ID, ChoiceID: choice.ID}
		}
		check := r.c.engine.Validate(ctx, delivery.Request{
			Spec:                 *choice.Delivery,
			RequestingFacilityID: t.FacilityID(),
			TaskID:               snap.ID,
		})
		if check.OK || check.Covered {
			return &taskCmd.SelectChoiceCommand{TaskID: snap.ID, ChoiceID: choice.ID}
		}
	}
	return nil
}
