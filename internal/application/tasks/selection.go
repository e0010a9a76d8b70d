package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/delivery"
	"github.com/andrescamacho/reliefops-go/internal/application/events"
	"github.com/andrescamacho/reliefops-go/internal/application/logging"
	domainDelivery "github.com/andrescamacho/reliefops-go/internal/domain/delivery"
	"github.com/andrescamacho/reliefops-go/internal/domain/ledger"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// SelectChoice applies the player's choice to an active task.
//
// Business Rules:
//  1. A choice without a delivery completes the task and applies the choice impacts
//  2. An immediate delivery moves cargo now; the task completes if anything arrived
//  3. A queued delivery links the created records and moves the task IN_PROGRESS;
//     choice impacts are applied when every record completes
//  4. If inbound deliveries already cover the need, the task completes at once
//  5. If no delivery could be created, the task stays ACTIVE, the choice is cleared
//     and a notice explains why
func (m *Manager) SelectChoice(ctx context.Context, taskID string, choiceID int) (*SelectionResult, error) {
	t, err := m.Get(taskID)
	if err != nil {
		return nil, err
	}

	result := &SelectionResult{}
	var notice string
	var completed bool

	err = m.withTask(t, func(t *task.Task) error {
		choice, err := t.Choose(choiceID)
		if err != nil {
			return err
		}

		if !choice.RequestsDelivery() {
			if err := t.Complete(m.clock.Now()); err != nil {
				return err
			}
			m.applyChoice(ctx, t, choice)
			completed = true
			return nil
		}

		if m.deliveries == nil {
			t.ClearChoice()
			return &ErrNoDeliveryService{}
		}
		req := delivery.Request{
			Spec:                 *choice.Delivery,
			RequestingFacilityID: t.FacilityID(),
			TaskID:               t.ID().String(),
			TimeLimit:            t.DeliveryTimeLimit(),
		}

		if choice.Delivery.Immediate {
			done, reason, err := m.executeImmediate(ctx, t, choice, req, result)
			notice, completed = reason, done
			return err
		}
		done, reason, err := m.executeQueued(ctx, t, choice, req, result)
		notice, completed = reason, done
		return err
	})

	if err != nil {
		var rejected *delivery.ErrAllocationRejected
		var full *delivery.ErrQueueFull
		if errors.As(err, &rejected) || errors.As(err, &full) {
			m.notice(t, notice)
		}
		return nil, err
	}

	m.read(t, func(t *task.Task) bool {
		result.Status = t.Status()
		return true
	})
	if notice != "" {
		m.notice(t, notice)
	}
	if completed {
		m.publishTask(events.TaskCompleted, t, "")
	}
	logging.LoggerFromContext(ctx).Log("INFO", "Choice selected", map[string]interface{}{
		"task_id":    taskID,
		"choice_id":  choiceID,
		"status":     string(result.Status),
		"deliveries": result.Deliveries,
	})
	return result, nil
}

// executeImmediate must be called holding the task lock
func (m *Manager) executeImmediate(ctx context.Context, t *task.Task, choice task.Choice, req delivery.Request, result *SelectionResult) (bool, string, error) {
	moved, err := m.deliveries.ExecuteImmediate(ctx, req)
	if err != nil {
		t.ClearChoice()
		return false, rejectionReason(err), err
	}
	result.Requested = moved.Requested
	result.Delivered = moved.Delivered
	result.Partial = moved.Delivered < moved.Requested

	if moved.Delivered == 0 {
		t.ClearChoice()
		return false, "Nothing could be moved", nil
	}
	if err := t.Complete(m.clock.Now()); err != nil {
		return false, "", err
	}
	m.applyChoice(ctx, t, choice)

	notice := ""
	if result.Partial {
		notice = fmt.Sprintf("Only %d of %d %s could be moved", moved.Delivered, moved.Requested, req.Spec.Cargo.Unit())
	}
	return true, notice, nil
}

// executeQueued must be called holding the task lock
func (m *Manager) executeQueued(ctx context.Context, t *task.Task, choice task.Choice, req delivery.Request, result *SelectionResult) (bool, string, error) {
	queued, err := m.deliveries.ExecuteQueued(ctx, req)
	if err != nil {
		t.ClearChoice()
		return false, rejectionReason(err), err
	}

	if queued.Covered {
		result.Covered = true
		if err := t.Complete(m.clock.Now()); err != nil {
			return false, "", err
		}
		m.applyChoice(ctx, t, choice)
		return true, fmt.Sprintf("%s already has enough %s on the way", t.FacilityName(), req.Spec.Cargo.Unit()), nil
	}

	ids := make([]domainDelivery.ID, 0, len(queued.Records))
	for _, r := range queued.Records {
		ids = append(ids, r.ID)
	}
	t.LinkDeliveries(ids...)
	if err := t.StartProgress(); err != nil {
		return false, "", err
	}

	result.Deliveries = len(ids)
	result.Requested = queued.Requested
	result.Allocated = queued.Allocated
	result.Partial = queued.Partial()

	notice := ""
	if result.Partial {
		notice = fmt.Sprintf("Only %d of %d %s could be arranged", queued.Allocated, queued.Requested, req.Spec.Cargo.Unit())
	}
	return false, notice, nil
}

func rejectionReason(err error) string {
	var rejected *delivery.ErrAllocationRejected
	if errors.As(err, &rejected) {
		return rejected.Reason
	}
	return err.Error()
}

// LinkDeliveries attaches externally created delivery records to a task
func (m *Manager) LinkDeliveries(ctx context.Context, taskID string, ids ...domainDelivery.ID) error {
	t, err := m.Get(taskID)
	if err != nil {
		return err
	}
	return m.withTask(t, func(t *task.Task) error {
		if t.IsTerminal() {
			return &task.ErrInvalidTransition{TaskID: t.ID(), From: t.Status(), To: task.StatusInProgress}
		}
		t.LinkDeliveries(ids...)
		if t.Status() == task.StatusActive {
			return t.StartProgress()
		}
		return nil
	})
}

// OnDeliveryCompleted completes the owning task once every linked record has completed
func (m *Manager) OnDeliveryCompleted(ctx context.Context, record *domainDelivery.Record) {
	t := m.owner(record)
	if t == nil || m.deliveries == nil {
		return
	}

	var completed bool
	err := m.withTask(t, func(t *task.Task) error {
		if t.Status() != task.StatusInProgress || !t.IsLinkedTo(record.ID) {
			return nil
		}
		for _, id := range t.LinkedDeliveries() {
			r, ok := m.deliveries.Record(id)
			if !ok || r.Status() != domainDelivery.StatusCompleted {
				return nil
			}
		}
		if err := t.Complete(m.clock.Now()); err != nil {
			return err
		}
		if choice, ok := t.ChosenChoice(); ok {
			m.applyChoice(ctx, t, choice)
		}
		completed = true
		return nil
	})
	if err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Failed to complete task after delivery", map[string]interface{}{
			"task_id":     t.ID().String(),
			"delivery_id": record.ID.String(),
			"error":       err.Error(),
		})
		return
	}
	if completed {
		m.publishTask(events.TaskCompleted, t, "")
	}
}

// OnDeliveryFailed marks the owning task INCOMPLETE, cancels its other records and
// subtracts the delivery failure penalty from satisfaction
func (m *Manager) OnDeliveryFailed(ctx context.Context, record *domainDelivery.Record) {
	t := m.owner(record)
	if t == nil {
		return
	}

	var failed bool
	err := m.withTask(t, func(t *task.Task) error {
		if t.IsTerminal() || !t.IsLinkedTo(record.ID) {
			return nil
		}
		if err := t.MarkIncomplete(m.clock.Now()); err != nil {
			return err
		}
		m.cancelLinked(ctx, t, "another delivery of the task failed")
		m.applyCounter(ctx, t, ledger.CounterSatisfaction, -t.DeliveryFailurePenalty(), ledger.SourceDeliveryFailure,
			fmt.Sprintf("Delivery failed: %s", record.Reason()))
		failed = true
		return nil
	})
	if err != nil {
		logging.LoggerFromContext(ctx).Log("ERROR", "Failed to fail task after delivery", map[string]interface{}{
			"task_id":     t.ID().String(),
			"delivery_id": record.ID.String(),
			"error":       err.Error(),
		})
		return
	}
	if failed {
		logging.LoggerFromContext(ctx).Log("WARNING", "Task incomplete after delivery failure", map[string]interface{}{
			"task_id": t.ID().String(),
			"title":   t.Title(),
			"reason":  record.Reason(),
		})
		m.publishTask(events.TaskExpired, t, "delivery failed: "+record.Reason())
	}
}

// DeliveryListener adapts the manager to the delivery engine's listener interface
func (m *Manager) DeliveryListener() delivery.Listener {
	return deliveryListener{m}
}

type deliveryListener struct {
	m *Manager
}

func (l deliveryListener) DeliveryCompleted(ctx context.Context, r *domainDelivery.Record) {
	l.m.OnDeliveryCompleted(ctx, r)
}

func (l deliveryListener) DeliveryFailed(ctx context.Context, r *domainDelivery.Record) {
	l.m.OnDeliveryFailed(ctx, r)
}

func (m *Manager) owner(record *domainDelivery.Record) *task.Task {
	if record == nil || record.TaskID == "" {
		return nil
	}
	t, err := m.Get(record.TaskID)
	if err != nil {
		return nil
	}
	return t
}

// cancelLinked must be called holding the task lock
func (m *Manager) cancelLinked(ctx context.Context, t *task.Task, reason string) {
	if m.deliveries == nil {
		return
	}
	for _, id := range t.LinkedDeliveries() {
		if err := m.deliveries.Cancel(ctx, id, reason); err != nil {
			logging.LoggerFromContext(ctx).Log("ERROR", "Failed to cancel linked delivery", map[string]interface{}{
				"task_id":     t.ID().String(),
				"delivery_id": id.String(),
				"error":       err.Error(),
			})
		}
	}
}
