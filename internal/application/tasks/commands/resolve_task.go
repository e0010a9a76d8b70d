package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
)

// ConfirmTaskCommand acknowledges a task that needs no delivery
type ConfirmTaskCommand struct {
	TaskID string
}

// IgnoreTaskCommand dismisses an advisory
type IgnoreTaskCommand struct {
	TaskID string
}

// ResolveTaskResponse carries the task's status after confirm or ignore
type ResolveTaskResponse struct {
	TaskID string
	Status string
}

// ResolveTaskHandler handles ConfirmTask and IgnoreTask
type ResolveTaskHandler struct {
	manager *tasks.Manager
}

// NewResolveTaskHandler creates a new ResolveTaskHandler
func NewResolveTaskHandler(manager *tasks.Manager) *ResolveTaskHandler {
	return &ResolveTaskHandler{manager: manager}
}

// Handle executes ConfirmTask or IgnoreTask
func (h *ResolveTaskHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	var taskID string
	var err error

	switch cmd := request.(type) {
	case *ConfirmTaskCommand:
		taskID = cmd.TaskID
		err = h.manager.Confirm(ctx, cmd.TaskID)
	case *IgnoreTaskCommand:
		taskID = cmd.TaskID
		err = h.manager.Ignore(ctx, cmd.TaskID)
	default:
		return nil, fmt.Errorf("invalid request type: expected *ConfirmTaskCommand or *IgnoreTaskCommand")
	}
	if err != nil {
		return nil, err
	}

	t, err := h.manager.Get(taskID)
	if err != nil {
		return nil, err
	}
	return &ResolveTaskResponse{TaskID: taskID, Status: string(t.Status())}, nil
}
