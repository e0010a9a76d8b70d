package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// ListTasksQuery lists live and finished tasks, optionally filtered
type ListTasksQuery struct {
	Status *task.Status
	Type   *task.Type
}

// ListTasksResponse carries task snapshots in creation order
type ListTasksResponse struct {
	Tasks []task.Snapshot
	Stats tasks.Stats
}

// ListTasksHandler handles the ListTasks query
type ListTasksHandler struct {
	manager *tasks.Manager
}

// NewListTasksHandler creates a new ListTasksHandler
func NewListTasksHandler(manager *tasks.Manager) *ListTasksHandler {
	return &ListTasksHandler{manager: manager}
}

// Handle executes the ListTasks query
func (h *ListTasksHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	query, ok := request.(*ListTasksQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListTasksQuery")
	}

	var selected []*task.Task
	switch {
	case query.Status != nil:
		selected = h.manager.ByStatus(*query.Status)
	case query.Type != nil:
		selected = h.manager.ByType(*query.Type)
	default:
		selected = h.manager.All()
	}

	snapshots := make([]task.Snapshot, 0, len(selected))
	for _, t := range selected {
		if query.Type != nil && t.Type() != *query.Type {
			continue
		}
		snapshots = append(snapshots, h.manager.Snapshot(t))
	}
	return &ListTasksResponse{Tasks: snapshots, Stats: h.manager.Stats()}, nil
}
