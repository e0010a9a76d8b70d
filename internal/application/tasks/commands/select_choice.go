package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
)

// SelectChoiceCommand picks one of a task's choices
type SelectChoiceCommand struct {
	TaskID   string
	ChoiceID int
}

// SelectChoiceResponse reports the outcome of the choice
type SelectChoiceResponse struct {
	Status     string
	Deliveries int
	Requested  int
	Allocated  int
	Delivered  int
	Partial    bool
	Covered    bool
}

// SelectChoiceHandler handles the SelectChoice command
type SelectChoiceHandler struct {
	manager *tasks.Manager
}

// NewSelectChoiceHandler creates a new SelectChoiceHandler
func NewSelectChoiceHandler(manager *tasks.Manager) *SelectChoiceHandler {
	return &SelectChoiceHandler{manager: manager}
}

// Handle executes the SelectChoice command
func (h *SelectChoiceHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SelectChoiceCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SelectChoiceCommand")
	}

	result, err := h.manager.SelectChoice(ctx, cmd.TaskID, cmd.ChoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to select choice %d: %w", cmd.ChoiceID, err)
	}

	return &SelectChoiceResponse{
		Status:     string(result.Status),
		Deliveries: result.Deliveries,
		Requested:  result.Requested,
		Allocated:  result.Allocated,
		Delivered:  result.Delivered,
		Partial:    result.Partial,
		Covered:    result.Covered,
	}, nil
}
