package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/application/mediator"
	"github.com/andrescamacho/reliefops-go/internal/application/tasks"
)

// SetNumericInputCommand stores a value for one of a task's number prompts
type SetNumericInputCommand struct {
	TaskID  string
	InputID int
	Value   int
}

// SetNumericInputResponse carries the stored (clamped) value
type SetNumericInputResponse struct {
	Value int
}

// SetNumericInputHandler handles the SetNumericInput command
type SetNumericInputHandler struct {
	manager *tasks.Manager
}

// NewSetNumericInputHandler creates a new SetNumericInputHandler
func NewSetNumericInputHandler(manager *tasks.Manager) *SetNumericInputHandler {
	return &SetNumericInputHandler{manager: manager}
}

// Handle executes the SetNumericInput command
func (h *SetNumericInputHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*SetNumericInputCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *SetNumericInputCommand")
	}

	value, err := h.manager.SetNumericInput(ctx, cmd.TaskID, cmd.InputID, cmd.Value)
	if err != nil {
		return nil, err
	}
	return &SetNumericInputResponse{Value: value}, nil
}
