package tasks

import (
	"fmt"

	"github.com/andrescamacho/reliefops-go/internal/domain/task"
)

// ErrNotIgnorable indicates an attempt to ignore a task type that must be handled
type ErrNotIgnorable struct {
	TaskID task.ID
	Type   task.Type
}

func (e *ErrNotIgnorable) Error() string {
	return fmt.Sprintf("task %s of type %s cannot be ignored", e.TaskID, e.Type)
}

// ErrChoiceRequired indicates Confirm was used on a task whose choices move cargo
type ErrChoiceRequired struct {
	TaskID task.ID
}

func (e *ErrChoiceRequired) Error() string {
	return fmt.Sprintf("task %s needs a choice before it can be confirmed", e.TaskID)
}

// ErrNoDeliveryService indicates a delivery choice was made without a delivery engine
type ErrNoDeliveryService struct{}

func (e *ErrNoDeliveryService) Error() string {
	return "no delivery service configured"
}
