package task

import "fmt"

// ErrInvalidTransition indicates a status change the task lifecycle does not allow
type ErrInvalidTransition struct {
	TaskID ID
	From   Status
	To     Status
}

func (e *ErrInvalidTransition) Error() string {
	return fmt.Sprintf("cannot move task %s from %s to %s", e.TaskID, e.From, e.To)
}

// ErrChoiceNotFound indicates the task has no choice with the ID
type ErrChoiceNotFound struct {
	TaskID   ID
	ChoiceID int
}

func (e *ErrChoiceNotFound) Error() string {
	return fmt.Sprintf("task %s has no choice %d", e.TaskID, e.ChoiceID)
}

// ErrInputNotFound indicates the task has no numeric input with the ID
type ErrInputNotFound struct {
	TaskID  ID
	InputID int
}

func (e *ErrInputNotFound) Error() string {
	return fmt.Sprintf("task %s has no numeric input %d", e.TaskID, e.InputID)
}

// ErrInvalidTemplate represents authoring errors in a template
type ErrInvalidTemplate struct {
	TemplateID string
	Field      string
	Reason     string
}

func (e *ErrInvalidTemplate) Error() string {
	return fmt.Sprintf("invalid template %s: %s - %s", e.TemplateID, e.Field, e.Reason)
}

// ErrTaskNotFound indicates no task instance has the ID
type ErrTaskNotFound struct {
	ID string
}

func (e *ErrTaskNotFound) Error() string {
	return fmt.Sprintf("task not found: %s", e.ID)
}
