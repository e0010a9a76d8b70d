package task

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a value object representing a task instance's unique identifier
type ID struct {
	value string
}

// NewID creates a new ID with a generated UUID
func NewID() ID {
	return ID{value: uuid.New().String()}
}

// IDFromString creates an ID from an existing UUID string
func IDFromString(id string) (ID, error) {
	if id == "" {
		return ID{}, fmt.Errorf("task_id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return ID{}, fmt.Errorf("invalid task_id format: %w", err)
	}
	return ID{value: id}, nil
}

func (t ID) String() string       { return t.value }
func (t ID) Equals(other ID) bool { return t.value == other.value }
func (t ID) IsZero() bool         { return t.value == "" }
