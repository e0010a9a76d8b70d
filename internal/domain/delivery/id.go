package delivery

import (
	"fmt"

	"github.com/google/uuid"
)

// ID is a value object representing a delivery record's unique identifier
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
		return ID{}, fmt.Errorf("delivery_id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return ID{}, fmt.Errorf("invalid delivery_id format: %w", err)
	}
	return ID{value: id}, nil
}

// MustIDFromString creates an ID from a string, panicking if invalid
func MustIDFromString(id string) ID {
	did, err := IDFromString(id)
	if err != nil {
		panic(err)
	}
	return did
}

func (d ID) String() string               { return d.value }
func (d ID) Equals(other ID) bool         { return d.value == other.value }
func (d ID) IsZero() bool                 { return d.value == "" }
func (d ID) MarshalText() ([]byte, error) { return []byte(d.value), nil }
