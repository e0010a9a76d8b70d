package facility

import "github.com/andrescamacho/reliefops-go/internal/domain/shared"

// Facility is the storage and status surface the task core needs from a building.
//
// Add and Remove are clamped: Add returns min(amount, space) and Remove returns
// min(amount, current). Callers must use the returned value, never the requested one.
type Facility interface {
	ID() ID
	Name() string
	Type() Type
	IsOperational() bool
	IsFlooded() bool
	Position() shared.Position
	Amount(cargo Cargo) int
	Capacity(cargo Cargo) int
	AvailableSpace(cargo Cargo) int
	Add(cargo Cargo, amount int) int
	Remove(cargo Cargo, amount int) int
}
