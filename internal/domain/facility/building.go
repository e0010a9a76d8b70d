package facility

import (
	"fmt"
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// Building is the in-memory Facility used by scenarios and tests.
//
// Thread-Safety:
// Storage is protected by a mutex because adapters read amounts while the
// simulation goroutine mutates them.
//
// Invariants:
// - 0 <= amount <= capacity for every cargo
// - a cargo with no configured capacity can never be stored
type Building struct {
	mu sync.RWMutex

	id          ID
	name        string
	kind        Type
	position    shared.Position
	operational bool
	flooded     bool
	capacity    map[Cargo]int
	amount      map[Cargo]int
}

// NewBuilding creates an operational, dry building with empty storage
func NewBuilding(id ID, name string, kind Type, position shared.Position, capacity map[Cargo]int) (*Building, error) {
	if id == "" {
		return nil, fmt.Errorf("facility id cannot be empty")
	}
	if name == "" {
		return nil, fmt.Errorf("facility name cannot be empty")
	}
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid facility type: %s", kind)
	}

	caps := make(map[Cargo]int, len(capacity))
	for cargo, limit := range capacity {
		if !cargo.IsValid() {
			return nil, fmt.Errorf("invalid cargo %s for facility %s", cargo, id)
		}
		if limit < 0 {
			return nil, fmt.Errorf("capacity for %s cannot be negative", cargo)
		}
		caps[cargo] = limit
	}

	return &Building{
		id:          id,
		name:        name,
		kind:        kind,
		position:    position,
		operational: true,
		capacity:    caps,
		amount:      make(map[Cargo]int),
	}, nil
}

// Getters

func (b *Building) ID() ID                    { return b.id }
func (b *Building) Name() string              { return b.name }
func (b *Building) Type() Type                { return b.kind }
func (b *Building) Position() shared.Position { return b.position }

func (b *Building) IsOperational() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.operational
}

func (b *Building) IsFlooded() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.flooded
}

// SetOperational marks the building as usable or not (e.g. under construction, damaged)
func (b *Building) SetOperational(operational bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.operational = operational
}

// SetFlooded marks the building as standing in flood water
func (b *Building) SetFlooded(flooded bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.flooded = flooded
}

// Amount returns units of cargo currently stored
func (b *Building) Amount(cargo Cargo) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.amount[cargo]
}

// Capacity returns the storage limit for cargo
func (b *Building) Capacity(cargo Cargo) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.capacity[cargo]
}

// AvailableSpace returns capacity minus current amount, never negative
func (b *Building) AvailableSpace(cargo Cargo) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.availableSpaceUnsafe(cargo)
}

func (b *Building) availableSpaceUnsafe(cargo Cargo) int {
	space := b.capacity[cargo] - b.amount[cargo]
	if space < 0 {
		return 0
	}
	return space
}

// Add stores up to amount units and returns how many were accepted
func (b *Building) Add(cargo Cargo, amount int) int {
	if amount <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	accepted := amount
	if space := b.availableSpaceUnsafe(cargo); accepted > space {
		accepted = space
	}
	b.amount[cargo] += accepted
	return accepted
}

// Remove takes up to amount units and returns how many were removed
func (b *Building) Remove(cargo Cargo, amount int) int {
	if amount <= 0 {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	removed := amount
	if current := b.amount[cargo]; removed > current {
		removed = current
	}
	b.amount[cargo] -= removed
	return removed
}

// SetAmount overwrites stored units, clamped to [0, capacity]. Used when seeding scenarios.
func (b *Building) SetAmount(cargo Cargo, amount int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if amount < 0 {
		amount = 0
	}
	if limit := b.capacity[cargo]; amount > limit {
		amount = limit
	}
	b.amount[cargo] = amount
}
