package fleet

import (
	"fmt"
	"sync"

	"github.com/andrescamacho/reliefops-go/internal/domain/facility"
	"github.com/andrescamacho/reliefops-go/internal/domain/shared"
)

// Status is the operational state of a vehicle
type Status string

const (
	StatusIdle      Status = "IDLE"
	StatusLoading   Status = "LOADING"
	StatusInTransit Status = "IN_TRANSIT"
	StatusUnloading Status = "UNLOADING"
	StatusReturning Status = "RETURNING"
	StatusDamaged   Status = "DAMAGED"
)

// Vehicle is the read surface the allocation engine and triggers need
type Vehicle interface {
	ID() string
	Name() string
	AllowedCargo() []facility.Cargo
	Status() Status
	MaxCapacity() int
	Speed() float64
	Position() shared.Position
}

// CanCarry reports whether the vehicle is allowed to carry the cargo
func CanCarry(v Vehicle, cargo facility.Cargo) bool {
	for _, allowed := range v.AllowedCargo() {
		if allowed == cargo {
			return true
		}
	}
	return false
}

// Truck is the in-memory Vehicle used by scenarios and the dispatcher
type Truck struct {
	mu sync.RWMutex

	id       string
	name     string
	cargo    []facility.Cargo
	capacity int
	speed    float64
	status   Status
	position shared.Position
}

// NewTruck creates an idle truck
func NewTruck(id, name string, cargo []facility.Cargo, capacity int, speed float64, position shared.Position) (*Truck, error) {
	if id == "" {
		return nil, fmt.Errorf("vehicle id cannot be empty")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("vehicle %s capacity must be positive", id)
	}
	if speed <= 0 {
		return nil, fmt.Errorf("vehicle %s speed must be positive", id)
	}
	for _, c := range cargo {
		if !c.IsValid() {
			return nil, fmt.Errorf("vehicle %s: invalid cargo %s", id, c)
		}
	}
	if name == "" {
		name = id
	}

	allowed := make([]facility.Cargo, len(cargo))
	copy(allowed, cargo)

	return &Truck{
		id:       id,
		name:     name,
		cargo:    allowed,
		capacity: capacity,
		speed:    speed,
		status:   StatusIdle,
		position: position,
	}, nil
}

func (t *Truck) ID() string       { return t.id }
func (t *Truck) Name() string     { return t.name }
func (t *Truck) MaxCapacity() int { return t.capacity }
func (t *Truck) Speed() float64   { return t.speed }

func (t *Truck) AllowedCargo() []facility.Cargo {
	result := make([]facility.Cargo, len(t.cargo))
	copy(result, t.cargo)
	return result
}

func (t *Truck) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Truck) Position() shared.Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.position
}

// SetStatus moves the truck to a new status. A damaged truck stays damaged until Repair.
func (t *Truck) SetStatus(status Status) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status == StatusDamaged && status != StatusDamaged {
		return fmt.Errorf("vehicle %s is damaged", t.id)
	}
	t.status = status
	return nil
}

// MoveTo places the truck at a position
func (t *Truck) MoveTo(position shared.Position) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.position = position
}

// Damage marks the truck as damaged
func (t *Truck) Damage() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = StatusDamaged
}

// Repair returns a damaged truck to idle
func (t *Truck) Repair() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status == StatusDamaged {
		t.status = StatusIdle
	}
}
