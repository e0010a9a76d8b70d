package facility

import (
	"sort"
	"strings"
	"sync"
)

// Directory indexes every facility of the session by ID
type Directory struct {
	mu   sync.RWMutex
	byID map[ID]Facility
}

// NewDirectory creates an empty directory
func NewDirectory() *Directory {
	return &Directory{byID: make(map[ID]Facility)}
}

// Register adds a facility; IDs must be unique
func (d *Directory) Register(f Facility) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.byID[f.ID()]; exists {
		return &ErrDuplicateFacility{ID: f.ID()}
	}
	d.byID[f.ID()] = f
	return nil
}

// Get returns the facility with the given ID
func (d *Directory) Get(id ID) (Facility, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	f, ok := d.byID[id]
	return f, ok
}

// FindByName resolves a display name, case-insensitively and exactly.
// Substring matching is intentionally not supported.
func (d *Directory) FindByName(name string) (Facility, error) {
	wanted := strings.TrimSpace(name)

	var matches []Facility
	for _, f := range d.All() {
		if strings.EqualFold(f.Name(), wanted) {
			matches = append(matches, f)
		}
	}

	switch len(matches) {
	case 0:
		return nil, &ErrFacilityNotFound{Key: name}
	case 1:
		return matches[0], nil
	default:
		return nil, &ErrAmbiguousName{Name: name, Matches: len(matches)}
	}
}

// All returns every facility ordered by ID
func (d *Directory) All() []Facility {
	d.mu.RLock()
	defer d.mu.RUnlock()

	result := make([]Facility, 0, len(d.byID))
	for _, f := range d.byID {
		result = append(result, f)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}

// OfType returns facilities of the given type ordered by ID, operational or not
func (d *Directory) OfType(kind Type) []Facility {
	var result []Facility
	for _, f := range d.All() {
		if f.Type() == kind {
			result = append(result, f)
		}
	}
	return result
}

// Operational returns operational facilities of the given type ordered by ID
func (d *Directory) Operational(kind Type) []Facility {
	var result []Facility
	for _, f := range d.OfType(kind) {
		if f.IsOperational() {
			result = append(result, f)
		}
	}
	return result
}

// Len returns the number of registered facilities
func (d *Directory) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.byID)
}
