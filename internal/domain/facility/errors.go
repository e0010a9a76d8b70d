package facility

import "fmt"

// ErrFacilityNotFound indicates no facility matched an ID or name lookup
type ErrFacilityNotFound struct {
	Key string
}

func (e *ErrFacilityNotFound) Error() string {
	return fmt.Sprintf("facility not found: %s", e.Key)
}

// ErrDuplicateFacility indicates a facility ID was registered twice
type ErrDuplicateFacility struct {
	ID ID
}

func (e *ErrDuplicateFacility) Error() string {
	return fmt.Sprintf("facility already registered: %s", e.ID)
}

// ErrAmbiguousName indicates a manual name lookup matched several facilities
type ErrAmbiguousName struct {
	Name    string
	Matches int
}

func (e *ErrAmbiguousName) Error() string {
	return fmt.Sprintf("facility name %q matches %d facilities", e.Name, e.Matches)
}
