package catalog

import (
	"fmt"
	"strings"
)

// ErrInvalidCatalog lists every problem found in one catalog source
type ErrInvalidCatalog struct {
	Source   string
	Problems []string
}

func (e *ErrInvalidCatalog) Error() string {
	return fmt.Sprintf("invalid catalog %s: %s", e.Source, strings.Join(e.Problems, "; "))
}

// ErrInvalidScenario indicates a scenario file that cannot build a world
type ErrInvalidScenario struct {
	Source string
	Reason string
}

func (e *ErrInvalidScenario) Error() string {
	return fmt.Sprintf("invalid scenario %s: %s", e.Source, e.Reason)
}
