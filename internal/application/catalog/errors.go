package catalog

import "fmt"

// ErrTemplateNotFound indicates no template has the ID
type ErrTemplateNotFound struct {
	ID string
}

func (e *ErrTemplateNotFound) Error() string {
	return fmt.Sprintf("task template not found: %s", e.ID)
}

// ErrDuplicateTemplate indicates two catalog entries share an ID
type ErrDuplicateTemplate struct {
	ID string
}

func (e *ErrDuplicateTemplate) Error() string {
	return fmt.Sprintf("duplicate task template id: %s", e.ID)
}
