package entity

import (
	"errors"
	"fmt"

	"github.com/orbitforge/client/internal/core/ecs"
)

// Construction errors. They are returned by the Build calls and leave no
// engine resource behind.
var (
	ErrMissingID       = errors.New("entity id is required")
	ErrMissingShape    = errors.New("shape is required")
	ErrMissingMaterial = errors.New("material is required for a visual object")
	ErrInvalidMass     = errors.New("dynamic object requires a positive mass")
	ErrDuplicateID     = errors.New("entity id already in use")
	ErrBuilderConsumed = errors.New("builder already produced an object")
)

// ErrHierarchyCycle is returned when an attach would make an entity its own
// ancestor.
var ErrHierarchyCycle = errors.New("attachment would create a cycle")

// UseAfterDeleteError is the panic value raised when a deleted entity is
// used. It is a programmer error and is never returned.
type UseAfterDeleteError struct {
	ID   ecs.EntityID
	Name string
	Op   string
}

func (e *UseAfterDeleteError) Error() string {
	return fmt.Sprintf("entity %q (%#x): %s after delete", e.Name, uint64(e.ID), e.Op)
}
